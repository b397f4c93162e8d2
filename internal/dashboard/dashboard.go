// Package dashboard serves the operator console: a browser chat against the
// live router plus counters for the audit trail and knowledge backlog.
package dashboard

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/support-router/internal/audit"
	"github.com/ziadkadry99/support-router/internal/backlog"
	"github.com/ziadkadry99/support-router/internal/vectordb"
)

// statsWindow is how far back the audit counters look.
const statsWindow = 24 * time.Hour

// Dashboard provides the console page and its JSON endpoints. The audit and
// backlog stores are optional.
type Dashboard struct {
	policies     vectordb.VectorStore
	auditStore   *audit.Store
	backlogStore *backlog.Store
	now          func() time.Time
}

// New creates a new Dashboard.
func New(policies vectordb.VectorStore, auditStore *audit.Store, backlogStore *backlog.Store) *Dashboard {
	return &Dashboard{
		policies:     policies,
		auditStore:   auditStore,
		backlogStore: backlogStore,
		now:          time.Now,
	}
}

// RegisterRoutes mounts all dashboard routes onto the given router.
func (d *Dashboard) RegisterRoutes(r chi.Router) {
	r.Get("/", d.ServeIndex)
	r.Get("/api/dashboard/stats", d.handleStats)
	r.Get("/api/dashboard/recent", d.handleRecent)
}
