package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/ziadkadry99/support-router/internal/audit"
	"github.com/ziadkadry99/support-router/internal/backlog"
)

// statsResponse is the JSON response for the stats endpoint.
type statsResponse struct {
	PolicyPassages int                  `json:"policy_passages"`
	OpenQuestions  int                  `json:"open_questions"`
	AuditEnabled   bool                 `json:"audit_enabled"`
	Last24h        map[audit.Action]int `json:"last_24h"`
}

// recentResponse is the JSON response for the recent activity endpoint.
type recentResponse struct {
	Questions []backlog.Question `json:"questions"`
	Audit     []audit.Entry      `json:"audit"`
}

var countedActions = []audit.Action{
	audit.ActionVerificationStarted,
	audit.ActionVerificationSucceeded,
	audit.ActionVerificationFailed,
	audit.ActionVerificationLocked,
	audit.ActionSessionReset,
}

func (d *Dashboard) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats := statsResponse{
		AuditEnabled: d.auditStore != nil,
		Last24h:      map[audit.Action]int{},
	}
	if d.policies != nil {
		stats.PolicyPassages = d.policies.Count()
	}

	if d.backlogStore != nil {
		n, err := d.backlogStore.OpenCount(ctx)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		stats.OpenQuestions = n
	}

	if d.auditStore != nil {
		since := d.now().Add(-statsWindow)
		for _, action := range countedActions {
			entries, err := d.auditStore.Query(ctx, audit.QueryFilter{Action: action, Since: &since})
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			stats.Last24h[action] = len(entries)
		}
	}

	writeJSON(w, http.StatusOK, stats)
}

func (d *Dashboard) handleRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	questions := []backlog.Question{}
	if d.backlogStore != nil {
		qs, err := d.backlogStore.List(ctx, backlog.ListFilter{Status: backlog.StatusOpen, Limit: 10})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		questions = append(questions, qs...)
	}

	entries := []audit.Entry{}
	if d.auditStore != nil {
		es, err := d.auditStore.Query(ctx, audit.QueryFilter{Limit: 10})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		entries = append(entries, es...)
	}

	writeJSON(w, http.StatusOK, recentResponse{
		Questions: questions,
		Audit:     entries,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
