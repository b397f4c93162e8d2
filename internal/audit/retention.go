package audit

import (
	"context"
	"time"

	"github.com/ziadkadry99/support-router/internal/logger"
)

// Prune removes entries older than retention at now. A zero retention keeps
// everything.
func (s *Store) Prune(ctx context.Context, retention time.Duration, now time.Time) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	return s.DeleteBefore(ctx, now.Add(-retention))
}

// RunRetention prunes store every interval until ctx is cancelled. It always
// returns nil so it can run inside an errgroup.
func RunRetention(ctx context.Context, store *Store, retention, interval time.Duration, log *logger.Logger) error {
	if retention <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			removed, err := store.Prune(ctx, retention, now)
			if err != nil {
				log.Error("audit prune failed", "error", err)
				continue
			}
			if removed > 0 {
				log.Info("old audit entries pruned", "count", removed)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
