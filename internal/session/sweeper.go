package session

import (
	"context"
	"time"

	"github.com/ziadkadry99/support-router/internal/logger"
)

// RunSweeper purges expired sessions from store every interval until ctx
// is cancelled. It always returns nil so it can run inside an errgroup.
func RunSweeper(ctx context.Context, store Store, interval time.Duration, log *logger.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Info("session sweeper started", "interval", interval)

	for {
		select {
		case now := <-ticker.C:
			removed, err := store.Sweep(ctx, now)
			if err != nil {
				log.Error("session sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				log.Debug("expired sessions purged", "count", removed)
			}
		case <-ctx.Done():
			log.Info("session sweeper stopped", "reason", ctx.Err())
			return nil
		}
	}
}
