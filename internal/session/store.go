package session

import (
	"context"
	"time"
)

// Store keeps sessions between turns. Absence is never an error: Get
// returns a fresh initial session for unknown or expired ids. Concurrent
// writes to the same id are last-write-wins.
type Store interface {
	// Get returns a copy of the session for id, or a new one.
	Get(ctx context.Context, id string) (*Session, error)
	// Put saves s and restarts its time-to-live.
	Put(ctx context.Context, s *Session) error
	// Delete removes the session for id.
	Delete(ctx context.Context, id string) error
	// Sweep purges sessions expired at now and returns how many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
}
