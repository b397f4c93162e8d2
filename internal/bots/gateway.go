package bots

import (
	"context"
	"sync"
	"time"
)

// MessageHandler processes incoming messages and produces responses.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg IncomingMessage) (*OutgoingMessage, error)
}

// dedupeWindow is how long a delivered event id is remembered. Slack
// retries unacknowledged events for a few minutes.
const dedupeWindow = 10 * time.Minute

// Gateway routes platform messages to a handler, dropping redelivered
// events so a retried webhook does not advance the conversation twice.
type Gateway struct {
	handler MessageHandler

	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

// NewGateway creates a new Gateway with the given message handler.
func NewGateway(handler MessageHandler) *Gateway {
	return &Gateway{handler: handler, seen: make(map[string]time.Time), now: time.Now}
}

// Process routes an incoming message through the handler. A duplicate
// delivery returns nil, nil.
func (g *Gateway) Process(ctx context.Context, msg IncomingMessage) (*OutgoingMessage, error) {
	if msg.EventID != "" && g.duplicate(string(msg.Platform)+":"+msg.EventID) {
		return nil, nil
	}
	return g.handler.HandleMessage(ctx, msg)
}

func (g *Gateway) duplicate(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, at := range g.seen {
		if now.Sub(at) > dedupeWindow {
			delete(g.seen, k)
		}
	}
	if _, ok := g.seen[key]; ok {
		return true
	}
	g.seen[key] = now
	return false
}
