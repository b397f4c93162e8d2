// Package responder turns a routed customer message into a user-facing answer.
package responder

import (
	"context"

	"github.com/ziadkadry99/support-router/internal/intent"
	"github.com/ziadkadry99/support-router/internal/orders"
	"github.com/ziadkadry99/support-router/internal/session"
)

// Request is everything a responder may use to answer one message.
type Request struct {
	Text   string
	Intent intent.Intent
	// OrderID is the resolved order under discussion. It is always one of
	// KnownOrderIDs, or empty when no order could be resolved.
	OrderID       string
	KnownOrderIDs []string
	History       []session.Turn
}

// Response is a responder's answer. Sources and Order are optional.
type Response struct {
	Answer  string
	Sources []string
	Order   *orders.Order
}

// Responder answers one category of intents. An error means the responder
// could not produce any answer; expected conditions such as a missing order
// are answered in text instead.
type Responder interface {
	Respond(ctx context.Context, req Request) (*Response, error)
}
