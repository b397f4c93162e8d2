package bots

import (
	"context"
	"errors"
	"fmt"

	"github.com/ziadkadry99/support-router/internal/orchestrator"
)

// Router is the part of the orchestrator the bots need.
type Router interface {
	Handle(ctx context.Context, msg orchestrator.Message) (*orchestrator.Reply, error)
}

// Processor turns platform messages into orchestrator turns. Each platform
// user gets their own session, keyed "platform:user".
type Processor struct {
	router Router
}

// NewProcessor creates a new message processor.
func NewProcessor(router Router) *Processor {
	return &Processor{router: router}
}

// HandleMessage runs one turn and wraps the answer for the platform.
func (p *Processor) HandleMessage(ctx context.Context, msg IncomingMessage) (*OutgoingMessage, error) {
	out := &OutgoingMessage{ChannelID: msg.ChannelID, ThreadID: msg.ThreadID}

	reply, err := p.router.Handle(ctx, orchestrator.Message{
		UserID: SessionKey(msg.Platform, msg.UserID),
		Text:   msg.Text,
	})
	switch {
	case errors.Is(err, orchestrator.ErrMissingUserID):
		return nil, fmt.Errorf("message from %s has no user id", msg.Platform)
	case errors.Is(err, orchestrator.ErrMessageTooLong):
		out.Text = "That message is a bit long for me 😅. Could you shorten it?"
		return out, nil
	case err != nil:
		return nil, err
	}

	out.Text = reply.Answer
	return out, nil
}

// SessionKey is the session id used for a platform user.
func SessionKey(platform Platform, userID string) string {
	if userID == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", platform, userID)
}
