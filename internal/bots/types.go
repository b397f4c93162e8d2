// Package bots adapts chat-platform webhooks to the support router.
package bots

// Platform identifies the messaging platform.
type Platform string

const (
	PlatformSlack Platform = "slack"
	PlatformTeams Platform = "teams"
)

// IncomingMessage represents a message received from any platform.
type IncomingMessage struct {
	Platform  Platform
	ChannelID string
	UserID    string
	UserName  string
	Text      string
	ThreadID  string
	// EventID identifies the delivery so platform retries can be dropped.
	EventID string
}

// OutgoingMessage represents a response to send back.
type OutgoingMessage struct {
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
	ThreadID  string `json:"thread_id,omitempty"`
}
