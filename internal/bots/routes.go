package bots

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the bot webhook endpoints on the given router.
func RegisterRoutes(r chi.Router, slack *SlackHandler, teams *TeamsHandler) {
	r.Post("/api/bots/slack/events", slack.HandleEvent)
	r.Post("/api/bots/teams/activity", teams.HandleActivity)
}
