// Package chat exposes the orchestrator over HTTP and WebSocket.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/support-router/internal/logger"
	"github.com/ziadkadry99/support-router/internal/orchestrator"
	"github.com/ziadkadry99/support-router/internal/session"
)

// maxBodyBytes caps a chat request body. The message length limit itself is
// enforced by the orchestrator.
const maxBodyBytes = 1 << 20

// Router handles one customer message.
type Router interface {
	Handle(ctx context.Context, msg orchestrator.Message) (*orchestrator.Reply, error)
}

// Handler serves the chat and session endpoints.
type Handler struct {
	router   Router
	sessions session.Store
	log      *logger.Logger
}

// NewHandler creates a chat Handler.
func NewHandler(router Router, sessions session.Store, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{router: router, sessions: sessions, log: log}
}

// RegisterRoutes mounts the chat endpoints on the given router.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/api/chat", h.handleChat)
	r.Get("/api/chat/ws", h.handleWebSocket)
	r.Get("/api/sessions/{id}", h.handleGetSession)
	r.Delete("/api/sessions/{id}", h.handleDeleteSession)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var msg orchestrator.Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&msg); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	reply, err := h.router.Handle(r.Context(), msg)
	switch {
	case errors.Is(err, orchestrator.ErrMissingUserID):
		http.Error(w, `{"error":"user_id is required"}`, http.StatusBadRequest)
		return
	case errors.Is(err, orchestrator.ErrMessageTooLong):
		http.Error(w, `{"error":"text is too long"}`, http.StatusRequestEntityTooLarge)
		return
	case err != nil:
		h.log.Error("chat turn failed", "user_id", msg.UserID, "error", err)
		http.Error(w, `{"error":"processing failed"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// sessionView is the externally visible part of a session. The id is
// guessable for bot users, so it carries no credentials, customer or order
// data and no transcript.
type sessionView struct {
	ID        string        `json:"id"`
	State     session.State `json:"state"`
	Verified  bool          `json:"verified"`
	Turns     int           `json:"turns"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
}

func newSessionView(s *session.Session) sessionView {
	v := sessionView{
		ID:       s.ID,
		State:    s.State,
		Verified: s.Verified(),
		Turns:    len(s.History),
	}
	if !s.ExpiresAt.IsZero() {
		v.ExpiresAt = &s.ExpiresAt
	}
	return v
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.log.Error("loading session failed", "error", err)
		http.Error(w, `{"error":"loading session failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(s))
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.log.Error("deleting session failed", "error", err)
		http.Error(w, `{"error":"deleting session failed"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
