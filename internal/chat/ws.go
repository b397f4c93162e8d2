package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/support-router/internal/orchestrator"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	SessionID string `json:"session_id"` // empty for new sessions
	Text      string `json:"text"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type      string              `json:"type"` // "reply" or "error"
	SessionID string              `json:"session_id"`
	Reply     *orchestrator.Reply `json:"reply,omitempty"`
	Error     string              `json:"error,omitempty"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// A connection keeps the session it was first given or assigned.
	var sessionID string

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read failed", "error", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			h.send(conn, wsResponse{Type: "error", SessionID: sessionID, Error: "invalid message format"})
			continue
		}

		if sessionID == "" {
			sessionID = req.SessionID
			if sessionID == "" {
				sessionID = uuid.NewString()
			}
		}

		reply, err := h.router.Handle(r.Context(), orchestrator.Message{UserID: sessionID, Text: req.Text})
		switch {
		case errors.Is(err, orchestrator.ErrMessageTooLong):
			h.send(conn, wsResponse{Type: "error", SessionID: sessionID, Error: "text is too long"})
		case err != nil:
			h.log.Error("chat turn failed", "error", err)
			h.send(conn, wsResponse{Type: "error", SessionID: sessionID, Error: "processing failed"})
		default:
			h.send(conn, wsResponse{Type: "reply", SessionID: sessionID, Reply: reply})
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		h.log.Warn("websocket write failed", "error", err)
	}
}
