package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const liveReadLimit = 64 << 10

// liveMessage is a learner request on the live channel. Type is one of
// "next", "answer" or "hint".
type liveMessage struct {
	Type       string `json:"type"`
	ExerciseID string `json:"exercise_id,omitempty"`
	QuestionID string `json:"question_id,omitempty"`
	Answer     string `json:"answer,omitempty"`
}

// liveReply echoes the request type with its payload, or carries an error
// code with type "error".
type liveReply struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *handler) handleLive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.sessions.Get(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "session_id", id, "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(liveReadLimit)

	ctx := r.Context()
	slog.Info("live channel opened", "session_id", id)
	for {
		var msg liveMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				slog.Info("live channel closed", "session_id", id)
				return
			}
			slog.Warn("live channel read failed", "session_id", id, "error", err)
			conn.Close(websocket.StatusUnsupportedData, "invalid message")
			return
		}

		reply := h.dispatchLive(ctx, id, msg)
		if err := wsjson.Write(ctx, conn, reply); err != nil {
			slog.Warn("live channel write failed", "session_id", id, "error", err)
			return
		}
	}
}

func (h *handler) dispatchLive(ctx context.Context, id string, msg liveMessage) liveReply {
	var (
		payload any
		err     error
	)
	switch msg.Type {
	case "next":
		payload, err = h.next(ctx, id)
	case "answer":
		payload, err = h.sessions.Answer(ctx, id, msg.ExerciseID, msg.QuestionID, msg.Answer)
	case "hint":
		payload, err = h.sessions.Hint(ctx, id, msg.ExerciseID, msg.QuestionID)
	default:
		return liveReply{Type: "error", Error: "unknown_message_type"}
	}
	if err != nil {
		_, code := errorCode(err)
		return liveReply{Type: "error", Error: code}
	}
	return liveReply{Type: msg.Type, Payload: payload}
}
