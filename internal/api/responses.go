package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/pai-quiz/internal/grading"
	"github.com/p-n-ai/pai-quiz/internal/session"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		writeBytes(w, http.StatusInternalServerError, []byte(`{"error":"internal_error"}`))
		return
	}
	writeBytes(w, status, data)
}

func writeBytes(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// errorCode maps service errors to an HTTP status and a stable error code.
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, session.ErrExerciseNotFound):
		return http.StatusNotFound, "exercise_not_found"
	case errors.Is(err, session.ErrQuestionNotFound):
		return http.StatusNotFound, "question_not_found"
	case errors.Is(err, session.ErrQuestionClosed):
		return http.StatusConflict, "question_closed"
	case errors.Is(err, session.ErrSessionEnded):
		return http.StatusConflict, "session_ended"
	case errors.Is(err, session.ErrSessionConflict):
		return http.StatusConflict, "session_conflict"
	case errors.Is(err, grading.ErrInvalidQuestion):
		return http.StatusInternalServerError, "invalid_question"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status, code := errorCode(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "code", code, "error", err)
		writeError(w, status, code, "")
		return
	}
	writeError(w, status, code, err.Error())
}

// decodeBody treats an empty body as an empty object.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	return true
}
