// Package api exposes the quiz engine over HTTP and WebSocket.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/p-n-ai/pai-quiz/internal/curriculum"
	"github.com/p-n-ai/pai-quiz/internal/session"
)

const maxBodyBytes = 1 << 20

// Config wires dependencies for the HTTP handler.
type Config struct {
	Repository *curriculum.Repository
	Sessions   *session.Service
	// Checks are probed by /readyz, keyed by dependency name.
	Checks map[string]func(context.Context) error
}

// NewHandler builds the HTTP handler.
func NewHandler(cfg Config) http.Handler {
	h := &handler{
		repo:     cfg.Repository,
		sessions: cfg.Sessions,
		checks:   cfg.Checks,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	mux.HandleFunc("GET /readyz", h.handleReadyz)

	mux.HandleFunc("GET /v1/exercises", h.handleListExercises)
	mux.HandleFunc("GET /v1/exercises/{id}", h.handleGetExercise)
	mux.HandleFunc("GET /v1/subjects", h.handleSubjects)

	mux.HandleFunc("POST /v1/sessions", h.handleStartSession)
	mux.HandleFunc("GET /v1/sessions/{id}", h.handleGetSession)
	mux.HandleFunc("POST /v1/sessions/{id}/next", h.handleNext)
	mux.HandleFunc("POST /v1/sessions/{id}/answers", h.handleAnswer)
	mux.HandleFunc("POST /v1/sessions/{id}/hints", h.handleHint)
	mux.HandleFunc("POST /v1/sessions/{id}/end", h.handleEnd)
	mux.HandleFunc("GET /v1/sessions/{id}/summary", h.handleSummary)
	mux.HandleFunc("GET /v1/sessions/{id}/report.xlsx", h.handleReport)
	mux.HandleFunc("GET /v1/sessions/{id}/live", h.handleLive)
	return mux
}

type handler struct {
	repo     *curriculum.Repository
	sessions *session.Service
	checks   map[string]func(context.Context) error
}

func (h *handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeBytes(w, http.StatusOK, []byte(`{"status":"ok"}`))
}

func (h *handler) handleReadyz(w http.ResponseWriter, r *http.Request) {
	var failing []string
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			failing = append(failing, name)
		}
	}
	if len(failing) > 0 {
		slices.Sort(failing)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "unavailable",
			"failing": failing,
		})
		return
	}
	writeBytes(w, http.StatusOK, []byte(`{"status":"ready"}`))
}

func etagMatches(r *http.Request, etag string) bool {
	for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == etag || candidate == "*" {
			return true
		}
	}
	return false
}
