package api

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/report"
	"github.com/p-n-ai/pai-quiz/internal/selector"
	"github.com/p-n-ai/pai-quiz/internal/session"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type startRequest struct {
	LearnerID     string   `json:"learner_id"`
	Subject       string   `json:"subject"`
	Level         string   `json:"level"`
	MinDifficulty int      `json:"min_difficulty"`
	MaxDifficulty int      `json:"max_difficulty"`
	Skills        []string `json:"skills"`
	ExcludeIDs    []string `json:"exclude_ids"`
}

func (req startRequest) filter() selector.Filter {
	f := selector.Filter{
		MinDifficulty: req.MinDifficulty,
		MaxDifficulty: req.MaxDifficulty,
		Skills:        req.Skills,
		ExcludeIDs:    req.ExcludeIDs,
	}
	if req.Subject != "" {
		f.Subject = parseSubject(req.Subject)
	}
	if req.Level != "" {
		f.Level = parseLevel(req.Level)
	}
	return f
}

type questionRequest struct {
	ExerciseID string `json:"exercise_id"`
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

type sessionView struct {
	ID        string           `json:"id"`
	LearnerID string           `json:"learner_id,omitempty"`
	Filter    selector.Filter  `json:"filter"`
	Current   string           `json:"current_exercise_id,omitempty"`
	Seen      []string         `json:"seen"`
	Results   []session.Result `json:"results"`
	Summary   session.Summary  `json:"summary"`
	StartedAt time.Time        `json:"started_at"`
	EndedAt   *time.Time       `json:"ended_at,omitempty"`
}

func newSessionView(s session.Session) sessionView {
	seen := s.Seen
	if seen == nil {
		seen = []string{}
	}
	results := s.Results
	if results == nil {
		results = []session.Result{}
	}
	return sessionView{
		ID:        s.ID,
		LearnerID: s.LearnerID,
		Filter:    s.Filter,
		Current:   s.Current,
		Seen:      seen,
		Results:   results,
		Summary:   session.NewScorer(s.Results...).Summary(),
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
	}
}

type nextResponse struct {
	Exercise *exerciseView `json:"exercise"`
	Done     bool          `json:"done"`
}

func (h *handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := h.sessions.Start(r.Context(), req.LearnerID, req.filter())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, newSessionView(sess))
}

func (h *handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (h *handler) handleNext(w http.ResponseWriter, r *http.Request) {
	resp, err := h.next(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) next(ctx context.Context, id string) (nextResponse, error) {
	ex, ok, err := h.sessions.Next(ctx, id)
	if err != nil {
		return nextResponse{}, err
	}
	if !ok {
		return nextResponse{Done: true}, nil
	}
	v := newExerciseView(ex)
	return nextResponse{Exercise: &v}, nil
}

func (h *handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.sessions.Answer(r.Context(), r.PathValue("id"), req.ExerciseID, req.QuestionID, req.Answer)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) handleHint(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	hn, err := h.sessions.Hint(r.Context(), r.PathValue("id"), req.ExerciseID, req.QuestionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hn)
}

func (h *handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.End(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (h *handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.sessions.Summary(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteSession(&buf, sess, h.repo); err != nil {
		slog.Error("failed to render report", "session_id", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="session-%s.xlsx"`, sess.ID))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
