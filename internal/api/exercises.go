package api

import (
	"net/http"
	"strconv"

	"github.com/p-n-ai/pai-quiz/internal/curriculum"
	"github.com/p-n-ai/pai-quiz/internal/selector"
)

// exerciseView is the learner-facing form of an exercise. Answers,
// explanations and hint texts are never part of it.
type exerciseView struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Subject       string         `json:"subject"`
	Level         string         `json:"level"`
	Difficulty    int            `json:"difficulty"`
	Description   string         `json:"description,omitempty"`
	EstimatedTime int            `json:"estimated_time"`
	Skills        []string       `json:"skills"`
	Questions     []questionView `json:"questions"`
}

type questionView struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Hints    int      `json:"hints_available"`
}

func newExerciseView(ex curriculum.Exercise) exerciseView {
	v := exerciseView{
		ID:            ex.ID,
		Title:         ex.Title,
		Subject:       string(ex.Subject),
		Level:         string(ex.Level),
		Difficulty:    ex.Difficulty,
		Description:   ex.Description,
		EstimatedTime: ex.EstimatedTime,
		Skills:        append([]string{}, ex.Skills...),
		Questions:     make([]questionView, 0, len(ex.Questions)),
	}
	for _, q := range ex.Questions {
		v.Questions = append(v.Questions, questionView{
			ID:       q.ID,
			Question: q.Prompt,
			Type:     string(q.Type),
			Options:  q.Options,
			Hints:    len(q.Hints),
		})
	}
	return v
}

func (h *handler) handleListExercises(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}

	etag := `"` + h.repo.Fingerprint() + `"`
	w.Header().Set("ETag", etag)
	if etagMatches(r, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	selected := selector.Select(f, h.repo.All())
	views := make([]exerciseView, 0, len(selected))
	for _, ex := range selected {
		views = append(views, newExerciseView(ex))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(views),
		"exercises": views,
	})
}

func (h *handler) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	ex, ok := h.repo.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "exercise_not_found", "")
		return
	}
	writeJSON(w, http.StatusOK, newExerciseView(ex))
}

type subjectCount struct {
	Subject string `json:"subject"`
	Count   int    `json:"count"`
}

func (h *handler) handleSubjects(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("level")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "invalid_filter", "level is required")
		return
	}
	level := parseLevel(raw)

	counts := h.repo.CountBySubject(level)
	subjects := []subjectCount{}
	for _, s := range h.repo.SubjectsForLevel(level) {
		subjects = append(subjects, subjectCount{Subject: string(s), Count: counts[s]})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"level":    string(level),
		"subjects": subjects,
	})
}

// filterFromQuery reads a selector filter from query parameters. Unknown
// subjects and levels are kept verbatim so they match nothing.
func filterFromQuery(r *http.Request) (selector.Filter, error) {
	q := r.URL.Query()
	f := selector.Filter{
		Skills:     q["skill"],
		ExcludeIDs: q["exclude"],
	}
	if s := q.Get("subject"); s != "" {
		f.Subject = parseSubject(s)
	}
	if l := q.Get("level"); l != "" {
		f.Level = parseLevel(l)
	}
	var err error
	if f.MinDifficulty, err = intParam(q.Get("min_difficulty")); err != nil {
		return selector.Filter{}, err
	}
	if f.MaxDifficulty, err = intParam(q.Get("max_difficulty")); err != nil {
		return selector.Filter{}, err
	}
	return f, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func parseSubject(raw string) curriculum.Subject {
	if s, err := curriculum.ParseSubject(raw); err == nil {
		return s
	}
	return curriculum.Subject(raw)
}

func parseLevel(raw string) curriculum.Level {
	if l, err := curriculum.ParseLevel(raw); err == nil {
		return l
	}
	return curriculum.Level(raw)
}
