package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/curriculum"
	"github.com/p-n-ai/pai-quiz/internal/grading"
	"github.com/p-n-ai/pai-quiz/internal/hint"
	"github.com/p-n-ai/pai-quiz/internal/selector"
)

// DefaultMaxAttempts is the number of graded attempts after which a
// question closes even if never answered correctly.
const DefaultMaxAttempts = 3

// ServiceConfig holds dependencies for the session service.
type ServiceConfig struct {
	Repository  *curriculum.Repository
	Grader      *grading.Grader // default: grading.NewGrader()
	Store       Store           // default: NewMemoryStore()
	Events      EventLogger     // default: NopEventLogger
	MaxAttempts int             // default: DefaultMaxAttempts
}

// Service drives quiz sessions. Requests on the same session are
// serialized; different sessions proceed in parallel.
type Service struct {
	repo        *curriculum.Repository
	grader      *grading.Grader
	store       Store
	events      EventLogger
	maxAttempts int
	locks       keyedMutex
	now         func() time.Time
}

// NewService creates a session service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repository == nil {
		return nil, fmt.Errorf("repository is nil")
	}
	grader := cfg.Grader
	if grader == nil {
		grader = grading.NewGrader()
	}
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Service{
		repo:        cfg.Repository,
		grader:      grader,
		store:       store,
		events:      events,
		maxAttempts: maxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Outcome is the result of one graded attempt.
type Outcome struct {
	grading.Verdict
	Attempts     int  `json:"attempts"`
	AttemptsLeft int  `json:"attempts_left"`
	Closed       bool `json:"closed"`
}

// Start opens a session whose exercises are drawn from f.
func (s *Service) Start(ctx context.Context, learnerID string, f selector.Filter) (Session, error) {
	sess, err := s.store.Create(ctx, Session{
		LearnerID: learnerID,
		Filter:    f,
		StartedAt: s.now(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("start session: %w", err)
	}

	slog.Info("session started", "session_id", sess.ID, "learner_id", learnerID)
	s.logEvent(ctx, Event{
		SessionID: sess.ID,
		LearnerID: learnerID,
		Type:      EventSessionStarted,
		Data: map[string]any{
			"subject": string(f.Subject),
			"level":   string(f.Level),
		},
	})
	return sess, nil
}

// Get returns a snapshot of the session.
func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	return s.store.Get(ctx, id)
}

// Next serves the first exercise matching the session filter that has not
// been served yet. It reports false once the selection is exhausted.
func (s *Service) Next(ctx context.Context, id string) (curriculum.Exercise, bool, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	sess, err := s.open(ctx, id)
	if err != nil {
		return curriculum.Exercise{}, false, err
	}

	f := sess.Filter
	f.ExcludeIDs = append(slices.Clone(f.ExcludeIDs), sess.Seen...)
	ex, ok := selector.First(f, s.repo.All())
	if !ok {
		if sess.Current != "" {
			sess.Current = ""
			if err := s.store.Save(ctx, sess); err != nil {
				return curriculum.Exercise{}, false, fmt.Errorf("save session: %w", err)
			}
		}
		return curriculum.Exercise{}, false, nil
	}

	sess.Current = ex.ID
	sess.markSeen(ex.ID)
	if err := s.store.Save(ctx, sess); err != nil {
		return curriculum.Exercise{}, false, fmt.Errorf("save session: %w", err)
	}

	s.logEvent(ctx, Event{
		SessionID:  sess.ID,
		LearnerID:  sess.LearnerID,
		ExerciseID: ex.ID,
		Type:       EventExerciseServed,
	})
	return ex, true, nil
}

// Answer grades one attempt at a question. A question closes when answered
// correctly or when its attempts run out; a result is recorded once, on
// closing. Answering a closed question returns ErrQuestionClosed.
func (s *Service) Answer(ctx context.Context, id, exerciseID, questionID, answer string) (Outcome, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	sess, err := s.open(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	q, err := s.question(exerciseID, questionID)
	if err != nil {
		return Outcome{}, err
	}

	qs := sess.Question(exerciseID, questionID)
	if qs.Closed {
		return Outcome{}, ErrQuestionClosed
	}

	verdict, err := s.grader.Grade(q, answer)
	if err != nil {
		slog.Error("grading failed", "exercise_id", exerciseID, "question_id", questionID, "error", err)
		return Outcome{}, err
	}

	qs.Attempts++
	if verdict.Correct || qs.Attempts >= s.maxAttempts {
		qs.Closed = true
		qs.Correct = verdict.Correct
		sc := NewScorer(sess.Results...)
		sc.Record(Result{
			ExerciseID: exerciseID,
			QuestionID: questionID,
			Correct:    verdict.Correct,
			HintsUsed:  qs.Hint.Revealed,
			Attempts:   qs.Attempts,
			RecordedAt: s.now(),
		})
		sess.Results = sc.Results()
	}
	sess.markSeen(exerciseID)

	if err := s.store.Save(ctx, sess); err != nil {
		return Outcome{}, fmt.Errorf("save session: %w", err)
	}

	s.logEvent(ctx, Event{
		SessionID:  sess.ID,
		LearnerID:  sess.LearnerID,
		ExerciseID: exerciseID,
		QuestionID: questionID,
		Type:       EventAnswerGraded,
		Data: map[string]any{
			"correct":  verdict.Correct,
			"attempts": qs.Attempts,
			"closed":   qs.Closed,
		},
	})

	return Outcome{
		Verdict:      verdict,
		Attempts:     qs.Attempts,
		AttemptsLeft: max(s.maxAttempts-qs.Attempts, 0),
		Closed:       qs.Closed,
	}, nil
}

// Hint reveals the next hint of an open question. Running out of hints is
// not an error: the returned hint has a nil Text.
func (s *Service) Hint(ctx context.Context, id, exerciseID, questionID string) (hint.Hint, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	sess, err := s.open(ctx, id)
	if err != nil {
		return hint.Hint{}, err
	}
	q, err := s.question(exerciseID, questionID)
	if err != nil {
		return hint.Hint{}, err
	}

	qs := sess.Question(exerciseID, questionID)
	if qs.Closed {
		return hint.Hint{}, ErrQuestionClosed
	}

	h := hint.Next(q, &qs.Hint)
	if !h.Available() {
		return h, nil
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return hint.Hint{}, fmt.Errorf("save session: %w", err)
	}

	s.logEvent(ctx, Event{
		SessionID:  sess.ID,
		LearnerID:  sess.LearnerID,
		ExerciseID: exerciseID,
		QuestionID: questionID,
		Type:       EventHintRevealed,
		Data:       map[string]any{"revealed": h.Revealed},
	})
	return h, nil
}

// Summary aggregates the results recorded so far.
func (s *Service) Summary(ctx context.Context, id string) (Summary, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	return NewScorer(sess.Results...).Summary(), nil
}

// End closes the session. Ending an ended session is a no-op.
func (s *Service) End(ctx context.Context, id string) (Session, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.Ended() {
		return sess, nil
	}

	now := s.now()
	sess.EndedAt = &now
	sess.Current = ""
	if err := s.store.Save(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}

	summary := NewScorer(sess.Results...).Summary()
	slog.Info("session ended",
		"session_id", sess.ID,
		"total_questions", summary.TotalQuestions,
		"correct", summary.CorrectCount,
	)
	s.logEvent(ctx, Event{
		SessionID: sess.ID,
		LearnerID: sess.LearnerID,
		Type:      EventSessionEnded,
		Data: map[string]any{
			"total_questions":  summary.TotalQuestions,
			"correct_count":    summary.CorrectCount,
			"total_hints_used": summary.TotalHintsUsed,
		},
	})
	return sess, nil
}

func (s *Service) open(ctx context.Context, id string) (Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.Ended() {
		return Session{}, ErrSessionEnded
	}
	return sess, nil
}

func (s *Service) question(exerciseID, questionID string) (curriculum.Question, error) {
	ex, ok := s.repo.Get(exerciseID)
	if !ok {
		return curriculum.Question{}, fmt.Errorf("%w: %s", ErrExerciseNotFound, exerciseID)
	}
	q, ok := ex.Question(questionID)
	if !ok {
		return curriculum.Question{}, fmt.Errorf("%w: %s/%s", ErrQuestionNotFound, exerciseID, questionID)
	}
	return q, nil
}

// logEvent reports failures in the log only.
func (s *Service) logEvent(ctx context.Context, event Event) {
	if err := s.events.LogEvent(ctx, event); err != nil {
		slog.Warn("failed to log event", "type", event.Type, "session_id", event.SessionID, "error", err)
	}
}
