// Package session runs quiz sessions: serving exercises, grading answers,
// dispensing hints and scoring results, one learner at a time.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-quiz/internal/hint"
	"github.com/p-n-ai/pai-quiz/internal/selector"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionEnded     = errors.New("session ended")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrQuestionClosed   = errors.New("question closed")
	ErrSessionConflict  = errors.New("session modified concurrently")
)

// QuestionState is the per-question progress within a session.
type QuestionState struct {
	Hint     hint.State `json:"hint"`
	Attempts int        `json:"attempts"`
	Closed   bool       `json:"closed"`
	Correct  bool       `json:"correct"`
}

// Session is one learner's run through a filtered set of exercises.
type Session struct {
	ID        string                    `json:"id"`
	LearnerID string                    `json:"learner_id,omitempty"`
	Filter    selector.Filter           `json:"filter"`
	Current   string                    `json:"current_exercise_id,omitempty"`
	Seen      []string                  `json:"seen"`
	Questions map[string]*QuestionState `json:"questions"`
	Results   []Result                  `json:"results"`
	StartedAt time.Time                 `json:"started_at"`
	EndedAt   *time.Time                `json:"ended_at,omitempty"`
	// Version counts saves. Save rejects a session whose Version is not
	// the stored one.
	Version   int64                     `json:"version"`
}

// Ended reports whether the session was closed.
func (s *Session) Ended() bool {
	return s.EndedAt != nil
}

// Question returns the state of a question, creating it on first use.
func (s *Session) Question(exerciseID, questionID string) *QuestionState {
	if s.Questions == nil {
		s.Questions = make(map[string]*QuestionState)
	}
	key := questionKey(exerciseID, questionID)
	qs, ok := s.Questions[key]
	if !ok {
		qs = &QuestionState{Hint: hint.State{QuestionID: questionID}}
		s.Questions[key] = qs
	}
	return qs
}

func (s *Session) markSeen(exerciseID string) {
	if !slices.Contains(s.Seen, exerciseID) {
		s.Seen = append(s.Seen, exerciseID)
	}
}

func questionKey(exerciseID, questionID string) string {
	return exerciseID + "/" + questionID
}

// Clone returns a deep copy so callers never share mutable state.
func (s Session) Clone() Session {
	out := s
	out.Filter.Skills = slices.Clone(s.Filter.Skills)
	out.Filter.ExcludeIDs = slices.Clone(s.Filter.ExcludeIDs)
	out.Seen = slices.Clone(s.Seen)
	out.Results = slices.Clone(s.Results)
	if s.Questions != nil {
		out.Questions = make(map[string]*QuestionState, len(s.Questions))
		for k, qs := range s.Questions {
			cp := *qs
			out.Questions[k] = &cp
		}
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		out.EndedAt = &t
	}
	return out
}

// Store persists sessions. Implementations hand out copies.
type Store interface {
	// Create assigns an ID and start time and stores the session.
	Create(ctx context.Context, s Session) (Session, error)
	// Get returns ErrSessionNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (Session, error)
	// Save replaces an existing session and bumps its Version. It returns
	// ErrSessionConflict when s was read before another save.
	Save(ctx context.Context, s Session) error
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	sessions map[string]Session
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
	}
}

func (m *MemoryStore) Create(_ context.Context, s Session) (Session, error) {
	prepare(&s)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return s.Clone(), nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.sessions[s.ID]
	if !ok {
		return ErrSessionNotFound
	}
	if stored.Version != s.Version {
		return ErrSessionConflict
	}
	next := s.Clone()
	next.Version++
	m.sessions[s.ID] = next
	return nil
}

func prepare(s *Session) {
	s.ID = uuid.NewString()
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}
	if s.Seen == nil {
		s.Seen = []string{}
	}
	if s.Results == nil {
		s.Results = []Result{}
	}
	if s.Questions == nil {
		s.Questions = make(map[string]*QuestionState)
	}
}
