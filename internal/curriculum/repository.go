package curriculum

import (
	"encoding/hex"
	"encoding/json"

	"golang.org/x/crypto/blake2b"
)

// Repository is an immutable, load-ordered collection of exercises. It is
// safe to share across goroutines without locking.
type Repository struct {
	exercises   []Exercise
	byID        map[string]int
	fingerprint string
}

// NewRepository wraps already-validated exercises. The slice is copied; the
// caller must not mutate the exercises afterwards.
func NewRepository(exercises []Exercise) *Repository {
	r := &Repository{
		exercises: append([]Exercise(nil), exercises...),
		byID:      make(map[string]int, len(exercises)),
	}
	for i, ex := range r.exercises {
		if _, dup := r.byID[ex.ID]; !dup {
			r.byID[ex.ID] = i
		}
	}
	r.fingerprint = fingerprint(r.exercises)
	return r
}

// Len returns the number of exercises.
func (r *Repository) Len() int {
	return len(r.exercises)
}

// All returns every exercise in load order.
func (r *Repository) All() []Exercise {
	return append([]Exercise(nil), r.exercises...)
}

// Get returns an exercise by ID.
func (r *Repository) Get(id string) (Exercise, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Exercise{}, false
	}
	return r.exercises[i], true
}

// Question looks up a question by exercise and question ID.
func (r *Repository) Question(exerciseID, questionID string) (Question, bool) {
	ex, ok := r.Get(exerciseID)
	if !ok {
		return Question{}, false
	}
	return ex.Question(questionID)
}

// ByLevel returns the exercises for a level, in load order.
func (r *Repository) ByLevel(level Level) []Exercise {
	return r.filter(func(ex Exercise) bool { return ex.Level == level })
}

// ByLevelAndSubject returns the exercises for a level and subject.
func (r *Repository) ByLevelAndSubject(level Level, subject Subject) []Exercise {
	return r.filter(func(ex Exercise) bool { return ex.Level == level && ex.Subject == subject })
}

// SubjectsForLevel returns the subjects that have content at a level, in
// order of first appearance.
func (r *Repository) SubjectsForLevel(level Level) []Subject {
	seen := make(map[Subject]struct{})
	subjects := []Subject{}
	for _, ex := range r.exercises {
		if ex.Level != level {
			continue
		}
		if _, ok := seen[ex.Subject]; ok {
			continue
		}
		seen[ex.Subject] = struct{}{}
		subjects = append(subjects, ex.Subject)
	}
	return subjects
}

// CountBySubject counts exercises per subject at a level. Every known
// subject is present in the result, with zero when there is no content.
func (r *Repository) CountBySubject(level Level) map[Subject]int {
	counts := make(map[Subject]int, len(Subjects))
	for _, s := range Subjects {
		counts[s] = 0
	}
	for _, ex := range r.exercises {
		if ex.Level == level {
			counts[ex.Subject]++
		}
	}
	return counts
}

// Fingerprint is a stable hash of the loaded content, suitable as an ETag.
func (r *Repository) Fingerprint() string {
	return r.fingerprint
}

func (r *Repository) filter(keep func(Exercise) bool) []Exercise {
	out := []Exercise{}
	for _, ex := range r.exercises {
		if keep(ex) {
			out = append(out, ex)
		}
	}
	return out
}

func fingerprint(exercises []Exercise) string {
	data, err := json.Marshal(exercises)
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:16])
}
