// Package selector picks exercises from the catalogue.
package selector

import (
	"github.com/p-n-ai/pai-quiz/internal/curriculum"
	"github.com/p-n-ai/pai-quiz/internal/grading"
)

// Filter holds the selection criteria. Zero-valued fields match everything;
// set fields combine with AND.
//
// Skills matches exercises tagged with at least one of the given skills,
// ignoring case and accents. ExcludeIDs lists recently seen exercises.
// Difficulty bounds are inclusive; 0 leaves a bound open.
type Filter struct {
	Subject       curriculum.Subject `json:"subject,omitempty"`
	Level         curriculum.Level   `json:"level,omitempty"`
	MinDifficulty int                `json:"min_difficulty,omitempty"`
	MaxDifficulty int                `json:"max_difficulty,omitempty"`
	Skills        []string           `json:"skills,omitempty"`
	ExcludeIDs    []string           `json:"exclude_ids,omitempty"`
}

// Select returns the exercises matching f, in input order. The result is
// never nil; no match yields an empty slice.
func Select(f Filter, exercises []curriculum.Exercise) []curriculum.Exercise {
	m := newMatcher(f)
	out := []curriculum.Exercise{}
	for _, ex := range exercises {
		if m.match(ex) {
			out = append(out, ex)
		}
	}
	return out
}

// First returns the first exercise matching f.
func First(f Filter, exercises []curriculum.Exercise) (curriculum.Exercise, bool) {
	m := newMatcher(f)
	for _, ex := range exercises {
		if m.match(ex) {
			return ex, true
		}
	}
	return curriculum.Exercise{}, false
}

type matcher struct {
	f       Filter
	skills  map[string]struct{}
	exclude map[string]struct{}
}

func newMatcher(f Filter) matcher {
	m := matcher{f: f}
	if len(f.Skills) > 0 {
		m.skills = make(map[string]struct{}, len(f.Skills))
		for _, s := range f.Skills {
			m.skills[skillKey(s)] = struct{}{}
		}
	}
	if len(f.ExcludeIDs) > 0 {
		m.exclude = make(map[string]struct{}, len(f.ExcludeIDs))
		for _, id := range f.ExcludeIDs {
			m.exclude[id] = struct{}{}
		}
	}
	return m
}

func (m matcher) match(ex curriculum.Exercise) bool {
	if m.f.Subject != "" && ex.Subject != m.f.Subject {
		return false
	}
	if m.f.Level != "" && ex.Level != m.f.Level {
		return false
	}
	if m.f.MinDifficulty > 0 && ex.Difficulty < m.f.MinDifficulty {
		return false
	}
	if m.f.MaxDifficulty > 0 && ex.Difficulty > m.f.MaxDifficulty {
		return false
	}
	if _, seen := m.exclude[ex.ID]; seen {
		return false
	}
	if m.skills == nil {
		return true
	}
	for _, s := range ex.Skills {
		if _, ok := m.skills[skillKey(s)]; ok {
			return true
		}
	}
	return false
}

func skillKey(s string) string {
	return grading.Normalize(s, grading.Context{})
}
