// Package hint reveals the hints of a question one at a time, weakest first.
package hint

import "github.com/p-n-ai/pai-quiz/internal/curriculum"

// State tracks how many hints of one question have been revealed.
// The zero value is a fresh state.
type State struct {
	QuestionID string `json:"question_id"`
	Revealed   int    `json:"revealed"`
}

// Hint is the result of a hint request. Text is nil, and encodes as
// null, when there was nothing left to reveal.
type Hint struct {
	Text      *string `json:"hint_text"`
	Remaining int     `json:"hints_remaining"`
	Revealed  int     `json:"revealed"`
}

// Available reports whether a hint was revealed.
func (h Hint) Available() bool {
	return h.Text != nil
}

// Reveal advances the cursor by one, capped at the number of hints. The
// cursor never moves back.
func (s *State) Reveal(hints []string) {
	s.Revealed = min(max(s.Revealed, 0), len(hints))
	if s.Revealed < len(hints) {
		s.Revealed++
	}
}

// Current returns the hints revealed so far, in order.
func (s State) Current(hints []string) []string {
	k := min(max(s.Revealed, 0), len(hints))
	return hints[:k:k]
}

// Remaining returns how many hints are still hidden.
func (s State) Remaining(hints []string) int {
	return len(hints) - min(max(s.Revealed, 0), len(hints))
}

// Next reveals the next hint of q and returns it. Once every hint has been
// revealed, or when q has none, Next changes nothing and returns a nil Text.
func Next(q curriculum.Question, s *State) Hint {
	if s.QuestionID == "" {
		s.QuestionID = q.ID
	}
	before := min(max(s.Revealed, 0), len(q.Hints))
	s.Reveal(q.Hints)
	if s.Revealed == before {
		return Hint{Remaining: 0, Revealed: s.Revealed}
	}
	text := q.Hints[s.Revealed-1]
	return Hint{
		Text:      &text,
		Remaining: s.Remaining(q.Hints),
		Revealed:  s.Revealed,
	}
}
