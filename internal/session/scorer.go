package session

import "time"

// Result is the recorded outcome of one closed question.
type Result struct {
	ExerciseID string    `json:"exercise_id"`
	QuestionID string    `json:"question_id"`
	Correct    bool      `json:"correct"`
	HintsUsed  int       `json:"hints_used"`
	Attempts   int       `json:"attempts"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Summary aggregates the results of a session. Accuracy is a fraction in
// [0, 1].
type Summary struct {
	TotalQuestions int     `json:"total_questions"`
	CorrectCount   int     `json:"correct_count"`
	Accuracy       float64 `json:"accuracy"`
	TotalHintsUsed int     `json:"total_hints_used"`
}

// Scorer accumulates results in order. Past entries are never modified.
type Scorer struct {
	results []Result
}

// NewScorer returns a scorer seeded with previously recorded results.
func NewScorer(results ...Result) *Scorer {
	return &Scorer{results: append([]Result(nil), results...)}
}

// Record appends a result.
func (s *Scorer) Record(r Result) {
	s.results = append(s.results, r)
}

// Results returns a copy of the recorded results.
func (s *Scorer) Results() []Result {
	return append([]Result{}, s.results...)
}

// Summary computes totals over every recorded result.
func (s *Scorer) Summary() Summary {
	var sum Summary
	for _, r := range s.results {
		sum.TotalQuestions++
		if r.Correct {
			sum.CorrectCount++
		}
		sum.TotalHintsUsed += r.HintsUsed
	}
	if sum.TotalQuestions > 0 {
		sum.Accuracy = float64(sum.CorrectCount) / float64(sum.TotalQuestions)
	}
	return sum
}
