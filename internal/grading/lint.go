package grading

import (
	"fmt"

	"github.com/p-n-ai/pai-quiz/internal/curriculum"
)

// Check reports content problems that only show up after normalization:
// multiple-choice options that collapse onto each other, and true/false
// options outside the accepted token set. It has the curriculum.Check
// signature so it can run inside the validation pass.
func (g *Grader) Check(ex curriculum.Exercise) []curriculum.Issue {
	var issues []curriculum.Issue
	add := func(q curriculum.Question, field, message string) {
		issues = append(issues, curriculum.Issue{
			ExerciseID: ex.ID,
			QuestionID: q.ID,
			Field:      field,
			Message:    message,
		})
	}

	for _, q := range ex.Questions {
		ctx := ContextFor(q, g.locale)

		switch q.Type {
		case curriculum.TypeMultipleChoice:
			seen := make(map[string]int, len(q.Options))
			for i, opt := range q.Options {
				n := Normalize(opt, ctx)
				if j, dup := seen[n]; dup {
					add(q, fmt.Sprintf("options[%d]", i),
						fmt.Sprintf("indistinguishable from options[%d] after normalization (%q)", j, n))
					continue
				}
				seen[n] = i
			}
		case curriculum.TypeTrueFalse:
			for i, opt := range q.Options {
				if _, ok := curriculum.ParseTruth(Normalize(opt, ctx)); !ok {
					add(q, fmt.Sprintf("options[%d]", i), fmt.Sprintf("%q is not a true/false value", opt))
				}
			}
		}
	}

	return issues
}
