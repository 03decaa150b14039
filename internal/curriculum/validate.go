package curriculum

import (
	"fmt"
	"strings"
)

// Issue captures a content-integrity problem found by the validation pass.
type Issue struct {
	Source     string `json:"source,omitempty"`
	ExerciseID string `json:"exercise_id,omitempty"`
	QuestionID string `json:"question_id,omitempty"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

// String renders the issue as "source: exercise/question field: message".
func (i Issue) String() string {
	var b strings.Builder
	if i.Source != "" {
		b.WriteString(i.Source)
		b.WriteString(": ")
	}
	if i.ExerciseID != "" {
		b.WriteString(i.ExerciseID)
		if i.QuestionID != "" {
			b.WriteString("/")
			b.WriteString(i.QuestionID)
		}
		b.WriteString(" ")
	}
	b.WriteString(i.Field)
	b.WriteString(": ")
	b.WriteString(i.Message)
	return b.String()
}

// ValidationError aggregates content-integrity issues.
type ValidationError struct {
	Issues []Issue
}

// Error renders validation issues as a multi-line string.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return "content validation failed"
	}
	lines := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		lines = append(lines, issue.String())
	}
	return strings.Join(lines, "\n")
}

// Check is an additional validation rule run over each exercise.
type Check func(Exercise) []Issue

// Validate runs the offline integrity pass over a whole content set and
// returns every issue found. An empty result means the content is valid.
func Validate(exercises []Exercise, checks ...Check) []Issue {
	var issues []Issue
	seen := make(map[string]struct{}, len(exercises))

	for i, ex := range exercises {
		id := strings.TrimSpace(ex.ID)
		if id == "" {
			issues = append(issues, Issue{Field: fmt.Sprintf("exercises[%d].id", i), Message: "is required"})
		} else if _, dup := seen[id]; dup {
			issues = append(issues, Issue{ExerciseID: id, Field: "id", Message: "duplicate exercise id"})
		} else {
			seen[id] = struct{}{}
		}
		issues = append(issues, validateExercise(ex)...)
		for _, check := range checks {
			issues = append(issues, check(ex)...)
		}
	}

	return issues
}

func validateExercise(ex Exercise) []Issue {
	var issues []Issue
	add := func(field, message string) {
		issues = append(issues, Issue{ExerciseID: ex.ID, Field: field, Message: message})
	}

	if strings.TrimSpace(ex.Title) == "" {
		add("title", "is required")
	}
	if _, err := ParseSubject(string(ex.Subject)); err != nil {
		add("subject", err.Error())
	}
	if _, err := ParseLevel(string(ex.Level)); err != nil {
		add("level", err.Error())
	}
	if ex.Difficulty < MinDifficulty || ex.Difficulty > MaxDifficulty {
		add("difficulty", fmt.Sprintf("must be between %d and %d, got %d", MinDifficulty, MaxDifficulty, ex.Difficulty))
	}
	if ex.EstimatedTime < 0 {
		add("estimated_time", "must be >= 0")
	}
	if len(ex.Questions) == 0 {
		add("questions", "at least one question is required")
	}

	questionIDs := make(map[string]struct{}, len(ex.Questions))
	for i, q := range ex.Questions {
		if strings.TrimSpace(q.ID) == "" {
			add(fmt.Sprintf("questions[%d].id", i), "is required")
			continue
		}
		if _, dup := questionIDs[q.ID]; dup {
			add(fmt.Sprintf("questions[%d].id", i), fmt.Sprintf("duplicate question id %q", q.ID))
		}
		questionIDs[q.ID] = struct{}{}

		for _, issue := range questionIssues(q) {
			issue.ExerciseID = ex.ID
			issues = append(issues, issue)
		}
	}

	return issues
}

// Validate checks the structural rules a question must satisfy before it can
// be graded. It returns a *ValidationError listing every broken rule.
func (q Question) Validate() error {
	issues := questionIssues(q)
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}

func questionIssues(q Question) []Issue {
	var issues []Issue
	add := func(field, message string) {
		issues = append(issues, Issue{QuestionID: q.ID, Field: field, Message: message})
	}

	if strings.TrimSpace(q.Prompt) == "" {
		add("question", "is required")
	}
	if strings.TrimSpace(q.Explanation) == "" {
		add("explanation", "is required")
	}
	for i, h := range q.Hints {
		if strings.TrimSpace(h) == "" {
			add(fmt.Sprintf("hints[%d]", i), "must not be blank")
		}
	}

	switch q.Type {
	case TypeMultipleChoice:
		if len(q.Options) < 2 {
			add("options", "multiple-choice needs at least two options")
		}
		matches := 0
		for _, opt := range q.Options {
			if opt == q.Correct {
				matches++
			}
		}
		if matches != 1 {
			add("correct_answer", fmt.Sprintf("must equal exactly one option, matched %d", matches))
		}
	case TypeTrueFalse:
		if _, ok := ParseTruth(q.Correct); !ok {
			add("correct_answer", fmt.Sprintf("%q is not a true/false value", q.Correct))
		}
	case TypeFillBlank, TypeOpenEnded:
		if len(q.Options) > 0 {
			add("options", fmt.Sprintf("%s questions take no options", q.Type))
		}
		if len(AnswerVariants(q)) == 0 {
			add("correct_answer", "is required")
		}
	default:
		add("type", fmt.Sprintf("unknown question type %q", q.Type))
	}

	return issues
}

// VariantDelimiter separates alternative accepted forms inside a
// fill-blank correct answer ("13.4;13,4").
const VariantDelimiter = ";"

// AnswerVariants returns every accepted surface form of a free-text answer:
// the delimiter-separated parts of Correct followed by Accepted. Blank
// variants are dropped.
func AnswerVariants(q Question) []string {
	parts := strings.Split(q.Correct, VariantDelimiter)
	variants := make([]string, 0, len(parts)+len(q.Accepted))
	for _, p := range append(parts, q.Accepted...) {
		if strings.TrimSpace(p) != "" {
			variants = append(variants, p)
		}
	}
	return variants
}

var (
	trueTokens  = []string{"vrai", "true", "v"}
	falseTokens = []string{"faux", "false", "f"}
)

// ParseTruth maps a true/false token (any casing) to its boolean class.
func ParseTruth(s string) (value bool, ok bool) {
	token := strings.ToLower(strings.TrimSpace(s))
	for _, t := range trueTokens {
		if token == t {
			return true, true
		}
	}
	for _, f := range falseTokens {
		if token == f {
			return false, true
		}
	}
	return false, false
}
