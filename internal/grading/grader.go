package grading

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/p-n-ai/pai-quiz/internal/curriculum"
)

// ErrInvalidQuestion is returned when asked to grade a question whose
// content is structurally broken (e.g. a multiple-choice answer that is not
// one of its options). It signals a content error, never a learner error.
var ErrInvalidQuestion = errors.New("invalid question")

// Verdict is the outcome of grading one submission. The explanation is
// always returned, whatever the result.
type Verdict struct {
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation"`
}

// matcher decides whether a non-empty submission is correct for one
// question type.
type matcher interface {
	match(q curriculum.Question, submitted string, ctx Context) bool
}

// Grader routes by question type to the matching strategy. It holds no
// mutable state and is safe for concurrent use.
type Grader struct {
	locale   language.Tag
	matchers map[curriculum.QuestionType]matcher
}

// Option configures a Grader.
type Option func(*Grader)

// WithLocale sets the locale used for case folding.
func WithLocale(tag language.Tag) Option {
	return func(g *Grader) { g.locale = tag }
}

// NewGrader installs the built-in strategies.
func NewGrader(opts ...Option) *Grader {
	g := &Grader{
		locale: DefaultLocale,
		matchers: map[curriculum.QuestionType]matcher{
			curriculum.TypeMultipleChoice: multipleChoice{},
			curriculum.TypeTrueFalse:      trueFalse{},
			curriculum.TypeFillBlank:      freeText{},
			curriculum.TypeOpenEnded:      freeText{},
		},
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Locale returns the locale used for case folding.
func (g *Grader) Locale() language.Tag {
	return g.locale
}

// Normalize canonicalizes raw text with the rules of question q.
func (g *Grader) Normalize(q curriculum.Question, raw string) string {
	return Normalize(raw, ContextFor(q, g.locale))
}

// IsCorrect reports whether submitted answers q. Empty or blank submissions
// are always incorrect. The only error is ErrInvalidQuestion.
func (g *Grader) IsCorrect(q curriculum.Question, submitted string) (bool, error) {
	if err := q.Validate(); err != nil {
		return false, fmt.Errorf("%w %q: %w", ErrInvalidQuestion, q.ID, err)
	}
	m, ok := g.matchers[q.Type]
	if !ok {
		return false, fmt.Errorf("%w %q: no strategy for type %q", ErrInvalidQuestion, q.ID, q.Type)
	}
	if strings.TrimSpace(submitted) == "" {
		return false, nil
	}
	return m.match(q, submitted, ContextFor(q, g.locale)), nil
}

// Grade grades a submission and returns the verdict with the question's
// explanation.
func (g *Grader) Grade(q curriculum.Question, submitted string) (Verdict, error) {
	correct, err := g.IsCorrect(q, submitted)
	if err != nil {
		return Verdict{}, err
	}
	return Verdict{Correct: correct, Explanation: q.Explanation}, nil
}

// --- Strategies ---

// multipleChoice compares option content, never the option index, so
// reordering options does not change grading.
type multipleChoice struct{}

func (multipleChoice) match(q curriculum.Question, submitted string, ctx Context) bool {
	return Normalize(submitted, ctx) == Normalize(q.Correct, ctx)
}

type trueFalse struct{}

func (trueFalse) match(q curriculum.Question, submitted string, ctx Context) bool {
	got, ok := curriculum.ParseTruth(Normalize(submitted, ctx))
	if !ok {
		return false
	}
	want, ok := curriculum.ParseTruth(Normalize(q.Correct, ctx))
	return ok && got == want
}

// freeText accepts any of the question's answer variants. Numbers compare
// as canonical strings, without tolerance.
type freeText struct{}

func (freeText) match(q curriculum.Question, submitted string, ctx Context) bool {
	got := Normalize(submitted, ctx)
	if got == "" {
		return false
	}
	for _, variant := range curriculum.AnswerVariants(q) {
		if Normalize(variant, ctx) == got {
			return true
		}
	}
	return false
}
