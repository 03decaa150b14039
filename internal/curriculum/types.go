package curriculum

import (
	"fmt"
	"strings"
)

// Subject is a school subject (e.g., maths, francais).
type Subject string

const (
	SubjectMaths          Subject = "maths"
	SubjectFrancais       Subject = "francais"
	SubjectSciences       Subject = "sciences"
	SubjectHistoireGeo    Subject = "histoire-geo"
	SubjectAnglais        Subject = "anglais"
	SubjectDecouverte     Subject = "decouverte"
	SubjectEspagnol       Subject = "espagnol"
	SubjectAllemand       Subject = "allemand"
	SubjectItalien        Subject = "italien"
	SubjectLatin          Subject = "latin"
	SubjectArabe          Subject = "arabe"
	SubjectEMC            Subject = "emc"
	SubjectTechnologie    Subject = "technologie"
	SubjectArtsPlastiques Subject = "arts-plastiques"
)

// Subjects lists every known subject in catalogue order.
var Subjects = []Subject{
	SubjectMaths, SubjectFrancais, SubjectSciences, SubjectHistoireGeo,
	SubjectAnglais, SubjectDecouverte, SubjectEspagnol, SubjectAllemand,
	SubjectItalien, SubjectLatin, SubjectArabe, SubjectEMC,
	SubjectTechnologie, SubjectArtsPlastiques,
}

// ParseSubject validates a raw subject string against the closed set.
func ParseSubject(s string) (Subject, error) {
	raw := Subject(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Subjects {
		if raw == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown subject %q", s)
}

// Level is a French school grade, from CP to 3ème.
type Level string

const (
	LevelCP        Level = "CP"
	LevelCE1       Level = "CE1"
	LevelCE2       Level = "CE2"
	LevelCM1       Level = "CM1"
	LevelCM2       Level = "CM2"
	LevelSixieme   Level = "6ème"
	LevelCinquieme Level = "5ème"
	LevelQuatrieme Level = "4ème"
	LevelTroisieme Level = "3ème"
)

// Levels lists every known level from youngest to oldest.
var Levels = []Level{
	LevelCP, LevelCE1, LevelCE2, LevelCM1, LevelCM2,
	LevelSixieme, LevelCinquieme, LevelQuatrieme, LevelTroisieme,
}

var levelAliases = map[string]Level{
	"6eme": LevelSixieme, "6e": LevelSixieme,
	"5eme": LevelCinquieme, "5e": LevelCinquieme,
	"4eme": LevelQuatrieme, "4e": LevelQuatrieme,
	"3eme": LevelTroisieme, "3e": LevelTroisieme,
}

// ParseLevel validates a raw level string. Collège levels are also accepted
// without the accent ("6eme") or abbreviated ("6e").
func ParseLevel(s string) (Level, error) {
	raw := strings.TrimSpace(s)
	for _, known := range Levels {
		if strings.EqualFold(raw, string(known)) {
			return known, nil
		}
	}
	if l, ok := levelAliases[strings.ToLower(raw)]; ok {
		return l, nil
	}
	return "", fmt.Errorf("unknown level %q", s)
}

// QuestionType determines how a question is graded.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple-choice"
	TypeTrueFalse      QuestionType = "true-false"
	TypeFillBlank      QuestionType = "fill-blank"
	TypeOpenEnded      QuestionType = "open-ended"
)

// ParseQuestionType validates a raw question type.
func ParseQuestionType(s string) (QuestionType, error) {
	switch t := QuestionType(strings.TrimSpace(s)); t {
	case TypeMultipleChoice, TypeTrueFalse, TypeFillBlank, TypeOpenEnded:
		return t, nil
	default:
		return "", fmt.Errorf("unknown question type %q", s)
	}
}

const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Exercise is an immutable unit of quiz content.
type Exercise struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Subject       Subject    `json:"subject"`
	Level         Level      `json:"level"`
	Difficulty    int        `json:"difficulty"`
	Description   string     `json:"description"`
	EstimatedTime int        `json:"estimated_time"` // minutes
	Skills        []string   `json:"skills"`
	Questions     []Question `json:"questions"`
}

// Question returns the question with the given ID.
func (e Exercise) Question(id string) (Question, bool) {
	for _, q := range e.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Question is a single prompt within an exercise. Explanation is shown after
// grading, never before. Hints are ordered weakest to strongest.
type Question struct {
	ID              string       `json:"id"`
	Prompt          string       `json:"question"`
	Type            QuestionType `json:"type"`
	Options         []string     `json:"options,omitempty"`
	Correct         string       `json:"correct_answer"`
	Accepted        []string     `json:"accepted_answers,omitempty"`
	Explanation     string       `json:"explanation"`
	Hints           []string     `json:"hints,omitempty"`
	UnitInsensitive bool         `json:"unit_insensitive,omitempty"`
	IgnoreArticles  bool         `json:"ignore_articles,omitempty"`
}
