package curriculum

import (
	_ "embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema/exercises.schema.json
var exercisesSchema string

var schemaLoader = gojsonschema.NewStringLoader(exercisesSchema)

// contentFile is the on-disk shape of a content file (YAML or JSON).
type contentFile struct {
	Exercises []exerciseFile `yaml:"exercises"`
}

type exerciseFile struct {
	ID            string         `yaml:"id"`
	Title         string         `yaml:"title"`
	Subject       string         `yaml:"subject"`
	Level         string         `yaml:"level"`
	Difficulty    int            `yaml:"difficulty"`
	Description   string         `yaml:"description"`
	EstimatedTime int            `yaml:"estimated_time"`
	Skills        []string       `yaml:"skills"`
	Questions     []questionFile `yaml:"questions"`
}

type questionFile struct {
	ID              string     `yaml:"id"`
	Question        string     `yaml:"question"`
	Type            string     `yaml:"type"`
	Options         scalarList `yaml:"options"`
	CorrectAnswer   scalarList `yaml:"correct_answer"`
	AcceptedAnswers scalarList `yaml:"accepted_answers"`
	Explanation     string     `yaml:"explanation"`
	Hints           []string   `yaml:"hints"`
	UnitInsensitive bool       `yaml:"unit_insensitive"`
	IgnoreArticles  bool       `yaml:"ignore_articles"`
}

// scalarList keeps scalars as authored ("13.40" stays "13.40", 5 becomes
// "5") and accepts either a single scalar or a sequence of them.
type scalarList []string

func (l *scalarList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = scalarList{node.Value}
	case yaml.SequenceNode:
		out := make(scalarList, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: expected a scalar", item.Line)
			}
			out = append(out, item.Value)
		}
		*l = out
	default:
		return fmt.Errorf("line %d: expected a scalar or a list of scalars", node.Line)
	}
	return nil
}

// LoadRepository reads every content file under rootDir, runs the integrity
// pass and returns an immutable repository. Any issue fails the load with a
// *ValidationError so invalid content never reaches learners.
func LoadRepository(rootDir string, checks ...Check) (*Repository, error) {
	exercises, issues, err := ReadDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}
	issues = append(issues, Validate(exercises, checks...)...)
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	repo := NewRepository(exercises)
	slog.Info("content loaded", "path", rootDir, "exercises", repo.Len())
	return repo, nil
}

// ReadDir parses every .yaml, .yml and .json file under rootDir in lexical
// path order, preserving in-file order. Schema and syntax problems are
// returned as issues; the returned error is reserved for I/O failures.
func ReadDir(rootDir string) ([]Exercise, []Issue, error) {
	var (
		exercises []Exercise
		issues    []Issue
	)

	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isContentFile(path) {
			return nil
		}
		exs, fileIssues, err := ReadFile(path)
		if err != nil {
			return err
		}
		exercises = append(exercises, exs...)
		issues = append(issues, fileIssues...)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walking %s: %w", rootDir, err)
	}

	return exercises, issues, nil
}

// ReadFile parses a single content file.
func ReadFile(path string) ([]Exercise, []Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	exs, issues := Parse(data)
	for i := range issues {
		issues[i].Source = path
	}
	return exs, issues, nil
}

// Parse decodes content bytes (YAML or JSON), validating them against the
// content schema first.
func Parse(data []byte) ([]Exercise, []Issue) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, []Issue{{Field: "file", Message: err.Error()}}
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, []Issue{{Field: "file", Message: fmt.Sprintf("schema validation: %v", err)}}
	}
	if !result.Valid() {
		issues := make([]Issue, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			issues = append(issues, Issue{Field: re.Field(), Message: re.Description()})
		}
		return nil, issues
	}

	var file contentFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, []Issue{{Field: "file", Message: err.Error()}}
	}

	exercises := make([]Exercise, 0, len(file.Exercises))
	for _, ef := range file.Exercises {
		exercises = append(exercises, ef.toExercise())
	}
	return exercises, nil
}

// toExercise maps the file shape onto domain types. Unknown enum values are
// kept verbatim so Validate can report them.
func (ef exerciseFile) toExercise() Exercise {
	ex := Exercise{
		ID:            strings.TrimSpace(ef.ID),
		Title:         ef.Title,
		Subject:       Subject(ef.Subject),
		Level:         Level(ef.Level),
		Difficulty:    ef.Difficulty,
		Description:   ef.Description,
		EstimatedTime: ef.EstimatedTime,
		Skills:        ef.Skills,
		Questions:     make([]Question, 0, len(ef.Questions)),
	}
	if s, err := ParseSubject(ef.Subject); err == nil {
		ex.Subject = s
	}
	if l, err := ParseLevel(ef.Level); err == nil {
		ex.Level = l
	}

	for _, qf := range ef.Questions {
		q := Question{
			ID:              strings.TrimSpace(qf.ID),
			Prompt:          qf.Question,
			Type:            QuestionType(qf.Type),
			Options:         qf.Options,
			Explanation:     qf.Explanation,
			Hints:           qf.Hints,
			UnitInsensitive: qf.UnitInsensitive,
			IgnoreArticles:  qf.IgnoreArticles,
		}
		if t, err := ParseQuestionType(qf.Type); err == nil {
			q.Type = t
		}
		// A list-valued correct answer holds the canonical form first.
		if len(qf.CorrectAnswer) > 0 {
			q.Correct = qf.CorrectAnswer[0]
			q.Accepted = append(q.Accepted, qf.CorrectAnswer[1:]...)
		}
		q.Accepted = append(q.Accepted, qf.AcceptedAnswers...)
		if len(q.Accepted) == 0 {
			q.Accepted = nil
		}
		ex.Questions = append(ex.Questions, q)
	}

	return ex
}

func isContentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
