package curriculum_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-quiz/internal/curriculum"
)

const cpMaths = `exercises:
  - id: maths-cp-001
    title: "Compter"
    subject: maths
    level: CP
    difficulty: 1
    estimated_time: 10
    skills: ["Dénombrement"]
    questions:
      - id: q1
        question: "Combien font 3 + 2 ?"
        type: multiple-choice
        options: [4, 5, 6]
        correct_answer: 5
        explanation: "3 + 2 = 5"
        hints: ["Compte sur tes doigts"]
      - id: q2
        question: "10 + 3,4 = ?"
        type: fill-blank
        correct_answer: ["13.40", "13,4"]
        accepted_answers: ["treize virgule quatre"]
        explanation: "13,4"
`

const cm1Sciences = `{
  "exercises": [
    {
      "id": "sci-cm1-001",
      "title": "États de l'eau",
      "subject": "Sciences",
      "level": "cm1",
      "difficulty": 2,
      "questions": [
        {
          "id": "q1",
          "question": "La glace flotte sur l'eau.",
          "type": "true-false",
          "correct_answer": "Vrai",
          "explanation": "La glace est moins dense."
        }
      ]
    }
  ]
}`

// setupTestContent writes a small content tree and returns its root.
func setupTestContent(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeContent(t, dir, "maths/cp.yaml", cpMaths)
	writeContent(t, dir, "sciences/cm1.json", cm1Sciences)
	writeContent(t, dir, "README.md", "not content")
	return dir
}

func writeContent(t *testing.T, root, name, data string) {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadRepository(t *testing.T) {
	dir := setupTestContent(t)

	repo, err := curriculum.LoadRepository(dir)
	if err != nil {
		t.Fatalf("LoadRepository() error = %v", err)
	}
	if repo.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", repo.Len())
	}

	all := repo.All()
	if all[0].ID != "maths-cp-001" || all[1].ID != "sci-cm1-001" {
		t.Errorf("load order = [%s %s], want lexical path order", all[0].ID, all[1].ID)
	}
}

func TestLoadRepository_ScalarsKeptAsAuthored(t *testing.T) {
	repo, err := curriculum.LoadRepository(setupTestContent(t))
	if err != nil {
		t.Fatalf("LoadRepository() error = %v", err)
	}

	q, ok := repo.Question("maths-cp-001", "q1")
	if !ok {
		t.Fatal("Question(maths-cp-001, q1) not found")
	}
	if q.Correct != "5" {
		t.Errorf("Correct = %q, want %q", q.Correct, "5")
	}
	if strings.Join(q.Options, ",") != "4,5,6" {
		t.Errorf("Options = %v, want [4 5 6]", q.Options)
	}

	q, _ = repo.Question("maths-cp-001", "q2")
	if q.Correct != "13.40" {
		t.Errorf("Correct = %q, want the first list entry %q", q.Correct, "13.40")
	}
	want := []string{"13,4", "treize virgule quatre"}
	if strings.Join(q.Accepted, "|") != strings.Join(want, "|") {
		t.Errorf("Accepted = %v, want %v", q.Accepted, want)
	}
}

func TestLoadRepository_NormalizesEnums(t *testing.T) {
	repo, err := curriculum.LoadRepository(setupTestContent(t))
	if err != nil {
		t.Fatalf("LoadRepository() error = %v", err)
	}

	ex, ok := repo.Get("sci-cm1-001")
	if !ok {
		t.Fatal("Get(sci-cm1-001) not found")
	}
	if ex.Subject != curriculum.SubjectSciences {
		t.Errorf("Subject = %q, want %q", ex.Subject, curriculum.SubjectSciences)
	}
	if ex.Level != curriculum.LevelCM1 {
		t.Errorf("Level = %q, want %q", ex.Level, curriculum.LevelCM1)
	}
}

func TestLoadRepository_SchemaError(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, "bad.yaml", `exercises:
  - id: maths-cp-002
    title: "Sans questions"
    subject: maths
    level: CP
    difficulty: 9
    questions: []
`)

	_, err := curriculum.LoadRepository(dir)
	var verr *curriculum.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("LoadRepository() error = %v, want *ValidationError", err)
	}
	for _, issue := range verr.Issues {
		if issue.Source == "" {
			t.Errorf("issue %v has no source file", issue)
		}
	}
}

func TestLoadRepository_SyntaxError(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, "broken.yaml", "exercises: [\n")

	_, err := curriculum.LoadRepository(dir)
	var verr *curriculum.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("LoadRepository() error = %v, want *ValidationError", err)
	}
	if verr.Issues[0].Field != "file" {
		t.Errorf("Field = %q, want file", verr.Issues[0].Field)
	}
}

func TestLoadRepository_RunsExtraChecks(t *testing.T) {
	dir := setupTestContent(t)
	calls := 0
	check := func(ex curriculum.Exercise) []curriculum.Issue {
		calls++
		if ex.ID == "sci-cm1-001" {
			return []curriculum.Issue{{ExerciseID: ex.ID, Field: "title", Message: "rejected"}}
		}
		return nil
	}

	_, err := curriculum.LoadRepository(dir, check)
	if err == nil {
		t.Fatal("LoadRepository() should fail when a check reports an issue")
	}
	if calls != 2 {
		t.Errorf("check called %d times, want 2", calls)
	}
}

func TestLoadRepository_MissingDir(t *testing.T) {
	_, err := curriculum.LoadRepository(filepath.Join(t.TempDir(), "absent"))
	if err == nil {
		t.Fatal("LoadRepository() should fail for a missing directory")
	}
	var verr *curriculum.ValidationError
	if errors.As(err, &verr) {
		t.Error("missing directory should be an I/O error, not a validation error")
	}
}

func TestLoadRepository_BundledContent(t *testing.T) {
	repo, err := curriculum.LoadRepository("../../content")
	if err != nil {
		t.Fatalf("LoadRepository(content) error = %v", err)
	}
	if repo.Len() == 0 {
		t.Fatal("bundled content is empty")
	}
	if _, ok := repo.Question("math-cp-006", "q1"); !ok {
		t.Error("bundled content is missing math-cp-006/q1")
	}
}
