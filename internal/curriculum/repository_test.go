package curriculum_test

import (
	"testing"

	"github.com/p-n-ai/pai-quiz/internal/curriculum"
)

func fixtureExercises() []curriculum.Exercise {
	mk := func(id string, level curriculum.Level, subject curriculum.Subject) curriculum.Exercise {
		ex := validExercise(id)
		ex.Level = level
		ex.Subject = subject
		return ex
	}
	return []curriculum.Exercise{
		mk("fr-cp-001", curriculum.LevelCP, curriculum.SubjectFrancais),
		mk("maths-cp-001", curriculum.LevelCP, curriculum.SubjectMaths),
		mk("maths-cp-002", curriculum.LevelCP, curriculum.SubjectMaths),
		mk("maths-cm1-001", curriculum.LevelCM1, curriculum.SubjectMaths),
	}
}

func TestRepository_Lookups(t *testing.T) {
	repo := curriculum.NewRepository(fixtureExercises())

	if repo.Len() != 4 {
		t.Errorf("Len() = %d, want 4", repo.Len())
	}
	if _, ok := repo.Get("maths-cp-002"); !ok {
		t.Error("Get(maths-cp-002) not found")
	}
	if _, ok := repo.Get("nope"); ok {
		t.Error("Get(nope) should not be found")
	}
	if _, ok := repo.Question("maths-cp-001", "q1"); !ok {
		t.Error("Question(maths-cp-001, q1) not found")
	}
	if _, ok := repo.Question("maths-cp-001", "q9"); ok {
		t.Error("Question(maths-cp-001, q9) should not be found")
	}
	if _, ok := repo.Question("nope", "q1"); ok {
		t.Error("Question(nope, q1) should not be found")
	}
}

func TestRepository_ByLevel(t *testing.T) {
	repo := curriculum.NewRepository(fixtureExercises())

	cp := repo.ByLevel(curriculum.LevelCP)
	if len(cp) != 3 || cp[0].ID != "fr-cp-001" || cp[2].ID != "maths-cp-002" {
		t.Errorf("ByLevel(CP) = %v, want 3 exercises in load order", ids(cp))
	}

	maths := repo.ByLevelAndSubject(curriculum.LevelCP, curriculum.SubjectMaths)
	if len(maths) != 2 {
		t.Errorf("ByLevelAndSubject(CP, maths) = %v, want 2", ids(maths))
	}

	none := repo.ByLevel("Terminale")
	if none == nil || len(none) != 0 {
		t.Errorf("ByLevel(Terminale) = %#v, want empty non-nil slice", none)
	}
}

func TestRepository_Subjects(t *testing.T) {
	repo := curriculum.NewRepository(fixtureExercises())

	subjects := repo.SubjectsForLevel(curriculum.LevelCP)
	if len(subjects) != 2 || subjects[0] != curriculum.SubjectFrancais || subjects[1] != curriculum.SubjectMaths {
		t.Errorf("SubjectsForLevel(CP) = %v, want [francais maths]", subjects)
	}

	counts := repo.CountBySubject(curriculum.LevelCP)
	if counts[curriculum.SubjectMaths] != 2 || counts[curriculum.SubjectFrancais] != 1 {
		t.Errorf("CountBySubject(CP) = %v", counts)
	}
	if n, ok := counts[curriculum.SubjectLatin]; !ok || n != 0 {
		t.Errorf("CountBySubject(CP)[latin] = (%d, %v), want (0, true)", n, ok)
	}
}

func TestRepository_AllIsACopy(t *testing.T) {
	repo := curriculum.NewRepository(fixtureExercises())
	all := repo.All()
	all[0].ID = "changed"

	if _, ok := repo.Get("fr-cp-001"); !ok {
		t.Error("mutating All() result changed the repository")
	}
	if repo.All()[0].ID != "fr-cp-001" {
		t.Error("All() returned shared backing array")
	}
}

func TestRepository_Fingerprint(t *testing.T) {
	a := curriculum.NewRepository(fixtureExercises())
	b := curriculum.NewRepository(fixtureExercises())
	if a.Fingerprint() == "" {
		t.Fatal("Fingerprint() is empty")
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("Fingerprint() differs for identical content")
	}

	changed := fixtureExercises()
	changed[0].Title = "Autre"
	if curriculum.NewRepository(changed).Fingerprint() == a.Fingerprint() {
		t.Error("Fingerprint() unchanged after content edit")
	}
}

func ids(exs []curriculum.Exercise) []string {
	out := make([]string, len(exs))
	for i, ex := range exs {
		out[i] = ex.ID
	}
	return out
}
