package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-quiz/internal/curriculum"
	"github.com/p-n-ai/pai-quiz/internal/report"
	"github.com/p-n-ai/pai-quiz/internal/session"
)

func openWorkbook(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWriteSession(t *testing.T) {
	repo := curriculum.NewRepository([]curriculum.Exercise{{
		ID: "math-cp-006", Title: "Additions", Subject: curriculum.SubjectMaths,
		Level: curriculum.LevelCP, Difficulty: 1,
		Questions: []curriculum.Question{
			{ID: "q1", Prompt: "Combien font 3 + 2 ?", Type: curriculum.TypeMultipleChoice, Options: []string{"4", "5"}, Correct: "5", Explanation: "5"},
		},
	}})
	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	sess := session.Session{
		ID:        "sess-1",
		LearnerID: "learner-1",
		StartedAt: started,
		Results: []session.Result{
			{ExerciseID: "math-cp-006", QuestionID: "q1", Correct: true, HintsUsed: 1, Attempts: 2, RecordedAt: started.Add(time.Minute)},
			{ExerciseID: "gone-001", QuestionID: "q4", Correct: false, Attempts: 3, RecordedAt: started.Add(2 * time.Minute)},
		},
	}

	var buf bytes.Buffer
	if err := report.WriteSession(&buf, sess, repo); err != nil {
		t.Fatalf("WriteSession() error = %v", err)
	}

	f := openWorkbook(t, &buf)
	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != report.SummarySheet || sheets[1] != report.ResultsSheet {
		t.Fatalf("sheets = %v", sheets)
	}

	rows, err := f.GetRows(report.ResultsSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "Exercice" {
		t.Errorf("header = %v", rows[0])
	}
	first := rows[1]
	if first[0] != "math-cp-006" || first[1] != "Additions" || first[3] != "Combien font 3 + 2 ?" || first[4] != "oui" {
		t.Errorf("first result row = %v", first)
	}
	if rows[2][0] != "gone-001" || rows[2][1] != "" || rows[2][4] != "non" {
		t.Errorf("unknown exercise row = %v", rows[2])
	}

	questions, err := f.GetCellValue(report.SummarySheet, "B5")
	if err != nil {
		t.Fatalf("GetCellValue() error = %v", err)
	}
	if questions != "2" {
		t.Errorf("total questions = %q, want 2", questions)
	}
	id, _ := f.GetCellValue(report.SummarySheet, "B1")
	if id != "sess-1" {
		t.Errorf("session id = %q, want sess-1", id)
	}
}

func TestWriteIssues(t *testing.T) {
	issues := []curriculum.Issue{
		{Source: "maths/cp.yaml", ExerciseID: "math-cp-002", QuestionID: "q1", Field: "correct_answer", Message: "must equal exactly one option, matched 0"},
		{Source: "francais/ce1.yaml", Field: "exercises[0].id", Message: "is required"},
	}

	var buf bytes.Buffer
	if err := report.WriteIssues(&buf, issues); err != nil {
		t.Fatalf("WriteIssues() error = %v", err)
	}

	f := openWorkbook(t, &buf)
	rows, err := f.GetRows(report.IssuesSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want header + 2", len(rows))
	}
	if rows[1][1] != "math-cp-002" || rows[1][3] != "correct_answer" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][0] != "francais/ce1.yaml" || rows[2][4] != "is required" {
		t.Errorf("row 2 = %v", rows[2])
	}
}

func TestWriteIssues_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := report.WriteIssues(&buf, nil); err != nil {
		t.Fatalf("WriteIssues() error = %v", err)
	}
	f := openWorkbook(t, &buf)
	rows, _ := f.GetRows(report.IssuesSheet)
	if len(rows) != 1 {
		t.Errorf("len(rows) = %d, want header only", len(rows))
	}
}
