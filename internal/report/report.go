// Package report renders session results and content issues as XLSX
// workbooks.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-quiz/internal/curriculum"
	"github.com/p-n-ai/pai-quiz/internal/session"
)

// Sheet names.
const (
	SummarySheet = "Résumé"
	ResultsSheet = "Résultats"
	IssuesSheet  = "Problèmes"
)

var (
	resultsHeader = []any{"Exercice", "Titre", "Question", "Énoncé", "Correct", "Tentatives", "Indices", "Enregistré le"}
	issuesHeader  = []any{"Fichier", "Exercice", "Question", "Champ", "Message"}
)

// WriteSession writes the summary and per-question results of a session.
// Exercises missing from repo are reported by ID only.
func WriteSession(w io.Writer, sess session.Session, repo *curriculum.Repository) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header, err := headerStyle(f)
	if err != nil {
		return err
	}

	sum := session.NewScorer(sess.Results...).Summary()
	ended := ""
	if sess.EndedAt != nil {
		ended = sess.EndedAt.Format(time.RFC3339)
	}
	summaryRows := [][]any{
		{"Session", sess.ID},
		{"Élève", sess.LearnerID},
		{"Début", sess.StartedAt.Format(time.RFC3339)},
		{"Fin", ended},
		{"Questions", sum.TotalQuestions},
		{"Réponses justes", sum.CorrectCount},
		{"Réussite", sum.Accuracy},
		{"Indices utilisés", sum.TotalHintsUsed},
	}
	if err := writeRows(f, SummarySheet, summaryRows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", cell(1, len(summaryRows)), header); err != nil {
		return fmt.Errorf("style summary: %w", err)
	}
	percent, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return fmt.Errorf("create percent style: %w", err)
	}
	if err := f.SetCellStyle(SummarySheet, "B7", "B7", percent); err != nil {
		return fmt.Errorf("style accuracy: %w", err)
	}
	if err := f.SetColWidth(SummarySheet, "A", "B", 24); err != nil {
		return fmt.Errorf("size summary columns: %w", err)
	}

	if _, err := f.NewSheet(ResultsSheet); err != nil {
		return fmt.Errorf("create results sheet: %w", err)
	}
	rows := [][]any{resultsHeader}
	for _, r := range sess.Results {
		title, prompt := "", ""
		if ex, ok := repo.Get(r.ExerciseID); ok {
			title = ex.Title
			if q, ok := ex.Question(r.QuestionID); ok {
				prompt = q.Prompt
			}
		}
		rows = append(rows, []any{
			r.ExerciseID, title, r.QuestionID, prompt,
			yesNo(r.Correct), r.Attempts, r.HintsUsed,
			r.RecordedAt.Format(time.RFC3339),
		})
	}
	if err := writeTable(f, ResultsSheet, rows, header); err != nil {
		return err
	}

	return write(f, w)
}

// WriteIssues writes content-integrity issues, one per row.
func WriteIssues(w io.Writer, issues []curriculum.Issue) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", IssuesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header, err := headerStyle(f)
	if err != nil {
		return err
	}

	rows := [][]any{issuesHeader}
	for _, is := range issues {
		rows = append(rows, []any{is.Source, is.ExerciseID, is.QuestionID, is.Field, is.Message})
	}
	if err := writeTable(f, IssuesSheet, rows, header); err != nil {
		return err
	}

	return write(f, w)
}

func writeTable(f *excelize.File, sheet string, rows [][]any, header int) error {
	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	width := len(rows[0])
	if err := f.SetCellStyle(sheet, "A1", cell(width, 1), header); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze %s header: %w", sheet, err)
	}
	lastCol, _ := excelize.ColumnNumberToName(width)
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return fmt.Errorf("size %s columns: %w", sheet, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if err := f.SetSheetRow(sheet, cell(1, i+1), &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func write(f *excelize.File, w io.Writer) error {
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func headerStyle(f *excelize.File) (int, error) {
	id, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, fmt.Errorf("create header style: %w", err)
	}
	return id, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func yesNo(b bool) string {
	if b {
		return "oui"
	}
	return "non"
}
