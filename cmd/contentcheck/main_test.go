package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-quiz/internal/report"
)

const brokenContent = `exercises:
  - id: maths-cp-900
    title: "Options en double"
    subject: maths
    level: CP
    difficulty: 1
    questions:
      - id: q1
        question: "Quelle couleur ?"
        type: multiple-choice
        options: ["Rouge", "rouge", "Vert"]
        correct_answer: "Vert"
        explanation: "Vert."
      - id: q2
        question: "2 + 2 ?"
        type: multiple-choice
        options: ["3", "5"]
        correct_answer: "4"
        explanation: "4"
`

func TestRun_BundledContentIsValid(t *testing.T) {
	var out bytes.Buffer
	if code := run([]string{"-dir", "../../content"}, &out); code != 0 {
		t.Fatalf("run() = %d, want 0; output:\n%s", code, out.String())
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want none", out.String())
	}
}

func TestRun_ReportsIssues(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cp.yaml"), []byte(brokenContent), 0o644); err != nil {
		t.Fatal(err)
	}
	xlsx := filepath.Join(t.TempDir(), "issues.xlsx")

	var out bytes.Buffer
	if code := run([]string{"-dir", dir, "-xlsx", xlsx}, &out); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}

	got := out.String()
	for _, want := range []string{"maths-cp-900/q1 options[1]", "maths-cp-900/q2"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	f, err := excelize.OpenFile(xlsx)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(report.IssuesSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) < 3 {
		t.Errorf("spreadsheet has %d rows, want header plus at least 2 issues", len(rows))
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-nope"}},
		{"bad locale", []string{"-dir", "../../content", "-locale", "not a tag"}},
		{"missing dir", []string{"-dir", filepath.Join(t.TempDir(), "absent")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if code := run(tt.args, &out); code != 2 {
				t.Errorf("run(%v) = %d, want 2", tt.args, code)
			}
		})
	}
}
