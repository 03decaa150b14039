// Command contentcheck runs the offline integrity pass over a content
// directory and exits non-zero when any exercise is invalid.
//
// Usage:
//
//	contentcheck -dir ./content [-xlsx issues.xlsx] [-locale fr]
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/text/language"

	"github.com/p-n-ai/pai-quiz/internal/curriculum"
	"github.com/p-n-ai/pai-quiz/internal/grading"
	"github.com/p-n-ai/pai-quiz/internal/report"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run returns 0 when the content is valid, 1 when issues were found and
// 2 on usage or I/O errors.
func run(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("contentcheck", flag.ContinueOnError)
	dir := fs.String("dir", "./content", "content directory to check")
	xlsx := fs.String("xlsx", "", "write the issues to this spreadsheet")
	locale := fs.String("locale", "fr", "grading locale (BCP 47)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	tag, err := language.Parse(*locale)
	if err != nil {
		slog.Error("invalid locale", "locale", *locale, "error", err)
		return 2
	}
	grader := grading.NewGrader(grading.WithLocale(tag))

	exercises, issues, err := curriculum.ReadDir(*dir)
	if err != nil {
		slog.Error("reading content failed", "dir", *dir, "error", err)
		return 2
	}
	issues = append(issues, curriculum.Validate(exercises, grader.Check)...)

	for _, issue := range issues {
		fmt.Fprintln(stdout, issue.String())
	}

	if *xlsx != "" {
		if err := writeIssues(*xlsx, issues); err != nil {
			slog.Error("writing spreadsheet failed", "path", *xlsx, "error", err)
			return 2
		}
	}

	if len(issues) > 0 {
		slog.Warn("content has issues", "dir", *dir, "exercises", len(exercises), "issues", len(issues))
		return 1
	}
	slog.Info("content ok", "dir", *dir, "exercises", len(exercises))
	return 0
}

func writeIssues(path string, issues []curriculum.Issue) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteIssues(f, issues); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
