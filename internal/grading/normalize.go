// Package grading normalizes learner answers and grades them against the
// accepted answers of a question.
package grading

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/p-n-ai/pai-quiz/internal/curriculum"
)

// DefaultLocale is used for case folding when a context carries no locale.
var DefaultLocale = language.French

// Context carries the question properties that affect normalization.
type Context struct {
	Type            curriculum.QuestionType
	Locale          language.Tag
	UnitInsensitive bool
	IgnoreArticles  bool
}

// ContextFor derives the normalization context of a question.
func ContextFor(q curriculum.Question, locale language.Tag) Context {
	return Context{
		Type:            q.Type,
		Locale:          locale,
		UnitInsensitive: q.UnitInsensitive,
		IgnoreArticles:  q.IgnoreArticles || q.Type == curriculum.TypeOpenEnded,
	}
}

var (
	decimalRun = regexp.MustCompile(`\d+(?:[.,]\d+)+`)
	unitSuffix = regexp.MustCompile(`^(.*\d)(?:\s*(?:€|euros?|eur|cm²|cm2|m²|m2|km|cm|mm|m|kg|g|cl|ml|l|min|h|s|°c|°|%))+$`)
	unitWord   = regexp.MustCompile(`^(.*\d)?(€|euros?|eur|cm²|cm2|m²|m2|km|cm|mm|m|kg|g|cl|ml|l|min|h|s|°c|°|%)$`)

	currencyWords = map[string]string{"euro": "€", "euros": "€", "eur": "€"}

	typographic = strings.NewReplacer(
		"œ", "oe",
		"æ", "ae",
		"’", "'",
		"‘", "'",
		"ʼ", "'",
	)

	leadingWords = map[string]struct{}{
		// pronouns
		"je": {}, "tu": {}, "il": {}, "elle": {}, "on": {},
		"nous": {}, "vous": {}, "ils": {}, "elles": {},
		// articles and determiners
		"le": {}, "la": {}, "les": {}, "un": {}, "une": {}, "des": {},
		"du": {}, "de": {}, "ce": {}, "cet": {}, "cette": {}, "ces": {},
		"mon": {}, "ma": {}, "mes": {}, "ton": {}, "ta": {}, "tes": {},
		"son": {}, "sa": {}, "ses": {}, "notre": {}, "nos": {},
		"votre": {}, "vos": {}, "leur": {}, "leurs": {},
	}
	elisions = []string{"l'", "d'", "j'", "qu'"}
)

// Normalize canonicalizes a raw answer so that equivalent spellings compare
// equal. Steps, in order:
//
//  1. trim and collapse whitespace
//  2. lower-case with the context locale
//  3. strip diacritics and fold ligatures and typographic apostrophes
//  4. rewrite single-separator decimals with "." ("13,4" -> "13.4")
//  5. attach units to their number and spell currencies "€" ("5 euros" -> "5€")
//  6. drop a trailing unit or currency, only if UnitInsensitive
//  7. drop leading articles, pronouns and elisions, only if IgnoreArticles
//
// Normalize never fails and is idempotent.
func Normalize(raw string, ctx Context) string {
	s := collapseSpace(raw)
	s = lowerCase(s, ctx.Locale)
	// Removing a stray combining mark can leave a space at either end.
	s = collapseSpace(stripDiacritics(s))
	s = unifyDecimals(s)
	s = attachUnits(s)
	if ctx.UnitInsensitive {
		s = stripUnits(s)
	}
	if ctx.IgnoreArticles {
		s = stripLeadingWords(s)
	}
	return collapseSpace(s)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func lowerCase(s string, locale language.Tag) string {
	if locale == language.Und {
		locale = DefaultLocale
	}
	// Casers keep state; one per call keeps Normalize safe for concurrent use.
	return cases.Lower(locale).String(s)
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return typographic.Replace(out)
}

// unifyDecimals only touches runs with exactly one separator, so lists and
// grouped thousands such as "1.000.000" are left alone.
func unifyDecimals(s string) string {
	return decimalRun.ReplaceAllStringFunc(s, func(run string) string {
		if strings.Count(run, ".")+strings.Count(run, ",") != 1 {
			return run
		}
		return strings.Replace(run, ",", ".", 1)
	})
}

// attachUnits joins a unit to the number before it and spells currencies
// as "€", so "5 €", "5 euros" and "5€" all read "5€".
func attachUnits(s string) string {
	words := strings.Fields(s)
	out := make([]string, 0, len(words))
	for _, w := range words {
		m := unitWord.FindStringSubmatch(w)
		if m == nil {
			out = append(out, w)
			continue
		}
		unit := m[2]
		if c, ok := currencyWords[unit]; ok {
			unit = c
		}
		switch {
		case m[1] != "":
			out = append(out, m[1]+unit)
		case len(out) > 0 && endsWithDigit(out[len(out)-1]):
			out[len(out)-1] += unit
		default:
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}

func endsWithDigit(s string) bool {
	return s != "" && s[len(s)-1] >= '0' && s[len(s)-1] <= '9'
}

func stripUnits(s string) string {
	for {
		m := unitSuffix.FindStringSubmatch(s)
		if m == nil {
			return s
		}
		s = strings.TrimSpace(m[1])
	}
}

func stripLeadingWords(s string) string {
	for {
		stripped := false
		for _, e := range elisions {
			if rest, ok := strings.CutPrefix(s, e); ok && strings.TrimSpace(rest) != "" {
				s = strings.TrimSpace(rest)
				stripped = true
				break
			}
		}
		if !stripped {
			words := strings.Fields(s)
			if len(words) > 1 {
				if _, ok := leadingWords[words[0]]; ok {
					s = strings.Join(words[1:], " ")
					stripped = true
				}
			}
		}
		if !stripped {
			return s
		}
	}
}
