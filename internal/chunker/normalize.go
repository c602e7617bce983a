package chunker

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	wideSpaceRe     = regexp.MustCompile(`\s{3,}`)
	paragraphGapRe  = regexp.MustCompile(`\n{2,}`)
	lineTerminators = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// Normalize canonicalizes raw text: NFKC composition, "\n" line endings,
// control characters other than newline replaced by a space, each line
// trimmed with runs of three or more whitespace characters collapsed to one
// space, and the result trimmed.
func Normalize(raw string) string {
	s := norm.NFKC.String(raw)
	s = lineTerminators.Replace(s)
	s = strings.Map(func(r rune) rune {
		if r != '\n' && unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = wideSpaceRe.ReplaceAllString(strings.TrimSpace(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// SplitParagraphs splits normalized text on blank-line gaps and drops empty paragraphs.
func SplitParagraphs(s string) []string {
	parts := paragraphGapRe.Split(s, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinParagraphs builds the canonical text every offset refers to.
func JoinParagraphs(paragraphs []string) string {
	return strings.Join(paragraphs, paragraphSeparator)
}

const paragraphSeparator = "\n\n"
