package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gaiuszzang/VibeRAG/internal/domain"
)

// HeadingRules bounds what a paragraph's first line must look like to count as a heading.
type HeadingRules struct {
	MinLen     int
	MaxLen     int
	MaxTextLen int
}

// DefaultHeadingRules returns the stock heading heuristic.
func DefaultHeadingRules() HeadingRules {
	return HeadingRules{MinLen: 2, MaxLen: 80, MaxTextLen: 120}
}

var numberedHeadingRe = regexp.MustCompile(`^\d+(\.\d+)*\s+.+$`)

// DetectSections inspects the first line of every paragraph and records a
// marker at the paragraph's offset in the canonical text when it looks like
// a heading. Markers come out in strictly increasing offset order.
func DetectSections(paragraphs []string, rules HeadingRules) []domain.SectionMarker {
	var out []domain.SectionMarker
	offset := 0
	for _, p := range paragraphs {
		first, _, _ := strings.Cut(p, "\n")
		first = strings.TrimSpace(first)
		if rules.looksLikeHeading(first) {
			out = append(out, domain.SectionMarker{Offset: offset, Heading: truncateRunes(first, rules.MaxTextLen)})
		}
		offset += utf8.RuneCountInString(p) + utf8.RuneCountInString(paragraphSeparator)
	}
	return out
}

func (r HeadingRules) looksLikeHeading(line string) bool {
	n := utf8.RuneCountInString(line)
	if n < r.MinLen || n > r.MaxLen {
		return false
	}
	if numberedHeadingRe.MatchString(line) {
		return true
	}
	first, _ := utf8.DecodeRuneInString(line)
	return (unicode.IsLetter(first) || unicode.IsDigit(first)) && n <= r.MaxLen-1
}

// CurrentSection returns the heading of the last marker at or before offset.
func CurrentSection(markers []domain.SectionMarker, offset int) (string, bool) {
	heading, found := "", false
	for _, m := range markers {
		if m.Offset > offset {
			break
		}
		heading, found = m.Heading, true
	}
	return heading, found
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
