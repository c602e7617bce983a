package chunker

import (
	"unicode"
	"unicode/utf8"

	"github.com/gaiuszzang/VibeRAG/internal/domain"
)

// DefaultShortSentenceLen is the merged length up to which adjacent sentences are joined.
const DefaultShortSentenceLen = 60

// SplitSentences scans canonical text and cuts a sentence after every
// terminal mark (. ! ? … 。) and every newline. A mark with a digit on both
// sides, as in "3.14", is not a boundary. Each sentence carries its exact
// rune span with surrounding whitespace excluded.
func SplitSentences(text string) []domain.Sentence {
	runes := []rune(text)
	var out []domain.Sentence
	bufStart := 0
	flush := func(end int) {
		lo, hi := bufStart, end
		for lo < hi && unicode.IsSpace(runes[lo]) {
			lo++
		}
		for hi > lo && unicode.IsSpace(runes[hi-1]) {
			hi--
		}
		if lo < hi {
			out = append(out, domain.Sentence{Text: string(runes[lo:hi]), Start: lo, End: hi})
		}
		bufStart = end
	}

	for i, r := range runes {
		if isBoundary(runes, i, r) {
			flush(i + 1)
		}
	}
	flush(len(runes))
	return out
}

func isBoundary(runes []rune, i int, r rune) bool {
	switch r {
	case '\n':
		return true
	case '.', '!', '?', '…', '。':
		decimal := i > 0 && i+1 < len(runes) &&
			unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1])
		return !decimal
	default:
		return false
	}
}

// MergeShortSentences folds consecutive sentences into one while the joined
// text (single-space separated) stays within maxLen runes. A merged sentence
// keeps the first constituent's start and the last constituent's end.
func MergeShortSentences(sentences []domain.Sentence, maxLen int) []domain.Sentence {
	if len(sentences) == 0 {
		return nil
	}
	out := make([]domain.Sentence, 0, len(sentences))
	acc := sentences[0]
	accLen := utf8.RuneCountInString(acc.Text)
	for _, cur := range sentences[1:] {
		curLen := utf8.RuneCountInString(cur.Text)
		if accLen+1+curLen <= maxLen {
			acc.Text += " " + cur.Text
			acc.End = cur.End
			accLen += 1 + curLen
			continue
		}
		out = append(out, acc)
		acc, accLen = cur, curLen
	}
	return append(out, acc)
}
