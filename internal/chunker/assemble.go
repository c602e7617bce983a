package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gaiuszzang/VibeRAG/internal/domain"
)

// Window configures chunk assembly for one document.
type Window struct {
	DocID     string
	Source    string
	TargetLen int
	Overlap   int
}

// ChunkID formats the identifier of the seq-th chunk of a document.
func ChunkID(docID string, seq int) string {
	return fmt.Sprintf("%s-%05d", docID, seq)
}

// AssembleChunks packs consecutive sentences, newline-joined, into chunks of
// at most w.TargetLen runes. A chunk always takes at least one sentence, so an
// oversized sentence becomes a chunk of its own. The next chunk restarts at the
// trailing sentences that cover w.Overlap runes, but never at or before the
// previous chunk's first sentence.
func AssembleChunks(sentences []domain.Sentence, sections []domain.SectionMarker, w Window) []domain.Chunk {
	var out []domain.Chunk
	seq := 0
	for cursor := 0; cursor < len(sentences); {
		var buf strings.Builder
		bufLen := 0
		start := sentences[cursor].Start
		end := start

		next := cursor
		for ; next < len(sentences); next++ {
			s := sentences[next]
			n := utf8.RuneCountInString(s.Text)
			if bufLen > 0 && bufLen+1+n > w.TargetLen {
				break
			}
			if bufLen > 0 {
				buf.WriteByte('\n')
				bufLen++
			}
			buf.WriteString(s.Text)
			bufLen += n
			end = s.End
		}

		if text := strings.TrimSpace(buf.String()); text != "" {
			section, _ := CurrentSection(sections, start)
			out = append(out, domain.Chunk{
				ID:        ChunkID(w.DocID, seq),
				Text:      text,
				Source:    w.Source,
				Section:   section,
				Index:     seq,
				CharStart: start,
				CharEnd:   end,
			})
			seq++
		}
		if next >= len(sentences) {
			break
		}

		cursor = max(overlapStart(sentences, cursor, next, w.Overlap), cursor+1)
	}
	return out
}

// overlapStart walks back from the last consumed sentence (next-1) until the
// accumulated length, one joining newline per sentence, reaches overlap.
func overlapStart(sentences []domain.Sentence, first, next, overlap int) int {
	back := 0
	k := next - 1
	for k >= first && back < overlap {
		back += utf8.RuneCountInString(sentences[k].Text) + 1
		k--
	}
	return k + 1
}
