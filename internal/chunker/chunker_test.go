package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaiuszzang/VibeRAG/internal/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "line endings", in: "a\r\nb\rc", want: "a\nb\nc"},
		{name: "controls and wide gaps", in: "  hello   world  \n\tfoo\u0007bar ", want: "hello world\nfoo bar"},
		{name: "double space kept", in: "a  b", want: "a  b"},
		{name: "nfkc", in: "ｆｕｌｌ ﬁle", want: "full file"},
		{name: "outer blank lines trimmed", in: "\n\n  body \n\n", want: "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Plain text.",
		"  Tabs\tand\u0000nulls \r\n\r\n\r\nnext    para ",
		"ﾃｽﾄ　全角　スペース　　　end",
		"x\u0085y z",
		"1. Heading\n\n\n\n   indented     body   line  ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestSplitParagraphs(t *testing.T) {
	got := SplitParagraphs("p1 line1\np1 line2\n\n\n\np2\n\n")
	assert.Equal(t, []string{"p1 line1\np1 line2", "p2"}, got)
	assert.Empty(t, SplitParagraphs(""))
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []domain.Sentence
	}{
		{
			name: "decimal is not a boundary",
			in:   "The value is 3.14 exactly.",
			want: []domain.Sentence{{Text: "The value is 3.14 exactly.", Start: 0, End: 26}},
		},
		{
			name: "terminal marks",
			in:   "Hello world. How are you? Fine!",
			want: []domain.Sentence{
				{Text: "Hello world.", Start: 0, End: 12},
				{Text: "How are you?", Start: 13, End: 25},
				{Text: "Fine!", Start: 26, End: 31},
			},
		},
		{
			name: "newline is a boundary",
			in:   "line one\nline two",
			want: []domain.Sentence{
				{Text: "line one", Start: 0, End: 8},
				{Text: "line two", Start: 9, End: 17},
			},
		},
		{
			name: "ellipsis and full-width stop",
			in:   "Wait… what。 ok",
			want: []domain.Sentence{
				{Text: "Wait…", Start: 0, End: 5},
				{Text: "what。", Start: 6, End: 11},
				{Text: "ok", Start: 12, End: 14},
			},
		},
		{
			name: "no punctuation",
			in:   "no punctuation here",
			want: []domain.Sentence{{Text: "no punctuation here", Start: 0, End: 19}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.in))
		})
	}

	assert.Empty(t, SplitSentences(""))
	assert.Empty(t, SplitSentences("  \n\n "))
}

func TestMergeShortSentences(t *testing.T) {
	long := strings.Repeat("a", 55) + "."
	in := []domain.Sentence{
		{Text: "Hi.", Start: 0, End: 3},
		{Text: "Ok.", Start: 4, End: 7},
		{Text: long, Start: 8, End: 64},
		{Text: "X.", Start: 65, End: 67},
		{Text: "Tail.", Start: 68, End: 73},
	}
	got := MergeShortSentences(in, DefaultShortSentenceLen)
	require.Len(t, got, 3)
	assert.Equal(t, domain.Sentence{Text: "Hi. Ok.", Start: 0, End: 7}, got[0])
	assert.Equal(t, domain.Sentence{Text: long + " X.", Start: 8, End: 67}, got[1])
	assert.Equal(t, domain.Sentence{Text: "Tail.", Start: 68, End: 73}, got[2])

	assert.Nil(t, MergeShortSentences(nil, DefaultShortSentenceLen))
}

func TestDetectSections(t *testing.T) {
	paragraphs := []string{
		"Intro",
		"- bullet text",
		strings.Repeat("x", 100),
		"3.2 Results\nbody line",
		"A",
	}
	got := DetectSections(paragraphs, DefaultHeadingRules())
	assert.Equal(t, []domain.SectionMarker{
		{Offset: 0, Heading: "Intro"},
		{Offset: 124, Heading: "3.2 Results"},
	}, got)
}

func TestDetectSections_LengthCaps(t *testing.T) {
	plain80 := "T" + strings.Repeat("x", 79)
	numbered80 := "1 " + strings.Repeat("x", 78)
	got := DetectSections([]string{plain80, numbered80}, DefaultHeadingRules())
	require.Len(t, got, 1)
	assert.Equal(t, numbered80, got[0].Heading)
	assert.Equal(t, 82, got[0].Offset)
}

func TestCurrentSection(t *testing.T) {
	markers := []domain.SectionMarker{
		{Offset: 0, Heading: "Intro"},
		{Offset: 120, Heading: "Methods"},
		{Offset: 340, Heading: "Results"},
	}
	tests := []struct {
		offset int
		want   string
		found  bool
	}{
		{offset: 200, want: "Methods", found: true},
		{offset: 50, want: "Intro", found: true},
		{offset: 340, want: "Results", found: true},
		{offset: 10_000, want: "Results", found: true},
		{offset: -1, want: "", found: false},
	}
	for _, tt := range tests {
		got, found := CurrentSection(markers, tt.offset)
		assert.Equal(t, tt.want, got, "offset %d", tt.offset)
		assert.Equal(t, tt.found, found, "offset %d", tt.offset)
	}

	_, found := CurrentSection(nil, 5)
	assert.False(t, found)
}

// evenSentences builds n sentences of size runes, laid out as if joined by one space.
func evenSentences(n, size int) []domain.Sentence {
	out := make([]domain.Sentence, n)
	pos := 0
	for i := range out {
		text := string(rune('a'+i%26)) + strings.Repeat("z", size-1)
		out[i] = domain.Sentence{Text: text, Start: pos, End: pos + size}
		pos += size + 1
	}
	return out
}

func TestAssembleChunks_Overlap(t *testing.T) {
	sentences := evenSentences(5, 20)
	chunks := AssembleChunks(sentences, nil, Window{DocID: "doc", TargetLen: 50, Overlap: 10})
	require.Len(t, chunks, 4)

	for i, c := range chunks {
		assert.Equal(t, ChunkID("doc", i), c.ID)
		assert.Equal(t, i, c.Index)
		assert.Equal(t, sentences[i].Text+"\n"+sentences[i+1].Text, c.Text)
		assert.Equal(t, sentences[i].Start, c.CharStart)
		assert.Equal(t, sentences[i+1].End, c.CharEnd)
	}
	for i := 1; i < len(chunks); i++ {
		prev := strings.Split(chunks[i-1].Text, "\n")
		cur := strings.Split(chunks[i].Text, "\n")
		assert.Equal(t, prev[len(prev)-1], cur[0], "chunks %d and %d share a sentence", i-1, i)
	}
}

func TestAssembleChunks_NoOverlap(t *testing.T) {
	sentences := evenSentences(5, 20)
	chunks := AssembleChunks(sentences, nil, Window{DocID: "doc", TargetLen: 50, Overlap: 0})
	require.Len(t, chunks, 3)
	assert.Equal(t, sentences[4].Text, chunks[2].Text)

	seen := map[string]bool{}
	for _, c := range chunks {
		for _, s := range strings.Split(c.Text, "\n") {
			assert.False(t, seen[s], "sentence %q repeated", s)
			seen[s] = true
		}
	}
}

func TestAssembleChunks_OversizedSentencesTerminate(t *testing.T) {
	sentences := evenSentences(7, 50)
	chunks := AssembleChunks(sentences, nil, Window{DocID: "d", TargetLen: 10, Overlap: 5})
	require.Len(t, chunks, 7)
	for i, c := range chunks {
		assert.Equal(t, sentences[i].Text, c.Text)
	}

	// Overlap larger than the window still advances one sentence at a time.
	chunks = AssembleChunks(evenSentences(4, 20), nil, Window{DocID: "d", TargetLen: 30, Overlap: 1000})
	assert.Len(t, chunks, 4)
}

func TestAssembleChunks_Empty(t *testing.T) {
	assert.Empty(t, AssembleChunks(nil, nil, Window{DocID: "d", TargetLen: 100}))
}

func TestAssembleChunks_Sections(t *testing.T) {
	sentences := evenSentences(3, 20)
	markers := []domain.SectionMarker{{Offset: 0, Heading: "One"}, {Offset: 42, Heading: "Two"}}
	chunks := AssembleChunks(sentences, markers, Window{DocID: "d", Source: "d.txt", TargetLen: 20})
	require.Len(t, chunks, 3)
	assert.Equal(t, "One", chunks[0].Section)
	assert.Equal(t, "One", chunks[1].Section)
	assert.Equal(t, "Two", chunks[2].Section)
	assert.Equal(t, "d.txt", chunks[2].Source)
}

const twoParagraphs = "1. Overview\nRAG systems split documents. They embed each chunk.\n\n" +
	"2. Details\nChunks overlap slightly. That keeps context."

func TestSectionChunker_SingleChunk(t *testing.T) {
	c := New(WithTargetLen(1000), WithOverlap(150))
	chunks, err := c.Chunk(domain.Document{ID: "docId", Source: "doc.txt", Content: twoParagraphs})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	canonical := Canonical(twoParagraphs)
	assert.Equal(t, "docId-00000", chunks[0].ID)
	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, len([]rune(canonical)), chunks[0].CharEnd)
	assert.Equal(t, "1. Overview", chunks[0].Section)
	assert.Equal(t, "doc.txt", chunks[0].Source)
	assert.Equal(t,
		"1. Overview RAG systems split documents.\n"+
			"They embed each chunk. 2. Details Chunks overlap slightly.\n"+
			"That keeps context.",
		chunks[0].Text)
}

func TestSectionChunker_MultipleChunks(t *testing.T) {
	c := New(WithTargetLen(60), WithOverlap(20))
	chunks, err := c.Chunk(domain.Document{ID: "docId", Content: twoParagraphs})
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	want := []struct {
		id         string
		start, end int
		section    string
	}{
		{id: "docId-00000", start: 0, end: 40, section: "1. Overview"},
		{id: "docId-00001", start: 41, end: 100, section: "1. Overview"},
		{id: "docId-00002", start: 101, end: 120, section: "2. Details"},
	}
	canonical := []rune(Canonical(twoParagraphs))
	for i, w := range want {
		assert.Equal(t, w.id, chunks[i].ID)
		assert.Equal(t, w.start, chunks[i].CharStart)
		assert.Equal(t, w.end, chunks[i].CharEnd)
		assert.Equal(t, w.section, chunks[i].Section)

		firstWord := strings.Fields(chunks[i].Text)[0]
		assert.True(t, strings.HasPrefix(string(canonical[w.start:w.end]), firstWord))
	}
}

func TestSectionChunker_Invariants(t *testing.T) {
	inputs := []string{
		"",
		"single line without punctuation",
		strings.Repeat("A very long sentence that keeps going without any stop ", 40),
		strings.Repeat("Short. ", 300),
		"Title\n\n" + strings.Repeat("Body sentence number one is here. ", 60) + "\n\nEnd\n\nDone.",
	}
	for _, in := range inputs {
		for _, opts := range [][]Option{
			nil,
			{WithTargetLen(50), WithOverlap(0)},
			{WithTargetLen(80), WithOverlap(500)},
		} {
			chunks, err := New(opts...).Chunk(domain.Document{ID: "p", Content: in})
			require.NoError(t, err)
			prevStart := -1
			for i, c := range chunks {
				assert.NotEmpty(t, c.Text)
				assert.Less(t, c.CharStart, c.CharEnd)
				assert.GreaterOrEqual(t, c.CharStart, prevStart)
				assert.Equal(t, i, c.Index)
				prevStart = c.CharStart
			}
		}
	}
}

func TestSectionChunker_RequiresDocID(t *testing.T) {
	_, err := New().Chunk(domain.Document{Content: "text"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
