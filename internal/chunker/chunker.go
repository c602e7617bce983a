// Package chunker turns raw document text into overlapping, section-aware chunks.
//
// The pipeline is Normalize → SplitParagraphs → SplitSentences →
// MergeShortSentences → DetectSections → AssembleChunks. Every stage is a
// pure function over ordered slices. All offsets are rune offsets into the
// canonical text: the normalized paragraphs joined by a blank line.
package chunker

import (
	"fmt"

	"github.com/gaiuszzang/VibeRAG/internal/domain"
)

// Default window sizes, in runes.
const (
	DefaultTargetLen = 1000
	DefaultOverlap   = 150
)

// SectionChunker implements domain.Chunker.
type SectionChunker struct {
	targetLen        int
	overlap          int
	shortSentenceLen int
	headings         HeadingRules
}

var _ domain.Chunker = (*SectionChunker)(nil)

// Option configures a SectionChunker.
type Option func(*SectionChunker)

// WithTargetLen sets the maximum chunk length in runes.
func WithTargetLen(n int) Option {
	return func(c *SectionChunker) {
		if n > 0 {
			c.targetLen = n
		}
	}
}

// WithOverlap sets the desired trailing overlap in runes.
func WithOverlap(n int) Option {
	return func(c *SectionChunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// WithShortSentenceLen sets the merge threshold for short sentences.
func WithShortSentenceLen(n int) Option {
	return func(c *SectionChunker) {
		if n > 0 {
			c.shortSentenceLen = n
		}
	}
}

// WithHeadingRules replaces the heading heuristic bounds.
func WithHeadingRules(r HeadingRules) Option {
	return func(c *SectionChunker) {
		if r.MinLen > 0 && r.MaxLen >= r.MinLen {
			c.headings = r
		}
	}
}

// New creates a SectionChunker with the given options.
func New(opts ...Option) *SectionChunker {
	c := &SectionChunker{
		targetLen:        DefaultTargetLen,
		overlap:          DefaultOverlap,
		shortSentenceLen: DefaultShortSentenceLen,
		headings:         DefaultHeadingRules(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk runs the full segmentation pipeline over document.Content.
func (c *SectionChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	if document.ID == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidConfig)
	}
	paragraphs := SplitParagraphs(Normalize(document.Content))
	sentences := MergeShortSentences(SplitSentences(JoinParagraphs(paragraphs)), c.shortSentenceLen)
	sections := DetectSections(paragraphs, c.headings)

	return AssembleChunks(sentences, sections, Window{
		DocID:     document.ID,
		Source:    document.Source,
		TargetLen: c.targetLen,
		Overlap:   c.overlap,
	}), nil
}

// Canonical returns the text chunk offsets refer to for the given raw input.
func Canonical(raw string) string {
	return JoinParagraphs(SplitParagraphs(Normalize(raw)))
}
