package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/gaiuszzang/VibeRAG/internal/domain"
)

const (
	DefaultTopK        = 5
	DefaultMaxQueryLen = 2000
	DefaultPreviewLen  = 200
)

// SearcherConfig configures query handling.
type SearcherConfig struct {
	Collection  string
	TopK        int
	HNSWEf      int
	MaxQueryLen int
}

// Searcher embeds a query and asks the vector store for the nearest chunks.
type Searcher struct {
	embedder domain.Embedder
	store    domain.VectorStore
	cfg      SearcherConfig
	logger   *zap.Logger
}

func NewSearcher(embedder domain.Embedder, store domain.VectorStore, cfg SearcherConfig, logger *zap.Logger) *Searcher {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxQueryLen <= 0 {
		cfg.MaxQueryLen = DefaultMaxQueryLen
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{embedder: embedder, store: store, cfg: cfg, logger: logger}
}

// Search returns hits best first. topK <= 0 selects the configured default;
// an empty docID searches every document.
func (s *Searcher) Search(ctx context.Context, query, docID string, topK int) ([]domain.QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query: %w", domain.ErrEmptyText)
	}
	query = truncateRunes(query, s.cfg.MaxQueryLen)
	if topK <= 0 {
		topK = s.cfg.TopK
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := s.store.Search(ctx, s.cfg.Collection, domain.SearchRequest{
		Vector: vec,
		Limit:  topK,
		DocID:  docID,
		HNSWEf: s.cfg.HNSWEf,
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.cfg.Collection, err)
	}
	s.logger.Debug("search done",
		zap.String("collection", s.cfg.Collection),
		zap.String("doc_id", docID),
		zap.Int("top_k", topK),
		zap.Int("hits", len(hits)),
	)
	return hits, nil
}

// Render writes hits in display form. An empty slice renders as "No results.".
func Render(w io.Writer, hits []domain.QueryResult) error {
	if len(hits) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	if _, err := fmt.Fprintf(w, "Top %d results:\n", len(hits)); err != nil {
		return err
	}
	for i, h := range hits {
		_, err := fmt.Fprintf(w, "[%d]\nid=%s  score=%.4f  doc_id=%s  section=%s\n%s\n",
			i, h.ID, h.Score, h.PayloadString("doc_id"), h.PayloadString("section"),
			Preview(h.PayloadString("text"), DefaultPreviewLen))
		if err != nil {
			return err
		}
	}
	return nil
}

// Preview shortens text to n runes, marking the cut with "...".
func Preview(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return truncateRunes(text, n) + "..."
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
