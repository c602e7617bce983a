package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaiuszzang/VibeRAG/internal/domain"
)

func seeded(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.CreateCollection(ctx, "docs", 2, "Cosine"))
	require.NoError(t, s.Upsert(ctx, "docs", []domain.IndexRecord{
		{ID: "a", Vector: []float32{1, 0}, Payload: map[string]any{"doc_id": "d1"}},
		{ID: "b", Vector: []float32{0.7, 0.7}, Payload: map[string]any{"doc_id": "d2"}},
		{ID: "c", Vector: []float32{0, 1}, Payload: map[string]any{"doc_id": "d1"}},
	}))
	return s
}

func TestSearch_Ranking(t *testing.T) {
	s := seeded(t)
	res, err := s.Search(context.Background(), "docs", domain.SearchRequest{Vector: []float32{1, 0.1}, Limit: 2})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "a", res[0].ID)
	assert.Equal(t, "b", res[1].ID)
	assert.Greater(t, res[0].Score, res[1].Score)
}

func TestSearch_DocFilter(t *testing.T) {
	s := seeded(t)
	res, err := s.Search(context.Background(), "docs", domain.SearchRequest{Vector: []float32{0.7, 0.7}, Limit: 10, DocID: "d1"})
	require.NoError(t, err)
	require.Len(t, res, 2)
	for _, r := range res {
		assert.Equal(t, "d1", r.PayloadString("doc_id"))
	}

	res, err = s.Search(context.Background(), "docs", domain.SearchRequest{Vector: []float32{1, 0}, DocID: "missing"})
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestUpsert_ReplacesByID(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	require.NoError(t, s.Upsert(ctx, "docs", []domain.IndexRecord{
		{ID: "a", Vector: []float32{0, 1}, Payload: map[string]any{"doc_id": "d3"}},
	}))
	n, err := s.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	res, err := s.Search(ctx, "docs", domain.SearchRequest{Vector: []float32{1, 0}, DocID: "d3"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "a", res[0].ID)
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	s := seeded(t)
	err := s.Upsert(context.Background(), "docs", []domain.IndexRecord{{ID: "x", Vector: []float32{1, 2, 3}}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestCollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()

	ok, err := s.CollectionExists(ctx, "docs")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, s.CreateCollection(ctx, "docs", 0, "Cosine"))
	assert.Error(t, s.CreateCollection(ctx, "docs", 4, "Hamming"))
	require.NoError(t, s.CreateCollection(ctx, "docs", 4, "Dot"))
	require.NoError(t, s.CreateCollection(ctx, "docs", 4, "Dot"))

	ok, err = s.CollectionExists(ctx, "docs")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Count(ctx, "other")
	assert.Error(t, err)
}
