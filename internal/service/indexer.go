package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gaiuszzang/VibeRAG/internal/chunkstore"
	"github.com/gaiuszzang/VibeRAG/internal/domain"
	"github.com/gaiuszzang/VibeRAG/internal/vectorstore"
)

// DefaultProgressEvery is the number of upserts between progress log entries.
const DefaultProgressEvery = 50

// IndexerConfig describes the destination collection.
type IndexerConfig struct {
	Collection    string
	Dims          int
	Distance      string
	ProgressEvery int
}

// IndexStats summarizes an indexing run.
type IndexStats struct {
	Loaded            int
	Upserted          int
	CollectionCreated bool
	CollectionPoints  int
}

// Indexer embeds chunk records and upserts them one at a time.
type Indexer struct {
	embedder domain.Embedder
	store    domain.VectorStore
	cfg      IndexerConfig
	logger   *zap.Logger
}

func NewIndexer(embedder domain.Embedder, store domain.VectorStore, cfg IndexerConfig, logger *zap.Logger) *Indexer {
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{embedder: embedder, store: store, cfg: cfg, logger: logger}
}

// IndexFile loads every record from path before touching the network, so a
// malformed line aborts the run with nothing written.
func (ix *Indexer) IndexFile(ctx context.Context, path, docID string) (IndexStats, error) {
	records, err := chunkstore.ReadFile(path)
	if err != nil {
		return IndexStats{}, err
	}
	ix.logger.Info("chunks loaded",
		zap.String("path", path),
		zap.String("doc_id", docID),
		zap.Int("count", len(records)),
	)
	return ix.Index(ctx, records, docID)
}

// Index embeds and upserts records in order. The first failure stops the run;
// points already written stay in the store.
func (ix *Indexer) Index(ctx context.Context, records []chunkstore.Record, docID string) (IndexStats, error) {
	stats := IndexStats{Loaded: len(records)}

	created, err := vectorstore.Ensure(ctx, ix.store, ix.cfg.Collection, ix.cfg.Dims, ix.cfg.Distance)
	if err != nil {
		return stats, err
	}
	stats.CollectionCreated = created
	if created {
		ix.logger.Info("collection created",
			zap.String("collection", ix.cfg.Collection),
			zap.Int("dims", ix.cfg.Dims),
		)
	}

	for _, rec := range records {
		vec, err := ix.embedder.Embed(ctx, rec.Text)
		if err != nil {
			return stats, fmt.Errorf("embed chunk %s: %w", rec.ID, err)
		}
		ix.logger.Debug("chunk embedded", zap.String("chunk_id", rec.ID), zap.Int("dims", len(vec)))
		if len(vec) != ix.cfg.Dims {
			return stats, fmt.Errorf("chunk %s: %w: got %d, expected %d", rec.ID, domain.ErrDimensionMismatch, len(vec), ix.cfg.Dims)
		}

		point := domain.IndexRecord{
			ID:      PointID(rec.ID),
			Vector:  vec,
			Payload: ix.payload(rec, docID),
		}
		if err := ix.store.Upsert(ctx, ix.cfg.Collection, []domain.IndexRecord{point}); err != nil {
			return stats, fmt.Errorf("upsert chunk %s: %w", rec.ID, err)
		}
		stats.Upserted++
		if stats.Upserted%ix.cfg.ProgressEvery == 0 {
			ix.logger.Info("indexing progress",
				zap.Int("upserted", stats.Upserted),
				zap.Int("total", len(records)),
			)
		}
	}

	points, err := ix.store.Count(ctx, ix.cfg.Collection)
	if err != nil {
		ix.logger.Warn("count collection points", zap.String("collection", ix.cfg.Collection), zap.Error(err))
	} else {
		stats.CollectionPoints = points
	}
	ix.logger.Info("indexing done",
		zap.Int("count", stats.Upserted),
		zap.String("collection", ix.cfg.Collection),
		zap.String("doc_id", docID),
		zap.Int("collection_points", stats.CollectionPoints),
	)
	return stats, nil
}

func (ix *Indexer) payload(rec chunkstore.Record, docID string) map[string]any {
	p := map[string]any{
		"doc_id": docID,
		"text":   rec.Text,
		"embed": map[string]any{
			"provider":   ix.embedder.Name(),
			"model":      ix.embedder.Model(),
			"dims":       ix.cfg.Dims,
			"normalized": true,
		},
	}
	if rec.Source != nil {
		p["source"] = *rec.Source
	}
	if rec.Section != nil {
		p["section"] = *rec.Section
	}
	if rec.Chunk != nil {
		p["chunk"] = *rec.Chunk
	}
	if rec.CharStart != nil {
		p["char_start"] = *rec.CharStart
	}
	if rec.CharEnd != nil {
		p["char_end"] = *rec.CharEnd
	}
	return p
}
