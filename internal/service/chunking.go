package service

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gaiuszzang/VibeRAG/internal/chunkstore"
	"github.com/gaiuszzang/VibeRAG/internal/domain"
)

// Chunking runs the offline phase: read a text file, chunk it, write the
// chunk record file.
type Chunking struct {
	chunker domain.Chunker
	logger  *zap.Logger
}

func NewChunking(chunker domain.Chunker, logger *zap.Logger) *Chunking {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chunking{chunker: chunker, logger: logger}
}

// ChunkFile chunks the document at inputPath and writes the records to
// outputPath. The input's base name is recorded as each chunk's source.
func (c *Chunking) ChunkFile(inputPath, outputPath, docID string) ([]domain.Chunk, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	chunks, err := c.chunker.Chunk(domain.Document{
		ID:      docID,
		Source:  filepath.Base(inputPath),
		Content: string(data),
	})
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", inputPath, err)
	}
	if err := chunkstore.WriteFile(outputPath, chunks); err != nil {
		return nil, err
	}
	c.logger.Info("chunks written",
		zap.String("doc_id", docID),
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("count", len(chunks)),
	)
	return chunks, nil
}
