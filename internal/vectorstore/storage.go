// Package vectorstore holds helpers shared by the domain.VectorStore implementations.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/gaiuszzang/VibeRAG/internal/domain"
)

// DefaultDistance is the metric used for new collections when none is configured.
const DefaultDistance = "Cosine"

// Ensure creates collection with the given vector size unless it already
// exists. Any outcome other than "exists" or "not found" is an error.
func Ensure(ctx context.Context, store domain.VectorStore, collection string, dims int, distance string) (created bool, err error) {
	if dims <= 0 {
		return false, fmt.Errorf("%w: vector size must be positive, got %d", domain.ErrInvalidConfig, dims)
	}
	if distance == "" {
		distance = DefaultDistance
	}
	exists, err := store.CollectionExists(ctx, collection)
	if err != nil {
		return false, fmt.Errorf("%w: check %q: %w", domain.ErrCollection, collection, err)
	}
	if exists {
		return false, nil
	}
	if err := store.CreateCollection(ctx, collection, dims, distance); err != nil {
		return false, fmt.Errorf("%w: create %q: %w", domain.ErrCollection, collection, err)
	}
	return true, nil
}
