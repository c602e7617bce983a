// Package memory provides an in-process domain.VectorStore. It is used as the
// offline backend and as the store in orchestrator tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/gaiuszzang/VibeRAG/internal/domain"
)

var _ domain.VectorStore = (*Storage)(nil)

type point struct {
	vector  []float32
	payload map[string]any
}

type collection struct {
	dims     int
	distance string
	points   map[string]point
}

// Storage is a simple in-memory vector store using brute-force scoring.
type Storage struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

func NewStorage() *Storage {
	return &Storage{collections: make(map[string]*collection)}
}

func (s *Storage) CollectionExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

func (s *Storage) CreateCollection(_ context.Context, name string, dims int, distance string) error {
	if dims <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrInvalidConfig, dims)
	}
	switch distance {
	case "Cosine", "Dot", "Euclid":
	default:
		return fmt.Errorf("%w: unsupported distance %q", domain.ErrInvalidConfig, distance)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = &collection{dims: dims, distance: distance, points: make(map[string]point)}
	}
	return nil
}

// Upsert replaces points with the same id.
func (s *Storage) Upsert(_ context.Context, name string, records []domain.IndexRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.lookup(name)
	if err != nil {
		return err
	}
	for _, r := range records {
		if len(r.Vector) != c.dims {
			return fmt.Errorf("point %s: %w: got %d, collection has %d", r.ID, domain.ErrDimensionMismatch, len(r.Vector), c.dims)
		}
	}
	for _, r := range records {
		c.points[r.ID] = point{vector: slices.Clone(r.Vector), payload: r.Payload}
	}
	return nil
}

func (s *Storage) Search(_ context.Context, name string, req domain.SearchRequest) ([]domain.QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	if len(req.Vector) != c.dims {
		return nil, fmt.Errorf("query: %w: got %d, collection has %d", domain.ErrDimensionMismatch, len(req.Vector), c.dims)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}

	results := make([]domain.QueryResult, 0, len(c.points))
	for id, p := range c.points {
		if req.DocID != "" && p.payload["doc_id"] != req.DocID {
			continue
		}
		results = append(results, domain.QueryResult{ID: id, Score: score(c.distance, p.vector, req.Vector), Payload: p.payload})
	}
	slices.SortFunc(results, func(a, b domain.QueryResult) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *Storage) Count(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.lookup(name)
	if err != nil {
		return 0, err
	}
	return len(c.points), nil
}

func (s *Storage) Close() error { return nil }

func (s *Storage) lookup(name string) (*collection, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q not found", name)
	}
	return c, nil
}

// score is higher-is-better for every metric; Euclid is negated distance.
func score(distance string, a, b []float32) float64 {
	switch distance {
	case "Dot":
		return dot(a, b)
	case "Euclid":
		sum := 0.0
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return -math.Sqrt(sum)
	default:
		na, nb := math.Sqrt(dot(a, a)), math.Sqrt(dot(b, b))
		if na == 0 || nb == 0 {
			return 0
		}
		return dot(a, b) / (na * nb)
	}
}

func dot(a, b []float32) float64 {
	n := min(len(a), len(b))
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
