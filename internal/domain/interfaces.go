package domain

import "context"

// Document represents a single text file loaded into the system.
type Document struct {
	ID      string
	Source  string
	Content string
}

// Sentence is a unit of text with its rune span in the canonical document text.
type Sentence struct {
	Text  string
	Start int
	End   int
}

// SectionMarker records a heading and the rune offset of the paragraph it opens.
type SectionMarker struct {
	Offset  int
	Heading string
}

// Chunk is a contiguous span of document text selected for independent retrieval.
type Chunk struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Source    string `json:"source,omitempty"`
	Section   string `json:"section,omitempty"`
	Index     int    `json:"chunk"`
	CharStart int    `json:"char_start"`
	CharEnd   int    `json:"char_end"`
}

// IndexRecord is a single point written to the vector store.
type IndexRecord struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// QueryResult is a scored hit returned by the vector store.
type QueryResult struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// PayloadString returns the payload value at key rendered as a string, or "" if absent.
func (r QueryResult) PayloadString(key string) string {
	v, ok := r.Payload[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return formatScalar(v)
}

// SearchRequest describes a similarity search against a collection.
type SearchRequest struct {
	Vector []float32
	Limit  int
	// DocID restricts hits to points whose doc_id payload matches. Empty means no filter.
	DocID string
	// HNSWEf overrides the engine's ef search parameter when positive.
	HNSWEf int
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Name() string
	Model() string
	Embed(ctx context.Context, text string) ([]float32, error)
	Close() error
}

// VectorStore persists vectors and supports similarity search.
type VectorStore interface {
	// CollectionExists reports false with a nil error only when the store
	// answered with its specific "not found" status.
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, name string, dims int, distance string) error
	Upsert(ctx context.Context, collection string, records []IndexRecord) error
	Search(ctx context.Context, collection string, req SearchRequest) ([]QueryResult, error)
	Count(ctx context.Context, collection string) (int, error)
	Close() error
}
