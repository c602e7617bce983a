// Package qdrant implements domain.VectorStore against a Qdrant server, over
// its REST API (Storage) or its gRPC API (GRPCStorage).
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gaiuszzang/VibeRAG/internal/domain"
)

var _ domain.VectorStore = (*Storage)(nil)

// Storage is a minimal REST client to Qdrant.
type Storage struct {
	url    string
	apiKey string
	client *http.Client
}

// Config configures the REST client.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// NewStorage creates a REST-backed store.
func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if cfg.URL == "" {
		cfg.URL = "http://localhost:6333"
	}
	return &Storage{
		url:    strings.TrimRight(cfg.URL, "/"),
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

// CollectionExists reports whether the collection is present. Only a 404
// answer means absent.
func (s *Storage) CollectionExists(ctx context.Context, name string) (bool, error) {
	resp, err := s.do(ctx, http.MethodGet, s.collectionURL(name, ""), nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 300:
		return false, statusError("get collection", resp)
	}
	return true, nil
}

// CreateCollection creates a collection of dims-sized vectors.
func (s *Storage) CreateCollection(ctx context.Context, name string, dims int, distance string) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dims,
			"distance": distance,
		},
	}
	return s.sendJSON(ctx, http.MethodPut, "create collection", s.collectionURL(name, ""), body, nil)
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Upsert writes records and waits for the write to be applied.
func (s *Storage) Upsert(ctx context.Context, collection string, records []domain.IndexRecord) error {
	points := make([]point, len(records))
	for i, r := range records {
		points[i] = point{ID: r.ID, Vector: r.Vector, Payload: r.Payload}
	}
	body := map[string]any{"points": points}
	return s.sendJSON(ctx, http.MethodPut, "upsert", s.collectionURL(collection, "/points?wait=true"), body, nil)
}

// Search runs a nearest-neighbour query, optionally restricted to one document.
func (s *Storage) Search(ctx context.Context, collection string, req domain.SearchRequest) ([]domain.QueryResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}
	body := map[string]any{
		"vector":       req.Vector,
		"limit":        limit,
		"with_payload": true,
	}
	if req.DocID != "" {
		body["filter"] = map[string]any{
			"must": []any{
				map[string]any{"key": "doc_id", "match": map[string]any{"value": req.DocID}},
			},
		}
	}
	if req.HNSWEf > 0 {
		body["params"] = map[string]any{"hnsw_ef": req.HNSWEf}
	}

	var resp struct {
		Result []struct {
			ID      json.RawMessage `json:"id"`
			Score   float64         `json:"score"`
			Payload map[string]any  `json:"payload"`
		} `json:"result"`
	}
	if err := s.sendJSON(ctx, http.MethodPost, "search", s.collectionURL(collection, "/points/search"), body, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.QueryResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, domain.QueryResult{ID: pointID(r.ID), Score: r.Score, Payload: r.Payload})
	}
	return results, nil
}

// Count returns the exact number of points in the collection.
func (s *Storage) Count(ctx context.Context, collection string) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	body := map[string]any{"exact": true}
	if err := s.sendJSON(ctx, http.MethodPost, "count", s.collectionURL(collection, "/points/count"), body, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Close releases idle connections.
func (s *Storage) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Storage) collectionURL(name, suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, url.PathEscape(name), suffix)
}

func (s *Storage) do(ctx context.Context, method, u string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant %s %s: %w", method, u, err)
	}
	return resp, nil
}

func (s *Storage) sendJSON(ctx context.Context, method, op, u string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", op, err)
	}
	resp, err := s.do(ctx, method, u, bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return statusError(op, resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", op, err)
		}
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	return &domain.StatusError{Service: "qdrant", Op: op, Status: resp.Status, Body: strings.TrimSpace(string(body))}
}

// pointID renders a point id that may be a UUID string or an unsigned integer.
func pointID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n uint64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatUint(n, 10)
	}
	return string(raw)
}
