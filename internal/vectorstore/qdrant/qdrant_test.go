package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaiuszzang/VibeRAG/internal/domain"
)

func TestCollectionExists(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		want    bool
		wantErr bool
	}{
		{name: "present", status: http.StatusOK, want: true},
		{name: "absent", status: http.StatusNotFound, want: false},
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: true},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/collections/docs", r.URL.Path)
				assert.Equal(t, "secret", r.Header.Get("api-key"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"status":"x"}`))
			}))
			defer srv.Close()

			s := NewStorage(Config{URL: srv.URL, APIKey: "secret"})
			got, err := s.CollectionExists(context.Background(), "docs")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrProviderStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateCollection(t *testing.T) {
	var body map[string]map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/collections/docs", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"result":true}`))
	}))
	defer srv.Close()

	require.NoError(t, NewStorage(Config{URL: srv.URL}).CreateCollection(context.Background(), "docs", 1024, "Cosine"))
	assert.Equal(t, float64(1024), body["vectors"]["size"])
	assert.Equal(t, "Cosine", body["vectors"]["distance"])
}

func TestUpsert(t *testing.T) {
	var body struct {
		Points []point `json:"points"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/collections/docs/points", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))
	}))
	defer srv.Close()

	err := NewStorage(Config{URL: srv.URL}).Upsert(context.Background(), "docs", []domain.IndexRecord{
		{ID: "098f6bcd-4621-3373-8ade-4e832627b4f6", Vector: []float32{0.5, 1}, Payload: map[string]any{"doc_id": "d1"}},
	})
	require.NoError(t, err)
	require.Len(t, body.Points, 1)
	assert.Equal(t, "098f6bcd-4621-3373-8ade-4e832627b4f6", body.Points[0].ID)
	assert.Equal(t, []float32{0.5, 1}, body.Points[0].Vector)
	assert.Equal(t, "d1", body.Points[0].Payload["doc_id"])
}

func TestUpsert_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":{"error":"wrong vector size"}}`))
	}))
	defer srv.Close()

	err := NewStorage(Config{URL: srv.URL}).Upsert(context.Background(), "docs", []domain.IndexRecord{{ID: "a"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderStatus)
	assert.Contains(t, err.Error(), "wrong vector size")
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name       string
		req        domain.SearchRequest
		wantFilter bool
		wantEf     bool
	}{
		{name: "plain", req: domain.SearchRequest{Vector: []float32{1, 0}, Limit: 3}},
		{name: "doc filter", req: domain.SearchRequest{Vector: []float32{1, 0}, Limit: 3, DocID: "manual"}, wantFilter: true},
		{name: "hnsw ef", req: domain.SearchRequest{Vector: []float32{1, 0}, HNSWEf: 128}, wantEf: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/collections/docs/points/search", r.URL.Path)
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				_, _ = w.Write([]byte(`{"result":[
					{"id":"u-1","score":0.91,"payload":{"doc_id":"manual","text":"hello","chunk":3}},
					{"id":42,"score":0.5,"payload":{}}
				]}`))
			}))
			defer srv.Close()

			res, err := NewStorage(Config{URL: srv.URL}).Search(context.Background(), "docs", tt.req)
			require.NoError(t, err)
			require.Len(t, res, 2)
			assert.Equal(t, "u-1", res[0].ID)
			assert.InDelta(t, 0.91, res[0].Score, 1e-9)
			assert.Equal(t, "hello", res[0].PayloadString("text"))
			assert.Equal(t, "3", res[0].PayloadString("chunk"))
			assert.Equal(t, "42", res[1].ID)

			assert.Equal(t, true, body["with_payload"])
			if tt.req.Limit > 0 {
				assert.Equal(t, float64(tt.req.Limit), body["limit"])
			} else {
				assert.Equal(t, float64(5), body["limit"])
			}

			if tt.wantFilter {
				must := body["filter"].(map[string]any)["must"].([]any)
				require.Len(t, must, 1)
				cond := must[0].(map[string]any)
				assert.Equal(t, "doc_id", cond["key"])
				assert.Equal(t, "manual", cond["match"].(map[string]any)["value"])
			} else {
				assert.NotContains(t, body, "filter")
			}

			if tt.wantEf {
				assert.Equal(t, float64(128), body["params"].(map[string]any)["hnsw_ef"])
			} else {
				assert.NotContains(t, body, "params")
			}
		})
	}
}

func TestCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/docs/points/count", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["exact"])
		_, _ = w.Write([]byte(`{"result":{"count":17}}`))
	}))
	defer srv.Close()

	n, err := NewStorage(Config{URL: srv.URL}).Count(context.Background(), "docs")
	require.NoError(t, err)
	assert.Equal(t, 17, n)
}
