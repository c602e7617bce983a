package main

import (
	"fmt"
	"time"

	"github.com/gaiuszzang/VibeRAG/internal/config"
	"github.com/gaiuszzang/VibeRAG/internal/domain"
	"github.com/gaiuszzang/VibeRAG/internal/embedding/ollama"
	"github.com/gaiuszzang/VibeRAG/internal/embedding/openai"
	"github.com/gaiuszzang/VibeRAG/internal/vectorstore/memory"
	"github.com/gaiuszzang/VibeRAG/internal/vectorstore/qdrant"
)

func newEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "ollama":
		return ollama.NewClient(ollama.Config{
			BaseURL: cfg.Ollama.BaseURL,
			Model:   cfg.Ollama.Model,
			Timeout: time.Duration(cfg.Ollama.TimeoutSecs) * time.Second,
		}), nil
	case "openai":
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

func newStore(cfg config.VectorStoreConfig) (domain.VectorStore, error) {
	q := cfg.Qdrant
	switch cfg.Type {
	case "qdrant":
		return qdrant.NewStorage(qdrant.Config{
			URL:     q.URL,
			APIKey:  q.APIKey,
			Timeout: time.Duration(q.TimeoutSecs) * time.Second,
		}), nil
	case "qdrant-grpc":
		store, err := qdrant.NewGRPCStorage(qdrant.GRPCConfig{
			Host:           q.GRPCHost,
			Port:           q.GRPCPort,
			UseTLS:         q.UseTLS,
			APIKey:         q.APIKey,
			RequestTimeout: time.Duration(q.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		return memory.NewStorage(), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
	}
}
