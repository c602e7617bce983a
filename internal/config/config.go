package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/gaiuszzang/VibeRAG/internal/domain"
	"github.com/gaiuszzang/VibeRAG/internal/logging"
)

// DefaultPath is the config file looked up in the working directory when no
// path is given.
const DefaultPath = "viberag.yaml"

// EnvPrefix prefixes every environment override, e.g. VIBERAG_QDRANT_URL.
const EnvPrefix = "VIBERAG"

// OllamaEmbedderConfig holds configuration for the Ollama embedder.
type OllamaEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	Dims   int                   `yaml:"dims"`
	Ollama *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	TargetLen        int `yaml:"target_len"`
	Overlap          int `yaml:"overlap"`
	ShortSentenceLen int `yaml:"short_sentence_len"`
	HeadingMinLen    int `yaml:"heading_min_len"`
	HeadingMaxLen    int `yaml:"heading_max_len"`
	HeadingTextLen   int `yaml:"heading_text_len"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type       string        `yaml:"type"`
	Collection string        `yaml:"collection"`
	Distance   string        `yaml:"distance"`
	Qdrant     *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store. URL is
// used by the REST client, GRPCHost and GRPCPort by the gRPC client.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	GRPCHost    string `yaml:"grpc_host"`
	GRPCPort    int    `yaml:"grpc_port"`
	UseTLS      bool   `yaml:"use_tls"`
}

// SearchConfig configures the query side.
type SearchConfig struct {
	TopK        int `yaml:"top_k"`
	HNSWEf      int `yaml:"hnsw_ef"`
	MaxQueryLen int `yaml:"max_query_len"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Search      SearchConfig      `yaml:"search"`
	Logging     logging.Config    `yaml:"logging"`
}

// envOverrides lists the variables that take precedence over the file.
type envOverrides struct {
	EmbedderURL   string `envconfig:"EMBEDDER_URL"`
	EmbedderModel string `envconfig:"EMBEDDER_MODEL"`
	EmbedderDims  int    `envconfig:"EMBEDDER_DIMS"`
	QdrantURL     string `envconfig:"QDRANT_URL"`
	QdrantAPIKey  string `envconfig:"QDRANT_API_KEY"`
	Collection    string `envconfig:"COLLECTION"`
	LogLevel      string `envconfig:"LOG_LEVEL"`
}

// Load resolves the configuration: the file at path (which must exist), or
// DefaultPath when path is empty (which may be absent), then environment
// overrides, then validation.
func Load(path string) (*AppConfig, error) {
	var (
		cfg *AppConfig
		err error
	)
	if path == "" {
		cfg, err = LoadFile(DefaultPath)
		if errors.Is(err, os.ErrNotExist) {
			cfg, err = Default(), nil
		}
	} else {
		cfg, err = LoadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a YAML config and fills unset fields with defaults.
func LoadFile(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the built-in configuration: Ollama bge-m3 (1024 dims) and
// Qdrant over REST on localhost.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

// Validate rejects configurations no component can run with.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "ollama", "openai":
	default:
		return fmt.Errorf("%w: unknown embedder %q", domain.ErrInvalidConfig, c.Embedder.Type)
	}
	switch c.VectorStore.Type {
	case "qdrant", "qdrant-grpc", "memory":
	default:
		return fmt.Errorf("%w: unknown vector store %q", domain.ErrInvalidConfig, c.VectorStore.Type)
	}
	if c.Embedder.Dims <= 0 {
		return fmt.Errorf("%w: embedder.dims must be positive", domain.ErrInvalidConfig)
	}
	if c.VectorStore.Collection == "" {
		return fmt.Errorf("%w: vector_store.collection is required", domain.ErrInvalidConfig)
	}
	if c.Chunker.TargetLen <= 0 {
		return fmt.Errorf("%w: chunker.target_len must be positive", domain.ErrInvalidConfig)
	}
	if c.Chunker.Overlap < 0 {
		return fmt.Errorf("%w: chunker.overlap must not be negative", domain.ErrInvalidConfig)
	}
	if c.Chunker.HeadingMaxLen < c.Chunker.HeadingMinLen {
		return fmt.Errorf("%w: chunker.heading_max_len is below heading_min_len", domain.ErrInvalidConfig)
	}
	if c.Search.HNSWEf < 0 {
		return fmt.Errorf("%w: search.hnsw_ef must not be negative", domain.ErrInvalidConfig)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}
	if env.EmbedderURL != "" {
		switch cfg.Embedder.Type {
		case "openai":
			cfg.Embedder.OpenAI.BaseURL = env.EmbedderURL
		default:
			cfg.Embedder.Ollama.BaseURL = env.EmbedderURL
		}
	}
	if env.EmbedderModel != "" {
		switch cfg.Embedder.Type {
		case "openai":
			cfg.Embedder.OpenAI.Model = env.EmbedderModel
		default:
			cfg.Embedder.Ollama.Model = env.EmbedderModel
		}
	}
	if env.EmbedderDims != 0 {
		cfg.Embedder.Dims = env.EmbedderDims
	}
	if env.QdrantURL != "" {
		cfg.VectorStore.Qdrant.URL = env.QdrantURL
	}
	if env.QdrantAPIKey != "" {
		cfg.VectorStore.Qdrant.APIKey = env.QdrantAPIKey
	}
	if env.Collection != "" {
		cfg.VectorStore.Collection = env.Collection
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = env.LogLevel
	}
	return nil
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "ollama"
	}
	if cfg.Embedder.Dims == 0 {
		cfg.Embedder.Dims = 1024
	}
	if cfg.Embedder.Ollama == nil {
		cfg.Embedder.Ollama = &OllamaEmbedderConfig{}
	}
	if cfg.Embedder.Ollama.BaseURL == "" {
		cfg.Embedder.Ollama.BaseURL = "http://localhost:11434"
	}
	if cfg.Embedder.Ollama.Model == "" {
		cfg.Embedder.Ollama.Model = "bge-m3"
	}
	if cfg.Embedder.Ollama.TimeoutSecs == 0 {
		cfg.Embedder.Ollama.TimeoutSecs = 60
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}

	if cfg.Chunker.TargetLen == 0 {
		cfg.Chunker.TargetLen = 1000
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = 150
	}
	if cfg.Chunker.ShortSentenceLen == 0 {
		cfg.Chunker.ShortSentenceLen = 60
	}
	if cfg.Chunker.HeadingMinLen == 0 {
		cfg.Chunker.HeadingMinLen = 2
	}
	if cfg.Chunker.HeadingMaxLen == 0 {
		cfg.Chunker.HeadingMaxLen = 80
	}
	if cfg.Chunker.HeadingTextLen == 0 {
		cfg.Chunker.HeadingTextLen = 120
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "qdrant"
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "docs"
	}
	if cfg.VectorStore.Distance == "" {
		cfg.VectorStore.Distance = "Cosine"
	}
	if cfg.VectorStore.Qdrant == nil {
		cfg.VectorStore.Qdrant = &QdrantConfig{}
	}
	if cfg.VectorStore.Qdrant.URL == "" {
		cfg.VectorStore.Qdrant.URL = "http://localhost:6333"
	}
	if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
		cfg.VectorStore.Qdrant.TimeoutSecs = 15
	}
	if cfg.VectorStore.Qdrant.GRPCHost == "" {
		cfg.VectorStore.Qdrant.GRPCHost = "localhost"
	}
	if cfg.VectorStore.Qdrant.GRPCPort == 0 {
		cfg.VectorStore.Qdrant.GRPCPort = 6334
	}

	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 5
	}
	if cfg.Search.MaxQueryLen == 0 {
		cfg.Search.MaxQueryLen = 2000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}
