// Package config loads docqa settings from YAML and the environment.
//
// Load starts from DefaultConfig and overlays the file, so a file only needs
// the keys it changes. Secrets never live in the file: ResolveSecrets reads
// them from the environment variables each section names.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/ingestion"
	"github.com/poiesic/docqa/search"
	"github.com/poiesic/docqa/webcrawl"
)

// Crawl backends.
const (
	CrawlTavily = "tavily"
	CrawlDirect = "direct"
)

// Index backends.
const (
	IndexPinecone = "pinecone"
	IndexQdrant   = "qdrant"
	IndexBadger   = "badger"
)

// Config is the complete docqa configuration.
type Config struct {
	AI        AIConfig        `yaml:"ai"`
	Crawl     CrawlConfig     `yaml:"crawl"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Index     IndexConfig     `yaml:"index"`
	Chat      ChatConfig      `yaml:"chat"`
}

// AIConfig configures the embedding and chat model endpoints.
type AIConfig struct {
	// Host sets both endpoints unless EmbeddingHost or ChatHost override it.
	Host               string        `yaml:"host"`
	EmbeddingHost      string        `yaml:"embedding_host,omitempty"`
	ChatHost           string        `yaml:"chat_host,omitempty"`
	APIKeyEnv          string        `yaml:"api_key_env"`
	EmbeddingModel     string        `yaml:"embedding_model"`
	ChatModel          string        `yaml:"chat_model"`
	EmbeddingBatchSize int           `yaml:"embedding_batch_size"`
	RetryMinBackoff    time.Duration `yaml:"retry_min_backoff"`

	APIKey string `yaml:"-"`
}

// CrawlConfig selects the page discovery and extraction backend.
type CrawlConfig struct {
	Backend           string        `yaml:"backend"`
	BaseURL           string        `yaml:"base_url,omitempty"`
	APIKeyEnv         string        `yaml:"api_key_env"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	MaxDepth          int           `yaml:"max_depth"`
	MaxBreadth        int           `yaml:"max_breadth"`
	Limit             int           `yaml:"limit"`
	Categories        []string      `yaml:"categories"`
	Instructions      string        `yaml:"instructions,omitempty"`
	UserAgent         string        `yaml:"user_agent,omitempty"`
	MaxContentSize    int64         `yaml:"max_content_size,omitempty"`

	APIKey string `yaml:"-"`
}

// IngestionConfig sizes the pipeline stages.
type IngestionConfig struct {
	URLBatchSize     int `yaml:"url_batch_size"`
	IndexBatchSize   int `yaml:"index_batch_size"`
	ChunkSize        int `yaml:"chunk_size"`
	ChunkOverlap     int `yaml:"chunk_overlap"`
	PageChunkSize    int `yaml:"page_chunk_size"`
	PageChunkOverlap int `yaml:"page_chunk_overlap"`
	PoolSize         int `yaml:"pool_size"`
}

// IndexConfig selects the vector index backend.
type IndexConfig struct {
	Backend  string         `yaml:"backend"`
	Pinecone PineconeConfig `yaml:"pinecone"`
	Qdrant   QdrantConfig   `yaml:"qdrant"`
	Badger   BadgerConfig   `yaml:"badger"`
}

// PineconeConfig locates a Pinecone index.
type PineconeConfig struct {
	Host      string `yaml:"host"`
	Namespace string `yaml:"namespace,omitempty"`
	APIKeyEnv string `yaml:"api_key_env"`

	APIKey string `yaml:"-"`
}

// QdrantConfig locates a Qdrant collection.
type QdrantConfig struct {
	URL        string `yaml:"url"`
	Collection string `yaml:"collection"`
	APIKeyEnv  string `yaml:"api_key_env"`

	APIKey string `yaml:"-"`
}

// BadgerConfig locates the local index directory.
type BadgerConfig struct {
	Path string `yaml:"path"`
}

// ChatConfig tunes retrieval and answering.
type ChatConfig struct {
	TopK         int     `yaml:"top_k"`
	MinScore     float32 `yaml:"min_score,omitempty"`
	KeywordBoost bool    `yaml:"keyword_boost"`
	MaxTokens    int     `yaml:"max_tokens,omitempty"`
}

// DefaultConfig returns a Config with the production defaults.
func DefaultConfig() *Config {
	return &Config{
		AI: AIConfig{
			Host:               ai.DefaultHost,
			APIKeyEnv:          "OPENAI_API_KEY",
			EmbeddingModel:     ai.DefaultEmbeddingModel,
			ChatModel:          ai.DefaultChatModel,
			EmbeddingBatchSize: ai.DefaultEmbeddingBatchSize,
			RetryMinBackoff:    ai.DefaultRetryMinBackoff,
		},
		Crawl: CrawlConfig{
			Backend:           CrawlTavily,
			APIKeyEnv:         "TAVILY_API_KEY",
			Timeout:           120 * time.Second,
			RequestsPerSecond: 5,
			Burst:             25,
			MaxDepth:          webcrawl.DefaultMaxDepth,
			MaxBreadth:        webcrawl.DefaultMaxBreadth,
			Limit:             webcrawl.DefaultLimit,
			Categories:        slices.Clone(webcrawl.DefaultCategories),
		},
		Ingestion: IngestionConfig{
			URLBatchSize:     ingestion.DefaultURLBatchSize,
			IndexBatchSize:   ingestion.DefaultIndexBatchSize,
			ChunkSize:        ingestion.DefaultChunkSize,
			ChunkOverlap:     ingestion.DefaultChunkOverlap,
			PageChunkSize:    ingestion.DefaultPageChunkSize,
			PageChunkOverlap: ingestion.DefaultPageChunkOverlap,
			PoolSize:         ingestion.DefaultPoolSize,
		},
		Index: IndexConfig{
			Backend: IndexPinecone,
			Pinecone: PineconeConfig{
				APIKeyEnv: "PINECONE_API_KEY",
			},
			Qdrant: QdrantConfig{
				URL:        "http://localhost:6333",
				Collection: "documentation-assistant",
				APIKeyEnv:  "QDRANT_API_KEY",
			},
			Badger: BadgerConfig{
				Path: "docqa.db",
			},
		},
		Chat: ChatConfig{
			TopK: search.DefaultTopK,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
// Secrets are not written.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ResolveSecrets fills API keys from the environment variables named in
// the configuration. Keys already set are kept.
func (c *Config) ResolveSecrets(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	resolve := func(dst *string, env string) {
		if *dst == "" && env != "" {
			*dst = getenv(env)
		}
	}
	resolve(&c.AI.APIKey, c.AI.APIKeyEnv)
	resolve(&c.Crawl.APIKey, c.Crawl.APIKeyEnv)
	resolve(&c.Index.Pinecone.APIKey, c.Index.Pinecone.APIKeyEnv)
	resolve(&c.Index.Qdrant.APIKey, c.Index.Qdrant.APIKeyEnv)
}

// AIProviderConfig converts the AI section for ai/openai.
func (c *Config) AIProviderConfig() *ai.Config {
	embeddingHost, chatHost := c.AI.EmbeddingHost, c.AI.ChatHost
	if embeddingHost == "" {
		embeddingHost = c.AI.Host
	}
	if chatHost == "" {
		chatHost = c.AI.Host
	}
	return ai.NewConfig(
		ai.WithEmbeddingHost(embeddingHost),
		ai.WithChatHost(chatHost),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithChatModel(c.AI.ChatModel),
		ai.WithEmbeddingBatchSize(c.AI.EmbeddingBatchSize),
		ai.WithRetryMinBackoff(c.AI.RetryMinBackoff),
	)
}

// MapRequest returns the discovery bounds for map runs.
func (c *Config) MapRequest() webcrawl.MapRequest {
	return webcrawl.MapRequest{
		MaxDepth:     c.Crawl.MaxDepth,
		MaxBreadth:   c.Crawl.MaxBreadth,
		Limit:        c.Crawl.Limit,
		Categories:   slices.Clone(c.Crawl.Categories),
		Instructions: c.Crawl.Instructions,
	}
}

// CrawlRequest returns the bounds for crawl runs.
func (c *Config) CrawlRequest() webcrawl.CrawlRequest {
	return webcrawl.CrawlRequest{
		MaxDepth:     c.Crawl.MaxDepth,
		MaxBreadth:   c.Crawl.MaxBreadth,
		Limit:        c.Crawl.Limit,
		ExtractDepth: webcrawl.DepthAdvanced,
		Instructions: c.Crawl.Instructions,
	}
}

// Validate checks that the configuration is usable. Secrets are checked
// only for the backends that are selected.
func (c *Config) Validate() error {
	var errs []error

	if err := c.AIProviderConfig().Validate(); err != nil {
		errs = append(errs, err)
	}

	switch c.Crawl.Backend {
	case CrawlTavily:
		if c.Crawl.APIKey == "" {
			errs = append(errs, fmt.Errorf("crawl: %s is not set", c.Crawl.APIKeyEnv))
		}
	case CrawlDirect:
	default:
		errs = append(errs, fmt.Errorf("crawl: unknown backend %q", c.Crawl.Backend))
	}
	if c.Crawl.MaxDepth <= 0 || c.Crawl.MaxBreadth <= 0 || c.Crawl.Limit <= 0 {
		errs = append(errs, errors.New("crawl: max_depth, max_breadth and limit must be positive"))
	}

	in := c.Ingestion
	if in.URLBatchSize <= 0 || in.IndexBatchSize <= 0 {
		errs = append(errs, errors.New("ingestion: batch sizes must be positive"))
	}
	if in.ChunkSize <= 0 || in.ChunkOverlap < 0 || in.ChunkOverlap >= in.ChunkSize {
		errs = append(errs, errors.New("ingestion: chunk_overlap must be in [0, chunk_size)"))
	}
	if in.PageChunkSize <= 0 || in.PageChunkOverlap < 0 || in.PageChunkOverlap >= in.PageChunkSize {
		errs = append(errs, errors.New("ingestion: page_chunk_overlap must be in [0, page_chunk_size)"))
	}

	switch c.Index.Backend {
	case IndexPinecone:
		if c.Index.Pinecone.Host == "" {
			errs = append(errs, errors.New("index: pinecone.host is required"))
		}
		if c.Index.Pinecone.APIKey == "" {
			errs = append(errs, fmt.Errorf("index: %s is not set", c.Index.Pinecone.APIKeyEnv))
		}
	case IndexQdrant:
		if c.Index.Qdrant.URL == "" || c.Index.Qdrant.Collection == "" {
			errs = append(errs, errors.New("index: qdrant.url and qdrant.collection are required"))
		}
	case IndexBadger:
		if c.Index.Badger.Path == "" {
			errs = append(errs, errors.New("index: badger.path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("index: unknown backend %q", c.Index.Backend))
	}

	if c.Chat.TopK <= 0 {
		errs = append(errs, errors.New("chat: top_k must be positive"))
	}

	return errors.Join(errs...)
}
