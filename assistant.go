// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package docqa wires a documentation question-answering assistant together.
//
// An Assistant owns the long-lived collaborators of a process: the model
// provider, the vector index and the crawl backend. Pipelines, searchers
// and chat services created from it share those collaborators.
package docqa

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/ai/openai"
	"github.com/poiesic/docqa/chat"
	"github.com/poiesic/docqa/config"
	"github.com/poiesic/docqa/ingestion"
	"github.com/poiesic/docqa/metrics"
	"github.com/poiesic/docqa/search"
	"github.com/poiesic/docqa/storage"
	"github.com/poiesic/docqa/storage/badger"
	"github.com/poiesic/docqa/storage/vectorstore"
	"github.com/poiesic/docqa/webcrawl"
	"github.com/poiesic/docqa/webcrawl/direct"
	"github.com/poiesic/docqa/webcrawl/tavily"
)

// ErrConfigRequired is returned when NewAssistant is given a nil config.
var ErrConfigRequired = errors.New("config required")

// Assistant holds the collaborators shared by ingestion and chat.
type Assistant struct {
	cfg      *config.Config
	provider ai.AIProvider
	index    storage.VectorIndex
	crawler  webcrawl.Service
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// AssistantOption configures an Assistant.
type AssistantOption func(*assistantOptions)

type assistantOptions struct {
	provider ai.AIProvider
	index    storage.VectorIndex
	crawler  webcrawl.Service
	metrics  *metrics.Metrics
}

// WithProvider uses provider instead of building an OpenAI-compatible one.
func WithProvider(provider ai.AIProvider) AssistantOption {
	return func(o *assistantOptions) {
		o.provider = provider
	}
}

// WithVectorIndex uses index instead of the configured backend.
func WithVectorIndex(index storage.VectorIndex) AssistantOption {
	return func(o *assistantOptions) {
		o.index = index
	}
}

// WithCrawlService uses service instead of the configured crawl backend.
func WithCrawlService(service webcrawl.Service) AssistantOption {
	return func(o *assistantOptions) {
		o.crawler = service
	}
}

// WithMetrics records pipeline and chat activity on m.
func WithMetrics(m *metrics.Metrics) AssistantOption {
	return func(o *assistantOptions) {
		o.metrics = m
	}
}

// NewAssistant builds the collaborators named by cfg.
func NewAssistant(cfg *config.Config, opts ...AssistantOption) (*Assistant, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	options := &assistantOptions{}
	for _, opt := range opts {
		opt(options)
	}

	a := &Assistant{
		cfg:     cfg,
		metrics: options.metrics,
		logger:  slog.Default().With("component", "assistant"),
	}

	// Create AI provider with configured settings
	a.provider = options.provider
	if a.provider == nil {
		provider, err := openai.NewProvider(cfg.AIProviderConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create AI provider: %w", err)
		}
		a.provider = provider
	}

	a.index = options.index
	if a.index == nil {
		index, err := openIndex(cfg, a.provider.Embedder())
		if err != nil {
			a.provider.Close()
			return nil, err
		}
		a.index = index
	}

	a.crawler = options.crawler
	if a.crawler == nil {
		crawler, err := openCrawler(cfg)
		if err != nil {
			a.index.Close()
			a.provider.Close()
			return nil, err
		}
		a.crawler = crawler
	}

	a.logger.Debug("assistant ready", "index", cfg.Index.Backend, "crawl", cfg.Crawl.Backend)
	return a, nil
}

func openIndex(cfg *config.Config, embedder ai.Embedder) (storage.VectorIndex, error) {
	var (
		index storage.VectorIndex
		err   error
	)
	switch cfg.Index.Backend {
	case config.IndexPinecone:
		p := cfg.Index.Pinecone
		index, err = vectorstore.NewPinecone(p.Host, p.APIKey, p.Namespace, embedder)
	case config.IndexQdrant:
		q := cfg.Index.Qdrant
		index, err = vectorstore.NewQdrant(q.URL, q.Collection, q.APIKey, embedder)
	case config.IndexBadger:
		index, err = badger.Open(cfg.Index.Badger.Path, embedder)
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s index: %w", cfg.Index.Backend, err)
	}
	return index, nil
}

func openCrawler(cfg *config.Config) (webcrawl.Service, error) {
	c := cfg.Crawl
	switch c.Backend {
	case config.CrawlTavily:
		opts := []tavily.Option{
			tavily.WithTimeout(c.Timeout),
			tavily.WithRateLimit(c.RequestsPerSecond, c.Burst),
		}
		if c.BaseURL != "" {
			opts = append(opts, tavily.WithBaseURL(c.BaseURL))
		}
		client, err := tavily.New(c.APIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create tavily client: %w", err)
		}
		return client, nil
	case config.CrawlDirect:
		opts := []direct.Option{
			direct.WithTimeout(c.Timeout),
			direct.WithConcurrency(max(cfg.Ingestion.PoolSize, 1)),
		}
		if c.UserAgent != "" {
			opts = append(opts, direct.WithUserAgent(c.UserAgent))
		}
		if c.MaxContentSize > 0 {
			opts = append(opts, direct.WithMaxContentSize(c.MaxContentSize))
		}
		client, err := direct.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create direct crawler: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown crawl backend %q", c.Backend)
	}
}

// Close releases the crawl backend, the index and the provider.
func (a *Assistant) Close() error {
	var errs []error

	if closer, ok := a.crawler.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Error("error closing crawl backend", "err", err)
			errs = append(errs, err)
		}
	}
	if err := a.index.Close(); err != nil {
		a.logger.Error("error closing vector index", "err", err)
		errs = append(errs, err)
	}
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Index returns the vector index.
func (a *Assistant) Index() storage.VectorIndex {
	return a.index
}

// Metrics returns the metrics set with WithMetrics, or nil.
func (a *Assistant) Metrics() *metrics.Metrics {
	return a.metrics
}

// NewPipeline creates an ingestion pipeline sized by the configuration.
// opts are applied after the configured values.
func (a *Assistant) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	in := a.cfg.Ingestion
	base := []ingestion.Option{
		ingestion.WithPoolSize(in.PoolSize),
		ingestion.WithURLBatchSize(in.URLBatchSize),
		ingestion.WithIndexBatchSize(in.IndexBatchSize),
		ingestion.WithChunking(in.ChunkSize, in.ChunkOverlap),
		ingestion.WithPageChunking(in.PageChunkSize, in.PageChunkOverlap),
		ingestion.WithMapRequest(a.cfg.MapRequest()),
		ingestion.WithCrawlRequest(a.cfg.CrawlRequest()),
		ingestion.WithLogger(slog.Default().With("component", "ingestion")),
	}
	if a.metrics != nil {
		base = append(base, ingestion.WithRecorder(a.metrics))
	}
	return ingestion.NewPipeline(a.crawler, a.index, append(base, opts...)...)
}

// NewSearcher creates a searcher over the index.
func (a *Assistant) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{
		search.WithTopK(a.cfg.Chat.TopK),
		search.WithMinScore(a.cfg.Chat.MinScore),
		search.WithKeywordBoost(a.cfg.Chat.KeywordBoost),
	}
	return search.NewSearcher(a.index, append(base, opts...)...)
}

// NewChatService creates a chat service retrieving through a new searcher.
func (a *Assistant) NewChatService(opts ...chat.Option) (*chat.Service, error) {
	searcher, err := a.NewSearcher()
	if err != nil {
		return nil, err
	}
	base := []chat.Option{chat.WithMaxTokens(a.cfg.Chat.MaxTokens)}
	return chat.NewService(searcher, a.provider.ChatModel(), append(base, opts...)...)
}
