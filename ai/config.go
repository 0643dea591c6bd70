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


package ai

import (
	"errors"
	"strings"
	"time"
)

const (
	// DefaultHost is the public OpenAI API endpoint.
	DefaultHost = "https://api.openai.com/v1"

	DefaultEmbeddingModel     = "text-embedding-3-small"
	DefaultChatModel          = "gpt-4.1-mini"
	DefaultEmbeddingBatchSize = 50
	DefaultRetryMinBackoff    = 30 * time.Second
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// ChatHost is the base URL for the chat completion service API.
	ChatHost string

	// APIKey is the bearer token sent to both hosts.
	// Local OpenAI-compatible servers usually accept any value.
	APIKey string

	// EmbeddingModel is the model identifier to use for text embeddings.
	EmbeddingModel string

	// ChatModel is the model identifier used for question rewriting and answering.
	ChatModel string

	// EmbeddingBatchSize is the number of texts sent to the embedding endpoint per request.
	// Default: 50
	EmbeddingBatchSize int

	// RetryMinBackoff is how long the embedder waits before its single retry
	// after a provider error. Default: 30s
	RetryMinBackoff time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithChatHost sets the chat service host URL.
func WithChatHost(host string) ConfigOption {
	return func(c *Config) {
		c.ChatHost = host
	}
}

// WithHost sets both embedding and chat hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.ChatHost = host
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithChatModel sets the chat model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithEmbeddingBatchSize sets how many texts go into one embedding request.
func WithEmbeddingBatchSize(n int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingBatchSize = n
	}
}

// WithRetryMinBackoff sets the wait before the embedder's retry.
func WithRetryMinBackoff(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryMinBackoff = d
	}
}

// DefaultConfig returns a Config pointing at the public OpenAI API.
// The API key is left empty; callers supply it from the environment.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:      DefaultHost,
		ChatHost:           DefaultHost,
		EmbeddingModel:     DefaultEmbeddingModel,
		ChatModel:          DefaultChatModel,
		EmbeddingBatchSize: DefaultEmbeddingBatchSize,
		RetryMinBackoff:    DefaultRetryMinBackoff,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    WithChatModel("gpt-4.1-mini"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to hosts if missing, which is required
// by OpenAI and most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.ChatHost = normalizeHost(c.ChatHost)
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.ChatHost == "" {
		return errors.New("ai config: ChatHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.ChatModel == "" {
		return errors.New("ai config: ChatModel is required")
	}
	if c.EmbeddingBatchSize <= 0 {
		return errors.New("ai config: EmbeddingBatchSize must be positive")
	}
	if c.RetryMinBackoff < 0 {
		return errors.New("ai config: RetryMinBackoff must not be negative")
	}
	return nil
}
