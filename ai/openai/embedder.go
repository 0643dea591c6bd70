package openai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/batch"
)

// embeddingAttempts is one request plus a single retry.
const embeddingAttempts = 2

// Embedder implements ai.Embedder on top of langchaingo's batching embedder.
// Each request to the provider is retried once after RetryMinBackoff.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(token(config)),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "openai-embedder")
	retrying := retryingClient(client, config.RetryMinBackoff, logger)

	embedder, err := embeddings.NewEmbedder(retrying,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(config.EmbeddingBatchSize),
	)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		logger:   logger,
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// retryingClient wraps client so every CreateEmbedding call gets one retry
// after backoff.
func retryingClient(client embeddings.EmbedderClient, backoff time.Duration, logger *slog.Logger) embeddings.EmbedderClient {
	return embeddings.EmbedderClientFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		var vectors [][]float32
		err := batch.RetryWithBackoff(ctx, func() error {
			var err error
			vectors, err = client.CreateEmbedding(ctx, texts)
			if err != nil {
				logger.Warn("embedding request failed", "texts", len(texts), "err", err)
			}
			return err
		}, embeddingAttempts, backoff)
		return vectors, err
	})
}

// EmbedDocuments generates embeddings for texts, batching requests by
// EmbeddingBatchSize.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ai.ErrEmbeddingCount, len(vectors), len(texts))
	}

	return vectors, nil
}

// EmbedQuery generates the embedding for a single query.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for query", "length", len(text))

	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Error("failed to generate query embedding", "err", err)
		return nil, err
	}
	return vector, nil
}
