package ai

import (
	"context"

	"github.com/tmc/langchaingo/llms"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// The method set matches langchaingo's embeddings.Embedder so an Embedder can be
// handed straight to a langchaingo vector store.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedDocuments generates vector embeddings for multiple texts.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates a vector embedding for a single search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChatModel generates chat completions.
// Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// GenerateContent sends the ordered messages to the model and returns its choices.
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages the Embedder and ChatModel instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// ChatModel returns the chat completion service.
	ChatModel() ChatModel

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}

// FirstChoice returns the text of the first choice in resp.
// It returns ErrEmptyCompletion when the model produced no choices.
func FirstChoice(resp *llms.ContentResponse) (string, error) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Content, nil
}
