package vectorstore

import (
	"fmt"
	"net/url"

	"github.com/tmc/langchaingo/vectorstores/pinecone"
	"github.com/tmc/langchaingo/vectorstores/qdrant"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/storage"
)

// NewPinecone connects to a Pinecone index host.
// Pinecone assigns its own vector IDs, so re-ingesting a page adds new vectors.
func NewPinecone(host, apiKey, namespace string, embedder ai.Embedder, opts ...Option) (storage.VectorIndex, error) {
	if embedder == nil {
		return nil, storage.ErrEmbedderRequired
	}
	store, err := pinecone.New(
		pinecone.WithHost(host),
		pinecone.WithAPIKey(apiKey),
		pinecone.WithEmbedder(embedder),
		pinecone.WithNameSpace(namespace),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone store: %w", err)
	}
	return newStore(store, append([]Option{WithNamespace(namespace)}, opts...)...), nil
}

// NewQdrant connects to a Qdrant collection over REST.
func NewQdrant(rawURL, collection, apiKey string, embedder ai.Embedder, opts ...Option) (storage.VectorIndex, error) {
	if embedder == nil {
		return nil, storage.ErrEmbedderRequired
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	qopts := []qdrant.Option{
		qdrant.WithURL(*u),
		qdrant.WithCollectionName(collection),
		qdrant.WithEmbedder(embedder),
	}
	if apiKey != "" {
		qopts = append(qopts, qdrant.WithAPIKey(apiKey))
	}
	store, err := qdrant.New(qopts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant store: %w", err)
	}
	return newStore(store, opts...), nil
}
