package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

const (
	metaSource  = "source"
	metaIndex   = "index"
	metaChunkID = "chunk_id"
)

// Store adapts a langchaingo vector store to storage.VectorIndex.
type Store struct {
	store          vectorstores.VectorStore
	namespace      string
	scoreThreshold float32
	closed         atomic.Bool
	logger         *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithNamespace scopes writes and searches to a namespace, where the backend supports one.
func WithNamespace(namespace string) Option {
	return func(s *Store) {
		s.namespace = namespace
	}
}

// WithScoreThreshold asks the backend to drop matches scoring below threshold.
func WithScoreThreshold(threshold float32) Option {
	return func(s *Store) {
		s.scoreThreshold = threshold
	}
}

func newStore(store vectorstores.VectorStore, opts ...Option) *Store {
	s := &Store{
		store:  store,
		logger: slog.Default().With("component", "vectorstore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// New wraps an existing langchaingo vector store.
func New(store vectorstores.VectorStore, opts ...Option) storage.VectorIndex {
	return newStore(store, opts...)
}

func (s *Store) options() []vectorstores.Option {
	var opts []vectorstores.Option
	if s.namespace != "" {
		opts = append(opts, vectorstores.WithNameSpace(s.namespace))
	}
	if s.scoreThreshold > 0 {
		opts = append(opts, vectorstores.WithScoreThreshold(s.scoreThreshold))
	}
	return opts
}

// Upsert sends chunks to the backing store. The store computes the embeddings.
func (s *Store) Upsert(ctx context.Context, chunks []*core.Chunk) error {
	if s.closed.Load() {
		return storage.ErrStorageClosed
	}
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]schema.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = schema.Document{
			PageContent: chunk.Text,
			Metadata: map[string]any{
				metaSource:  chunk.SourceURL,
				metaIndex:   chunk.Index,
				metaChunkID: strconv.FormatUint(uint64(chunk.Id), 10),
			},
		}
	}

	var opts []vectorstores.Option
	if s.namespace != "" {
		opts = append(opts, vectorstores.WithNameSpace(s.namespace))
	}
	ids, err := s.store.AddDocuments(ctx, docs, opts...)
	if err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	s.logger.Debug("upserted chunks", "count", len(ids))
	return nil
}

// Search returns up to k chunks most similar to query.
func (s *Store) Search(ctx context.Context, query string, k int) ([]*core.SearchResult, error) {
	if s.closed.Load() {
		return nil, storage.ErrStorageClosed
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", storage.ErrInvalidQuery, k)
	}

	docs, err := s.store.SimilaritySearch(ctx, query, k, s.options()...)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	results := make([]*core.SearchResult, 0, len(docs))
	for _, doc := range docs {
		chunk, err := chunkFromDocument(doc)
		if err != nil {
			s.logger.Warn("skipping stored document", "err", err)
			continue
		}
		results = append(results, &core.SearchResult{Chunk: chunk, Score: doc.Score})
		if len(results) == k {
			break
		}
	}
	return results, nil
}

// Close marks the store closed. Remote connections are per request.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}

func chunkFromDocument(doc schema.Document) (*core.Chunk, error) {
	source, _ := doc.Metadata[metaSource].(string)
	if source == "" {
		return nil, ErrMissingSource
	}
	chunk := &core.Chunk{
		Text:      doc.PageContent,
		SourceURL: source,
		Index:     intValue(doc.Metadata[metaIndex]),
	}
	if raw, ok := doc.Metadata[metaChunkID].(string); ok {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			chunk.Id = core.ID(id)
		}
	}
	if chunk.Id == 0 {
		chunk.Id = core.ChunkID(source, doc.PageContent)
	}
	return chunk, nil
}

// intValue reads a number that may have round-tripped through JSON or protobuf.
func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}
