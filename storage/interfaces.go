package storage

import (
	"context"

	"github.com/poiesic/docqa/core"
)

// VectorIndex stores chunks as embeddings and answers similarity queries.
// Implementations embed text themselves and must be safe for concurrent use,
// since the indexer upserts several batches at once.
type VectorIndex interface {
	// Upsert embeds and stores chunks. Chunks with an ID already present
	// replace the stored record.
	Upsert(ctx context.Context, chunks []*core.Chunk) error

	// Search returns up to k chunks most similar to query, highest score first.
	Search(ctx context.Context, query string, k int) ([]*core.SearchResult, error)

	// Close releases resources held by the index.
	Close() error
}

// Counter is implemented by indexes that can report how many records they hold.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Lister is implemented by indexes that can return every stored chunk.
type Lister interface {
	Chunks(ctx context.Context) ([]*core.Chunk, error)
}
