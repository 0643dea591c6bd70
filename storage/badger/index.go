package badger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// Index is a storage.VectorIndex kept in BadgerDB.
// Vectors are normalized on write so search is a dot product over every
// stored record.
type Index struct {
	backend     *Backend
	embedder    ai.Embedder
	ownsBackend bool
	logger      *slog.Logger
}

var (
	_ storage.VectorIndex = (*Index)(nil)
	_ storage.Counter     = (*Index)(nil)
	_ storage.Lister      = (*Index)(nil)
)

func newIndex(backend *Backend, embedder ai.Embedder) (*Index, error) {
	if backend == nil {
		return nil, fmt.Errorf("badger index: %w", storage.ErrStorageClosed)
	}
	if embedder == nil {
		return nil, storage.ErrEmbedderRequired
	}
	return &Index{
		backend:  backend,
		embedder: embedder,
		logger:   slog.Default().With("component", "badger-index"),
	}, nil
}

// NewIndex creates an index on an already open backend.
// Closing the index does not close the backend.
func NewIndex(backend *Backend, embedder ai.Embedder) (storage.VectorIndex, error) {
	return newIndex(backend, embedder)
}

// Open opens (or creates) an index stored in the directory at path.
// Closing the index closes the database.
func Open(path string, embedder ai.Embedder) (storage.VectorIndex, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	idx, err := newIndex(backend, embedder)
	if err != nil {
		backend.Close()
		return nil, err
	}
	idx.ownsBackend = true
	return idx, nil
}

// Upsert embeds chunks and writes them keyed by chunk ID, replacing any
// record with the same ID.
func (idx *Index) Upsert(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if idx.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := idx.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: %d vectors for %d chunks", storage.ErrEmbeddingMismatch, len(vectors), len(chunks))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err = idx.backend.WithWriteBatch(func(wb *badger.WriteBatch) error {
		for i, c := range chunks {
			record := &core.IndexRecord{Chunk: *c, Vector: storage.NormalizeVector(vectors[i])}
			if err := wb.Set(makeChunkKey(c.Id), storage.MarshalIndexRecord(record)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write chunks: %w", err)
	}

	idx.logger.Debug("upserted chunks", "count", len(chunks))
	return nil
}

// Search embeds query and returns the k most similar records.
// Equal scores are ordered by chunk ID so results are stable.
func (idx *Index) Search(ctx context.Context, query string, k int) ([]*core.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", storage.ErrInvalidQuery, k)
	}
	if idx.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	vector, err := idx.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vector = storage.NormalizeVector(vector)

	var results []*core.SearchResult
	err = idx.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.IndexRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalIndexRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(record.Vector) == 0 {
				continue
			}

			chunk := record.Chunk
			results = append(results, &core.SearchResult{
				Chunk: &chunk,
				Score: storage.DotProduct(vector, record.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		case a.Chunk.Id < b.Chunk.Id:
			return -1
		case a.Chunk.Id > b.Chunk.Id:
			return 1
		}
		return 0
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of stored records.
func (idx *Index) Count(ctx context.Context) (int, error) {
	count := 0
	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Chunks returns every stored chunk ordered by key.
func (idx *Index) Chunks(ctx context.Context) ([]*core.Chunk, error) {
	if idx.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var chunks []*core.Chunk
	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := iter.Item().Value(func(val []byte) error {
				record, err := storage.UnmarshalIndexRecord(val)
				if err != nil {
					return err
				}
				chunk := record.Chunk
				chunks = append(chunks, &chunk)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// Close closes the database if the index opened it.
func (idx *Index) Close() error {
	if idx.ownsBackend && !idx.backend.IsClosed() {
		return idx.backend.Close()
	}
	return nil
}
