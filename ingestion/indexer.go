package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/docqa/batch"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// DefaultIndexBatchSize is the number of chunks sent per upsert.
const DefaultIndexBatchSize = 500

// Indexer writes chunks to a vector index in concurrent batches.
type Indexer struct {
	index     storage.VectorIndex
	pool      *ants.Pool
	batchSize int
	logger    *slog.Logger
}

// NewIndexer creates an indexer that upserts batchSize chunks per call.
func NewIndexer(index storage.VectorIndex, pool *ants.Pool, batchSize int, logger *slog.Logger) (*Indexer, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if pool == nil {
		return nil, ErrPoolRequired
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: index batch size must be positive, got %d", core.ErrInvalidArgument, batchSize)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		index:     index,
		pool:      pool,
		batchSize: batchSize,
		logger:    logger.With("stage", "index"),
	}, nil
}

// Index upserts chunks and reports how many batches succeeded.
// Failed batches are logged and counted, never retried and never returned
// as an error.
func (ix *Indexer) Index(ctx context.Context, chunks []*core.Chunk) batch.Summary {
	batches, _ := batch.Partition(chunks, ix.batchSize)
	if len(batches) == 0 {
		return batch.Summary{}
	}

	ix.logger.Info("starting indexing", "chunks", len(chunks), "batches", len(batches))

	results := make([]batch.Result[int], len(batches))
	var wg sync.WaitGroup
	for i, b := range batches {
		wg.Add(1)
		err := ix.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					ix.logger.Error("index batch panicked", "batch", i+1, "panic", r)
					results[i] = batch.Failed[int](i+1, len(b), fmt.Errorf("batch %d: %w: %v", i+1, ErrBatchPanicked, r))
				}
			}()
			results[i] = ix.indexBatch(ctx, b, i+1)
		})
		if err != nil {
			wg.Done()
			ix.logger.Error("failed to submit index batch", "batch", i+1, "err", err)
			results[i] = batch.Failed[int](i+1, len(b), err)
		}
	}
	wg.Wait()

	summary := batch.Summarize(results)
	if summary.Complete() {
		ix.logger.Info("indexing complete", "batches", summary.Total)
	} else {
		ix.logger.Warn(fmt.Sprintf("indexed %d/%d batches", summary.Succeeded, summary.Total), "failed", summary.Failed)
	}
	return summary
}

func (ix *Indexer) indexBatch(ctx context.Context, chunks []*core.Chunk, batchNum int) batch.Result[int] {
	if err := ix.index.Upsert(ctx, chunks); err != nil {
		ix.logger.Error("index batch failed", "batch", batchNum, "chunks", len(chunks), "err", err)
		return batch.Failed[int](batchNum, len(chunks), err)
	}
	ix.logger.Debug("batch indexed", "batch", batchNum, "chunks", len(chunks))
	return batch.Succeeded(batchNum, len(chunks), len(chunks))
}
