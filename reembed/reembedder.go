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


package reembed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/docqa/batch"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// Config holds configuration for a re-embedding run.
type Config struct {
	// BatchSize is the number of chunks upserted per call
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxAttempts bounds the tries per batch
	MaxAttempts int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxAttempts:    3,
		RetryDelay:     time.Second,
	}
}

// Validate reports the first unusable field.
func (c *Config) Validate() error {
	switch {
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be greater than 0", core.ErrInvalidArgument)
	case c.ReportInterval <= 0:
		return fmt.Errorf("%w: report interval must be greater than 0", core.ErrInvalidArgument)
	case c.MaxAttempts <= 0:
		return fmt.Errorf("%w: max attempts must be greater than 0", core.ErrInvalidArgument)
	}
	return nil
}

// Reembedder copies every chunk of source into target, which embeds them
// with its own embedder. Source and target may be the same index.
type Reembedder struct {
	source   storage.Lister
	target   storage.VectorIndex
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(source storage.Lister, target storage.VectorIndex, config *Config, progress io.Writer) (*Reembedder, error) {
	if source == nil || target == nil {
		return nil, errors.New("reembed: source and target are required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Reembedder{
		source:   source,
		target:   target,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "reembed"),
	}, nil
}

// Run re-embeds every chunk and returns how many were written.
// It stops at the first batch that still fails after retrying.
func (r *Reembedder) Run(ctx context.Context) (int, error) {
	chunks, err := r.source.Chunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list chunks: %w", err)
	}
	if len(chunks) == 0 {
		fmt.Fprintf(r.progress, "No chunks found in index (0 chunks)\n")
		return 0, nil
	}

	batches, err := batch.Partition(chunks, r.config.BatchSize)
	if err != nil {
		return 0, err
	}

	fmt.Fprintf(r.progress, "Starting re-embedding of %d chunks (batch size: %d)\n",
		len(chunks), r.config.BatchSize)
	tracker := newProgress(r.progress, len(chunks), r.config.ReportInterval)

	written := 0
	for i, b := range batches {
		err := batch.RetryWithBackoff(ctx, func() error {
			return r.target.Upsert(ctx, b)
		}, r.config.MaxAttempts, r.config.RetryDelay)
		if err != nil {
			r.logger.Error("batch failed", "batch", i+1, "size", len(b), "err", err)
			return written, fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
		}
		written += len(b)
		tracker.add(len(b))
	}
	tracker.finish()

	elapsed := tracker.elapsed()
	fmt.Fprintf(r.progress, "Re-embedding complete. Processed %d chunks in %v\n",
		written, elapsed.Round(time.Millisecond))
	r.logger.Info("re-embedding complete", "chunks", written, "batches", len(batches), "elapsed", elapsed)
	return written, nil
}
