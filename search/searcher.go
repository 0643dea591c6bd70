package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 4

// Retriever returns the chunks most relevant to a query, best first.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]*core.SearchResult, error)
}

// Searcher retrieves chunks from a vector index.
type Searcher struct {
	index        storage.VectorIndex
	topK         int
	minScore     float32
	keywordBoost bool
	logger       *slog.Logger
}

var _ Retriever = (*Searcher)(nil)

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithTopK sets how many chunks are requested from the index.
func WithTopK(k int) Option {
	return func(s *Searcher) error {
		if k <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidTopK, k)
		}
		s.topK = k
		return nil
	}
}

// WithMinScore drops results scoring below min. Zero keeps everything.
func WithMinScore(min float32) Option {
	return func(s *Searcher) error {
		s.minScore = min
		return nil
	}
}

// WithKeywordBoost moves results that contain every significant query word
// ahead of the rest. Relative order within each group is preserved.
func WithKeywordBoost(enabled bool) Option {
	return func(s *Searcher) error {
		s.keywordBoost = enabled
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(index storage.VectorIndex, opts ...Option) (*Searcher, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}

	s := &Searcher{
		index:  index,
		topK:   DefaultTopK,
		logger: slog.Default().With("component", "searcher"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// TopK returns the configured number of results per retrieval.
func (s *Searcher) TopK() int {
	return s.topK
}

// Retrieve returns up to TopK chunks relevant to query.
func (s *Searcher) Retrieve(ctx context.Context, query string) ([]*core.SearchResult, error) {
	return s.RetrieveWithMonitor(ctx, query, nil)
}

// RetrieveWithMonitor is Retrieve with callbacks at each stage.
func (s *Searcher) RetrieveWithMonitor(ctx context.Context, query string, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	monitor.Start(query)

	hits, err := s.index.Search(ctx, query, s.topK)
	if err != nil {
		s.logger.Error("error querying vector index", "err", err)
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	monitor.AfterIndexSearch(hits)

	results := make([]*core.SearchResult, 0, len(hits))
	for _, hit := range hits {
		if hit == nil || hit.Chunk == nil {
			continue
		}
		if s.minScore > 0 && hit.Score < s.minScore {
			monitor.BelowThreshold(hit)
			continue
		}
		results = append(results, hit)
	}

	if s.keywordBoost {
		queryTerms := terms(query)
		verbatim := make(map[*core.SearchResult]bool, len(results))
		for _, r := range results {
			if containsAll(r.Chunk.Text, queryTerms) {
				verbatim[r] = true
				monitor.VerbatimHit(r)
			}
		}
		sort.SliceStable(results, func(i, j int) bool {
			return verbatim[results[i]] && !verbatim[results[j]]
		})
	}

	if len(results) > s.topK {
		results = results[:s.topK]
	}
	monitor.Finish(results)

	return results, nil
}
