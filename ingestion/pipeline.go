package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/docqa/batch"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
	"github.com/poiesic/docqa/webcrawl"
)

const (
	// DefaultURLBatchSize is the number of URLs per extraction request.
	DefaultURLBatchSize = 20

	// DefaultPoolSize bounds the number of batches in flight per stage.
	DefaultPoolSize = 10
)

// Pipeline orchestrates discovery, extraction, chunking and indexing.
// It holds no state between runs.
type Pipeline struct {
	service        webcrawl.Service
	index          storage.VectorIndex
	extractPool    *ants.Pool
	indexPool      *ants.Pool
	urlBatchSize   int
	indexBatchSize int
	chunkSize      int
	chunkOverlap   int
	pageChunkSize  int
	pageOverlap    int
	mapRequest     webcrawl.MapRequest
	crawlRequest   webcrawl.CrawlRequest
	recorder       Recorder
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for each concurrent stage.
// Default is DefaultPoolSize, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pools
		if p.extractPool != nil {
			p.extractPool.Release()
		}
		if p.indexPool != nil {
			p.indexPool.Release()
		}

		extractPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		indexPool, err := ants.NewPool(size)
		if err != nil {
			extractPool.Release()
			return err
		}

		p.extractPool = extractPool
		p.indexPool = indexPool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithURLBatchSize sets the number of URLs per extraction request.
func WithURLBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size <= 0 {
			return fmt.Errorf("%w: url batch size must be positive, got %d", core.ErrInvalidArgument, size)
		}
		p.urlBatchSize = size
		return nil
	}
}

// WithIndexBatchSize sets the number of chunks per upsert.
func WithIndexBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size <= 0 {
			return fmt.Errorf("%w: index batch size must be positive, got %d", core.ErrInvalidArgument, size)
		}
		p.indexBatchSize = size
		return nil
	}
}

// WithChunking sets the chunk window used for map+extract runs.
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		p.chunkSize, p.chunkOverlap = size, overlap
		return nil
	}
}

// WithPageChunking sets the per-page chunk window used for crawl runs.
func WithPageChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		p.pageChunkSize, p.pageOverlap = size, overlap
		return nil
	}
}

// WithMapRequest sets the discovery bounds for map runs. The URL field is
// replaced by the seed of each run.
func WithMapRequest(req webcrawl.MapRequest) Option {
	return func(p *Pipeline) error {
		p.mapRequest = req
		return nil
	}
}

// WithCrawlRequest sets the bounds for crawl runs. The URL field is
// replaced by the seed of each run.
func WithCrawlRequest(req webcrawl.CrawlRequest) Option {
	return func(p *Pipeline) error {
		p.crawlRequest = req
		return nil
	}
}

// WithRecorder reports stage counts to r.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) error {
		if r == nil {
			r = noopRecorder{}
		}
		p.recorder = r
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(service webcrawl.Service, index storage.VectorIndex, opts ...Option) (*Pipeline, error) {
	if service == nil {
		return nil, ErrCrawlServiceRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}

	p := &Pipeline{
		service:        service,
		index:          index,
		urlBatchSize:   DefaultURLBatchSize,
		indexBatchSize: DefaultIndexBatchSize,
		chunkSize:      DefaultChunkSize,
		chunkOverlap:   DefaultChunkOverlap,
		pageChunkSize:  DefaultPageChunkSize,
		pageOverlap:    DefaultPageChunkOverlap,
		mapRequest:     webcrawl.NewMapRequest(""),
		crawlRequest:   webcrawl.NewCrawlRequest(""),
		recorder:       noopRecorder{},
		logger:         slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}

	if p.extractPool == nil {
		if err := WithPoolSize(DefaultPoolSize)(p); err != nil {
			return nil, err
		}
	}

	// Validate chunk windows up front
	if _, err := NewChunker(p.chunkSize, p.chunkOverlap); err != nil {
		p.Release()
		return nil, err
	}
	if _, err := NewChunker(p.pageChunkSize, p.pageOverlap); err != nil {
		p.Release()
		return nil, err
	}

	return p, nil
}

// Run ingests the site rooted at seedURL in map+extract mode.
// Only a discovery failure returns an error; batch failures are reported
// in the returned Report.
func (p *Pipeline) Run(ctx context.Context, seedURL string) (*Report, error) {
	report, logger, err := p.start(ModeMap, seedURL)
	if err != nil {
		return nil, err
	}
	started := time.Now()

	req := p.mapRequest
	req.URL = seedURL
	logger.Info("mapping site", "url", seedURL, "maxDepth", req.MaxDepth, "limit", req.Limit)
	urls, err := p.service.Map(ctx, req)
	if err != nil {
		return nil, p.fail(logger, report, started, err)
	}
	report.URLsMapped = len(urls)
	p.recorder.URLsMapped(len(urls))
	logger.Info("site mapped", "urls", len(urls))

	batches, err := batch.Partition(urls, p.urlBatchSize)
	if err != nil {
		return nil, err
	}

	extractor, err := NewExtractor(p.service, p.extractPool, logger)
	if err != nil {
		return nil, err
	}
	records, extraction := extractor.ExtractAll(ctx, batches)
	report.Extraction = extraction
	report.PagesExtracted = len(records)
	p.recorder.Batches("extract", extraction)
	p.recorder.PagesExtracted(len(records))

	chunker, err := NewChunker(p.chunkSize, p.chunkOverlap)
	if err != nil {
		return nil, err
	}
	if err := p.indexRecords(ctx, logger, report, chunker, records); err != nil {
		return nil, err
	}

	return p.finish(logger, report, started), nil
}

// RunCrawl ingests the site rooted at seedURL with a single crawl request.
// Each page is chunked on its own with the per-page window.
func (p *Pipeline) RunCrawl(ctx context.Context, seedURL string) (*Report, error) {
	report, logger, err := p.start(ModeCrawl, seedURL)
	if err != nil {
		return nil, err
	}
	started := time.Now()

	req := p.crawlRequest
	req.URL = seedURL
	logger.Info("crawling site", "url", seedURL, "maxDepth", req.MaxDepth, "limit", req.Limit)
	pages, err := p.service.Crawl(ctx, req)
	if err != nil {
		return nil, p.fail(logger, report, started, err)
	}

	records := make([]*core.ContentRecord, 0, len(pages))
	for _, page := range pages {
		if strings.TrimSpace(page.RawContent) == "" {
			continue
		}
		if strings.TrimSpace(page.URL) == "" {
			logger.Debug("dropping crawled page without url")
			continue
		}
		records = append(records, &core.ContentRecord{RawText: page.RawContent, SourceURL: page.URL})
	}
	report.URLsMapped = len(pages)
	report.PagesExtracted = len(records)
	p.recorder.URLsMapped(len(pages))
	p.recorder.PagesExtracted(len(records))
	logger.Info("site crawled", "pages", len(records))

	chunker, err := NewChunker(p.pageChunkSize, p.pageOverlap)
	if err != nil {
		return nil, err
	}
	if err := p.indexRecords(ctx, logger, report, chunker, records); err != nil {
		return nil, err
	}

	return p.finish(logger, report, started), nil
}

func (p *Pipeline) start(mode Mode, seedURL string) (*Report, *slog.Logger, error) {
	if strings.TrimSpace(seedURL) == "" {
		return nil, nil, ErrEmptySeed
	}
	report := &Report{
		RunID:   uuid.NewString(),
		Mode:    mode,
		SeedURL: seedURL,
	}
	logger := p.logger.With("run", report.RunID, "mode", string(mode))
	logger.Info("starting ingestion")
	return report, logger, nil
}

func (p *Pipeline) fail(logger *slog.Logger, report *Report, started time.Time, err error) error {
	logger.Error("page discovery failed", "url", report.SeedURL, "err", err)
	p.recorder.RunFinished(report.Mode, time.Since(started), err)
	return fmt.Errorf("%w: %w", ErrDiscoveryFailed, err)
}

func (p *Pipeline) indexRecords(ctx context.Context, logger *slog.Logger, report *Report, chunker *Chunker, records []*core.ContentRecord) error {
	logger.Info("chunking content", "records", len(records))
	chunks, err := chunker.Split(records)
	if err != nil {
		return err
	}
	report.ChunksCreated = len(chunks)
	p.recorder.ChunksCreated(len(chunks))
	logger.Info("content chunked", "chunks", len(chunks), "size", chunker.Size(), "overlap", chunker.Overlap())

	indexer, err := NewIndexer(p.index, p.indexPool, p.indexBatchSize, logger)
	if err != nil {
		return err
	}
	report.Indexing = indexer.Index(ctx, chunks)
	p.recorder.Batches("index", report.Indexing)
	return nil
}

func (p *Pipeline) finish(logger *slog.Logger, report *Report, started time.Time) *Report {
	report.Duration = time.Since(started)
	p.recorder.RunFinished(report.Mode, report.Duration, nil)
	logger.Info("ingestion complete",
		"urlsMapped", report.URLsMapped,
		"pagesExtracted", report.PagesExtracted,
		"chunksCreated", report.ChunksCreated,
		"indexBatches", fmt.Sprintf("%d/%d", report.Indexing.Succeeded, report.Indexing.Total),
		"duration", report.Duration,
	)
	return report
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.extractPool != nil {
		p.extractPool.Release()
	}
	if p.indexPool != nil {
		p.indexPool.Release()
	}
}
