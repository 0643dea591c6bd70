package ingestion

import "errors"

var (
	// ErrCrawlServiceRequired is returned when a crawl service is not provided.
	ErrCrawlServiceRequired = errors.New("crawl service required")

	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrPoolRequired is returned when a worker pool is not provided.
	ErrPoolRequired = errors.New("worker pool required")

	// ErrEmptySeed is returned when a run is started without a seed URL.
	ErrEmptySeed = errors.New("seed url is empty")

	// ErrBatchPanicked marks a batch whose task panicked. The batch counts as failed.
	ErrBatchPanicked = errors.New("batch panicked")

	// ErrDiscoveryFailed wraps a failed map or crawl request. It aborts the run.
	ErrDiscoveryFailed = errors.New("page discovery failed")
)
