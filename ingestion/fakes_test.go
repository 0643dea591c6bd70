package ingestion

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docqa/batch"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/webcrawl"
)

var errBatchFailed = errors.New("upstream returned 502")

// fakeService implements webcrawl.Service with canned pages.
type fakeService struct {
	mu sync.Mutex

	urls   []string
	mapErr error

	pages    []webcrawl.Page
	crawlErr error

	// failExtract decides whether a whole extract request fails.
	failExtract func(urls []string) bool
	// content returns the raw content for a URL.
	content func(url string) string
	// respond replaces the canned extract response when set.
	respond func(urls []string) (*webcrawl.ExtractResponse, error)
	// extraPages are appended to every extract response.
	extraPages []webcrawl.Page

	mapRequests   []webcrawl.MapRequest
	crawlRequests []webcrawl.CrawlRequest
	extractCalls  [][]string
	depths        []webcrawl.ExtractDepth
}

func (f *fakeService) Map(_ context.Context, req webcrawl.MapRequest) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mapRequests = append(f.mapRequests, req)
	if f.mapErr != nil {
		return nil, f.mapErr
	}
	return f.urls, nil
}

func (f *fakeService) Extract(ctx context.Context, urls []string, depth webcrawl.ExtractDepth) (*webcrawl.ExtractResponse, error) {
	f.mu.Lock()
	f.extractCalls = append(f.extractCalls, urls)
	f.depths = append(f.depths, depth)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.failExtract != nil && f.failExtract(urls) {
		return nil, errBatchFailed
	}
	if f.respond != nil {
		return f.respond(urls)
	}

	resp := &webcrawl.ExtractResponse{}
	for _, u := range urls {
		text := pageContent(u)
		if f.content != nil {
			text = f.content(u)
		}
		resp.Results = append(resp.Results, webcrawl.Page{URL: u, RawContent: text})
	}
	resp.Results = append(resp.Results, f.extraPages...)
	return resp, nil
}

func (f *fakeService) Crawl(_ context.Context, req webcrawl.CrawlRequest) ([]webcrawl.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.crawlRequests = append(f.crawlRequests, req)
	if f.crawlErr != nil {
		return nil, f.crawlErr
	}
	return f.pages, nil
}

func (f *fakeService) extractCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.extractCalls)
}

// fakeIndex implements storage.VectorIndex and records upserts.
type fakeIndex struct {
	mu      sync.Mutex
	upserts [][]*core.Chunk
	failOn  func(chunks []*core.Chunk) bool
	panicOn func(chunks []*core.Chunk) bool
}

func (f *fakeIndex) Upsert(_ context.Context, chunks []*core.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, chunks)
	if f.panicOn != nil && f.panicOn(chunks) {
		panic("index client closed")
	}
	if f.failOn != nil && f.failOn(chunks) {
		return errors.New("index write rejected")
	}
	return nil
}

func (f *fakeIndex) Search(context.Context, string, int) ([]*core.SearchResult, error) {
	return nil, nil
}

func (f *fakeIndex) Close() error { return nil }

func (f *fakeIndex) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts)
}

// recorder captures Recorder callbacks.
type recorder struct {
	mu       sync.Mutex
	urls     int
	pages    int
	chunks   int
	batches  map[string]batch.Summary
	finished []error
}

func (r *recorder) URLsMapped(n int)     { r.mu.Lock(); r.urls += n; r.mu.Unlock() }
func (r *recorder) PagesExtracted(n int) { r.mu.Lock(); r.pages += n; r.mu.Unlock() }
func (r *recorder) ChunksCreated(n int)  { r.mu.Lock(); r.chunks += n; r.mu.Unlock() }

func (r *recorder) Batches(stage string, s batch.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.batches == nil {
		r.batches = make(map[string]batch.Summary)
	}
	r.batches[stage] = s
}

func (r *recorder) RunFinished(_ Mode, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, err)
}

func siteURLs(n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://docs.example.com/page-%02d", i+1)
	}
	return urls
}

func pageContent(url string) string {
	return "# " + url + "\n\nReference content for " + url + "."
}

func batchContains(url string) func([]string) bool {
	return func(urls []string) bool {
		return slices.Contains(urls, url)
	}
}

func newTestPool(t *testing.T) *ants.Pool {
	t.Helper()
	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return pool
}
