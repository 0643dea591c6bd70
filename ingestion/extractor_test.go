package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docqa/batch"
	"github.com/poiesic/docqa/webcrawl"
)

func TestNewExtractor_Validation(t *testing.T) {
	pool := newTestPool(t)

	_, err := NewExtractor(nil, pool, nil)
	assert.Equal(t, ErrCrawlServiceRequired, err)

	_, err = NewExtractor(&fakeService{}, nil, nil)
	assert.Equal(t, ErrPoolRequired, err)

	e, err := NewExtractor(&fakeService{}, pool, nil)
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestExtractBatch(t *testing.T) {
	service := &fakeService{
		content: func(url string) string {
			if url == "https://docs.example.com/page-02" {
				return "   \n"
			}
			return pageContent(url)
		},
	}
	e, err := NewExtractor(service, newTestPool(t), nil)
	require.NoError(t, err)

	result := e.ExtractBatch(context.Background(), siteURLs(3), 7)
	require.True(t, result.Ok())
	assert.Equal(t, 7, result.Batch)
	assert.Equal(t, 3, result.Size)

	require.Len(t, result.Value, 2, "blank pages are omitted")
	assert.Equal(t, "https://docs.example.com/page-01", result.Value[0].SourceURL)
	assert.Equal(t, "https://docs.example.com/page-03", result.Value[1].SourceURL)
	assert.Equal(t, []webcrawl.ExtractDepth{webcrawl.DepthAdvanced}, service.depths)
}

func TestExtractBatch_RequestFailure(t *testing.T) {
	service := &fakeService{failExtract: func([]string) bool { return true }}
	e, err := NewExtractor(service, newTestPool(t), nil)
	require.NoError(t, err)

	result := e.ExtractBatch(context.Background(), siteURLs(2), 3)
	assert.False(t, result.Ok())
	assert.True(t, errors.Is(result.Err, errBatchFailed))
	assert.Contains(t, result.Err.Error(), "batch 3")
}

func TestExtractBatch_NilResponse(t *testing.T) {
	service := &fakeService{respond: func([]string) (*webcrawl.ExtractResponse, error) { return nil, nil }}
	e, err := NewExtractor(service, newTestPool(t), nil)
	require.NoError(t, err)

	result := e.ExtractBatch(context.Background(), siteURLs(2), 4)
	assert.False(t, result.Ok())
	assert.Equal(t, 4, result.Batch)
	assert.True(t, errors.Is(result.Err, webcrawl.ErrMalformedResponse))
}

func TestExtractBatch_DropsPagesWithoutURL(t *testing.T) {
	service := &fakeService{extraPages: []webcrawl.Page{
		{URL: "", RawContent: "orphan page body"},
		{URL: "  ", RawContent: "another orphan"},
	}}
	e, err := NewExtractor(service, newTestPool(t), nil)
	require.NoError(t, err)

	result := e.ExtractBatch(context.Background(), siteURLs(3), 1)
	require.True(t, result.Ok())
	require.Len(t, result.Value, 3)
	for _, r := range result.Value {
		assert.NotEmpty(t, r.SourceURL)
	}
}

func TestExtractAll_PanickingBatchCountsAsFailure(t *testing.T) {
	urls := siteURLs(6)
	batches, err := batch.Partition(urls, 2)
	require.NoError(t, err)

	service := &fakeService{respond: func(b []string) (*webcrawl.ExtractResponse, error) {
		if batchContains(urls[2])(b) {
			panic("decoder state corrupted")
		}
		resp := &webcrawl.ExtractResponse{}
		for _, u := range b {
			resp.Results = append(resp.Results, webcrawl.Page{URL: u, RawContent: pageContent(u)})
		}
		return resp, nil
	}}
	e, err := NewExtractor(service, newTestPool(t), nil)
	require.NoError(t, err)

	records, summary := e.ExtractAll(context.Background(), batches)
	assert.Equal(t, batch.Summary{Total: 3, Succeeded: 2, Failed: 1}, summary)
	require.Len(t, records, 4)
	assert.Equal(t, urls[4], records[2].SourceURL)
}

func TestExtractAll_NilResponseCountsAsFailure(t *testing.T) {
	urls := siteURLs(6)
	batches, err := batch.Partition(urls, 2)
	require.NoError(t, err)

	service := &fakeService{respond: func(b []string) (*webcrawl.ExtractResponse, error) {
		if batchContains(urls[2])(b) {
			return nil, nil
		}
		return &webcrawl.ExtractResponse{Results: []webcrawl.Page{{URL: b[0], RawContent: pageContent(b[0])}}}, nil
	}}
	e, err := NewExtractor(service, newTestPool(t), nil)
	require.NoError(t, err)

	records, summary := e.ExtractAll(context.Background(), batches)
	assert.Equal(t, batch.Summary{Total: 3, Succeeded: 2, Failed: 1}, summary)
	assert.Len(t, records, 2)
}

func TestExtractAll_FailureIsolation(t *testing.T) {
	urls := siteURLs(10)
	batches, err := batch.Partition(urls, 2)
	require.NoError(t, err)

	// Batches 2 and 4 fail
	service := &fakeService{failExtract: func(b []string) bool {
		return batchContains(urls[2])(b) || batchContains(urls[6])(b)
	}}
	e, err := NewExtractor(service, newTestPool(t), nil)
	require.NoError(t, err)

	records, summary := e.ExtractAll(context.Background(), batches)
	assert.Equal(t, batch.Summary{Total: 5, Succeeded: 3, Failed: 2}, summary)
	assert.Equal(t, 5, service.extractCallCount(), "every batch is attempted")

	got := make([]string, len(records))
	for i, r := range records {
		got[i] = r.SourceURL
	}
	assert.Equal(t, []string{urls[0], urls[1], urls[4], urls[5], urls[8], urls[9]}, got)
}

func TestExtractAll_NoBatches(t *testing.T) {
	service := &fakeService{}
	e, err := NewExtractor(service, newTestPool(t), nil)
	require.NoError(t, err)

	records, summary := e.ExtractAll(context.Background(), nil)
	assert.Empty(t, records)
	assert.Equal(t, batch.Summary{}, summary)
	assert.Zero(t, service.extractCallCount())
}

func TestExtractAll_CancelledContext(t *testing.T) {
	batches, err := batch.Partition(siteURLs(6), 2)
	require.NoError(t, err)

	e, err := NewExtractor(&fakeService{}, newTestPool(t), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, summary := e.ExtractAll(ctx, batches)
	assert.Empty(t, records)
	assert.Equal(t, batch.Summary{Total: 3, Failed: 3}, summary)
}
