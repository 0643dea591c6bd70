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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/docqa/batch"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/webcrawl"
)

// Extractor pulls page content for batches of URLs.
type Extractor struct {
	service webcrawl.Extractor
	pool    *ants.Pool
	depth   webcrawl.ExtractDepth
	logger  *slog.Logger
}

// NewExtractor creates an extractor that fans batches out on pool.
func NewExtractor(service webcrawl.Extractor, pool *ants.Pool, logger *slog.Logger) (*Extractor, error) {
	if service == nil {
		return nil, ErrCrawlServiceRequired
	}
	if pool == nil {
		return nil, ErrPoolRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		service: service,
		pool:    pool,
		depth:   webcrawl.DepthAdvanced,
		logger:  logger.With("stage", "extract"),
	}, nil
}

// ExtractBatch issues one extraction request for urls. Pages with blank
// content or no URL and pages the service reports as failed are omitted. A failed
// request yields a failed result; it is logged here and never retried.
func (e *Extractor) ExtractBatch(ctx context.Context, urls []string, batchNum int) batch.Result[[]*core.ContentRecord] {
	resp, err := e.service.Extract(ctx, urls, e.depth)
	if err != nil {
		e.logger.Error("extraction batch failed", "batch", batchNum, "urls", len(urls), "err", err)
		return batch.Failed[[]*core.ContentRecord](batchNum, len(urls), fmt.Errorf("batch %d: %w", batchNum, err))
	}
	if resp == nil {
		e.logger.Error("extraction batch returned no response", "batch", batchNum, "urls", len(urls))
		return batch.Failed[[]*core.ContentRecord](batchNum, len(urls), fmt.Errorf("batch %d: %w", batchNum, webcrawl.ErrMalformedResponse))
	}

	records := make([]*core.ContentRecord, 0, len(resp.Results))
	for _, page := range resp.Results {
		if strings.TrimSpace(page.RawContent) == "" {
			continue
		}
		if strings.TrimSpace(page.URL) == "" {
			e.logger.Debug("dropping page without url", "batch", batchNum)
			continue
		}
		records = append(records, &core.ContentRecord{RawText: page.RawContent, SourceURL: page.URL})
	}
	if len(resp.Failed) > 0 {
		e.logger.Debug("pages failed extraction", "batch", batchNum, "failed", len(resp.Failed))
	}

	e.logger.Info("batch extracted", "batch", batchNum, "urls", len(urls), "pages", len(records))
	return batch.Succeeded(batchNum, len(urls), records)
}

// ExtractAll runs every batch concurrently and waits for all of them.
// Records are returned in batch submission order regardless of completion order.
func (e *Extractor) ExtractAll(ctx context.Context, batches [][]string) ([]*core.ContentRecord, batch.Summary) {
	e.logger.Info("starting extraction", "batches", len(batches))

	results := make([]batch.Result[[]*core.ContentRecord], len(batches))
	var wg sync.WaitGroup
	for i, urls := range batches {
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("extraction batch panicked", "batch", i+1, "panic", r)
					results[i] = batch.Failed[[]*core.ContentRecord](i+1, len(urls), fmt.Errorf("batch %d: %w: %v", i+1, ErrBatchPanicked, r))
				}
			}()
			results[i] = e.ExtractBatch(ctx, urls, i+1)
		})
		if err != nil {
			wg.Done()
			e.logger.Error("failed to submit extraction batch", "batch", i+1, "err", err)
			results[i] = batch.Failed[[]*core.ContentRecord](i+1, len(urls), err)
		}
	}
	wg.Wait()

	var records []*core.ContentRecord
	for _, r := range results {
		if r.Ok() {
			records = append(records, r.Value...)
		}
	}

	summary := batch.Summarize(results)
	e.logger.Info("extraction complete", "batches", summary.Total, "succeeded", summary.Succeeded, "pages", len(records))
	if summary.Failed > 0 {
		e.logger.Warn("some extraction batches failed", "failed", summary.Failed, "total", summary.Total)
	}
	return records, summary
}
