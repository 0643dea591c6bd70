// Package ingestion loads a documentation site into a vector index.
//
// A Pipeline run discovers page URLs with a mapping request, partitions them
// into fixed-size batches, extracts each batch concurrently, splits the
// extracted text into overlapping chunks and upserts the chunks into a
// storage.VectorIndex in concurrent batches.
//
// Discovery failures abort the run. Extraction and indexing failures are
// isolated to their batch: they are logged with the batch number, counted in
// the run Report and never retried or allowed to cancel sibling batches.
//
// RunCrawl is an alternative mode that replaces map and extract with a single
// crawl request and chunks each page with a smaller window.
package ingestion
