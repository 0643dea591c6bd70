// Package batch provides the batching primitives shared by the ingestion stages.
//
// Partition splits an ordered slice into fixed-size groups. Result carries the
// outcome of one batch as either a value or an error, and Summarize folds a
// slice of results into success and failure counts without reordering them.
// RetryWithBackoff retries an operation with exponential backoff and is used by
// the embedding client for its single retry after a provider error.
package batch
