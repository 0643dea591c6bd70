// Package reembed rebuilds the vectors of an index after the embedding model
// changes.
//
// Chunks are read back from an index that can list them, embedded again in
// batches by the target index, and written over the old records. Because
// chunk IDs depend only on source and text, re-embedding in place replaces
// every record instead of duplicating it.
package reembed
