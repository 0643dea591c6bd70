// Package badger implements storage.VectorIndex on BadgerDB.
//
// Each chunk is stored under a key derived from its content-based ID, so
// ingesting the same page twice overwrites rather than duplicates. Search is a
// brute-force scan over all records, which is adequate for a single
// documentation site but not for corpora in the millions of chunks.
package badger
