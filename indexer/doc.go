// Package indexer builds the persisted artifact set for a chunk corpus:
// a vector index, its chunk companion file, and a lexical index, all
// stamped with a shared build id and corpus fingerprint. Embedding is
// batched and fanned out to a worker pool; artifact writes are atomic.
package indexer
