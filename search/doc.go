// Package search implements hybrid retrieval over a loaded corpus. A
// query runs two legs, embedding similarity and BM25 term overlap, each
// fetching twice the requested result count. Fusion max-normalizes each
// leg's scores, merges them with configurable weights, and deduplicates
// by exact content. When the caller names required sources, a balanced
// rerank guarantees each source a quota of the final slots.
package search
