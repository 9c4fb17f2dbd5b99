// Package ingest prepares document files for indexing: text extraction
// from plain-text and markdown files, whitespace and special-character
// cleaning, recursive character chunking with overlap, and per-chunk
// metadata (origin filename, chunk position, size, file type, and a
// year when the filename carries one).
package ingest
