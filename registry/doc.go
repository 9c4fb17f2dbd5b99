// Package registry tracks built corpora ("batches") in a local BadgerDB
// store. A batch record holds the identifiers and artifact locations a
// caller needs to load the corpus for querying; one batch can be marked
// as the default query target.
package registry
