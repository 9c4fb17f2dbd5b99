package vecindex

import (
	"fmt"
	"math"
	"sort"

	"github.com/poiesic/retriever/core"
)

// Index is a flat inner-product similarity index over L2-normalized
// embedding vectors. Vector i, chunk i, and its metadata always refer to
// the same logical chunk. The index is read-only after construction and
// safe for concurrent searches.
type Index struct {
	dim     int
	vectors [][]float32
	chunks  []core.Chunk
}

// Hit is one scored match from a vector search.
type Hit struct {
	Index int     // position in the chunk array
	Score float64 // inner product, equals cosine similarity for unit vectors
}

// New creates an index from parallel vector and chunk arrays. The vectors
// must already be L2-normalized (the builder normalizes them); New verifies
// only the parallel-array invariant and dimensional consistency.
func New(vectors [][]float32, chunks []core.Chunk) (*Index, error) {
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: %d vectors, %d chunks",
			ErrParallelArrays, len(vectors), len(chunks))
	}

	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d",
				ErrDimensionMismatch, i, len(v), dim)
		}
	}

	return &Index{dim: dim, vectors: vectors, chunks: chunks}, nil
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	return len(ix.chunks)
}

// Dimension returns the embedding dimension, 0 for an empty index.
func (ix *Index) Dimension() int {
	return ix.dim
}

// Chunk returns the chunk at position i.
func (ix *Index) Chunk(i int) core.Chunk {
	return ix.chunks[i]
}

// Chunks returns the parallel chunk array. Callers must not mutate it.
func (ix *Index) Chunks() []core.Chunk {
	return ix.chunks
}

// Search returns up to k chunks ranked by inner product against the query
// vector, descending. The query is normalized in place; ties keep original
// chunk order. A zero query vector, a dimension mismatch, or an empty
// index yields an empty result rather than an error: those are "no
// evidence" conditions, not faults.
func (ix *Index) Search(query []float32, k int) []Hit {
	if k <= 0 || ix.Len() == 0 || len(query) != ix.dim {
		return nil
	}
	if !Normalize(query) {
		return nil
	}

	hits := make([]Hit, len(ix.vectors))
	for i, v := range ix.vectors {
		hits[i] = Hit{Index: i, Score: dotProduct(query, v)}
	}

	// Stable sort keeps original chunk order across equal scores.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Normalize scales v to unit length in place. Returns false and leaves v
// untouched when v has zero magnitude.
func Normalize(v []float32) bool {
	var sumSquares float64
	for _, f := range v {
		sumSquares += float64(f) * float64(f)
	}
	if sumSquares == 0 {
		return false
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
	return true
}

// dotProduct calculates the dot product of two equal-length vectors.
func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
