package lexindex

import (
	"math"
	"sort"
	"strings"

	"github.com/poiesic/retriever/core"
)

// Okapi BM25 parameters. k1 controls term-frequency saturation, b controls
// document-length normalization, epsilon floors negative idf values for
// terms present in more than half the corpus.
const (
	k1      = 1.5
	b       = 0.75
	epsilon = 0.25
)

// Index holds the term statistics needed to score a tokenized query
// against any chunk without re-scanning raw text: term frequencies per
// chunk, document frequency per term, and the average chunk length.
// An Index is read-only after construction and safe for concurrent
// searches.
type Index struct {
	chunks    []core.Chunk
	termFreqs []map[string]int
	docLens   []int
	avgDocLen float64
	idf       map[string]float64
}

// Hit is one scored match from a lexical search.
type Hit struct {
	Index int
	Score float64
}

// Tokenize lowercases and whitespace-splits text into query/index terms.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// Build constructs the index from a chunk sequence by tokenizing every
// chunk and deriving the corpus statistics.
func Build(chunks []core.Chunk) *Index {
	termFreqs := make([]map[string]int, len(chunks))
	for i := range chunks {
		tf := make(map[string]int)
		for _, term := range Tokenize(chunks[i].Content) {
			tf[term]++
		}
		termFreqs[i] = tf
	}
	return fromTermFreqs(chunks, termFreqs)
}

// fromTermFreqs derives document frequencies, lengths, and idf from the
// per-chunk term statistics. Shared by Build and Load.
func fromTermFreqs(chunks []core.Chunk, termFreqs []map[string]int) *Index {
	docLens := make([]int, len(termFreqs))
	docFreq := make(map[string]int)
	totalLen := 0
	for i, tf := range termFreqs {
		length := 0
		for term, freq := range tf {
			length += freq
			docFreq[term]++
		}
		docLens[i] = length
		totalLen += length
	}

	avgDocLen := 0.0
	if len(termFreqs) > 0 {
		avgDocLen = float64(totalLen) / float64(len(termFreqs))
	}

	return &Index{
		chunks:    chunks,
		termFreqs: termFreqs,
		docLens:   docLens,
		avgDocLen: avgDocLen,
		idf:       computeIDF(docFreq, len(termFreqs)),
	}
}

// computeIDF computes inverse document frequencies the BM25Okapi way:
// idf = ln((N - df + 0.5) / (df + 0.5)), with negative values (terms in
// more than half the chunks) floored to epsilon times the mean idf so
// common terms contribute a small positive weight instead of a penalty.
func computeIDF(docFreq map[string]int, n int) map[string]float64 {
	idf := make(map[string]float64, len(docFreq))
	var sum float64
	var negative []string
	for term, df := range docFreq {
		v := math.Log((float64(n) - float64(df) + 0.5) / (float64(df) + 0.5))
		idf[term] = v
		sum += v
		if v < 0 {
			negative = append(negative, term)
		}
	}
	if len(idf) > 0 {
		floor := epsilon * (sum / float64(len(idf)))
		for _, term := range negative {
			idf[term] = floor
		}
	}
	return idf
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	return len(ix.chunks)
}

// Chunk returns the chunk at position i.
func (ix *Index) Chunk(i int) core.Chunk {
	return ix.chunks[i]
}

// Chunks returns the parallel chunk array. Callers must not mutate it.
func (ix *Index) Chunks() []core.Chunk {
	return ix.chunks
}

// Search returns up to k chunks ranked by BM25 score against the query
// tokens, descending. Only chunks with strictly positive scores are
// eligible: a chunk sharing no terms with the query never appears. Ties
// keep original chunk order.
func (ix *Index) Search(tokens []string, k int) []Hit {
	if k <= 0 || ix.Len() == 0 || len(tokens) == 0 {
		return nil
	}

	hits := make([]Hit, 0, k)
	for i := range ix.chunks {
		if score := ix.score(tokens, i); score > 0 {
			hits = append(hits, Hit{Index: i, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// score computes the BM25 score of chunk i for the query tokens.
func (ix *Index) score(tokens []string, i int) float64 {
	tf := ix.termFreqs[i]
	lenNorm := k1 * (1 - b + b*float64(ix.docLens[i])/ix.avgDocLen)

	var score float64
	for _, term := range tokens {
		freq, ok := tf[term]
		if !ok {
			continue
		}
		f := float64(freq)
		score += ix.idf[term] * (f * (k1 + 1)) / (f + lenNorm)
	}
	return score
}
