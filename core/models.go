package core

// Chunk is the atomic unit of retrieval: a bounded span of extracted
// document text together with its metadata. Chunks are assigned IDs at
// index build time and never mutated afterwards.
type Chunk struct {
	Id       int
	Content  string
	Metadata map[string]string
}

// Metadata keys populated during ingestion and consumed by search.
const (
	MetaFilename  = "filename"
	MetaPage      = "page"
	MetaChunkSize = "chunk_size"
	MetaFileType  = "file_type"
	MetaYear      = "year"
)

// Filename returns the chunk's origin filename, or "" if unknown.
func (c *Chunk) Filename() string {
	return c.Metadata[MetaFilename]
}

// Origin identifies which search algorithm produced a result.
type Origin int

const (
	// OriginVector marks a result produced by embedding similarity search.
	OriginVector Origin = iota + 1
	// OriginLexical marks a result produced by term-statistics search.
	OriginLexical
	// OriginBoth marks a result found by both algorithms and merged during fusion.
	OriginBoth
)

// String returns the origin name used in logs and result dumps.
func (o Origin) String() string {
	switch o {
	case OriginVector:
		return "vector"
	case OriginLexical:
		return "lexical"
	case OriginBoth:
		return "both"
	default:
		return "unknown"
	}
}

// SearchResult is a scored retrieval candidate. Results exist only for the
// lifetime of one query and are never persisted.
type SearchResult struct {
	Content         string
	Metadata        map[string]string
	RawScore        float64 // algorithm-specific scale
	NormalizedScore float64 // in [0,1], relative to the producing result set's maximum
	CombinedScore   float64 // post-fusion weighted score
	Origin          Origin
}

// CorpusStats reports the state of a loaded corpus.
type CorpusStats struct {
	ChunkCount    int
	IndexesLoaded bool
}
