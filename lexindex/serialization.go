package lexindex

import (
	"fmt"

	"github.com/poiesic/retriever/storage"
)

// The lexical artifact is a single file: header, parallel chunk array,
// then per-chunk term frequencies. Document frequencies, lengths, and idf
// are derived on load.

// Save persists the index to path as one atomic artifact.
func (ix *Index) Save(path, buildId string, fingerprint uint64) error {
	h := storage.Header{
		Kind:        storage.KindLexicalIndex,
		ChunkCount:  ix.Len(),
		BuildId:     buildId,
		Fingerprint: fingerprint,
	}

	payloadSize := storage.ChunksMUS.Size(ix.chunks)
	for _, tf := range ix.termFreqs {
		payloadSize += storage.TermFreqMUS.Size(tf)
	}

	image := storage.EncodeArtifact(h, payloadSize, func(bs []byte) (n int) {
		n = storage.ChunksMUS.Marshal(ix.chunks, bs)
		for _, tf := range ix.termFreqs {
			n += storage.TermFreqMUS.Marshal(tf, bs[n:])
		}
		return
	})

	if err := storage.WriteFileAtomic(path, image); err != nil {
		return fmt.Errorf("write lexical index: %w", err)
	}
	return nil
}

// Load reads a lexical artifact from path and returns the index together
// with its header, so the caller can cross-check the artifact against its
// vector counterpart.
func Load(path string) (*Index, storage.Header, error) {
	h, payload, err := storage.ReadArtifactFile(path, storage.KindLexicalIndex)
	if err != nil {
		return nil, storage.Header{}, err
	}

	chunks, n, err := storage.ChunksMUS.Unmarshal(payload)
	if err != nil {
		return nil, storage.Header{}, fmt.Errorf("%w: chunks: %w", storage.ErrArtifactIncompatible, err)
	}
	if len(chunks) != h.ChunkCount {
		return nil, storage.Header{}, fmt.Errorf("%w: artifact holds %d chunks, header says %d",
			storage.ErrChunkCountMismatch, len(chunks), h.ChunkCount)
	}

	termFreqs := make([]map[string]int, h.ChunkCount)
	for i := 0; i < h.ChunkCount; i++ {
		var tn int
		termFreqs[i], tn, err = storage.TermFreqMUS.Unmarshal(payload[n:])
		if err != nil {
			return nil, storage.Header{}, fmt.Errorf("%w: term stats %d: %w",
				storage.ErrArtifactIncompatible, i, err)
		}
		n += tn
	}

	return fromTermFreqs(chunks, termFreqs), h, nil
}
