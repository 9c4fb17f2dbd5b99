package vecindex

import (
	"fmt"
	"path/filepath"

	"github.com/poiesic/retriever/storage"
)

// The vector artifact is two files in one directory: the similarity-index
// structure (the normalized embedding matrix) and a companion holding the
// parallel chunk/metadata array.
const (
	IndexFileName  = "index.vec"
	ChunksFileName = "chunks.vec"
)

// Save persists the index as one atomic artifact set under dir. buildId
// and fingerprint are stamped into both file headers so the loader can
// verify the set is from a single build of a single corpus.
func (ix *Index) Save(dir, buildId string, fingerprint uint64) error {
	h := storage.Header{
		Kind:        storage.KindVectorIndex,
		ChunkCount:  ix.Len(),
		Dimension:   ix.dim,
		BuildId:     buildId,
		Fingerprint: fingerprint,
	}

	vectorsSize := 0
	for _, v := range ix.vectors {
		vectorsSize += storage.VectorMUS.Size(v)
	}
	indexImage := storage.EncodeArtifact(h, vectorsSize, func(bs []byte) (n int) {
		for _, v := range ix.vectors {
			n += storage.VectorMUS.Marshal(v, bs[n:])
		}
		return
	})

	h.Kind = storage.KindVectorChunks
	chunksImage := storage.EncodeArtifact(h, storage.ChunksMUS.Size(ix.chunks), func(bs []byte) int {
		return storage.ChunksMUS.Marshal(ix.chunks, bs)
	})

	if err := storage.WriteFileAtomic(filepath.Join(dir, IndexFileName), indexImage); err != nil {
		return fmt.Errorf("write vector index: %w", err)
	}
	if err := storage.WriteFileAtomic(filepath.Join(dir, ChunksFileName), chunksImage); err != nil {
		return fmt.Errorf("write vector chunks: %w", err)
	}
	return nil
}

// Load reads a vector artifact set from dir and returns the index together
// with its header, so the caller can cross-check the artifact against its
// lexical counterpart. It fails with a storage.ErrArtifactMissing or
// storage.ErrArtifactIncompatible kind when either file is absent or the
// pair disagrees on count, build, or corpus.
func Load(dir string) (*Index, storage.Header, error) {
	ih, indexPayload, err := storage.ReadArtifactFile(
		filepath.Join(dir, IndexFileName), storage.KindVectorIndex)
	if err != nil {
		return nil, storage.Header{}, err
	}
	ch, chunksPayload, err := storage.ReadArtifactFile(
		filepath.Join(dir, ChunksFileName), storage.KindVectorChunks)
	if err != nil {
		return nil, storage.Header{}, err
	}
	if err := storage.CheckCompatible(ih, ch); err != nil {
		return nil, storage.Header{}, fmt.Errorf("%w: %w", storage.ErrArtifactIncompatible, err)
	}

	vectors := make([][]float32, ih.ChunkCount)
	n := 0
	for i := 0; i < ih.ChunkCount; i++ {
		var vn int
		vectors[i], vn, err = storage.VectorMUS.Unmarshal(indexPayload[n:])
		if err != nil {
			return nil, storage.Header{}, fmt.Errorf("%w: vector %d: %w",
				storage.ErrArtifactIncompatible, i, err)
		}
		if len(vectors[i]) != ih.Dimension {
			return nil, storage.Header{}, fmt.Errorf("%w: vector %d has dimension %d, header says %d",
				storage.ErrArtifactIncompatible, i, len(vectors[i]), ih.Dimension)
		}
		n += vn
	}

	chunks, _, err := storage.ChunksMUS.Unmarshal(chunksPayload)
	if err != nil {
		return nil, storage.Header{}, fmt.Errorf("%w: chunks: %w", storage.ErrArtifactIncompatible, err)
	}
	if len(chunks) != ih.ChunkCount {
		return nil, storage.Header{}, fmt.Errorf("%w: companion holds %d chunks, header says %d",
			storage.ErrChunkCountMismatch, len(chunks), ih.ChunkCount)
	}

	ix, err := New(vectors, chunks)
	if err != nil {
		return nil, storage.Header{}, err
	}
	return ix, ih, nil
}
