package vecindex

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/retriever/core"
	"github.com/poiesic/retriever/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalized(v []float32) []float32 {
	out := append([]float32{}, v...)
	Normalize(out)
	return out
}

func testIndex(t *testing.T) *Index {
	t.Helper()
	vectors := [][]float32{
		normalized([]float32{1, 0, 0}),
		normalized([]float32{0.9, 0.1, 0}),
		normalized([]float32{0, 0, 1}),
	}
	chunks := []core.Chunk{
		{Id: 0, Content: "alpha chunk", Metadata: map[string]string{core.MetaFilename: "alpha.txt"}},
		{Id: 1, Content: "alpha adjacent"},
		{Id: 2, Content: "gamma chunk"},
	}
	ix, err := New(vectors, chunks)
	require.NoError(t, err)
	return ix
}

func TestNew(t *testing.T) {
	t.Run("parallel array mismatch", func(t *testing.T) {
		_, err := New([][]float32{{1}}, nil)
		assert.ErrorIs(t, err, ErrParallelArrays)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := New([][]float32{{1, 0}, {1}}, make([]core.Chunk, 2))
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("empty index", func(t *testing.T) {
		ix, err := New(nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, ix.Len())
		assert.Equal(t, 0, ix.Dimension())
	})
}

func TestNormalize(t *testing.T) {
	t.Run("unit length result", func(t *testing.T) {
		v := []float32{3, 4}
		require.True(t, Normalize(v))
		norm := math.Sqrt(float64(v[0])*float64(v[0]) + float64(v[1])*float64(v[1]))
		assert.InDelta(t, 1.0, norm, 1e-6)
		assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
		assert.InDelta(t, 0.8, float64(v[1]), 1e-6)
	})

	t.Run("zero vector", func(t *testing.T) {
		v := []float32{0, 0, 0}
		assert.False(t, Normalize(v))
	})
}

func TestSearch(t *testing.T) {
	ix := testIndex(t)

	t.Run("ranked by similarity", func(t *testing.T) {
		hits := ix.Search([]float32{1, 0, 0}, 3)
		require.Len(t, hits, 3)
		assert.Equal(t, 0, hits[0].Index)
		assert.Equal(t, 1, hits[1].Index)
		assert.Equal(t, 2, hits[2].Index)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
		for i := 0; i < len(hits)-1; i++ {
			assert.GreaterOrEqual(t, hits[i].Score, hits[i+1].Score)
		}
	})

	t.Run("truncates to k", func(t *testing.T) {
		hits := ix.Search([]float32{1, 0, 0}, 2)
		assert.Len(t, hits, 2)
	})

	t.Run("k zero", func(t *testing.T) {
		assert.Empty(t, ix.Search([]float32{1, 0, 0}, 0))
	})

	t.Run("zero query vector returns no evidence", func(t *testing.T) {
		assert.Empty(t, ix.Search([]float32{0, 0, 0}, 3))
	})

	t.Run("dimension mismatch returns no evidence", func(t *testing.T) {
		assert.Empty(t, ix.Search([]float32{1, 0}, 3))
	})

	t.Run("ties keep original chunk order", func(t *testing.T) {
		dup := normalized([]float32{1, 1, 0})
		vectors := [][]float32{
			append([]float32{}, dup...),
			append([]float32{}, dup...),
			append([]float32{}, dup...),
		}
		tied, err := New(vectors, make([]core.Chunk, 3))
		require.NoError(t, err)

		hits := tied.Search([]float32{1, 1, 0}, 3)
		require.Len(t, hits, 3)
		assert.Equal(t, []int{0, 1, 2}, []int{hits[0].Index, hits[1].Index, hits[2].Index})
	})

	t.Run("empty index", func(t *testing.T) {
		empty, err := New(nil, nil)
		require.NoError(t, err)
		assert.Empty(t, empty.Search([]float32{1}, 5))
	})
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ix := testIndex(t)
	dir := t.TempDir()

	require.NoError(t, ix.Save(dir, "build-7", 42))

	loaded, h, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "build-7", h.BuildId)
	assert.Equal(t, uint64(42), h.Fingerprint)
	assert.Equal(t, ix.Len(), h.ChunkCount)
	assert.Equal(t, ix.Len(), loaded.Len())
	assert.Equal(t, ix.Dimension(), loaded.Dimension())
	assert.Equal(t, ix.Chunks(), loaded.Chunks())

	// loaded index searches identically
	want := ix.Search([]float32{1, 0, 0}, 3)
	got := loaded.Search([]float32{1, 0, 0}, 3)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Index, got[i].Index)
		assert.InDelta(t, want[i].Score, got[i].Score, 1e-6)
	}
}

func TestLoad_Failures(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, _, err := Load(filepath.Join(t.TempDir(), "absent"))
		assert.ErrorIs(t, err, storage.ErrArtifactMissing)
	})

	t.Run("missing companion file", func(t *testing.T) {
		ix := testIndex(t)
		dir := t.TempDir()
		require.NoError(t, ix.Save(dir, "b", 1))
		require.NoError(t, os.Remove(filepath.Join(dir, ChunksFileName)))

		_, _, err := Load(dir)
		assert.ErrorIs(t, err, storage.ErrArtifactMissing)
	})

	t.Run("negative chunk count rejected", func(t *testing.T) {
		dir := t.TempDir()
		h := storage.Header{
			Kind:       storage.KindVectorIndex,
			ChunkCount: -1,
			Dimension:  3,
			BuildId:    "b",
		}
		image := storage.EncodeArtifact(h, 0, func([]byte) int { return 0 })
		require.NoError(t, storage.WriteFileAtomic(filepath.Join(dir, IndexFileName), image))
		h.Kind = storage.KindVectorChunks
		image = storage.EncodeArtifact(h, 0, func([]byte) int { return 0 })
		require.NoError(t, storage.WriteFileAtomic(filepath.Join(dir, ChunksFileName), image))

		assert.NotPanics(t, func() {
			_, _, err := Load(dir)
			assert.ErrorIs(t, err, storage.ErrArtifactIncompatible)
		})
	})

	t.Run("truncated payload rejected", func(t *testing.T) {
		ix := testIndex(t)
		dir := t.TempDir()
		require.NoError(t, ix.Save(dir, "b", 1))

		path := filepath.Join(dir, IndexFileName)
		bs, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, bs[:len(bs)-4], 0644))

		_, _, err = Load(dir)
		assert.ErrorIs(t, err, storage.ErrArtifactIncompatible)
	})

	t.Run("mixed builds rejected", func(t *testing.T) {
		ix := testIndex(t)
		dirA := t.TempDir()
		dirB := t.TempDir()
		require.NoError(t, ix.Save(dirA, "build-a", 1))
		require.NoError(t, ix.Save(dirB, "build-b", 1))

		// pair the index file of build-a with the companion of build-b
		bs, err := os.ReadFile(filepath.Join(dirB, ChunksFileName))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dirA, ChunksFileName), bs, 0644))

		_, _, err = Load(dirA)
		assert.ErrorIs(t, err, storage.ErrArtifactIncompatible)
	})
}
