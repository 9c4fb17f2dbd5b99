package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/retriever/ai/mock"
	"github.com/poiesic/retriever/core"
	"github.com/poiesic/retriever/lexindex"
	"github.com/poiesic/retriever/storage"
	"github.com/poiesic/retriever/vecindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildChunks(n int) []core.Chunk {
	chunks := make([]core.Chunk, n)
	for i := range chunks {
		chunks[i] = core.Chunk{
			Id:      i,
			Content: fmt.Sprintf("chunk %d talks about topic %d", i, i),
		}
	}
	return chunks
}

func artifactPaths(t *testing.T) (string, string) {
	dir := t.TempDir()
	return filepath.Join(dir, "vec"), filepath.Join(dir, "index.lex")
}

func TestNewBuilder(t *testing.T) {
	t.Run("requires embedder", func(t *testing.T) {
		_, err := NewBuilder(nil)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("defaults", func(t *testing.T) {
		b, err := NewBuilder(mock.NewMockEmbedder())
		require.NoError(t, err)
		defer b.Release()
		assert.Equal(t, DefaultBatchSize, b.batchSize)
	})

	t.Run("batch size below one resets to default", func(t *testing.T) {
		b, err := NewBuilder(mock.NewMockEmbedder(), WithBatchSize(0))
		require.NoError(t, err)
		defer b.Release()
		assert.Equal(t, DefaultBatchSize, b.batchSize)
	})
}

func TestBuild(t *testing.T) {
	embedder := &mock.MockEmbedder{Dim: 8}
	b, err := NewBuilder(embedder, WithBatchSize(2), WithPoolSize(2))
	require.NoError(t, err)
	defer b.Release()

	chunks := buildChunks(5)
	vectorDir, lexicalPath := artifactPaths(t)

	result, err := b.Build(context.Background(), chunks, vectorDir, lexicalPath)
	require.NoError(t, err)
	assert.NotEmpty(t, result.BuildId)
	assert.Equal(t, 5, result.ChunkCount)
	assert.Equal(t, 8, result.Dimension)

	vec, vecHeader, err := vecindex.Load(vectorDir)
	require.NoError(t, err)
	lex, lexHeader, err := lexindex.Load(lexicalPath)
	require.NoError(t, err)

	t.Run("artifacts form one build", func(t *testing.T) {
		assert.Equal(t, result.BuildId, vecHeader.BuildId)
		assert.Equal(t, result.BuildId, lexHeader.BuildId)
		assert.NoError(t, storage.CheckCompatible(vecHeader, lexHeader))
		assert.Equal(t, core.FingerprintChunks(chunks), vecHeader.Fingerprint)
	})

	t.Run("chunks survive in order", func(t *testing.T) {
		require.Equal(t, 5, vec.Len())
		assert.Equal(t, chunks, vec.Chunks())
		assert.Equal(t, chunks, lex.Chunks())
	})

	t.Run("vectors land at their chunk positions", func(t *testing.T) {
		// embedding a chunk's own content must rank that chunk first:
		// the mock is deterministic, so anything else means a batch
		// result was written to the wrong slot
		for i, c := range chunks {
			query, err := embedder.EmbedText(context.Background(), c.Content)
			require.NoError(t, err)
			hits := vec.Search(query, 1)
			require.Len(t, hits, 1)
			assert.Equal(t, i, hits[0].Index, "chunk %d", i)
			assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
		}
	})

	t.Run("lexical index is searchable", func(t *testing.T) {
		hits := lex.Search(lexindex.Tokenize("topic 3"), 1)
		require.Len(t, hits, 1)
		assert.Equal(t, 3, hits[0].Index)
	})
}

func TestBuild_NoChunks(t *testing.T) {
	b, err := NewBuilder(mock.NewMockEmbedder())
	require.NoError(t, err)
	defer b.Release()

	vectorDir, lexicalPath := artifactPaths(t)
	_, err = b.Build(context.Background(), nil, vectorDir, lexicalPath)
	assert.ErrorIs(t, err, core.ErrNoChunks)
	assertNoArtifacts(t, vectorDir, lexicalPath)
}

func TestBuild_InvalidChunk(t *testing.T) {
	b, err := NewBuilder(mock.NewMockEmbedder())
	require.NoError(t, err)
	defer b.Release()

	vectorDir, lexicalPath := artifactPaths(t)
	chunks := []core.Chunk{{Id: 0, Content: ""}}
	_, err = b.Build(context.Background(), chunks, vectorDir, lexicalPath)
	assert.ErrorIs(t, err, core.ErrEmptyContent)
	assertNoArtifacts(t, vectorDir, lexicalPath)
}

func TestBuild_EmbedFailure(t *testing.T) {
	boom := errors.New("provider unavailable")
	embedder := &mock.MockEmbedder{
		EmbedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, boom
		},
	}
	b, err := NewBuilder(embedder)
	require.NoError(t, err)
	defer b.Release()

	vectorDir, lexicalPath := artifactPaths(t)
	_, err = b.Build(context.Background(), buildChunks(3), vectorDir, lexicalPath)
	assert.ErrorIs(t, err, boom)
	assertNoArtifacts(t, vectorDir, lexicalPath)
}

func TestBuild_VectorCountMismatch(t *testing.T) {
	embedder := &mock.MockEmbedder{
		EmbedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1, 0}}, nil
		},
	}
	b, err := NewBuilder(embedder)
	require.NoError(t, err)
	defer b.Release()

	vectorDir, lexicalPath := artifactPaths(t)
	_, err = b.Build(context.Background(), buildChunks(3), vectorDir, lexicalPath)
	assert.ErrorIs(t, err, ErrVectorCount)
	assertNoArtifacts(t, vectorDir, lexicalPath)
}

func assertNoArtifacts(t *testing.T, vectorDir, lexicalPath string) {
	t.Helper()
	for _, path := range []string{
		filepath.Join(vectorDir, vecindex.IndexFileName),
		filepath.Join(vectorDir, vecindex.ChunksFileName),
		lexicalPath,
	} {
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), "expected %s to be absent", path)
	}
}
