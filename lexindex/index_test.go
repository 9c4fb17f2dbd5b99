package lexindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/retriever/core"
	"github.com/poiesic/retriever/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunks() []core.Chunk {
	return []core.Chunk{
		{Id: 0, Content: "the premium waiver rider covers total disability", Metadata: map[string]string{core.MetaFilename: "a.txt"}},
		{Id: 1, Content: "exclusions apply to pre existing conditions"},
		{Id: 2, Content: "the annual premium is payable monthly"},
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lowercases and splits", "Premium WAIVER Rider", []string{"premium", "waiver", "rider"}},
		{"collapses whitespace", "  a \t b\n c ", []string{"a", "b", "c"}},
		{"empty text", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearch(t *testing.T) {
	ix := Build(testChunks())

	t.Run("matching chunk ranks first", func(t *testing.T) {
		hits := ix.Search(Tokenize("premium waiver"), 3)
		require.NotEmpty(t, hits)
		assert.Equal(t, 0, hits[0].Index)
		assert.Greater(t, hits[0].Score, 0.0)
	})

	t.Run("no shared terms never appears", func(t *testing.T) {
		hits := ix.Search(Tokenize("submarine"), 3)
		assert.Empty(t, hits)
	})

	t.Run("only positive scores eligible", func(t *testing.T) {
		for _, hit := range ix.Search(Tokenize("the premium"), 3) {
			assert.Greater(t, hit.Score, 0.0)
		}
	})

	t.Run("descending order", func(t *testing.T) {
		hits := ix.Search(Tokenize("premium waiver exclusions"), 3)
		for i := 0; i < len(hits)-1; i++ {
			assert.GreaterOrEqual(t, hits[i].Score, hits[i+1].Score)
		}
	})

	t.Run("truncates to k", func(t *testing.T) {
		hits := ix.Search(Tokenize("premium"), 1)
		assert.Len(t, hits, 1)
	})

	t.Run("k zero", func(t *testing.T) {
		assert.Empty(t, ix.Search(Tokenize("premium"), 0))
	})

	t.Run("empty query", func(t *testing.T) {
		assert.Empty(t, ix.Search(nil, 3))
	})

	t.Run("ties keep original chunk order", func(t *testing.T) {
		same := []core.Chunk{
			{Id: 0, Content: "identical text here"},
			{Id: 1, Content: "identical text here"},
		}
		tied := Build(same)
		hits := tied.Search(Tokenize("identical"), 2)
		require.Len(t, hits, 2)
		assert.Equal(t, 0, hits[0].Index)
		assert.Equal(t, 1, hits[1].Index)
	})
}

func TestScoring(t *testing.T) {
	t.Run("rare terms outweigh common terms", func(t *testing.T) {
		chunks := []core.Chunk{
			{Id: 0, Content: "shared unicorn apple banana"},
			{Id: 1, Content: "shared cherry grape melon"},
			{Id: 2, Content: "shared kiwi plum pear"},
		}
		ix := Build(chunks)

		hits := ix.Search(Tokenize("unicorn"), 3)
		require.Len(t, hits, 1)
		assert.Equal(t, 0, hits[0].Index)

		rare := ix.Search(Tokenize("unicorn"), 1)[0].Score
		common := ix.Search(Tokenize("shared"), 3)[0].Score
		assert.Greater(t, rare, common)
	})

	t.Run("term frequency saturates", func(t *testing.T) {
		chunks := []core.Chunk{
			{Id: 0, Content: "term filler filler filler"},
			{Id: 1, Content: "term term term term"},
			{Id: 2, Content: "nothing relevant here now"},
		}
		ix := Build(chunks)
		hits := ix.Search(Tokenize("term"), 2)
		require.Len(t, hits, 2)
		// four occurrences score higher than one, but not four times higher
		assert.Greater(t, hits[0].Score, hits[1].Score)
		assert.Less(t, hits[0].Score, 4*hits[1].Score)
	})

	t.Run("common terms keep a small positive idf", func(t *testing.T) {
		// "shared" appears in every chunk; raw BM25 idf would be negative
		chunks := []core.Chunk{
			{Id: 0, Content: "shared alpha beta"},
			{Id: 1, Content: "shared gamma delta"},
			{Id: 2, Content: "shared epsilon zeta"},
		}
		ix := Build(chunks)
		hits := ix.Search(Tokenize("shared"), 3)
		assert.Len(t, hits, 3)
		for _, h := range hits {
			assert.Greater(t, h.Score, 0.0)
		}
	})
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	chunks := testChunks()
	ix := Build(chunks)
	path := filepath.Join(t.TempDir(), "index.lex")

	require.NoError(t, ix.Save(path, "build-3", 99))

	loaded, h, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "build-3", h.BuildId)
	assert.Equal(t, uint64(99), h.Fingerprint)
	assert.Equal(t, len(chunks), h.ChunkCount)
	assert.Equal(t, chunks, loaded.Chunks())

	// identical ranking and scores after the round trip
	query := Tokenize("premium waiver")
	want := ix.Search(query, 3)
	got := loaded.Search(query, 3)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Index, got[i].Index)
		assert.InDelta(t, want[i].Score, got[i].Score, 1e-9)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "absent.lex"))
	assert.ErrorIs(t, err, storage.ErrArtifactMissing)
}

func TestLoad_Truncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.lex")
	require.NoError(t, Build(testChunks()).Save(path, "build-1", 7))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-4], 0o644))

	_, _, err = Load(path)
	assert.Error(t, err)
}
