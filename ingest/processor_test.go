package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/retriever/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "a  b\t\nc", "a b c"},
		{"strips special characters", "cost: $400 @ 5%", "cost: 400  5"},
		{"keeps sentence punctuation", "Done. Really? Yes!", "Done. Really? Yes!"},
		{"trims", "  padded  ", "padded"},
		{"empty", "   \n\t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanText(tt.in))
		})
	}
}

func TestProcessFile(t *testing.T) {
	p, err := NewProcessor()
	require.NoError(t, err)

	t.Run("small file yields one chunk", func(t *testing.T) {
		path := writeDoc(t, t.TempDir(), "policy_2023.txt", "The premium waiver rider covers total disability.")
		chunks, err := p.ProcessFile(path)
		require.NoError(t, err)
		require.Len(t, chunks, 1)

		c := chunks[0]
		assert.Equal(t, 0, c.Id)
		assert.Equal(t, "The premium waiver rider covers total disability.", c.Content)
		assert.Equal(t, "policy_2023.txt", c.Metadata[core.MetaFilename])
		assert.Equal(t, "0", c.Metadata[core.MetaPage])
		assert.Equal(t, ".txt", c.Metadata[core.MetaFileType])
		assert.Equal(t, "2023", c.Metadata[core.MetaYear])
	})

	t.Run("large file splits with bounded chunks", func(t *testing.T) {
		var sb strings.Builder
		for i := 0; i < 200; i++ {
			sb.WriteString("Sentence number describing coverage terms in detail. ")
		}
		path := writeDoc(t, t.TempDir(), "long.md", sb.String())

		chunks, err := p.ProcessFile(path)
		require.NoError(t, err)
		assert.Greater(t, len(chunks), 1)
		for i, c := range chunks {
			assert.Equal(t, i, c.Id)
			assert.LessOrEqual(t, len(c.Content), DefaultChunkSize)
			assert.Equal(t, ".md", c.Metadata[core.MetaFileType])
		}
	})

	t.Run("no year metadata without a year", func(t *testing.T) {
		path := writeDoc(t, t.TempDir(), "notes.txt", "plain content")
		chunks, err := p.ProcessFile(path)
		require.NoError(t, err)
		_, ok := chunks[0].Metadata[core.MetaYear]
		assert.False(t, ok)
	})

	t.Run("unsupported format", func(t *testing.T) {
		path := writeDoc(t, t.TempDir(), "report.pdf", "binary")
		_, err := p.ProcessFile(path)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("whitespace-only file", func(t *testing.T) {
		path := writeDoc(t, t.TempDir(), "empty.txt", "  \n\t  ")
		_, err := p.ProcessFile(path)
		assert.ErrorIs(t, err, ErrNoText)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := p.ProcessFile(filepath.Join(t.TempDir(), "absent.txt"))
		assert.Error(t, err)
	})
}

func TestProcessFiles(t *testing.T) {
	p, err := NewProcessor()
	require.NoError(t, err)

	t.Run("ids are sequential across documents", func(t *testing.T) {
		dir := t.TempDir()
		a := writeDoc(t, dir, "a.txt", "First document content.")
		b := writeDoc(t, dir, "b.txt", "Second document content.")

		chunks, processed, err := p.ProcessFiles([]string{a, b})
		require.NoError(t, err)
		assert.Equal(t, 2, processed)
		for i, c := range chunks {
			assert.Equal(t, i, c.Id)
		}
		assert.Equal(t, "a.txt", chunks[0].Metadata[core.MetaFilename])
		assert.Equal(t, "b.txt", chunks[len(chunks)-1].Metadata[core.MetaFilename])
	})

	t.Run("failed documents are skipped", func(t *testing.T) {
		dir := t.TempDir()
		good := writeDoc(t, dir, "good.txt", "Usable content here.")
		bad := filepath.Join(dir, "missing.txt")

		chunks, processed, err := p.ProcessFiles([]string{bad, good})
		require.NoError(t, err)
		assert.Equal(t, 1, processed)
		assert.NotEmpty(t, chunks)
	})

	t.Run("nothing usable is an error", func(t *testing.T) {
		_, _, err := p.ProcessFiles([]string{filepath.Join(t.TempDir(), "missing.txt")})
		assert.ErrorIs(t, err, ErrNoDocuments)
	})
}

func TestProcessDir(t *testing.T) {
	p, err := NewProcessor()
	require.NoError(t, err)

	t.Run("collects supported files in order", func(t *testing.T) {
		dir := t.TempDir()
		writeDoc(t, dir, "b.txt", "Second document.")
		writeDoc(t, dir, "a.md", "First document.")
		writeDoc(t, dir, "skip.pdf", "unsupported")
		require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

		chunks, processed, err := p.ProcessDir(dir)
		require.NoError(t, err)
		assert.Equal(t, 2, processed)
		require.NotEmpty(t, chunks)
		assert.Equal(t, "a.md", chunks[0].Metadata[core.MetaFilename])
	})

	t.Run("empty directory", func(t *testing.T) {
		_, _, err := p.ProcessDir(t.TempDir())
		assert.ErrorIs(t, err, ErrNoDocuments)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, _, err := p.ProcessDir(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})
}
