// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/poiesic/retriever/core"
	"github.com/tmc/langchaingo/textsplitter"
)

// Default chunking geometry. 800 characters with 100 overlap keeps a
// chunk within one topic while giving neighboring chunks shared context.
const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 100
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	specialsRe   = regexp.MustCompile(`[^\w\s.,!?;:\-()]`)
	yearRe       = regexp.MustCompile(`(19|20)\d{2}`)
)

// Processor turns document files into chunk sequences ready for index
// building. Supported formats are plain text and markdown.
type Processor struct {
	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor) error

// WithChunkSize sets the target chunk size in characters.
// Values below 1 reset to DefaultChunkSize.
func WithChunkSize(size int) Option {
	return func(p *Processor) error {
		if size < 1 {
			size = DefaultChunkSize
		}
		p.chunkSize = size
		return nil
	}
}

// WithChunkOverlap sets the character overlap between adjacent chunks.
// Negative values reset to DefaultChunkOverlap.
func WithChunkOverlap(overlap int) Option {
	return func(p *Processor) error {
		if overlap < 0 {
			overlap = DefaultChunkOverlap
		}
		p.chunkOverlap = overlap
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewProcessor creates a document processor.
func NewProcessor(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingest")
	return p, nil
}

// ProcessFile extracts, cleans, and chunks a single document. Chunk ids
// are positions within this file only; ProcessFiles renumbers them
// across the whole corpus.
func (p *Processor) ProcessFile(path string) ([]core.Chunk, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".txt" && ext != ".md" {
		return nil, fmt.Errorf("%s: %w", ext, ErrUnsupportedFormat)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text := cleanText(string(raw))
	if text == "" {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrNoText)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.chunkSize),
		textsplitter.WithChunkOverlap(p.chunkOverlap),
	)
	pieces, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("splitting %s: %w", filepath.Base(path), err)
	}

	filename := filepath.Base(path)
	year := yearRe.FindString(filename)

	chunks := make([]core.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		metadata := map[string]string{
			core.MetaFilename:  filename,
			core.MetaPage:      strconv.Itoa(i),
			core.MetaChunkSize: strconv.Itoa(len(piece)),
			core.MetaFileType:  ext,
		}
		if year != "" {
			metadata[core.MetaYear] = year
		}
		chunks = append(chunks, core.Chunk{
			Id:       len(chunks),
			Content:  piece,
			Metadata: metadata,
		})
	}
	return chunks, nil
}

// ProcessFiles chunks every listed document into one corpus with
// sequential chunk ids. Files that fail to process are logged and
// skipped; the returned count is the number of documents that
// contributed chunks. An input yielding no chunks at all is an error.
func (p *Processor) ProcessFiles(paths []string) ([]core.Chunk, int, error) {
	var corpus []core.Chunk
	processed := 0

	for _, path := range paths {
		chunks, err := p.ProcessFile(path)
		if err != nil {
			p.logger.Warn("skipping document", "path", path, "err", err)
			continue
		}
		for i := range chunks {
			chunks[i].Id = len(corpus) + i
		}
		corpus = append(corpus, chunks...)
		processed++
		p.logger.Info("document processed", "path", path, "chunks", len(chunks))
	}

	if len(corpus) == 0 {
		return nil, 0, ErrNoDocuments
	}
	return corpus, processed, nil
}

// ProcessDir chunks every supported document directly under dir, in
// lexical filename order.
func (p *Processor) ProcessDir(dir string) ([]core.Chunk, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".txt" || ext == ".md" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, 0, fmt.Errorf("%s: %w", dir, ErrNoDocuments)
	}
	return p.ProcessFiles(paths)
}

// cleanText collapses runs of whitespace and strips characters outside
// the word/punctuation set the downstream tokenizer understands.
func cleanText(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = specialsRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
