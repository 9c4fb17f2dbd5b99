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


package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/retriever/ai"
	"github.com/poiesic/retriever/core"
	"github.com/poiesic/retriever/lexindex"
	"github.com/poiesic/retriever/vecindex"
)

// DefaultBatchSize is the number of chunks embedded per provider call.
const DefaultBatchSize = 100

// Builder turns a validated chunk sequence into a paired artifact set:
// the vector index with its chunk companion, and the lexical index.
// Embedding batches run concurrently on a worker pool; everything else
// is sequential.
type Builder struct {
	embedder  ai.Embedder
	batchSize int
	pool      *ants.Pool
	logger    *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithBatchSize sets how many chunks are embedded per provider call.
// Values below 1 reset to DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			size = DefaultBatchSize
		}
		b.batchSize = size
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			size = 1
		}

		if b.pool != nil {
			b.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		b.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates an index builder backed by the given embedder.
func NewBuilder(embedder ai.Embedder, opts ...Option) (*Builder, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		pool:      pool,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(b); optErr != nil {
			b.Release()
			return nil, optErr
		}
	}

	b.logger = b.logger.With("component", "indexer")
	return b, nil
}

// Result describes a completed build.
type Result struct {
	BuildId    string
	ChunkCount int
	Dimension  int
}

// Build embeds the chunks, constructs both indexes, and persists them
// as a single build: both artifacts carry the same build id and corpus
// fingerprint so a loader can reject mismatched pairs. Chunks are
// validated before any provider call or disk write. On failure nothing
// is left behind; any partially written artifact is removed.
func (b *Builder) Build(ctx context.Context, chunks []core.Chunk, vectorDir, lexicalPath string) (*Result, error) {
	if err := core.ValidateChunks(chunks); err != nil {
		return nil, err
	}

	vectors, err := b.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	for i, v := range vectors {
		if !vecindex.Normalize(v) {
			b.logger.Warn("chunk embedded to a zero vector, it will never match", "chunk", chunks[i].Id)
		}
	}

	vec, err := vecindex.New(vectors, chunks)
	if err != nil {
		return nil, err
	}
	lex := lexindex.Build(chunks)

	buildId := uuid.NewString()
	fingerprint := core.FingerprintChunks(chunks)

	if err := vec.Save(vectorDir, buildId, fingerprint); err != nil {
		removeArtifacts(vectorDir, lexicalPath)
		return nil, fmt.Errorf("persisting vector index: %w", err)
	}
	if err := lex.Save(lexicalPath, buildId, fingerprint); err != nil {
		removeArtifacts(vectorDir, lexicalPath)
		return nil, fmt.Errorf("persisting lexical index: %w", err)
	}

	b.logger.Info("build complete",
		"buildId", buildId,
		"chunks", len(chunks),
		"dimension", vec.Dimension())

	return &Result{
		BuildId:    buildId,
		ChunkCount: len(chunks),
		Dimension:  vec.Dimension(),
	}, nil
}

// embedChunks fans the chunk contents out to the embedder in batches.
// Batches run concurrently but results land at their original chunk
// positions, so vector order always matches chunk order.
func (b *Builder) embedChunks(ctx context.Context, chunks []core.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	batchCount := (len(texts) + b.batchSize - 1) / b.batchSize
	vectors := make([][]float32, len(texts))
	errs := make([]error, batchCount)

	var wg sync.WaitGroup
	for bi := 0; bi < batchCount; bi++ {
		start := bi * b.batchSize
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		wg.Add(1)
		submitErr := b.pool.Submit(func() {
			defer wg.Done()

			out, err := b.embedder.EmbedTexts(ctx, batch)
			if err != nil {
				errs[bi] = fmt.Errorf("embedding batch %d: %w", bi, err)
				return
			}
			if len(out) != len(batch) {
				errs[bi] = fmt.Errorf("batch %d: %w", bi, ErrVectorCount)
				return
			}
			copy(vectors[start:end], out)
		})
		if submitErr != nil {
			wg.Done()
			errs[bi] = submitErr
			break
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return vectors, nil
}

// removeArtifacts deletes any artifact files a failed build may have
// written. Missing files are fine.
func removeArtifacts(vectorDir, lexicalPath string) {
	os.Remove(filepath.Join(vectorDir, vecindex.IndexFileName))
	os.Remove(filepath.Join(vectorDir, vecindex.ChunksFileName))
	os.Remove(lexicalPath)
}

// Release releases the worker pool. The builder should not be used
// after calling Release.
func (b *Builder) Release() {
	if b.pool != nil {
		b.pool.Release()
	}
}
