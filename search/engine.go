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


package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/poiesic/retriever/ai"
	"github.com/poiesic/retriever/core"
	"github.com/poiesic/retriever/lexindex"
	"github.com/poiesic/retriever/storage"
	"github.com/poiesic/retriever/vecindex"
)

// Default fusion weights. Vector similarity dominates, lexical overlap
// corrects for vocabulary the embedding model handles poorly.
const (
	DefaultVectorWeight  = 0.6
	DefaultLexicalWeight = 0.4
)

// Engine performs hybrid search over one loaded corpus: embedding
// similarity and BM25 term overlap, fused by weighted max-normalized
// scores, optionally rebalanced across required sources.
//
// A loaded corpus is read-only; concurrent queries share it without
// locking. Loading a different corpus swaps both indexes atomically
// and evicts the previous one.
type Engine struct {
	mu  sync.RWMutex
	vec *vecindex.Index
	lex *lexindex.Index

	embedder      ai.Embedder
	vectorWeight  float64
	lexicalWeight float64
	categorize    CategorizeFunc
	logger        *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithWeights sets the fusion weights for the vector and lexical legs.
// Weights must be non-negative and sum to 1.0.
func WithWeights(vector, lexical float64) Option {
	return func(e *Engine) error {
		if vector < 0 || lexical < 0 || math.Abs(vector+lexical-1.0) > 1e-9 {
			return fmt.Errorf("%w: vector=%v lexical=%v", ErrInvalidWeights, vector, lexical)
		}
		e.vectorWeight = vector
		e.lexicalWeight = lexical
		return nil
	}
}

// WithCategorizer sets the source categorization function used by the
// balanced rerank. Default is DefaultCategorizer.
func WithCategorizer(fn CategorizeFunc) Option {
	return func(e *Engine) error {
		if fn == nil {
			fn = DefaultCategorizer
		}
		e.categorize = fn
		return nil
	}
}

// NewEngine creates a hybrid search engine backed by the given embedder.
// No corpus is loaded yet; call LoadIndexes first.
func NewEngine(embedder ai.Embedder, opts ...Option) (*Engine, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	e := &Engine{
		embedder:      embedder,
		vectorWeight:  DefaultVectorWeight,
		lexicalWeight: DefaultLexicalWeight,
		categorize:    DefaultCategorizer,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	e.logger = e.logger.With("component", "search")
	return e, nil
}

// LoadIndexes loads the vector artifact set from vectorDir and the
// lexical artifact from lexicalPath, replacing any previously loaded
// corpus. Both artifacts must come from the same build: disagreement on
// chunk count, build id, or corpus fingerprint fails the load, and the
// previous corpus stays in place.
func (e *Engine) LoadIndexes(vectorDir, lexicalPath string) error {
	vec, vecHeader, err := vecindex.Load(vectorDir)
	if err != nil {
		return fmt.Errorf("loading vector index: %w", err)
	}

	lex, lexHeader, err := lexindex.Load(lexicalPath)
	if err != nil {
		return fmt.Errorf("loading lexical index: %w", err)
	}

	if err := storage.CheckCompatible(vecHeader, lexHeader); err != nil {
		return fmt.Errorf("vector and lexical artifacts disagree: %w", err)
	}

	e.mu.Lock()
	e.vec = vec
	e.lex = lex
	e.mu.Unlock()

	e.logger.Info("corpus loaded",
		"buildId", vecHeader.BuildId,
		"chunks", vec.Len(),
		"dimension", vec.Dimension())
	return nil
}

// HybridSearch runs both search legs for the query and fuses the
// results, returning up to topK of them ranked by combined score. When
// requiredSources is non-empty the result set is rebalanced so each
// named source gets a quota of slots.
//
// Query-time failures degrade to an empty result set rather than an
// error: an unloaded corpus, an unreachable embedding provider, or a
// query with no signal all return no results and log the cause.
func (e *Engine) HybridSearch(ctx context.Context, query string, topK int, requiredSources []string) []*core.SearchResult {
	return e.HybridSearchWithMonitor(ctx, query, topK, requiredSources, nil)
}

// HybridSearchWithMonitor is HybridSearch with stage callbacks.
// The monitor receives the intermediate result sets of each stage.
func (e *Engine) HybridSearchWithMonitor(ctx context.Context, query string, topK int, requiredSources []string, monitor SearchMonitor) []*core.SearchResult {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	if topK <= 0 {
		monitor.Finish(nil)
		return []*core.SearchResult{}
	}

	e.mu.RLock()
	vec, lex := e.vec, e.lex
	e.mu.RUnlock()

	if vec == nil || lex == nil {
		e.logger.Warn("hybrid search with no corpus loaded", "query", query)
		monitor.Finish(nil)
		return []*core.SearchResult{}
	}

	// Fetch twice the requested count per leg so fusion and balancing
	// have candidates to work with.
	fetch := topK * 2

	vectorResults := e.vectorSearch(ctx, vec, query, fetch)
	monitor.AfterVectorSearch(vectorResults)

	lexicalResults := e.lexicalSearch(lex, query, fetch)
	monitor.AfterLexicalSearch(lexicalResults)

	combined := fuse(vectorResults, lexicalResults, e.vectorWeight, e.lexicalWeight, fetch)
	monitor.AfterFusion(combined)

	if len(requiredSources) > 0 {
		combined = balanceBySources(combined, requiredSources, topK, e.categorize)
		monitor.AfterBalancing(combined)
	} else if len(combined) > topK {
		combined = combined[:topK]
	}

	monitor.Finish(combined)
	return combined
}

// vectorSearch embeds the query and ranks chunks by inner product.
// Embedding failures degrade to an empty leg.
func (e *Engine) vectorSearch(ctx context.Context, vec *vecindex.Index, query string, k int) []*core.SearchResult {
	embedding, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		e.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil
	}

	hits := vec.Search(embedding, k)
	results := make([]*core.SearchResult, 0, len(hits))
	for _, hit := range hits {
		chunk := vec.Chunk(hit.Index)
		results = append(results, &core.SearchResult{
			Content:  chunk.Content,
			Metadata: chunk.Metadata,
			RawScore: hit.Score,
			Origin:   core.OriginVector,
		})
	}
	return results
}

// lexicalSearch ranks chunks by BM25 term overlap with the query.
func (e *Engine) lexicalSearch(lex *lexindex.Index, query string, k int) []*core.SearchResult {
	hits := lex.Search(lexindex.Tokenize(query), k)
	results := make([]*core.SearchResult, 0, len(hits))
	for _, hit := range hits {
		chunk := lex.Chunk(hit.Index)
		results = append(results, &core.SearchResult{
			Content:  chunk.Content,
			Metadata: chunk.Metadata,
			RawScore: hit.Score,
			Origin:   core.OriginLexical,
		})
	}
	return results
}

// Stats reports the loaded corpus state.
func (e *Engine) Stats() core.CorpusStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.vec == nil || e.lex == nil {
		return core.CorpusStats{}
	}
	return core.CorpusStats{
		ChunkCount:    e.vec.Len(),
		IndexesLoaded: true,
	}
}
