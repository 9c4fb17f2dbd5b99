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


package retriever

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/retriever/ai"
	"github.com/poiesic/retriever/ai/openai"
	"github.com/poiesic/retriever/core"
	"github.com/poiesic/retriever/indexer"
	"github.com/poiesic/retriever/ingest"
	"github.com/poiesic/retriever/registry"
	"github.com/poiesic/retriever/search"
)

// Service wires the full retrieval stack over one data directory:
// document ingestion, index building, the batch registry, and the
// hybrid search engine. The data directory holds the registry store
// under registry/ and one artifact set per batch under batches/<id>/.
type Service struct {
	home     string
	registry *registry.Registry
	embedder ai.Embedder
	engine   *search.Engine
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig *ai.Config
	embedder ai.Embedder
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(cfg *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = cfg
	}
}

// WithEmbedder injects an embedder directly, bypassing the AI
// configuration. Used by tests and callers with their own client.
func WithEmbedder(embedder ai.Embedder) ServiceOption {
	return func(o *serviceOptions) {
		o.embedder = embedder
	}
}

// NewService opens the retrieval service over the given data directory.
func NewService(home string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	reg, err := registry.Open(filepath.Join(home, "registry"), false)
	if err != nil {
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			reg.Close()
			return nil, err
		}
	}

	engine, err := search.NewEngine(embedder)
	if err != nil {
		reg.Close()
		return nil, err
	}

	return &Service{
		home:     home,
		registry: reg,
		embedder: embedder,
		engine:   engine,
		logger:   slog.Default().With("component", "retriever"),
	}, nil
}

// Close releases the registry store. The service should not be used
// after calling Close.
func (s *Service) Close() error {
	return s.registry.Close()
}

// vectorDir returns the vector artifact directory of a batch.
func (s *Service) vectorDir(batchId string) string {
	return filepath.Join(s.home, "batches", batchId, "vec")
}

// lexicalPath returns the lexical artifact path of a batch.
func (s *Service) lexicalPath(batchId string) string {
	return filepath.Join(s.home, "batches", batchId, "index.lex")
}

// BuildBatch ingests every supported document under docsDir, builds the
// index artifacts for a new batch, and registers it. The first
// registered batch becomes the default query target.
func (s *Service) BuildBatch(ctx context.Context, batchId, docsDir, description string) (*registry.BatchInfo, error) {
	processor, err := ingest.NewProcessor(ingest.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}

	chunks, docCount, err := processor.ProcessDir(docsDir)
	if err != nil {
		return nil, err
	}

	builder, err := indexer.NewBuilder(s.embedder, indexer.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	defer builder.Release()

	result, err := builder.Build(ctx, chunks, s.vectorDir(batchId), s.lexicalPath(batchId))
	if err != nil {
		return nil, err
	}

	info := registry.BatchInfo{
		Id:          batchId,
		Description: description,
		DocCount:    docCount,
		ChunkCount:  result.ChunkCount,
		VectorDir:   s.vectorDir(batchId),
		LexicalPath: s.lexicalPath(batchId),
	}
	if err := s.registry.Register(info); err != nil {
		return nil, err
	}

	s.logger.Info("batch built",
		"batch", batchId,
		"documents", docCount,
		"chunks", result.ChunkCount,
		"buildId", result.BuildId)

	registered, err := s.registry.Get(batchId)
	if err != nil {
		return nil, err
	}
	return registered, nil
}

// LoadBatch loads a batch's artifacts into the search engine, evicting
// any previously loaded batch. An empty id loads the default batch.
func (s *Service) LoadBatch(batchId string) (*registry.BatchInfo, error) {
	var info *registry.BatchInfo
	var err error
	if batchId == "" {
		info, err = s.registry.Default()
	} else {
		info, err = s.registry.Get(batchId)
	}
	if err != nil {
		return nil, err
	}

	if err := s.engine.LoadIndexes(info.VectorDir, info.LexicalPath); err != nil {
		return nil, err
	}
	return info, nil
}

// Search runs a hybrid query against the loaded batch.
func (s *Service) Search(ctx context.Context, query string, topK int, requiredSources []string) []*core.SearchResult {
	return s.engine.HybridSearch(ctx, query, topK, requiredSources)
}

// Batches lists all registered batches.
func (s *Service) Batches() ([]registry.BatchInfo, error) {
	return s.registry.List()
}

// DefaultBatch returns the default batch record.
func (s *Service) DefaultBatch() (*registry.BatchInfo, error) {
	return s.registry.Default()
}

// SetDefaultBatch marks an existing batch as the default query target.
func (s *Service) SetDefaultBatch(batchId string) error {
	return s.registry.SetDefault(batchId)
}

// RemoveBatch removes a batch from the registry. Artifact files are
// left on disk.
func (s *Service) RemoveBatch(batchId string) error {
	return s.registry.Remove(batchId)
}

// Stats reports the loaded corpus state.
func (s *Service) Stats() core.CorpusStats {
	return s.engine.Stats()
}

// Engine exposes the underlying search engine, for callers that need
// monitored searches or custom categorization.
func (s *Service) Engine() *search.Engine {
	return s.engine
}
