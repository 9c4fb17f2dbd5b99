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


// Package ai provides the embedding abstraction used by the indexer and
// the hybrid search engine.
//
// The package defines the Embedder interface and its configuration. The
// index builder and search engine depend only on the interface; the two
// implementation sub-packages provide the concrete embedders:
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//   - ai/mock: deterministic test double, no network access
//
// # Constructor Return Type Pattern
//
// The production constructor (openai.NewEmbedder) returns the ai.Embedder
// INTERFACE to enforce abstraction and keep callers decoupled from the
// provider. The mock constructor (mock.NewMockEmbedder) returns the
// CONCRETE type so tests can inject behavior and assert call counts.
//
// # Error Policy
//
// Configuration problems (missing credential, missing model name) surface
// as ai.ErrConfiguration-wrapped errors at construction time and are never
// retried. Transient provider failures surface as plain errors from the
// Embed methods; retry policy belongs to the caller's caller, never here.
package ai
