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

import "errors"

var (
	// ErrEmbedderRequired indicates NewEngine was called without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrInvalidWeights indicates fusion weights that are negative or do
	// not sum to 1.0.
	ErrInvalidWeights = errors.New("fusion weights must be non-negative and sum to 1.0")
)
