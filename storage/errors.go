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


package storage

import "errors"

var (
	// ErrArtifactMissing indicates an index artifact file does not exist.
	ErrArtifactMissing = errors.New("artifact missing")

	// ErrArtifactIncompatible indicates an artifact exists but cannot be
	// loaded: wrong magic, unsupported version, wrong kind, or disagreement
	// with its companion artifact. A corpus with an incompatible artifact is
	// not loadable; it is never partially loaded.
	ErrArtifactIncompatible = errors.New("artifact incompatible")

	// ErrUnsupportedVersion indicates an artifact from a different format
	// generation.
	ErrUnsupportedVersion = errors.New("unsupported artifact version")

	// ErrChunkCountMismatch indicates the two artifacts of one corpus
	// report different chunk counts.
	ErrChunkCountMismatch = errors.New("artifact chunk counts disagree")

	// ErrBuildMismatch indicates the two artifacts of one corpus come from
	// different builds.
	ErrBuildMismatch = errors.New("artifacts come from different builds")

	// ErrTruncatedData indicates that data was truncated during reading.
	ErrTruncatedData = errors.New("truncated data")
)
