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


// Package storage defines the on-disk artifact format shared by the vector
// and lexical indexes, and the serialization primitives for it.
//
// # Artifact Format
//
// Every artifact file starts with a fixed magic, a format version, and a
// Header recording the artifact kind, chunk count, embedding dimension,
// build id, and corpus content fingerprint, followed by the kind-specific
// payload. The explicit schema exists so that incompatible or stale
// artifacts fail fast at load time instead of deserializing into garbage:
//
//   - magic or version mismatch: the file is not ours, or from a different
//     format generation
//   - chunk count, build id, or fingerprint disagreement between the two
//     artifacts of one corpus: a partial or mixed build, never loadable
//
// # Serialization
//
// Values are encoded with mus-go primitives (varint integers, raw floats,
// length-prefixed strings). The ...MUS serializer objects in this package
// follow the usual mus-go serializer shape: Marshal writes into a
// caller-sized buffer, Unmarshal returns the value and consumed byte count,
// Size reports the exact encoding size. Map entries are written in sorted
// key order so identical inputs always produce identical artifact bytes.
//
// # Atomicity
//
// WriteFileAtomic stages the full artifact image in a temporary file and
// renames it into place, so readers never observe a half-written artifact.
package storage
