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


// Package vecindex provides a flat inner-product vector similarity index.
//
// All stored vectors are L2-normalized, so the inner product against a
// normalized query equals cosine similarity. Search is an exhaustive scan;
// at the corpus sizes this engine targets that is both simpler and faster
// to load than an approximate structure.
package vecindex
