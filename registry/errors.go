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


package registry

import "errors"

var (
	// ErrBatchNotFound indicates the requested batch id is not registered.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrNoDefaultBatch indicates no default batch has been set.
	ErrNoDefaultBatch = errors.New("no default batch set")

	// ErrInvalidBatchId indicates an empty or unusable batch id.
	ErrInvalidBatchId = errors.New("invalid batch id")
)
