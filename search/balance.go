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
	"sort"
	"strings"

	"github.com/poiesic/retriever/core"
)

// CategorizeFunc assigns a result to one of the supplied sources, or ""
// when it matches none. Implementations must return either a member of
// sources or the empty string.
type CategorizeFunc func(result *core.SearchResult, sources []string) string

// DefaultCategorizer matches a result to the first source whose name
// appears, case-insensitively, in the result's origin filename or in
// its content. Sources are checked in the supplied order.
func DefaultCategorizer(result *core.SearchResult, sources []string) string {
	filename := strings.ToLower(result.Metadata[core.MetaFilename])
	content := strings.ToLower(result.Content)

	for _, source := range sources {
		needle := strings.ToLower(source)
		if strings.Contains(filename, needle) || strings.Contains(content, needle) {
			return source
		}
	}
	return ""
}

// balanceBySources reranks a fused result set so each required source
// gets up to floor(topK / len(sources)) slots, minimum one. Each
// source's quota is filled with its best-scored results in ranking
// order. Slots a source cannot fill fall through to a remainder pool of
// everything left over (past-quota results and uncategorized ones),
// drawn in combined-score order. A source absent from the candidates
// simply contributes nothing; callers detect missing representation by
// inspecting the returned set.
func balanceBySources(results []*core.SearchResult, sources []string, topK int, categorize CategorizeFunc) []*core.SearchResult {
	perSource := make(map[string][]*core.SearchResult, len(sources))
	var others []*core.SearchResult

	for _, result := range results {
		if source := categorize(result, sources); source != "" {
			perSource[source] = append(perSource[source], result)
		} else {
			others = append(others, result)
		}
	}

	quota := topK / len(sources)
	if quota < 1 {
		quota = 1
	}

	balanced := make([]*core.SearchResult, 0, topK)
	for _, source := range sources {
		bucket := perSource[source]
		if len(bucket) > quota {
			bucket = bucket[:quota]
		}
		balanced = append(balanced, bucket...)
	}

	if remaining := topK - len(balanced); remaining > 0 {
		pool := make([]*core.SearchResult, 0, len(results)-len(balanced))
		for _, source := range sources {
			if len(perSource[source]) > quota {
				pool = append(pool, perSource[source][quota:]...)
			}
		}
		pool = append(pool, others...)

		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].CombinedScore > pool[j].CombinedScore
		})
		if len(pool) > remaining {
			pool = pool[:remaining]
		}
		balanced = append(balanced, pool...)
	}

	if len(balanced) > topK {
		balanced = balanced[:topK]
	}
	return balanced
}
