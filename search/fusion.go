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

	"github.com/poiesic/retriever/core"
)

// fuse merges the two result legs into one ranking. Each leg's raw
// scores are max-normalized into [0,1] first so the two scales become
// comparable, then weighted and summed. Results are deduplicated by
// exact content equality: a chunk found by both legs keeps the vector
// entry (its raw and normalized scores), accumulates both weighted
// contributions, and is marked OriginBoth. Ties keep insertion order,
// vector leg first.
func fuse(vector, lexical []*core.SearchResult, vectorWeight, lexicalWeight float64, limit int) []*core.SearchResult {
	normalizeScores(vector)
	normalizeScores(lexical)

	seen := make(map[string]*core.SearchResult, len(vector)+len(lexical))
	combined := make([]*core.SearchResult, 0, len(vector)+len(lexical))

	for _, result := range vector {
		if _, ok := seen[result.Content]; ok {
			continue
		}
		result.CombinedScore = result.NormalizedScore * vectorWeight
		combined = append(combined, result)
		seen[result.Content] = result
	}

	for _, result := range lexical {
		if existing, ok := seen[result.Content]; ok {
			existing.CombinedScore += result.NormalizedScore * lexicalWeight
			if existing.Origin == core.OriginVector {
				existing.Origin = core.OriginBoth
			}
			continue
		}
		result.CombinedScore = result.NormalizedScore * lexicalWeight
		combined = append(combined, result)
		seen[result.Content] = result
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].CombinedScore > combined[j].CombinedScore
	})

	if len(combined) > limit {
		combined = combined[:limit]
	}
	return combined
}

// normalizeScores divides each raw score by the set's maximum. A
// non-positive maximum leaves every normalized score at zero rather
// than flipping signs.
func normalizeScores(results []*core.SearchResult) {
	var max float64
	for _, result := range results {
		if result.RawScore > max {
			max = result.RawScore
		}
	}
	if max <= 0 {
		return
	}
	for _, result := range results {
		result.NormalizedScore = result.RawScore / max
	}
}
