package services

import (
	"sort"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// FuseWeighted merges lexical and semantic results into one ranking:
//
//	hybrid = weights.BM25 * bm25 + weights.Cosine * cosine
//
// A chunk missing from one list scores 0 for that signal. Raw scores are
// not rescaled, so the weights absorb the scale difference between BM25
// (unbounded) and cosine ([-1, 1]). Metadata comes from the semantic row
// when a chunk appears in both lists. Equal hybrid scores keep merge
// order: semantic rank first, then lexical-only rows in lexical rank.
//
// Every returned row has all three scores set.
func FuseWeighted(lexical, semantic []domain.SearchResult, weights domain.Weights, limit int) []domain.SearchResult {
	merged := make([]domain.SearchResult, 0, len(lexical)+len(semantic))
	pos := make(map[string]int, len(lexical)+len(semantic))

	for _, r := range semantic {
		if _, seen := pos[r.ChunkID]; seen {
			continue
		}
		r.BM25Score = nil
		pos[r.ChunkID] = len(merged)
		merged = append(merged, r)
	}
	for _, r := range lexical {
		if i, seen := pos[r.ChunkID]; seen {
			if merged[i].BM25Score == nil {
				merged[i].BM25Score = r.BM25Score
			}
			continue
		}
		r.CosineScore = nil
		pos[r.ChunkID] = len(merged)
		merged = append(merged, r)
	}

	for i := range merged {
		bm25 := valueOrZero(merged[i].BM25Score)
		cosine := valueOrZero(merged[i].CosineScore)
		merged[i].BM25Score = domain.Float64Ptr(bm25)
		merged[i].CosineScore = domain.Float64Ptr(cosine)
		merged[i].HybridScore = domain.Float64Ptr(weights.BM25*bm25 + weights.Cosine*cosine)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return *merged[i].HybridScore > *merged[j].HybridScore
	})
	if limit >= 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
