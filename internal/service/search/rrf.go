package search

import "sort"

// Source names used for weights and per-result attribution.
const (
	SourceSemantic = "semantic"
	SourceKeyword  = "keyword"
	SourceGraph    = "graph"
)

// FusedResult is one item after rank fusion, with the sources it came
// from for debuggability.
type FusedResult struct {
	ID      string   `json:"id"`
	Score   float64  `json:"score"`
	Sources []string `json:"sources"`
}

// fuseRRF combines per-source rankings with weighted Reciprocal Rank
// Fusion: score(item) = Σ weight_src / (k + rank_src), summed over the
// sources where the item appears. A source that did not return the item
// contributes exactly zero. Results are sorted by score descending, ties
// by id ascending.
func fuseRRF(rankings map[string][]ScoredItem, weights map[string]float64, k float64) []FusedResult {
	scores := make(map[string]float64)
	sources := make(map[string][]string)

	// Iterate source names in a fixed order so the Sources slices come
	// out deterministic.
	for _, source := range []string{SourceSemantic, SourceKeyword, SourceGraph} {
		items, ok := rankings[source]
		if !ok {
			continue
		}
		weight := weights[source]
		for rank, item := range items {
			scores[item.ID] += weight / (k + float64(rank+1))
			sources[item.ID] = append(sources[item.ID], source)
		}
	}

	fused := make([]FusedResult, 0, len(scores))
	for id, score := range scores {
		fused = append(fused, FusedResult{ID: id, Score: score, Sources: sources[id]})
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].ID < fused[j].ID
	})
	return fused
}
