package search

import (
	"math"

	"synapse-backend/internal/config"
)

// resolveWeights merges caller-supplied weights over the profile defaults
// and normalizes the result to sum to 1.0.
//
// Callers predating the graph source send only semantic and keyword
// weights; the graph weight is injected at its profile default before
// normalization so those callers keep participating in graph-aware
// fusion. Unusable input (negative values, NaN, zero total) falls back to
// the profile defaults entirely; the second return value reports that
// fallback so callers can log it.
func resolveWeights(requested map[string]float64, defaults config.Weights) (config.Weights, bool) {
	merged := map[string]float64{
		SourceSemantic: defaults.Semantic,
		SourceKeyword:  defaults.Keyword,
		SourceGraph:    defaults.Graph,
	}
	usable := true
	for source, value := range requested {
		if _, known := merged[source]; !known {
			continue
		}
		if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			usable = false
			break
		}
		merged[source] = value
	}
	total := merged[SourceSemantic] + merged[SourceKeyword] + merged[SourceGraph]
	if total <= 0 {
		usable = false
	}
	if !usable {
		merged = map[string]float64{
			SourceSemantic: defaults.Semantic,
			SourceKeyword:  defaults.Keyword,
			SourceGraph:    defaults.Graph,
		}
		total = merged[SourceSemantic] + merged[SourceKeyword] + merged[SourceGraph]
	}
	return config.Weights{
		Semantic: merged[SourceSemantic] / total,
		Keyword:  merged[SourceKeyword] / total,
		Graph:    merged[SourceGraph] / total,
	}, usable
}

func weightsMap(w config.Weights) map[string]float64 {
	return map[string]float64{
		SourceSemantic: w.Semantic,
		SourceKeyword:  w.Keyword,
		SourceGraph:    w.Graph,
	}
}
