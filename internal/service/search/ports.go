// Package search implements the hybrid retrieval engine: it fans a query
// out to semantic, keyword and graph sources and fuses their rankings with
// weighted Reciprocal Rank Fusion.
package search

import (
	"context"

	"synapse-backend/internal/domain/graph"
	graphsvc "synapse-backend/internal/service/graph"
)

// ScoredItem is one ranked result from a single source.
type ScoredItem struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Searcher is an external ranked index, semantic or keyword.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]ScoredItem, error)
}

// NodeResolver resolves entity mentions to graph nodes.
type NodeResolver interface {
	FindNodeByName(ctx context.Context, name string) (*graph.Node, error)
}

// GraphExplorer runs neighbor queries for the graph source.
type GraphExplorer interface {
	QueryNeighbors(ctx context.Context, startNodeID string, opts graphsvc.NeighborOptions) ([]graph.Neighbor, error)
}
