package api

// CreateNodeRequest upserts a node identified by (label, name).
type CreateNodeRequest struct {
	Label      string         `json:"label" validate:"required"`
	Name       string         `json:"name" validate:"required"`
	Properties map[string]any `json:"properties"`
}

// CreateEdgeRequest upserts an edge identified by (source, target, relation).
// Weight defaults to 1.0 when omitted; there is no upper bound, weights are
// relative strengths, not probabilities.
type CreateEdgeRequest struct {
	SourceID   string         `json:"source_id" validate:"required"`
	TargetID   string         `json:"target_id" validate:"required"`
	Relation   string         `json:"relation" validate:"required"`
	Weight     *float64       `json:"weight" validate:"omitempty,gte=0"`
	Properties map[string]any `json:"properties"`
	EdgeType   string         `json:"edge_type"`
}

// UpdateEdgePropertiesRequest merges properties into an existing edge.
type UpdateEdgePropertiesRequest struct {
	Properties map[string]any `json:"properties" validate:"required"`
}

// NeighborsRequest queries the multi-hop neighborhood of a node, addressed
// either by id or by name. Exactly one of NodeID and NodeName is required;
// the id wins when both are set.
type NeighborsRequest struct {
	NodeID            string         `json:"node_id"`
	NodeName          string         `json:"node_name"`
	Relation          string         `json:"relation"`
	MaxDepth          int            `json:"max_depth"`
	Direction         string         `json:"direction"`
	PropertiesFilter  map[string]any `json:"properties_filter"`
	IncludeSuperseded bool           `json:"include_superseded"`
}

// PathRequest searches for shortest paths between two named nodes.
type PathRequest struct {
	StartName string `json:"start_name" validate:"required"`
	EndName   string `json:"end_name" validate:"required"`
	MaxDepth  int    `json:"max_depth"`
}

// SearchRequest runs a hybrid search.
type SearchRequest struct {
	Query   string             `json:"query" validate:"required"`
	TopK    int                `json:"top_k"`
	Weights map[string]float64 `json:"weights"`
}
