// Package graph implements the domain model for the Synapse knowledge graph.
//
// PURPOSE: Represents entities (nodes) and typed, weighted relationships
// (edges) in a labeled property graph. Nodes carry an open JSON-like
// properties map and an optional reference into an external embedding store;
// edges carry access-tracking metadata that lets downstream logic distinguish
// recently-used from stale graph facts.
//
// Convention fields inside edge properties (not separate columns, so the
// schema can evolve without migrations):
//   - entrenchment_level: "maximal" for constitutive edges, "default" otherwise
//   - participants: node names forming a multi-party context on one edge
//   - supersedes / superseded_by: edge ids used for soft replacement
package graph

import (
	"time"
)

// Direction selects which edge orientations a traversal follows.
type Direction string

const (
	DirectionOut  Direction = "out"
	DirectionIn   Direction = "in"
	DirectionBoth Direction = "both"
)

// Valid reports whether d is one of the supported directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionOut, DirectionIn, DirectionBoth:
		return true
	}
	return false
}

// Properties is the open string-keyed map stored as JSON on nodes and edges.
type Properties map[string]any

// Well-known property keys and values.
const (
	PropEntrenchmentLevel = "entrenchment_level"
	PropParticipants      = "participants"
	PropSupersedes        = "supersedes"
	PropSupersededBy      = "superseded_by"

	EntrenchmentMaximal = "maximal"
	EntrenchmentDefault = "default"

	// EdgeTypeConstitutive marks an edge as maximally entrenched at creation.
	EdgeTypeConstitutive = "constitutive"
)

// Node represents an entity in the knowledge graph.
// The (Label, Name) pair is unique; creation is idempotent get-or-create.
type Node struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	Name       string     `json:"name"`
	Properties Properties `json:"properties"`
	VectorID   string     `json:"vector_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Edge represents a directed, typed relationship between two nodes.
// The (SourceID, TargetID, Relation) triple is unique. AccessCount never
// decreases; it is maintained by the access-stats updater, not by callers.
type Edge struct {
	ID           string     `json:"id"`
	SourceID     string     `json:"source_id"`
	TargetID     string     `json:"target_id"`
	Relation     string     `json:"relation"`
	Weight       float64    `json:"weight"`
	Properties   Properties `json:"properties"`
	CreatedAt    time.Time  `json:"created_at"`
	ModifiedAt   time.Time  `json:"modified_at"`
	LastAccessed time.Time  `json:"last_accessed"`
	AccessCount  int        `json:"access_count"`
}

// Supersedes returns the edge ids this edge declares as replaced by it.
func (e *Edge) Supersedes() []string {
	return stringSlice(e.Properties[PropSupersedes])
}

// SupersededBy returns the edge ids that declare this edge replaced.
func (e *Edge) SupersededBy() []string {
	return stringSlice(e.Properties[PropSupersededBy])
}

// EntrenchmentLevel returns the entrenchment tag, defaulting to "default".
func (e *Edge) EntrenchmentLevel() string {
	if s, ok := e.Properties[PropEntrenchmentLevel].(string); ok && s != "" {
		return s
	}
	return EntrenchmentDefault
}

// stringSlice normalizes a JSON-decoded property value into a string slice.
// JSON decoding yields []any; values set in Go may already be []string.
func stringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Neighbor is a single traversal result: a node reached from the start node
// together with the edge it was reached through and the hop distance.
type Neighbor struct {
	NodeID     string     `json:"node_id"`
	EdgeID     string     `json:"edge_id"`
	Label      string     `json:"label"`
	Name       string     `json:"name"`
	Properties Properties `json:"properties"`
	Relation   string     `json:"relation"`
	Weight     float64    `json:"weight"`
	Distance   int        `json:"distance"`
	Direction  Direction  `json:"direction"`

	// VectorID links the neighbor node to its entry in the external
	// embedding store, when one exists. Used by rank fusion to line up
	// graph candidates with semantic and keyword results.
	VectorID string `json:"vector_id,omitempty"`
}

// PathNode is one hop in a discovered path.
type PathNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Name  string `json:"name"`
}

// PathEdge is one traversed edge in a discovered path.
type PathEdge struct {
	ID       string  `json:"id"`
	Relation string  `json:"relation"`
	Weight   float64 `json:"weight"`
}

// Path is an ordered node/edge sequence between two nodes.
type Path struct {
	Nodes       []PathNode `json:"nodes"`
	Edges       []PathEdge `json:"edges"`
	TotalWeight float64    `json:"total_weight"`
}

// PathResult is the outcome of a shortest-path search. All returned paths
// share the same minimal length.
type PathResult struct {
	PathFound  bool   `json:"path_found"`
	PathLength int    `json:"path_length"`
	Paths      []Path `json:"paths"`
}
