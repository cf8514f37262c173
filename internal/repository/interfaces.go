// Package repository defines the persistence contract for the knowledge graph.
package repository

import (
	"context"

	"synapse-backend/internal/domain/graph"
)

// AdjacencyQuery restricts which edges an adjacency lookup returns.
// The relation and properties filters are applied by the store at query
// time, not post-filtered, so traversal only ever loads matching edges.
type AdjacencyQuery struct {
	Direction         graph.Direction
	Relation          string
	Filter            graph.Filter
	IncludeSuperseded bool
}

// Adjacency is one edge incident to a queried node, joined with the node on
// the far side. FarNode is the neighbor regardless of edge orientation;
// Direction reports how the edge was traversed relative to the queried node.
type Adjacency struct {
	Edge      graph.Edge
	FarNode   graph.Node
	Direction graph.Direction
}

// GraphRepository owns node and edge persistence.
//
// All write operations are single-statement and auto-committing; no method
// requires cross-call transactional coordination. Implementations translate
// storage-engine errors into the pkg/errors taxonomy: unknown ids and names
// become NOT_FOUND, connection-level failures become TRANSIENT.
type GraphRepository interface {
	// UpsertNode creates a node or returns the existing one for the unique
	// (label, name) pair, merging the supplied properties over stored ones.
	UpsertNode(ctx context.Context, label, name string, properties graph.Properties) (*graph.Node, error)

	// UpsertEdge creates an edge or updates the existing one for the unique
	// (source, target, relation) triple. On create the entrenchment level is
	// derived from edgeType ("constitutive" pins it to maximal); on update
	// the stored entrenchment level is preserved.
	UpsertEdge(ctx context.Context, sourceID, targetID, relation string, weight float64, properties graph.Properties, edgeType string) (*graph.Edge, error)

	FindNodeByID(ctx context.Context, id string) (*graph.Node, error)

	// FindNodeByName resolves a node by name across labels. When several
	// labels share the name the oldest node wins, deterministically.
	FindNodeByName(ctx context.Context, name string) (*graph.Node, error)

	FindEdge(ctx context.Context, sourceID, targetID, relation string) (*graph.Edge, error)

	// DeleteNode removes a node and, by cascade, all its edges.
	DeleteNode(ctx context.Context, id string) error

	// UpdateEdgeProperties merges properties onto an edge for resolution
	// logic (supersedes bookkeeping, conflict outcomes). The entrenchment
	// level is immutable and silently skipped if present in the input.
	UpdateEdgeProperties(ctx context.Context, edgeID string, properties graph.Properties) (*graph.Edge, error)

	// AdjacentEdges returns the edges incident to nodeID that satisfy the
	// query, each joined with the node on the far side. Unless requested,
	// edges superseded by another edge are excluded.
	AdjacentEdges(ctx context.Context, nodeID string, q AdjacencyQuery) ([]Adjacency, error)

	// TouchEdges bulk-updates access bookkeeping (last_accessed, access
	// count) for the given edge ids in one statement. An empty set is a
	// no-op. Callers treat failures as best-effort; see service/graph.
	TouchEdges(ctx context.Context, edgeIDs []string) error
}
