// Package postgres implements the graph repository on PostgreSQL via pgx.
//
// The store leans on engine features the graph model needs anyway: JSONB
// containment for the schema-free property filters, ON CONFLICT upserts for
// idempotent writes, and ON DELETE CASCADE for referential integrity. Every
// write is a single auto-committing statement.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"synapse-backend/internal/domain/graph"
	"synapse-backend/internal/repository"
	appErrors "synapse-backend/pkg/errors"
)

// Store is the PostgreSQL-backed graph repository.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewStore creates a graph store on the given connection pool.
func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

// Connect opens a pgx pool from a DSN and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open connection pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

const nodeColumns = "id, label, name, properties, vector_id, created_at"
const edgeColumns = "id, source_id, target_id, relation, weight, properties, created_at, modified_at, last_accessed, access_count"

// UpsertNode creates a node or returns the existing row for (label, name),
// merging the supplied properties over the stored ones.
func (s *Store) UpsertNode(ctx context.Context, label, name string, properties graph.Properties) (*graph.Node, error) {
	if label == "" || name == "" {
		return nil, appErrors.NewValidation(appErrors.CodeMissingParameter, "node label and name are required")
	}
	props, err := marshalProperties(properties)
	if err != nil {
		return nil, appErrors.NewValidation(appErrors.CodeInvalidFilter, "node properties are not JSON-encodable")
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO nodes (id, label, name, properties)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (label, name)
		DO UPDATE SET properties = nodes.properties || EXCLUDED.properties
		RETURNING `+nodeColumns,
		uuid.New().String(), label, name, props)
	node, err := scanNode(row)
	if err != nil {
		return nil, mapError("UpsertNode", err)
	}
	return node, nil
}

// UpsertEdge creates an edge or updates the existing (source, target,
// relation) row. Entrenchment is derived from edgeType on create and never
// overwritten on update.
func (s *Store) UpsertEdge(ctx context.Context, sourceID, targetID, relation string, weight float64, properties graph.Properties, edgeType string) (*graph.Edge, error) {
	if sourceID == "" || targetID == "" || relation == "" {
		return nil, appErrors.NewValidation(appErrors.CodeMissingParameter, "edge source, target and relation are required")
	}
	merged := make(graph.Properties, len(properties)+1)
	for k, v := range properties {
		merged[k] = v
	}
	if edgeType == graph.EdgeTypeConstitutive {
		merged[graph.PropEntrenchmentLevel] = graph.EntrenchmentMaximal
	} else {
		merged[graph.PropEntrenchmentLevel] = graph.EntrenchmentDefault
	}
	if err := s.validateSupersedesRefs(ctx, merged); err != nil {
		return nil, err
	}
	props, err := marshalProperties(merged)
	if err != nil {
		return nil, appErrors.NewValidation(appErrors.CodeInvalidFilter, "edge properties are not JSON-encodable")
	}
	// On conflict the incoming entrenchment level is stripped before the
	// merge; the level assigned at creation is immutable.
	row := s.pool.QueryRow(ctx, `
		INSERT INTO edges (id, source_id, target_id, relation, weight, properties)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		ON CONFLICT (source_id, target_id, relation)
		DO UPDATE SET
			weight      = EXCLUDED.weight,
			properties  = edges.properties || (EXCLUDED.properties - 'entrenchment_level'),
			modified_at = now()
		RETURNING `+edgeColumns,
		uuid.New().String(), sourceID, targetID, relation, weight, props)
	edge, err := scanEdge(row)
	if err != nil {
		return nil, mapError("UpsertEdge", err)
	}
	return edge, nil
}

func (s *Store) FindNodeByID(ctx context.Context, id string) (*graph.Node, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE id = $1`, id)
	node, err := scanNode(row)
	if err != nil {
		return nil, mapError("FindNodeByID", err)
	}
	return node, nil
}

// FindNodeByName resolves a node by name across labels; when several labels
// share the name the oldest row wins so resolution stays deterministic.
func (s *Store) FindNodeByName(ctx context.Context, name string) (*graph.Node, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE name = $1 ORDER BY created_at ASC, id ASC LIMIT 1`, name)
	node, err := scanNode(row)
	if err != nil {
		return nil, mapError("FindNodeByName", err)
	}
	return node, nil
}

func (s *Store) FindEdge(ctx context.Context, sourceID, targetID, relation string) (*graph.Edge, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+edgeColumns+` FROM edges WHERE source_id = $1 AND target_id = $2 AND relation = $3`,
		sourceID, targetID, relation)
	edge, err := scanEdge(row)
	if err != nil {
		return nil, mapError("FindEdge", err)
	}
	return edge, nil
}

func (s *Store) DeleteNode(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM nodes WHERE id = $1`, id)
	if err != nil {
		return mapError("DeleteNode", err)
	}
	if tag.RowsAffected() == 0 {
		return appErrors.WithOperation(
			appErrors.NewNotFound(appErrors.CodeNodeNotFound, fmt.Sprintf("node %s does not exist", id)),
			"DeleteNode")
	}
	return nil
}

// UpdateEdgeProperties merges properties onto an edge. The entrenchment
// level set at creation is stripped from the input before merging.
func (s *Store) UpdateEdgeProperties(ctx context.Context, edgeID string, properties graph.Properties) (*graph.Edge, error) {
	if err := s.validateSupersedesRefs(ctx, properties); err != nil {
		return nil, err
	}
	props, err := marshalProperties(properties)
	if err != nil {
		return nil, appErrors.NewValidation(appErrors.CodeInvalidFilter, "edge properties are not JSON-encodable")
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE edges
		SET properties = properties || ($2::jsonb - 'entrenchment_level'), modified_at = now()
		WHERE id = $1
		RETURNING `+edgeColumns, edgeID, props)
	edge, err := scanEdge(row)
	if err != nil {
		if appErrors.IsNotFound(mapError("UpdateEdgeProperties", err)) {
			return nil, appErrors.WithOperation(
				appErrors.NewNotFound(appErrors.CodeEdgeNotFound, fmt.Sprintf("edge %s does not exist", edgeID)),
				"UpdateEdgeProperties")
		}
		return nil, mapError("UpdateEdgeProperties", err)
	}
	return edge, nil
}

// AdjacentEdges returns edges incident to nodeID joined with the node on the
// far side, honoring direction, relation and property restrictions in SQL.
func (s *Store) AdjacentEdges(ctx context.Context, nodeID string, q repository.AdjacencyQuery) ([]repository.Adjacency, error) {
	args := []any{nodeID}
	var conds []string

	switch q.Direction {
	case graph.DirectionOut:
		conds = append(conds, "e.source_id = $1")
	case graph.DirectionIn:
		conds = append(conds, "e.target_id = $1")
	case graph.DirectionBoth:
		conds = append(conds, "(e.source_id = $1 OR e.target_id = $1)")
	default:
		return nil, appErrors.NewValidation(appErrors.CodeInvalidDirection,
			fmt.Sprintf("unsupported traversal direction %q", q.Direction))
	}
	if q.Relation != "" {
		args = append(args, q.Relation)
		conds = append(conds, fmt.Sprintf("e.relation = $%d", len(args)))
	}
	filterConds, args, err := filterToSQL(q.Filter, "e.properties", args)
	if err != nil {
		return nil, appErrors.NewValidation(appErrors.CodeInvalidFilter, err.Error())
	}
	conds = append(conds, filterConds...)
	if !q.IncludeSuperseded {
		conds = append(conds,
			`NOT EXISTS (SELECT 1 FROM edges s WHERE s.id <> e.id AND s.properties -> 'supersedes' @> to_jsonb(e.id))`)
	}

	query := `
		SELECT e.id, e.source_id, e.target_id, e.relation, e.weight, e.properties,
		       e.created_at, e.modified_at, e.last_accessed, e.access_count,
		       n.id, n.label, n.name, n.properties, n.vector_id, n.created_at
		FROM edges e
		JOIN nodes n ON n.id = CASE WHEN e.source_id = $1 THEN e.target_id ELSE e.source_id END
		WHERE ` + strings.Join(conds, " AND ")

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("AdjacentEdges", err)
	}
	defer rows.Close()

	var result []repository.Adjacency
	for rows.Next() {
		adj, scanErr := scanAdjacency(rows, nodeID)
		if scanErr != nil {
			return nil, mapError("AdjacentEdges", scanErr)
		}
		result = append(result, adj)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("AdjacentEdges", err)
	}
	return result, nil
}

// TouchEdges bulk-updates access bookkeeping in one statement. The increment
// happens inside the statement so concurrent touches never lose updates.
func (s *Store) TouchEdges(ctx context.Context, edgeIDs []string) error {
	if len(edgeIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE edges
		SET last_accessed = now(), access_count = access_count + 1
		WHERE id = ANY($1)`, edgeIDs)
	if err != nil {
		return mapError("TouchEdges", err)
	}
	return nil
}

// validateSupersedesRefs checks, at write time, that supersedes and
// superseded_by entries reference existing edges. No foreign key backs these
// property arrays, and orphaned references would silently degrade the
// superseded-edge filter.
func (s *Store) validateSupersedesRefs(ctx context.Context, properties graph.Properties) error {
	refs := collectEdgeRefs(properties)
	if len(refs) == 0 {
		return nil
	}
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM edges WHERE id = ANY($1)`, refs).Scan(&count)
	if err != nil {
		return mapError("validateSupersedesRefs", err)
	}
	if count != len(refs) {
		return appErrors.NewValidation(appErrors.CodeUnknownSupersedes,
			"supersedes/superseded_by reference edges that do not exist")
	}
	return nil
}

func collectEdgeRefs(properties graph.Properties) []string {
	seen := make(map[string]struct{})
	var refs []string
	probe := graph.Edge{Properties: properties}
	for _, id := range append(probe.Supersedes(), probe.SupersededBy()...) {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			refs = append(refs, id)
		}
	}
	return refs
}

func marshalProperties(properties graph.Properties) ([]byte, error) {
	if properties == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(properties)
}

func scanNode(row pgx.Row) (*graph.Node, error) {
	var (
		node     graph.Node
		props    []byte
		vectorID *string
	)
	if err := row.Scan(&node.ID, &node.Label, &node.Name, &props, &vectorID, &node.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(props, &node.Properties); err != nil {
		return nil, err
	}
	if vectorID != nil {
		node.VectorID = *vectorID
	}
	return &node, nil
}

func scanEdge(row pgx.Row) (*graph.Edge, error) {
	var (
		edge  graph.Edge
		props []byte
	)
	if err := row.Scan(&edge.ID, &edge.SourceID, &edge.TargetID, &edge.Relation, &edge.Weight,
		&props, &edge.CreatedAt, &edge.ModifiedAt, &edge.LastAccessed, &edge.AccessCount); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(props, &edge.Properties); err != nil {
		return nil, err
	}
	return &edge, nil
}

func scanAdjacency(rows pgx.Rows, queriedNodeID string) (repository.Adjacency, error) {
	var (
		adj       repository.Adjacency
		edgeProps []byte
		nodeProps []byte
		vectorID  *string
	)
	err := rows.Scan(
		&adj.Edge.ID, &adj.Edge.SourceID, &adj.Edge.TargetID, &adj.Edge.Relation, &adj.Edge.Weight,
		&edgeProps, &adj.Edge.CreatedAt, &adj.Edge.ModifiedAt, &adj.Edge.LastAccessed, &adj.Edge.AccessCount,
		&adj.FarNode.ID, &adj.FarNode.Label, &adj.FarNode.Name, &nodeProps, &vectorID, &adj.FarNode.CreatedAt)
	if err != nil {
		return repository.Adjacency{}, err
	}
	if err := json.Unmarshal(edgeProps, &adj.Edge.Properties); err != nil {
		return repository.Adjacency{}, err
	}
	if err := json.Unmarshal(nodeProps, &adj.FarNode.Properties); err != nil {
		return repository.Adjacency{}, err
	}
	if vectorID != nil {
		adj.FarNode.VectorID = *vectorID
	}
	if adj.Edge.SourceID == queriedNodeID {
		adj.Direction = graph.DirectionOut
	} else {
		adj.Direction = graph.DirectionIn
	}
	return adj, nil
}

var _ repository.GraphRepository = (*Store)(nil)
