// Package mocks provides an in-memory GraphRepository for unit tests.
//
// The mock mirrors the Postgres store's observable behavior: idempotent
// upserts, entrenchment assignment, superseded-edge filtering and JSONB-style
// property filter matching, so service tests exercise the same semantics the
// real store provides.
package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"synapse-backend/internal/domain/graph"
	"synapse-backend/internal/repository"
	appErrors "synapse-backend/pkg/errors"
)

// MockRepository is a thread-safe in-memory graph store.
type MockRepository struct {
	mu    sync.Mutex
	nodes map[string]*graph.Node // by id
	edges map[string]*graph.Edge // by id

	// forced errors per operation name, for fault injection
	errors map[string]error

	// Calls counts invocations per operation name.
	Calls map[string]int

	// AdjacencyDelay, when set, stalls AdjacentEdges to simulate a slow
	// storage engine for timeout tests.
	AdjacencyDelay time.Duration
}

// NewMockRepository creates an empty in-memory repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		nodes:  make(map[string]*graph.Node),
		edges:  make(map[string]*graph.Edge),
		errors: make(map[string]error),
		Calls:  make(map[string]int),
	}
}

// SetError forces the named operation to fail with err until cleared.
func (m *MockRepository) SetError(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errors, operation)
		return
	}
	m.errors[operation] = err
}

func (m *MockRepository) begin(operation string) error {
	m.Calls[operation]++
	if err := m.errors[operation]; err != nil {
		return err
	}
	return nil
}

// StorageReads returns the total number of read operations issued, used by
// tests asserting that invalid input performs zero storage reads.
func (m *MockRepository) StorageReads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls["FindNodeByID"] + m.Calls["FindNodeByName"] +
		m.Calls["FindEdge"] + m.Calls["AdjacentEdges"]
}

func (m *MockRepository) UpsertNode(ctx context.Context, label, name string, properties graph.Properties) (*graph.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("UpsertNode"); err != nil {
		return nil, err
	}
	for _, n := range m.nodes {
		if n.Label == label && n.Name == name {
			for k, v := range properties {
				n.Properties[k] = v
			}
			clone := *n
			return &clone, nil
		}
	}
	node := &graph.Node{
		ID:         uuid.New().String(),
		Label:      label,
		Name:       name,
		Properties: cloneProperties(properties),
		CreatedAt:  time.Now(),
	}
	m.nodes[node.ID] = node
	clone := *node
	return &clone, nil
}

func (m *MockRepository) UpsertEdge(ctx context.Context, sourceID, targetID, relation string, weight float64, properties graph.Properties, edgeType string) (*graph.Edge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("UpsertEdge"); err != nil {
		return nil, err
	}
	if _, ok := m.nodes[sourceID]; !ok {
		return nil, appErrors.NewNotFound(appErrors.CodeNodeNotFound, "referenced node does not exist")
	}
	if _, ok := m.nodes[targetID]; !ok {
		return nil, appErrors.NewNotFound(appErrors.CodeNodeNotFound, "referenced node does not exist")
	}
	for _, e := range m.edges {
		if e.SourceID == sourceID && e.TargetID == targetID && e.Relation == relation {
			e.Weight = weight
			for k, v := range properties {
				if k == graph.PropEntrenchmentLevel {
					continue
				}
				e.Properties[k] = v
			}
			e.ModifiedAt = time.Now()
			clone := *e
			return &clone, nil
		}
	}
	props := cloneProperties(properties)
	if edgeType == graph.EdgeTypeConstitutive {
		props[graph.PropEntrenchmentLevel] = graph.EntrenchmentMaximal
	} else {
		props[graph.PropEntrenchmentLevel] = graph.EntrenchmentDefault
	}
	now := time.Now()
	edge := &graph.Edge{
		ID:           uuid.New().String(),
		SourceID:     sourceID,
		TargetID:     targetID,
		Relation:     relation,
		Weight:       weight,
		Properties:   props,
		CreatedAt:    now,
		ModifiedAt:   now,
		LastAccessed: now,
	}
	m.edges[edge.ID] = edge
	clone := *edge
	return &clone, nil
}

func (m *MockRepository) FindNodeByID(ctx context.Context, id string) (*graph.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("FindNodeByID"); err != nil {
		return nil, err
	}
	node, ok := m.nodes[id]
	if !ok {
		return nil, appErrors.NewNotFound(appErrors.CodeNodeNotFound, fmt.Sprintf("node %s does not exist", id))
	}
	clone := *node
	return &clone, nil
}

func (m *MockRepository) FindNodeByName(ctx context.Context, name string) (*graph.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("FindNodeByName"); err != nil {
		return nil, err
	}
	var oldest *graph.Node
	for _, n := range m.nodes {
		if n.Name != name {
			continue
		}
		if oldest == nil || n.CreatedAt.Before(oldest.CreatedAt) {
			oldest = n
		}
	}
	if oldest == nil {
		return nil, appErrors.NewNotFound(appErrors.CodeNodeNotFound, fmt.Sprintf("node %q does not exist", name))
	}
	clone := *oldest
	return &clone, nil
}

func (m *MockRepository) FindEdge(ctx context.Context, sourceID, targetID, relation string) (*graph.Edge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("FindEdge"); err != nil {
		return nil, err
	}
	for _, e := range m.edges {
		if e.SourceID == sourceID && e.TargetID == targetID && e.Relation == relation {
			clone := *e
			return &clone, nil
		}
	}
	return nil, appErrors.NewNotFound(appErrors.CodeEdgeNotFound, "edge does not exist")
}

func (m *MockRepository) DeleteNode(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("DeleteNode"); err != nil {
		return err
	}
	if _, ok := m.nodes[id]; !ok {
		return appErrors.NewNotFound(appErrors.CodeNodeNotFound, fmt.Sprintf("node %s does not exist", id))
	}
	delete(m.nodes, id)
	for edgeID, e := range m.edges {
		if e.SourceID == id || e.TargetID == id {
			delete(m.edges, edgeID)
		}
	}
	return nil
}

func (m *MockRepository) UpdateEdgeProperties(ctx context.Context, edgeID string, properties graph.Properties) (*graph.Edge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("UpdateEdgeProperties"); err != nil {
		return nil, err
	}
	edge, ok := m.edges[edgeID]
	if !ok {
		return nil, appErrors.NewNotFound(appErrors.CodeEdgeNotFound, fmt.Sprintf("edge %s does not exist", edgeID))
	}
	for k, v := range properties {
		if k == graph.PropEntrenchmentLevel {
			continue
		}
		edge.Properties[k] = v
	}
	edge.ModifiedAt = time.Now()
	clone := *edge
	return &clone, nil
}

func (m *MockRepository) AdjacentEdges(ctx context.Context, nodeID string, q repository.AdjacencyQuery) ([]repository.Adjacency, error) {
	if m.AdjacencyDelay > 0 {
		select {
		case <-time.After(m.AdjacencyDelay):
		case <-ctx.Done():
			return nil, appErrors.NewTimeout(appErrors.CodePathTimeout, "statement exceeded its time budget")
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("AdjacentEdges"); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, appErrors.NewTimeout(appErrors.CodePathTimeout, "statement exceeded its time budget")
	}

	superseded := m.supersededSet()
	var result []repository.Adjacency
	for _, e := range m.edges {
		var direction graph.Direction
		var farID string
		switch {
		case e.SourceID == nodeID && (q.Direction == graph.DirectionOut || q.Direction == graph.DirectionBoth):
			direction, farID = graph.DirectionOut, e.TargetID
		case e.TargetID == nodeID && (q.Direction == graph.DirectionIn || q.Direction == graph.DirectionBoth):
			direction, farID = graph.DirectionIn, e.SourceID
		default:
			continue
		}
		if q.Relation != "" && e.Relation != q.Relation {
			continue
		}
		if q.Filter != nil && !q.Filter.Matches(e.Properties) {
			continue
		}
		if !q.IncludeSuperseded {
			if _, dropped := superseded[e.ID]; dropped {
				continue
			}
		}
		far, ok := m.nodes[farID]
		if !ok {
			continue
		}
		result = append(result, repository.Adjacency{
			Edge:      *e,
			FarNode:   *far,
			Direction: direction,
		})
	}
	// map iteration order is random; keep output deterministic like SQL with
	// an index scan would be
	sort.Slice(result, func(i, j int) bool {
		return result[i].Edge.ID < result[j].Edge.ID
	})
	return result, nil
}

func (m *MockRepository) TouchEdges(ctx context.Context, edgeIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("TouchEdges"); err != nil {
		return err
	}
	now := time.Now()
	for _, id := range edgeIDs {
		if e, ok := m.edges[id]; ok {
			e.LastAccessed = now
			e.AccessCount++
		}
	}
	return nil
}

// Edge returns a copy of a stored edge for assertions.
func (m *MockRepository) Edge(id string) (graph.Edge, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.edges[id]
	if !ok {
		return graph.Edge{}, false
	}
	return *e, true
}

// supersededSet collects ids of edges referenced by another edge's
// supersedes array. Caller must hold the lock.
func (m *MockRepository) supersededSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, e := range m.edges {
		for _, id := range e.Supersedes() {
			if id != e.ID {
				set[id] = struct{}{}
			}
		}
	}
	return set
}

func cloneProperties(props graph.Properties) graph.Properties {
	out := make(graph.Properties, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

var _ repository.GraphRepository = (*MockRepository)(nil)
