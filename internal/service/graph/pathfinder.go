package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"synapse-backend/internal/domain/graph"
	"synapse-backend/internal/repository"
	appErrors "synapse-backend/pkg/errors"
)

// partialPath is one in-flight path during the level-synchronous search.
// Node membership is tracked per path; revisiting a node abandons only
// this path, never the level.
type partialPath struct {
	nodes   []graph.PathNode
	edges   []graph.PathEdge
	weight  float64
	nodeSet map[string]struct{}
}

func (p partialPath) extend(adj repository.Adjacency) partialPath {
	nodes := make([]graph.PathNode, len(p.nodes), len(p.nodes)+1)
	copy(nodes, p.nodes)
	edges := make([]graph.PathEdge, len(p.edges), len(p.edges)+1)
	copy(edges, p.edges)
	nodeSet := make(map[string]struct{}, len(p.nodeSet)+1)
	for id := range p.nodeSet {
		nodeSet[id] = struct{}{}
	}
	nodeSet[adj.FarNode.ID] = struct{}{}
	return partialPath{
		nodes: append(nodes, graph.PathNode{
			ID:    adj.FarNode.ID,
			Label: adj.FarNode.Label,
			Name:  adj.FarNode.Name,
		}),
		edges: append(edges, graph.PathEdge{
			ID:       adj.Edge.ID,
			Relation: adj.Edge.Relation,
			Weight:   adj.Edge.Weight,
		}),
		weight:  p.weight + adj.Edge.Weight,
		nodeSet: nodeSet,
	}
}

func (p partialPath) toPath() graph.Path {
	return graph.Path{Nodes: p.nodes, Edges: p.edges, TotalWeight: p.weight}
}

// FindPath searches for the shortest undirected paths between two nodes
// resolved by name, up to maxDepth hops (default 5).
//
// The search is level-synchronous BFS: the whole frontier advances one hop
// at a time, so the first level that reaches the end node yields every
// minimal-length path. All such paths are kept, capped, and ordered by
// total weight descending. The search runs under a wall-clock budget;
// exceeding it returns a TimeoutError together with the paths confirmed
// so far.
func (s *Service) FindPath(ctx context.Context, startName, endName string, maxDepth int) (*graph.PathResult, error) {
	gcfg := s.cfg.GraphConfig()
	if maxDepth == 0 {
		maxDepth = 5
	}
	if maxDepth < 1 || maxDepth > gcfg.MaxPathDepth {
		return nil, appErrors.NewValidation(appErrors.CodeInvalidDepth,
			fmt.Sprintf("max_depth must be between 1 and %d, got %d", gcfg.MaxPathDepth, maxDepth))
	}

	ctx, span := s.tracer.Start(ctx, "graph.FindPath")
	defer span.End()
	span.SetAttributes(
		attribute.String("graph.start_name", startName),
		attribute.String("graph.end_name", endName),
		attribute.Int("graph.max_depth", maxDepth),
	)

	start, err := s.repo.FindNodeByName(ctx, startName)
	if err != nil {
		return nil, markEndpoint(err, appErrors.CodeStartNodeNotFound, startName)
	}

	// Identical endpoints are a confirmed zero-length path, no search.
	if startName == endName {
		return &graph.PathResult{
			PathFound:  true,
			PathLength: 0,
			Paths: []graph.Path{{
				Nodes: []graph.PathNode{{ID: start.ID, Label: start.Label, Name: start.Name}},
			}},
		}, nil
	}

	end, err := s.repo.FindNodeByName(ctx, endName)
	if err != nil {
		return nil, markEndpoint(err, appErrors.CodeEndNodeNotFound, endName)
	}

	ctx, cancel := context.WithTimeout(ctx, gcfg.PathTimeout)
	defer cancel()

	query := repository.AdjacencyQuery{Direction: graph.DirectionBoth}
	frontier := []partialPath{{
		nodes:   []graph.PathNode{{ID: start.ID, Label: start.Label, Name: start.Name}},
		nodeSet: map[string]struct{}{start.ID: {}},
	}}
	var found []graph.Path

	for level := 1; level <= maxDepth && len(found) == 0 && len(frontier) > 0; level++ {
		var next []partialPath
		// One adjacency read per distinct frontier tail; many partial
		// paths can share one.
		adjCache := make(map[string][]repository.Adjacency)

		for _, p := range frontier {
			tailID := p.nodes[len(p.nodes)-1].ID
			adjacencies, cached := adjCache[tailID]
			if !cached {
				adjacencies, err = s.repo.AdjacentEdges(ctx, tailID, query)
				if err != nil {
					return s.timeoutResult(found, err)
				}
				adjCache[tailID] = adjacencies
			}
			for _, adj := range adjacencies {
				if _, onPath := p.nodeSet[adj.FarNode.ID]; onPath {
					continue
				}
				extended := p.extend(adj)
				if adj.FarNode.ID == end.ID {
					found = append(found, extended.toPath())
				} else if level < maxDepth {
					next = append(next, extended)
				}
			}
		}
		frontier = next
	}

	result := assemblePathResult(found, gcfg.MaxPathsReturned)
	s.touchPathEdges(ctx, result.Paths)
	s.logger.Debug("path search complete",
		zap.String("start", startName),
		zap.String("end", endName),
		zap.Bool("found", result.PathFound),
		zap.Int("paths", len(result.Paths)))
	return result, nil
}

// markEndpoint rewrites a generic node lookup miss into the endpoint's
// distinct not-found code so callers can tell which name failed.
func markEndpoint(err error, code, name string) error {
	if appErrors.IsNotFound(err) {
		return appErrors.NewNotFound(code, fmt.Sprintf("node %q does not exist", name))
	}
	return err
}

// timeoutResult reports a search cut short by the wall-clock budget. Paths
// confirmed before the cutoff ride along with the error; any other failure
// passes through unchanged.
func (s *Service) timeoutResult(found []graph.Path, err error) (*graph.PathResult, error) {
	if appErrors.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		result := assemblePathResult(found, s.cfg.GraphConfig().MaxPathsReturned)
		return result, appErrors.NewTimeout(appErrors.CodePathTimeout,
			"path search exceeded its time budget")
	}
	return nil, err
}

// assemblePathResult orders minimal-length paths by total weight
// descending and applies the result cap.
func assemblePathResult(found []graph.Path, limit int) *graph.PathResult {
	if len(found) == 0 {
		return &graph.PathResult{Paths: []graph.Path{}}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].TotalWeight != found[j].TotalWeight {
			return found[i].TotalWeight > found[j].TotalWeight
		}
		return pathKey(found[i]) < pathKey(found[j])
	})
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return &graph.PathResult{
		PathFound:  true,
		PathLength: len(found[0].Edges),
		Paths:      found,
	}
}

// pathKey gives equal-weight paths a stable order.
func pathKey(p graph.Path) string {
	key := ""
	for _, e := range p.Edges {
		key += e.ID + "/"
	}
	return key
}

func (s *Service) touchPathEdges(ctx context.Context, paths []graph.Path) {
	touched := make(map[string]struct{})
	for _, p := range paths {
		for _, e := range p.Edges {
			touched[e.ID] = struct{}{}
		}
	}
	s.stats.Touch(ctx, setToSlice(touched))
}
