package graph

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"synapse-backend/internal/domain/graph"
	"synapse-backend/internal/repository"
)

// frontierItem is one pending expansion in the breadth-first traversal.
// Each item carries its own path-visited set so a cycle along one path
// never blocks a legitimate discovery along another.
type frontierItem struct {
	nodeID  string
	depth   int
	visited map[string]struct{}
}

// QueryNeighbors traverses up to opts.MaxDepth hops from startNodeID and
// returns each reachable node exactly once, at its shortest distance.
//
// The traversal is an iterative frontier BFS, not a recursive query: the
// work queue holds (node, path-visited, depth) tuples, candidates already
// on the current path are rejected, and a node is expanded only the first
// time it is discovered. Results are ordered by distance ascending, then
// edge weight descending, then name ascending. All edges crossed during
// assembly are forwarded to the access-stats updater after the read
// completes.
func (s *Service) QueryNeighbors(ctx context.Context, startNodeID string, opts NeighborOptions) ([]graph.Neighbor, error) {
	opts, err := s.normalizeNeighborOptions(opts)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "graph.QueryNeighbors")
	defer span.End()
	span.SetAttributes(
		attribute.String("graph.start_node", startNodeID),
		attribute.Int("graph.max_depth", opts.MaxDepth),
		attribute.String("graph.direction", string(opts.Direction)),
	)

	if _, err := s.repo.FindNodeByID(ctx, startNodeID); err != nil {
		return nil, err
	}

	query := repository.AdjacencyQuery{
		Direction:         opts.Direction,
		Relation:          opts.Relation,
		Filter:            opts.Filter,
		IncludeSuperseded: opts.IncludeSuperseded,
	}

	queue := []frontierItem{{
		nodeID:  startNodeID,
		depth:   0,
		visited: map[string]struct{}{startNodeID: {}},
	}}
	// discovered gates expansion: in a FIFO traversal the first discovery
	// of a node is at its shortest distance, so later discoveries never
	// need re-expansion.
	discovered := map[string]struct{}{startNodeID: {}}
	best := make(map[string]graph.Neighbor)
	touched := make(map[string]struct{})

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if item.depth >= opts.MaxDepth {
			continue
		}

		adjacencies, err := s.repo.AdjacentEdges(ctx, item.nodeID, query)
		if err != nil {
			return nil, err
		}

		for _, adj := range adjacencies {
			far := adj.FarNode
			if _, onPath := item.visited[far.ID]; onPath {
				continue
			}
			distance := item.depth + 1
			touched[adj.Edge.ID] = struct{}{}

			candidate := graph.Neighbor{
				NodeID:     far.ID,
				EdgeID:     adj.Edge.ID,
				Label:      far.Label,
				Name:       far.Name,
				Properties: far.Properties,
				Relation:   adj.Edge.Relation,
				Weight:     adj.Edge.Weight,
				Distance:   distance,
				Direction:  adj.Direction,
				VectorID:   far.VectorID,
			}
			current, seen := best[far.ID]
			if !seen || distance < current.Distance ||
				(distance == current.Distance && candidate.Weight > current.Weight) {
				best[far.ID] = candidate
			}

			if _, known := discovered[far.ID]; !known {
				discovered[far.ID] = struct{}{}
				next := make(map[string]struct{}, len(item.visited)+1)
				for id := range item.visited {
					next[id] = struct{}{}
				}
				next[far.ID] = struct{}{}
				queue = append(queue, frontierItem{nodeID: far.ID, depth: distance, visited: next})
			}
		}
	}

	neighbors := make([]graph.Neighbor, 0, len(best))
	for _, n := range best {
		neighbors = append(neighbors, n)
	}
	sort.Slice(neighbors, func(i, j int) bool {
		a, b := neighbors[i], neighbors[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		return a.Name < b.Name
	})

	s.stats.Touch(ctx, setToSlice(touched))
	s.logger.Debug("neighbor traversal complete",
		zap.String("start_node", startNodeID),
		zap.Int("max_depth", opts.MaxDepth),
		zap.Int("neighbors", len(neighbors)))
	return neighbors, nil
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
