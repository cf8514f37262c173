package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"synapse-backend/internal/config"
	"synapse-backend/internal/domain/graph"
	"synapse-backend/internal/repository/mocks"
	appErrors "synapse-backend/pkg/errors"
)

func newTestService(t *testing.T, cfg *config.Config) (*Service, *mocks.MockRepository) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	repo := mocks.NewMockRepository()
	logger := zap.NewNop()
	return NewService(repo, NewStatsUpdater(repo, logger), config.Static{Config: cfg}, logger), repo
}

func mustNode(t *testing.T, repo *mocks.MockRepository, label, name string) *graph.Node {
	t.Helper()
	node, err := repo.UpsertNode(context.Background(), label, name, graph.Properties{})
	require.NoError(t, err)
	return node
}

func mustEdge(t *testing.T, repo *mocks.MockRepository, source, target *graph.Node, relation string, weight float64, props graph.Properties) *graph.Edge {
	t.Helper()
	if props == nil {
		props = graph.Properties{}
	}
	edge, err := repo.UpsertEdge(context.Background(), source.ID, target.ID, relation, weight, props, "")
	require.NoError(t, err)
	return edge
}

func TestQueryNeighbors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid depth fails before any storage read", func(t *testing.T) {
		svc, repo := newTestService(t, nil)

		for _, depth := range []int{-1, 6, 100} {
			_, err := svc.QueryNeighbors(ctx, "some-id", NeighborOptions{MaxDepth: depth})
			require.Error(t, err)
			assert.True(t, appErrors.IsValidation(err))
			assert.Equal(t, appErrors.CodeInvalidDepth, appErrors.CodeOf(err))
		}
		assert.Zero(t, repo.StorageReads())
	})

	t.Run("invalid direction is rejected", func(t *testing.T) {
		svc, repo := newTestService(t, nil)

		_, err := svc.QueryNeighbors(ctx, "some-id", NeighborOptions{Direction: "sideways"})
		require.Error(t, err)
		assert.Equal(t, appErrors.CodeInvalidDirection, appErrors.CodeOf(err))
		assert.Zero(t, repo.StorageReads())
	})

	t.Run("unknown start node", func(t *testing.T) {
		svc, _ := newTestService(t, nil)

		_, err := svc.QueryNeighbors(ctx, "missing", NeighborOptions{})
		require.Error(t, err)
		assert.True(t, appErrors.IsNotFound(err))
	})

	t.Run("single hop returns direct neighbors with metadata", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		alice := mustNode(t, repo, "Person", "alice")
		bob := mustNode(t, repo, "Person", "bob")
		carol := mustNode(t, repo, "Person", "carol")
		knows := mustEdge(t, repo, alice, bob, "knows", 0.9, nil)
		mustEdge(t, repo, carol, alice, "manages", 0.5, nil)

		neighbors, err := svc.QueryNeighbors(ctx, alice.ID, NeighborOptions{})
		require.NoError(t, err)
		require.Len(t, neighbors, 2)

		assert.Equal(t, bob.ID, neighbors[0].NodeID)
		assert.Equal(t, knows.ID, neighbors[0].EdgeID)
		assert.Equal(t, "knows", neighbors[0].Relation)
		assert.Equal(t, graph.DirectionOut, neighbors[0].Direction)
		assert.Equal(t, 1, neighbors[0].Distance)

		assert.Equal(t, carol.ID, neighbors[1].NodeID)
		assert.Equal(t, graph.DirectionIn, neighbors[1].Direction)
	})

	t.Run("direction out excludes incoming edges", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		alice := mustNode(t, repo, "Person", "alice")
		bob := mustNode(t, repo, "Person", "bob")
		carol := mustNode(t, repo, "Person", "carol")
		mustEdge(t, repo, alice, bob, "knows", 0.9, nil)
		mustEdge(t, repo, carol, alice, "manages", 0.5, nil)

		neighbors, err := svc.QueryNeighbors(ctx, alice.ID, NeighborOptions{Direction: graph.DirectionOut})
		require.NoError(t, err)
		require.Len(t, neighbors, 1)
		assert.Equal(t, bob.ID, neighbors[0].NodeID)
	})

	t.Run("relation filter restricts expansion", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		alice := mustNode(t, repo, "Person", "alice")
		bob := mustNode(t, repo, "Person", "bob")
		proj := mustNode(t, repo, "Project", "atlas")
		mustEdge(t, repo, alice, bob, "knows", 0.9, nil)
		mustEdge(t, repo, alice, proj, "works_on", 0.8, nil)

		neighbors, err := svc.QueryNeighbors(ctx, alice.ID, NeighborOptions{Relation: "works_on"})
		require.NoError(t, err)
		require.Len(t, neighbors, 1)
		assert.Equal(t, proj.ID, neighbors[0].NodeID)
	})

	t.Run("each node reported once at shortest distance", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		a := mustNode(t, repo, "Person", "a")
		b := mustNode(t, repo, "Person", "b")
		c := mustNode(t, repo, "Person", "c")
		// c is reachable directly and through b; only distance 1 counts.
		mustEdge(t, repo, a, b, "knows", 0.9, nil)
		mustEdge(t, repo, a, c, "knows", 0.4, nil)
		mustEdge(t, repo, b, c, "knows", 0.8, nil)

		neighbors, err := svc.QueryNeighbors(ctx, a.ID, NeighborOptions{MaxDepth: 3})
		require.NoError(t, err)
		require.Len(t, neighbors, 2)
		for _, n := range neighbors {
			assert.Equal(t, 1, n.Distance)
		}
	})

	t.Run("cycles terminate and exclude the start node", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		a := mustNode(t, repo, "Person", "a")
		b := mustNode(t, repo, "Person", "b")
		c := mustNode(t, repo, "Person", "c")
		mustEdge(t, repo, a, b, "knows", 0.9, nil)
		mustEdge(t, repo, b, c, "knows", 0.8, nil)
		mustEdge(t, repo, c, a, "knows", 0.7, nil)

		neighbors, err := svc.QueryNeighbors(ctx, a.ID, NeighborOptions{MaxDepth: 5})
		require.NoError(t, err)
		require.Len(t, neighbors, 2)
		for _, n := range neighbors {
			assert.NotEqual(t, a.ID, n.NodeID)
		}
	})

	t.Run("results ordered by distance then weight then name", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		hub := mustNode(t, repo, "Person", "hub")
		low := mustNode(t, repo, "Person", "zed")
		high := mustNode(t, repo, "Person", "amy")
		far := mustNode(t, repo, "Person", "far")
		mustEdge(t, repo, hub, low, "knows", 0.2, nil)
		mustEdge(t, repo, hub, high, "knows", 0.9, nil)
		mustEdge(t, repo, high, far, "knows", 1.0, nil)

		neighbors, err := svc.QueryNeighbors(ctx, hub.ID, NeighborOptions{MaxDepth: 2})
		require.NoError(t, err)
		require.Len(t, neighbors, 3)
		assert.Equal(t, []string{high.ID, low.ID, far.ID},
			[]string{neighbors[0].NodeID, neighbors[1].NodeID, neighbors[2].NodeID})
	})

	t.Run("superseded edges hidden unless requested", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		a := mustNode(t, repo, "Person", "a")
		b := mustNode(t, repo, "Person", "b")
		c := mustNode(t, repo, "Person", "c")
		old := mustEdge(t, repo, a, b, "worked_at", 0.5, nil)
		mustEdge(t, repo, a, c, "works_at", 0.9, graph.Properties{
			graph.PropSupersedes: []any{old.ID},
		})

		neighbors, err := svc.QueryNeighbors(ctx, a.ID, NeighborOptions{})
		require.NoError(t, err)
		require.Len(t, neighbors, 1)
		assert.Equal(t, c.ID, neighbors[0].NodeID)

		neighbors, err = svc.QueryNeighbors(ctx, a.ID, NeighborOptions{IncludeSuperseded: true})
		require.NoError(t, err)
		assert.Len(t, neighbors, 2)
	})

	t.Run("properties filter matches scalar against array property", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		a := mustNode(t, repo, "Event", "standup")
		b := mustNode(t, repo, "Person", "ethr")
		c := mustNode(t, repo, "Person", "mira")
		mustEdge(t, repo, a, b, "participant", 0.9, graph.Properties{
			graph.PropParticipants: []any{"ethr", "mira"},
		})
		mustEdge(t, repo, a, c, "participant", 0.8, graph.Properties{
			graph.PropParticipants: []any{"mira"},
		})

		filter, err := graph.ParseFilter(map[string]any{"participants": "ethr"})
		require.NoError(t, err)

		neighbors, err := svc.QueryNeighbors(ctx, a.ID, NeighborOptions{Filter: filter})
		require.NoError(t, err)
		require.Len(t, neighbors, 1)
		assert.Equal(t, b.ID, neighbors[0].NodeID)
	})

	t.Run("traversal bumps access stats for crossed edges", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		a := mustNode(t, repo, "Person", "a")
		b := mustNode(t, repo, "Person", "b")
		edge := mustEdge(t, repo, a, b, "knows", 0.9, nil)

		_, err := svc.QueryNeighbors(ctx, a.ID, NeighborOptions{})
		require.NoError(t, err)

		stored, ok := repo.Edge(edge.ID)
		require.True(t, ok)
		assert.Equal(t, 1, stored.AccessCount)
	})

	t.Run("stats failure never fails the read", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		a := mustNode(t, repo, "Person", "a")
		b := mustNode(t, repo, "Person", "b")
		mustEdge(t, repo, a, b, "knows", 0.9, nil)
		repo.SetError("TouchEdges", appErrors.NewTransient("storage down", nil))

		neighbors, err := svc.QueryNeighbors(ctx, a.ID, NeighborOptions{})
		require.NoError(t, err)
		assert.Len(t, neighbors, 1)
	})
}
