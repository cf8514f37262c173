package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse-backend/internal/config"
	appErrors "synapse-backend/pkg/errors"
)

func TestFindPath(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid depth fails before any storage read", func(t *testing.T) {
		svc, repo := newTestService(t, nil)

		for _, depth := range []int{-3, 11} {
			_, err := svc.FindPath(ctx, "a", "b", depth)
			require.Error(t, err)
			assert.True(t, appErrors.IsValidation(err))
			assert.Equal(t, appErrors.CodeInvalidDepth, appErrors.CodeOf(err))
		}
		assert.Zero(t, repo.StorageReads())
	})

	t.Run("unresolvable endpoints carry distinct codes", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		mustNode(t, repo, "Person", "alice")

		_, err := svc.FindPath(ctx, "ghost", "alice", 0)
		require.Error(t, err)
		assert.Equal(t, appErrors.CodeStartNodeNotFound, appErrors.CodeOf(err))

		_, err = svc.FindPath(ctx, "alice", "ghost", 0)
		require.Error(t, err)
		assert.Equal(t, appErrors.CodeEndNodeNotFound, appErrors.CodeOf(err))
	})

	t.Run("identical endpoints short-circuit with a zero-length path", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		alice := mustNode(t, repo, "Person", "alice")

		result, err := svc.FindPath(ctx, "alice", "alice", 0)
		require.NoError(t, err)
		assert.True(t, result.PathFound)
		assert.Equal(t, 0, result.PathLength)
		require.Len(t, result.Paths, 1)
		require.Len(t, result.Paths[0].Nodes, 1)
		assert.Equal(t, alice.ID, result.Paths[0].Nodes[0].ID)
		assert.Empty(t, result.Paths[0].Edges)
		assert.Zero(t, repo.Calls["AdjacentEdges"])
		assert.Zero(t, repo.Calls["TouchEdges"])
	})

	t.Run("finds a direct path regardless of edge direction", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		alice := mustNode(t, repo, "Person", "alice")
		bob := mustNode(t, repo, "Person", "bob")
		// Edge points bob -> alice; the search is undirected.
		edge := mustEdge(t, repo, bob, alice, "knows", 0.9, nil)

		result, err := svc.FindPath(ctx, "alice", "bob", 0)
		require.NoError(t, err)
		assert.True(t, result.PathFound)
		assert.Equal(t, 1, result.PathLength)
		require.Len(t, result.Paths, 1)
		path := result.Paths[0]
		assert.Equal(t, []string{alice.ID, bob.ID}, []string{path.Nodes[0].ID, path.Nodes[1].ID})
		assert.Equal(t, edge.ID, path.Edges[0].ID)
		assert.InDelta(t, 0.9, path.TotalWeight, 1e-9)
	})

	t.Run("shortest level wins over longer alternatives", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		a := mustNode(t, repo, "Person", "a")
		b := mustNode(t, repo, "Person", "b")
		c := mustNode(t, repo, "Person", "c")
		mustEdge(t, repo, a, b, "knows", 0.5, nil)
		// Longer detour a -> c -> b must not appear.
		mustEdge(t, repo, a, c, "knows", 1.0, nil)
		mustEdge(t, repo, c, b, "knows", 1.0, nil)

		result, err := svc.FindPath(ctx, "a", "b", 5)
		require.NoError(t, err)
		assert.Equal(t, 1, result.PathLength)
		require.Len(t, result.Paths, 1)
	})

	t.Run("all minimal paths kept and ordered by total weight", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		a := mustNode(t, repo, "Person", "a")
		m1 := mustNode(t, repo, "Person", "m1")
		m2 := mustNode(t, repo, "Person", "m2")
		z := mustNode(t, repo, "Person", "z")
		mustEdge(t, repo, a, m1, "knows", 0.2, nil)
		mustEdge(t, repo, m1, z, "knows", 0.2, nil)
		mustEdge(t, repo, a, m2, "knows", 0.9, nil)
		mustEdge(t, repo, m2, z, "knows", 0.9, nil)

		result, err := svc.FindPath(ctx, "a", "z", 5)
		require.NoError(t, err)
		assert.Equal(t, 2, result.PathLength)
		require.Len(t, result.Paths, 2)
		assert.Equal(t, m2.ID, result.Paths[0].Nodes[1].ID)
		assert.Equal(t, m1.ID, result.Paths[1].Nodes[1].ID)
		assert.Greater(t, result.Paths[0].TotalWeight, result.Paths[1].TotalWeight)
	})

	t.Run("no path within depth budget", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		a := mustNode(t, repo, "Person", "a")
		b := mustNode(t, repo, "Person", "b")
		c := mustNode(t, repo, "Person", "c")
		mustNode(t, repo, "Person", "island")
		mustEdge(t, repo, a, b, "knows", 0.9, nil)
		mustEdge(t, repo, b, c, "knows", 0.9, nil)

		result, err := svc.FindPath(ctx, "a", "island", 5)
		require.NoError(t, err)
		assert.False(t, result.PathFound)
		assert.Equal(t, 0, result.PathLength)
		assert.Empty(t, result.Paths)

		// Depth 1 cannot reach c two hops away.
		result, err = svc.FindPath(ctx, "a", "c", 1)
		require.NoError(t, err)
		assert.False(t, result.PathFound)
	})

	t.Run("result cap limits equal-length paths", func(t *testing.T) {
		cfg := config.Default()
		cfg.Graph.MaxPathsReturned = 3
		svc, repo := newTestService(t, cfg)
		a := mustNode(t, repo, "Person", "a")
		z := mustNode(t, repo, "Person", "z")
		for _, name := range []string{"m1", "m2", "m3", "m4", "m5"} {
			mid := mustNode(t, repo, "Person", name)
			mustEdge(t, repo, a, mid, "knows", 0.5, nil)
			mustEdge(t, repo, mid, z, "knows", 0.5, nil)
		}

		result, err := svc.FindPath(ctx, "a", "z", 5)
		require.NoError(t, err)
		assert.True(t, result.PathFound)
		assert.Len(t, result.Paths, 3)
	})

	t.Run("wall-clock budget reports timeout with partial results", func(t *testing.T) {
		cfg := config.Default()
		cfg.Graph.PathTimeout = 20 * time.Millisecond
		svc, repo := newTestService(t, cfg)
		a := mustNode(t, repo, "Person", "a")
		b := mustNode(t, repo, "Person", "b")
		c := mustNode(t, repo, "Person", "c")
		mustEdge(t, repo, a, b, "knows", 0.9, nil)
		mustEdge(t, repo, b, c, "knows", 0.9, nil)
		repo.AdjacencyDelay = 50 * time.Millisecond

		result, err := svc.FindPath(ctx, "a", "c", 5)
		require.Error(t, err)
		assert.True(t, appErrors.IsTimeout(err))
		assert.Equal(t, appErrors.CodePathTimeout, appErrors.CodeOf(err))
		require.NotNil(t, result)
		assert.False(t, result.PathFound)
	})

	t.Run("path edges feed access stats", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		a := mustNode(t, repo, "Person", "a")
		b := mustNode(t, repo, "Person", "b")
		edge := mustEdge(t, repo, a, b, "knows", 0.9, nil)

		_, err := svc.FindPath(ctx, "a", "b", 0)
		require.NoError(t, err)

		stored, ok := repo.Edge(edge.ID)
		require.True(t, ok)
		assert.Equal(t, 1, stored.AccessCount)
	})
}
