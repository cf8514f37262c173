package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"synapse-backend/internal/config"
	"synapse-backend/internal/domain/graph"
	"synapse-backend/internal/repository/mocks"
	graphsvc "synapse-backend/internal/service/graph"
	appErrors "synapse-backend/pkg/errors"
)

type fakeSearcher struct {
	items []ScoredItem
	err   error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, topK int) ([]ScoredItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func newSearchService(t *testing.T, semantic, keyword Searcher) (*Service, *mocks.MockRepository) {
	t.Helper()
	cfg := config.Static{Config: config.Default()}
	repo := mocks.NewMockRepository()
	logger := zap.NewNop()
	explorer := graphsvc.NewService(repo, graphsvc.NewStatsUpdater(repo, logger), cfg, logger)
	return NewService(semantic, keyword, repo, explorer, cfg, nil, logger), repo
}

func TestClassify(t *testing.T) {
	keywords := config.Default().Search.RelationalKeywords

	standard := []string{
		"meeting notes from last week",
		"what did alice say about the launch",
	}
	for _, q := range standard {
		assert.Equal(t, QueryStandard, classify(q, keywords), q)
	}

	relational := []string{
		"how is Alice connected to the payments project",
		"path between billing and the ledger service",
		"Wie hängt der Auth-Service mit der Datenbank zusammen?",
	}
	for _, q := range relational {
		assert.Equal(t, QueryRelational, classify(q, keywords), q)
	}
}

func TestExtractEntities(t *testing.T) {
	t.Run("capitalized tokens, sentence-initial excluded when short", func(t *testing.T) {
		entities := extractEntities("Who knows Alice and Bob?", 4)
		assert.Equal(t, []string{"Alice", "Bob"}, entities)
	})

	t.Run("long sentence-initial word kept", func(t *testing.T) {
		entities := extractEntities("Alexandria shipped the release", 4)
		assert.Equal(t, []string{"Alexandria"}, entities)
	})

	t.Run("quoted substrings extracted verbatim", func(t *testing.T) {
		entities := extractEntities(`notes about "project atlas" from Carol`, 4)
		assert.Equal(t, []string{"project atlas", "Carol"}, entities)
	})

	t.Run("duplicates collapse case-insensitively", func(t *testing.T) {
		entities := extractEntities("did Alice meet ALICE", 4)
		assert.Equal(t, []string{"Alice"}, entities)
	})

	t.Run("new sentence restarts the initial-word rule", func(t *testing.T) {
		entities := extractEntities("ask Alice. Bob replied already", 4)
		assert.Equal(t, []string{"Alice"}, entities)
	})
}

func TestResolveWeights(t *testing.T) {
	defaults := config.Weights{Semantic: 0.6, Keyword: 0.2, Graph: 0.2}

	t.Run("nil input returns normalized defaults", func(t *testing.T) {
		w, usable := resolveWeights(nil, defaults)
		assert.True(t, usable)
		assert.InDelta(t, 0.6, w.Semantic, 1e-9)
		assert.InDelta(t, 0.2, w.Keyword, 1e-9)
		assert.InDelta(t, 0.2, w.Graph, 1e-9)
	})

	t.Run("legacy two-source weights get the graph default injected", func(t *testing.T) {
		w, usable := resolveWeights(map[string]float64{"semantic": 0.7, "keyword": 0.3}, defaults)
		assert.True(t, usable)
		// merged {0.7, 0.3, 0.2} normalized over 1.2
		assert.InDelta(t, 0.7/1.2, w.Semantic, 1e-9)
		assert.InDelta(t, 0.3/1.2, w.Keyword, 1e-9)
		assert.InDelta(t, 0.2/1.2, w.Graph, 1e-9)
		assert.InDelta(t, 1.0, w.Semantic+w.Keyword+w.Graph, 1e-9)
	})

	t.Run("negative weights fall back to defaults", func(t *testing.T) {
		w, usable := resolveWeights(map[string]float64{"semantic": -1}, defaults)
		assert.False(t, usable)
		assert.InDelta(t, 0.6, w.Semantic, 1e-9)
	})

	t.Run("all-zero weights fall back to defaults", func(t *testing.T) {
		w, usable := resolveWeights(map[string]float64{"semantic": 0, "keyword": 0, "graph": 0}, defaults)
		assert.False(t, usable)
		assert.InDelta(t, 0.6, w.Semantic, 1e-9)
	})

	t.Run("unknown sources are ignored", func(t *testing.T) {
		w, usable := resolveWeights(map[string]float64{"mystery": 5}, defaults)
		assert.True(t, usable)
		assert.InDelta(t, 0.6, w.Semantic, 1e-9)
	})
}

func TestFuseRRF(t *testing.T) {
	weights := map[string]float64{
		SourceSemantic: 0.6,
		SourceKeyword:  0.2,
		SourceGraph:    0.2,
	}
	const k = 60.0

	t.Run("absent source contributes exactly zero", func(t *testing.T) {
		rankings := map[string][]ScoredItem{
			SourceSemantic: {{ID: "doc-1", Score: 0.9}, {ID: "doc-2", Score: 0.8}},
			SourceGraph:    {{ID: "doc-2", Score: 0.7}},
		}
		fused := fuseRRF(rankings, weights, k)
		require.Len(t, fused, 2)

		byID := map[string]FusedResult{}
		for _, r := range fused {
			byID[r.ID] = r
		}
		assert.InDelta(t, 0.6/(k+1), byID["doc-1"].Score, 1e-12)
		assert.InDelta(t, 0.6/(k+2)+0.2/(k+1), byID["doc-2"].Score, 1e-12)
		assert.Equal(t, []string{SourceSemantic}, byID["doc-1"].Sources)
		assert.Equal(t, []string{SourceSemantic, SourceGraph}, byID["doc-2"].Sources)
	})

	t.Run("multi-source items outrank single-source items at equal rank", func(t *testing.T) {
		rankings := map[string][]ScoredItem{
			SourceSemantic: {{ID: "a"}, {ID: "b"}},
			SourceKeyword:  {{ID: "b"}},
			SourceGraph:    {{ID: "b"}},
		}
		even := map[string]float64{SourceSemantic: 1.0 / 3, SourceKeyword: 1.0 / 3, SourceGraph: 1.0 / 3}
		fused := fuseRRF(rankings, even, k)
		require.Len(t, fused, 2)
		assert.Equal(t, "b", fused[0].ID)
	})

	t.Run("ties break by id ascending", func(t *testing.T) {
		rankings := map[string][]ScoredItem{
			SourceSemantic: {{ID: "zz"}},
			SourceKeyword:  {{ID: "aa"}},
		}
		even := map[string]float64{SourceSemantic: 0.5, SourceKeyword: 0.5}
		fused := fuseRRF(rankings, even, k)
		require.Len(t, fused, 2)
		assert.Equal(t, "aa", fused[0].ID)
		assert.Equal(t, "zz", fused[1].ID)
	})
}

func TestHybridSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("empty query is rejected", func(t *testing.T) {
		svc, _ := newSearchService(t, &fakeSearcher{}, &fakeSearcher{})
		_, err := svc.HybridSearch(ctx, "   ", 0, nil)
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
		assert.Equal(t, appErrors.CodeMissingParameter, appErrors.CodeOf(err))
	})

	t.Run("relational query applies relational weights", func(t *testing.T) {
		svc, _ := newSearchService(t,
			&fakeSearcher{items: []ScoredItem{{ID: "doc-1", Score: 0.9}}},
			&fakeSearcher{items: []ScoredItem{{ID: "doc-2", Score: 0.5}}})

		result, err := svc.HybridSearch(ctx, "how is billing connected to ledger", 10, nil)
		require.NoError(t, err)
		assert.Equal(t, QueryRelational, result.QueryType)
		assert.InDelta(t, 0.4, result.AppliedWeights.Semantic, 1e-9)
		assert.InDelta(t, 0.4, result.AppliedWeights.Graph, 1e-9)
	})

	t.Run("graph source contributes neighbors of mentioned entities", func(t *testing.T) {
		svc, repo := newSearchService(t, &fakeSearcher{}, &fakeSearcher{})
		alice, err := repo.UpsertNode(ctx, "Person", "alice", graph.Properties{})
		require.NoError(t, err)
		project, err := repo.UpsertNode(ctx, "Project", "atlas", graph.Properties{})
		require.NoError(t, err)
		_, err = repo.UpsertEdge(ctx, alice.ID, project.ID, "works_on", 0.9, graph.Properties{}, "")
		require.NoError(t, err)

		result, err := svc.HybridSearch(ctx, "what does Alice work on", 10, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, result.GraphResultsCount)
		require.Len(t, result.Results, 1)
		assert.Equal(t, project.ID, result.Results[0].ID)
		assert.Equal(t, []string{SourceGraph}, result.Results[0].Sources)
	})

	t.Run("failing source degrades instead of failing the query", func(t *testing.T) {
		svc, _ := newSearchService(t,
			&fakeSearcher{err: appErrors.NewTransient("index down", nil)},
			&fakeSearcher{items: []ScoredItem{{ID: "doc-1", Score: 0.9}}})

		result, err := svc.HybridSearch(ctx, "launch notes", 10, nil)
		require.NoError(t, err)
		require.Len(t, result.Results, 1)
		assert.Equal(t, "doc-1", result.Results[0].ID)
		assert.Equal(t, []string{SourceKeyword}, result.Results[0].Sources)
	})

	t.Run("top_k truncates the fused ranking", func(t *testing.T) {
		svc, _ := newSearchService(t,
			&fakeSearcher{items: []ScoredItem{{ID: "a"}, {ID: "b"}, {ID: "c"}}},
			&fakeSearcher{})

		result, err := svc.HybridSearch(ctx, "launch notes", 2, nil)
		require.NoError(t, err)
		assert.Len(t, result.Results, 2)
	})
}
