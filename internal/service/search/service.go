package search

import (
	"context"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"synapse-backend/internal/config"
	"synapse-backend/internal/domain/graph"
	graphsvc "synapse-backend/internal/service/graph"
	appErrors "synapse-backend/pkg/errors"
	"synapse-backend/pkg/observability"
)

// Result is the outcome of one hybrid search.
type Result struct {
	Results           []FusedResult  `json:"results"`
	QueryType         QueryType      `json:"query_type"`
	AppliedWeights    config.Weights `json:"applied_weights"`
	GraphResultsCount int            `json:"graph_results_count"`
}

// Service fuses semantic, keyword and graph retrieval into one ranking.
// The external searchers may be nil when the corresponding index is not
// configured; a missing or failing source simply contributes nothing.
type Service struct {
	semantic Searcher
	keyword  Searcher
	resolver NodeResolver
	explorer GraphExplorer
	cfg      config.Source
	logger   *zap.Logger
	metrics  *observability.Metrics
	tracer   trace.Tracer
}

// NewService creates the hybrid search service.
func NewService(semantic, keyword Searcher, resolver NodeResolver, explorer GraphExplorer,
	cfg config.Source, metrics *observability.Metrics, logger *zap.Logger) *Service {
	return &Service{
		semantic: semantic,
		keyword:  keyword,
		resolver: resolver,
		explorer: explorer,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("synapse-backend/service/search"),
	}
}

// HybridSearch classifies the query, collects per-source rankings and
// fuses them with weighted RRF. Caller weights override the profile
// defaults; see resolveWeights for the merge rules.
func (s *Service) HybridSearch(ctx context.Context, query string, topK int, weights map[string]float64) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, appErrors.NewValidation(appErrors.CodeMissingParameter, "query must not be empty")
	}
	scfg := s.cfg.SearchConfig()
	if topK <= 0 {
		topK = scfg.DefaultTopK
	}
	if scfg.MaxTopK > 0 && topK > scfg.MaxTopK {
		topK = scfg.MaxTopK
	}

	ctx, span := s.tracer.Start(ctx, "search.HybridSearch")
	defer span.End()

	queryType := classify(query, scfg.RelationalKeywords)
	defaults := scfg.StandardWeights
	if queryType == QueryRelational {
		defaults = scfg.RelationalWeights
	}
	applied, usable := resolveWeights(weights, defaults)
	if !usable {
		s.logger.Warn("requested fusion weights unusable, using profile defaults",
			zap.String("code", appErrors.CodeInvalidWeights),
			zap.Any("requested", weights))
	}
	span.SetAttributes(
		attribute.String("search.query_type", string(queryType)),
		attribute.Int("search.top_k", topK),
	)

	rankings := make(map[string][]ScoredItem)
	if items, ok := s.searchSource(ctx, SourceSemantic, s.semantic, query, topK); ok {
		rankings[SourceSemantic] = items
	}
	if items, ok := s.searchSource(ctx, SourceKeyword, s.keyword, query, topK); ok {
		rankings[SourceKeyword] = items
	}
	graphItems := s.graphCandidates(ctx, query, scfg, topK)
	if len(graphItems) > 0 {
		rankings[SourceGraph] = graphItems
	}

	fused := fuseRRF(rankings, weightsMap(applied), scfg.RRFConstant)
	if len(fused) > topK {
		fused = fused[:topK]
	}

	if s.metrics != nil {
		s.metrics.SearchQueries.WithLabelValues(string(queryType)).Inc()
	}
	s.logger.Debug("hybrid search complete",
		zap.String("query_type", string(queryType)),
		zap.Int("results", len(fused)),
		zap.Int("graph_candidates", len(graphItems)))

	return &Result{
		Results:           fused,
		QueryType:         queryType,
		AppliedWeights:    applied,
		GraphResultsCount: len(graphItems),
	}, nil
}

// searchSource queries one external index. Failures are logged, counted
// and degrade to an absent source rather than failing the whole query.
func (s *Service) searchSource(ctx context.Context, name string, searcher Searcher, query string, topK int) ([]ScoredItem, bool) {
	if searcher == nil {
		return nil, false
	}
	items, err := searcher.Search(ctx, query, topK)
	if err != nil {
		if s.metrics != nil {
			s.metrics.SearchSourceFailures.WithLabelValues(name).Inc()
		}
		s.logger.Warn("search source failed, degrading",
			zap.String("source", name), zap.Error(err))
		return nil, false
	}
	return items, true
}

// graphCandidates turns entity mentions into a ranked list: each mention
// is resolved to a node, its depth-1 neighbors become candidates scored
// by edge weight. A candidate's identity is its vector id when the node
// carries one, so graph hits fuse with the external indexes' documents;
// nodes without one rank under their node id.
func (s *Service) graphCandidates(ctx context.Context, query string, scfg config.Search, topK int) []ScoredItem {
	entities := extractEntities(query, scfg.MinProperNounLength)
	if len(entities) == 0 {
		return nil
	}

	best := make(map[string]float64)
	for _, entity := range entities {
		node, err := s.resolveEntity(ctx, entity)
		if err != nil {
			if !appErrors.IsNotFound(err) {
				s.logger.Warn("entity resolution failed",
					zap.String("entity", entity), zap.Error(err))
			}
			continue
		}
		neighbors, err := s.explorer.QueryNeighbors(ctx, node.ID, graphsvc.NeighborOptions{MaxDepth: 1})
		if err != nil {
			s.logger.Warn("graph source query failed",
				zap.String("entity", entity), zap.Error(err))
			continue
		}
		for _, n := range neighbors {
			id := n.VectorID
			if id == "" {
				id = n.NodeID
			}
			if n.Weight > best[id] {
				best[id] = n.Weight
			}
		}
	}
	if len(best) == 0 {
		return nil
	}

	items := make([]ScoredItem, 0, len(best))
	for id, score := range best {
		items = append(items, ScoredItem{ID: id, Score: score})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	if len(items) > topK {
		items = items[:topK]
	}
	return items
}

// resolveEntity tries the mention as written, then lowercased. Node
// names in the store are commonly normalized to lower case while queries
// capitalize them.
func (s *Service) resolveEntity(ctx context.Context, entity string) (*graph.Node, error) {
	node, err := s.resolver.FindNodeByName(ctx, entity)
	if err == nil {
		return node, nil
	}
	if !appErrors.IsNotFound(err) {
		return nil, err
	}
	lowered := strings.ToLower(entity)
	if lowered == entity {
		return nil, err
	}
	node, lowerErr := s.resolver.FindNodeByName(ctx, lowered)
	if lowerErr != nil {
		return nil, err
	}
	return node, nil
}
