// Package graph implements the traversal-facing operations of the memory
// engine: multi-hop neighbor queries, shortest-path search between named
// nodes and the best-effort access bookkeeping both feed.
package graph

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"synapse-backend/internal/config"
	"synapse-backend/internal/domain/graph"
	"synapse-backend/internal/repository"
	appErrors "synapse-backend/pkg/errors"
)

// NeighborOptions controls a neighbor traversal.
type NeighborOptions struct {
	// Relation restricts expansion to edges with this relation. Empty
	// means all relations.
	Relation string
	// MaxDepth is the number of hops to traverse, 1 when zero.
	MaxDepth int
	// Direction selects which edge endpoints count as neighbors.
	// Defaults to DirectionBoth.
	Direction graph.Direction
	// Filter is the parsed property filter applied to edge properties.
	Filter graph.Filter
	// IncludeSuperseded keeps edges that another edge's supersedes array
	// points at. Off by default.
	IncludeSuperseded bool
}

// Service executes graph read operations against a GraphRepository.
type Service struct {
	repo   repository.GraphRepository
	stats  *StatsUpdater
	cfg    config.Source
	logger *zap.Logger
	tracer trace.Tracer
}

// NewService creates the graph query service.
func NewService(repo repository.GraphRepository, stats *StatsUpdater, cfg config.Source, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		stats:  stats,
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("synapse-backend/service/graph"),
	}
}

// normalizeNeighborOptions applies defaults and validates without touching
// storage. Validation failures must cost zero reads.
func (s *Service) normalizeNeighborOptions(opts NeighborOptions) (NeighborOptions, error) {
	if opts.MaxDepth == 0 {
		opts.MaxDepth = 1
	}
	maxDepth := s.cfg.GraphConfig().MaxTraversalDepth
	if opts.MaxDepth < 1 || opts.MaxDepth > maxDepth {
		return opts, appErrors.NewValidation(appErrors.CodeInvalidDepth,
			fmt.Sprintf("max_depth must be between 1 and %d, got %d", maxDepth, opts.MaxDepth))
	}
	if opts.Direction == "" {
		opts.Direction = graph.DirectionBoth
	}
	if !opts.Direction.Valid() {
		return opts, appErrors.NewValidation(appErrors.CodeInvalidDirection,
			fmt.Sprintf("direction must be out, in or both, got %q", opts.Direction))
	}
	return opts, nil
}
