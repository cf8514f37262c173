//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"synapse-backend/internal/config"
	"synapse-backend/internal/handlers"
	"synapse-backend/pkg/observability"
)

// InitializeApp wires the full application graph.
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, error) {
	wire.Build(
		NewLogger,
		NewPool,
		NewWatcher,
		NewGraphRepository,
		NewStatsUpdater,
		NewGraphService,
		NewSearchService,
		observability.NewMetrics,
		handlers.NewGraphHandler,
		handlers.NewSearchHandler,
		NewRouter,
		NewApp,
	)
	return nil, nil
}
