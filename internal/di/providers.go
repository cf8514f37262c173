// Package di assembles the application object graph with google/wire.
package di

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"synapse-backend/internal/config"
	"synapse-backend/internal/handlers"
	"synapse-backend/internal/middleware"
	"synapse-backend/internal/repository"
	"synapse-backend/internal/repository/postgres"
	graphsvc "synapse-backend/internal/service/graph"
	"synapse-backend/internal/service/search"
	"synapse-backend/pkg/api"
	appErrors "synapse-backend/pkg/errors"
	"synapse-backend/pkg/observability"
)

// App bundles everything main needs to run and shut down the service.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Router  chi.Router
	Pool    *pgxpool.Pool
	Watcher *config.Watcher
	Metrics *observability.Metrics
}

// NewLogger builds the zap logger for the configured environment.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// NewPool connects to PostgreSQL and runs the idempotent schema
// migration.
func NewPool(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := postgres.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, appErrors.Wrap(err, "connect to postgres")
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, appErrors.Wrap(err, "apply graph schema")
	}
	logger.Info("connected to postgres",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Name))
	return pool, nil
}

// NewWatcher seeds the config watcher with the loaded configuration.
func NewWatcher(cfg *config.Config, logger *zap.Logger) *config.Watcher {
	return config.NewWatcher(cfg, logger)
}

// NewGraphRepository exposes the Postgres store through the repository
// interface.
func NewGraphRepository(pool *pgxpool.Pool, logger *zap.Logger) repository.GraphRepository {
	return postgres.NewStore(pool, logger)
}

// NewStatsUpdater builds the access-stats updater.
func NewStatsUpdater(repo repository.GraphRepository, logger *zap.Logger) *graphsvc.StatsUpdater {
	return graphsvc.NewStatsUpdater(repo, logger)
}

// NewGraphService builds the traversal service.
func NewGraphService(repo repository.GraphRepository, stats *graphsvc.StatsUpdater,
	watcher *config.Watcher, logger *zap.Logger) *graphsvc.Service {
	return graphsvc.NewService(repo, stats, watcher, logger)
}

// NewSearchService builds the hybrid search service. External searchers
// are only wired when their index URL is configured; each one sits
// behind a circuit breaker.
func NewSearchService(cfg *config.Config, repo repository.GraphRepository,
	explorer *graphsvc.Service, watcher *config.Watcher,
	metrics *observability.Metrics, logger *zap.Logger) *search.Service {
	var semantic, keyword search.Searcher
	if url := cfg.Search.SemanticSearchURL; url != "" {
		semantic = search.NewBreakerSearcher("semantic", search.NewHTTPSearcher(url), logger)
	}
	if url := cfg.Search.KeywordSearchURL; url != "" {
		keyword = search.NewBreakerSearcher("keyword", search.NewHTTPSearcher(url), logger)
	}
	return search.NewService(semantic, keyword, repo, explorer, watcher, metrics, logger)
}

// NewRouter assembles the chi router with the full middleware chain.
func NewRouter(cfg *config.Config, graphHandler *handlers.GraphHandler,
	searchHandler *handlers.SearchHandler, metrics *observability.Metrics,
	logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	if cfg.EnableMetrics {
		r.Use(middleware.Metrics(metrics))
	}
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	if cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.EnableMetrics {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		graphHandler.RegisterRoutes(r)
		searchHandler.RegisterRoutes(r)
	})
	return r
}

// NewApp bundles the wired components.
func NewApp(cfg *config.Config, logger *zap.Logger, router chi.Router,
	pool *pgxpool.Pool, watcher *config.Watcher, metrics *observability.Metrics) *App {
	return &App{
		Config:  cfg,
		Logger:  logger,
		Router:  router,
		Pool:    pool,
		Watcher: watcher,
		Metrics: metrics,
	}
}
