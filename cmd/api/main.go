// Command api runs the memory retrieval engine: the graph store and
// traversal API plus the hybrid search endpoint.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"synapse-backend/internal/config"
	"synapse-backend/internal/di"
	"synapse-backend/pkg/observability"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := di.InitializeApp(ctx, cfg)
	if err != nil {
		log.Fatalf("initialize: %v", err)
	}
	logger := app.Logger
	defer logger.Sync()
	defer app.Pool.Close()

	if err := app.Watcher.Start(ctx); err != nil {
		logger.Warn("config hot reload unavailable", zap.Error(err))
	}

	var shutdownTracing func(context.Context) error
	if cfg.EnableTracing && cfg.OTLPEndpoint != "" {
		shutdownTracing, err = observability.InitTracing(ctx, "synapse-backend", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("tracing disabled", zap.Error(err))
			shutdownTracing = nil
		}
	}

	server := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      app.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
}
