// Command api is the GemScout Data API server.
//
// Usage:
//
//	gemscout-api
//	API_PORT=8080 STORE_DRIVER=sqlite gemscout-api

// @title GemScout Data API
// @version 1.0.0
// @description Football scouting API: player dashboards read from the store and snapshot ingestion through the upsert engine.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name GemScout
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/gemscout-data/internal/api"
	"github.com/albapepper/gemscout-data/internal/api/handler"
	"github.com/albapepper/gemscout-data/internal/backend"
	"github.com/albapepper/gemscout-data/internal/cache"
	"github.com/albapepper/gemscout-data/internal/config"
	"github.com/albapepper/gemscout-data/internal/listener"
	"github.com/albapepper/gemscout-data/internal/maintenance"

	_ "github.com/albapepper/gemscout-data/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Open the store (schema is applied by `gemscout-ingest schema apply`)
	b, err := backend.Open(ctx, cfg, false, logger)
	if err != nil {
		logger.Error("Failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer b.Close()

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	if b.Pool != nil {
		// Drop cached dashboards when other processes write players
		go listener.Start(ctx, cfg.DatabaseURL, appCache, logger)

		// Start maintenance tickers (materialized view refresh)
		mcfg := maintenance.DefaultConfig()
		mcfg.ViewRefreshInterval = cfg.ViewRefreshInterval
		go maintenance.Start(ctx, b.Pool, mcfg, logger)
	}

	// Create router
	router := api.NewRouter(handler.Deps{
		Reader:      b.Reader,
		Store:       b.Store,
		Cache:       appCache,
		Logger:      logger,
		AfterIngest: b.AfterIngest,
	}, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting GemScout Data API",
			"addr", addr,
			"environment", cfg.Environment,
			"store", cfg.StoreDriver,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
