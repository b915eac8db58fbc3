// Package handler provides HTTP handlers for all API endpoints.
// Read handlers pass store-built JSON straight through; the ingest handler
// runs the same upsert engine the CLI uses.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/albapepper/gemscout-data/internal/api/respond"
	"github.com/albapepper/gemscout-data/internal/cache"
	"github.com/albapepper/gemscout-data/internal/config"
	"github.com/albapepper/gemscout-data/internal/store"
)

// Deps are the handler's collaborators. AfterIngest is optional and runs
// after every successful ingest (the Postgres build refreshes views there).
type Deps struct {
	Reader      store.Reader
	Store       store.Store
	Cache       *cache.Cache
	Config      *config.Config
	Logger      *slog.Logger
	AfterIngest func(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	reader      store.Reader
	store       store.Store
	cache       *cache.Cache
	cfg         *config.Config
	logger      *slog.Logger
	afterIngest func(ctx context.Context) error
	locks       *keyedMutex
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		reader:      d.Reader,
		store:       d.Store,
		cache:       d.Cache,
		cfg:         d.Config,
		logger:      logger,
		afterIngest: d.AfterIngest,
		locks:       newKeyedMutex(),
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status, and the active store driver.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"name":    "GemScout Data API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
		"store":   h.cfg.StoreDriver,
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies store connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.reader.Ping(r.Context()); err != nil {
		h.logger.Warn("Database health check failed", "error", err)
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics (active keys, expired keys).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
