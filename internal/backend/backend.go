// Package backend opens the configured store driver for the commands.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/albapepper/gemscout-data/internal/config"
	"github.com/albapepper/gemscout-data/internal/db"
	"github.com/albapepper/gemscout-data/internal/maintenance"
	"github.com/albapepper/gemscout-data/internal/store"
	"github.com/albapepper/gemscout-data/internal/store/postgres"
	"github.com/albapepper/gemscout-data/internal/store/sqlite"
)

// Backend is an opened store with the driver-specific extras.
type Backend struct {
	Store  store.Store
	Reader store.Reader
	// Pool is nil for SQLite.
	Pool   *db.Pool
	logger *slog.Logger
	close  func()
}

// Open connects to the store named by cfg.StoreDriver. For Postgres the
// embedded schema is applied first when applySchema is set.
func Open(ctx context.Context, cfg *config.Config, applySchema bool, logger *slog.Logger) (*Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		st, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("SQLite store opened", "path", cfg.SQLitePath)
		return &Backend{Store: st, Reader: st, logger: logger, close: func() { st.Close() }}, nil

	case config.DriverPostgres:
		if applySchema {
			if err := db.ApplySchema(ctx, cfg.DatabaseURL); err != nil {
				return nil, err
			}
			logger.Info("Schema applied")
		}
		pool, err := db.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		logger.Info("Database connected",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)
		st := postgres.New(pool.Pool)
		return &Backend{Store: st, Reader: st, Pool: pool, logger: logger, close: pool.Close}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

// AfterIngest refreshes derived read models after writes. It is a no-op on
// SQLite, where dashboards are computed on read.
func (b *Backend) AfterIngest(ctx context.Context) error {
	if b.Pool == nil {
		return nil
	}
	return maintenance.RefreshMaterializedViews(ctx, b.Pool, b.logger)
}

// Close releases the store.
func (b *Backend) Close() {
	b.close()
}
