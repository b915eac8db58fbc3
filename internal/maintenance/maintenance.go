// Package maintenance runs periodic background tasks as Go tickers.
// The API is already a long-running service, so scheduled database work is
// driven from here rather than from pg_cron.
package maintenance

import (
	"context"
	"log/slog"
	"time"
)

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	ViewRefreshInterval time.Duration // mv_player_dashboard
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		ViewRefreshInterval: 15 * time.Minute,
	}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, db Execer, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started", "view_refresh", cfg.ViewRefreshInterval)

	tickers := make([]*time.Ticker, 0, 1)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	// Views: catch writes made by other processes (CLI batches, psql)
	if cfg.ViewRefreshInterval > 0 {
		t := time.NewTicker(cfg.ViewRefreshInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() {
			_ = RefreshMaterializedViews(ctx, db, logger)
		})
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}
