package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albapepper/gemscout-data/internal/config"
)

// Execer is the slice of *pgxpool.Pool the maintenance tasks need.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// views are refreshed in order after ingestion.
var views = []string{
	config.PlayerDashboardMV,
}

// RefreshMaterializedViews refreshes all materialized views after ingestion,
// then raises dashboards_refreshed. Uses CONCURRENTLY so dashboard reads are
// not blocked during refresh. Call this after a successful batch or ingest
// request.
func RefreshMaterializedViews(ctx context.Context, db Execer, logger *slog.Logger) error {
	for _, v := range views {
		start := time.Now()
		_, err := db.Exec(ctx, fmt.Sprintf("REFRESH MATERIALIZED VIEW CONCURRENTLY %s", v))
		dur := time.Since(start).Round(time.Millisecond)

		if err != nil {
			logger.Warn("Failed to refresh materialized view",
				"view", v, "duration", dur, "error", err)
			return fmt.Errorf("refresh %s: %w", v, err)
		}
		logger.Info("Refreshed materialized view", "view", v, "duration", dur)
	}

	// API listeners drop cached player lists on this channel.
	payload := strings.Join(views, ",")
	if _, err := db.Exec(ctx, "SELECT pg_notify($1, $2)", config.DashboardsRefreshedChannel, payload); err != nil {
		logger.Warn("Failed to announce view refresh", "error", err)
		return fmt.Errorf("notify %s: %w", config.DashboardsRefreshedChannel, err)
	}
	return nil
}
