package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURLForPostgres(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadSQLiteDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, DefaultSQLitePath, cfg.SQLitePath)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "props.pageProps.fallback", cfg.SnapshotContainerPath)
	assert.Equal(t, DefaultWorkerCount, cfg.IngestWorkers)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/gemscout")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("API_PORT", "9090")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("INGEST_WORKERS", "not-a-number")
	t.Setenv("VIEW_REFRESH_INTERVAL", "0s")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 9090, cfg.APIPort)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
	assert.False(t, cfg.RateLimitEnabled)
	assert.Equal(t, DefaultWorkerCount, cfg.IngestWorkers)
	assert.Zero(t, cfg.ViewRefreshInterval)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mysql")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("LOG_LEVEL", "loud")
	_, err := Load()
	assert.Error(t, err)
}
