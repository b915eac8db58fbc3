// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// --------------------------------------------------------------------------
// Table names, matching schema.sql
// --------------------------------------------------------------------------

const (
	CountriesTable    = "countries"
	CompetitionsTable = "competitions"
	TeamsTable        = "teams"
	PlayersTable      = "players"
	SeasonStatsTable  = "player_season_stats"
	MatchResultsTable = "team_match_results"
	PlayerDashboardMV = "mv_player_dashboard"
)

// NOTIFY channels, matching schema.sql
const (
	PlayerUpsertedChannel      = "player_upserted"
	DashboardsRefreshedChannel = "dashboards_refreshed"
)

const (
	DefaultFetchAgent  = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
	DefaultSQLitePath  = "gemscout.db"
	DefaultListenPort  = 8000
	DefaultWorkerCount = 4
)

// --------------------------------------------------------------------------
// Config is populated from environment variables.
// --------------------------------------------------------------------------

type Config struct {
	// Storage
	StoreDriver    string
	DatabaseURL    string
	SQLitePath     string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	LogLevel    slog.Level

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Cache
	CacheEnabled bool

	// Snapshot extraction
	SnapshotContainerPath string

	// Page fetching
	FetchUserAgent         string
	FetchRequestsPerMinute int
	FetchRetries           int
	FetchTimeout           time.Duration

	// Batch ingestion
	IngestWorkers int

	// Materialized view refresh interval for the API process. Zero disables.
	ViewRefreshInterval time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	driver := strings.ToLower(envOr("STORE_DRIVER", DriverPostgres))
	dbURL := envOr("DATABASE_URL", "")

	switch driver {
	case DriverPostgres:
		if dbURL == "" {
			return nil, fmt.Errorf("DATABASE_URL must be set when STORE_DRIVER=%s", DriverPostgres)
		}
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q (want %s or %s)", driver, DriverPostgres, DriverSQLite)
	}

	level, err := parseLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	return &Config{
		StoreDriver:    driver,
		DatabaseURL:    dbURL,
		SQLitePath:     envOr("SQLITE_PATH", DefaultSQLitePath),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", DefaultListenPort)),
		Environment: envOr("ENVIRONMENT", "development"),
		LogLevel:    level,

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CacheEnabled: envBool("CACHE_ENABLED", true),

		SnapshotContainerPath: envOr("SNAPSHOT_CONTAINER_PATH", "props.pageProps.fallback"),

		FetchUserAgent:         envOr("FETCH_USER_AGENT", DefaultFetchAgent),
		FetchRequestsPerMinute: envInt("FETCH_REQUESTS_PER_MINUTE", 20),
		FetchRetries:           envInt("FETCH_RETRIES", 3),
		FetchTimeout:           time.Duration(envInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,

		IngestWorkers: envInt("INGEST_WORKERS", DefaultWorkerCount),

		ViewRefreshInterval: envDuration("VIEW_REFRESH_INTERVAL", 15*time.Minute),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}
