// Command ingest is the GemScout data ingestion CLI.
//
// Usage:
//
//	gemscout-ingest schema apply
//	gemscout-ingest seed static [--file catalogue.yaml]
//	gemscout-ingest player haaland.html
//	gemscout-ingest batch --workers 8 'snapshots/*.json'
//	gemscout-ingest url https://www.fotmob.com/players/737066/erling-haaland
//	gemscout-ingest stats season-stats.json
//	gemscout-ingest results match-results.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/gemscout-data/internal/backend"
	"github.com/albapepper/gemscout-data/internal/batch"
	"github.com/albapepper/gemscout-data/internal/config"
	"github.com/albapepper/gemscout-data/internal/db"
	"github.com/albapepper/gemscout-data/internal/provider"
	"github.com/albapepper/gemscout-data/internal/provider/fotmob"
	"github.com/albapepper/gemscout-data/internal/seed"
	"github.com/albapepper/gemscout-data/internal/snapshot"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "gemscout-ingest",
		Short:         "GemScout data ingestion CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(schemaCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(playerCmd())
	root.AddCommand(batchCmd())
	root.AddCommand(urlCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(resultsCmd())

	if err := root.Execute(); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// schema command
// --------------------------------------------------------------------------

func schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "apply",
		Short: "Create tables, constraints and views (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(true, func(ctx context.Context, cfg *config.Config, b *backend.Backend) error {
				// SQLite applies its schema on open.
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "print",
		Short: "Print the Postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), db.Schema())
			return err
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// seed command
// --------------------------------------------------------------------------

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed reference data",
	}
	cmd.AddCommand(seedStaticCmd())
	return cmd
}

func seedStaticCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "static",
		Short: "Get-or-create countries, competitions and teams from a YAML catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalogue(file)
			if err != nil {
				return err
			}
			return run(false, func(ctx context.Context, cfg *config.Config, b *backend.Backend) error {
				start := time.Now()
				result, err := seed.SeedStatic(ctx, b.Store, cat, logger)
				if err != nil {
					return err
				}
				logger.Info("Static seed finished",
					"duration", time.Since(start).Round(time.Millisecond),
					"summary", result.Summary())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Catalogue YAML (default: embedded England/Premier League catalogue)")
	return cmd
}

func loadCatalogue(file string) (*seed.Catalogue, error) {
	if file == "" {
		return seed.DefaultCatalogue()
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read catalogue: %w", err)
	}
	return seed.ParseCatalogue(data)
}

// --------------------------------------------------------------------------
// player / batch / url commands
// --------------------------------------------------------------------------

func playerCmd() *cobra.Command {
	var container string
	cmd := &cobra.Command{
		Use:   "player FILE",
		Short: "Ingest one saved player page (HTML) or __NEXT_DATA__ JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			doc, err := snapshot.Load(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return run(false, func(ctx context.Context, cfg *config.Config, b *backend.Backend) error {
				return ingestOne(ctx, b, doc, containerOr(container, cfg), args[0])
			})
		},
	}
	cmd.Flags().StringVar(&container, "container", "", "gjson path of the entity container")
	return cmd
}

func urlCmd() *cobra.Command {
	var container string
	cmd := &cobra.Command{
		Use:   "url URL",
		Short: "Fetch a player page and ingest it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false, func(ctx context.Context, cfg *config.Config, b *backend.Backend) error {
				client := fotmob.NewClient(fotmob.ClientOptions{
					UserAgent:         cfg.FetchUserAgent,
					RequestsPerMinute: cfg.FetchRequestsPerMinute,
					Retries:           cfg.FetchRetries,
					Timeout:           cfg.FetchTimeout,
				}, logger)
				doc, err := client.FetchSnapshot(ctx, args[0])
				if err != nil {
					return err
				}
				return ingestOne(ctx, b, doc, containerOr(container, cfg), args[0])
			})
		},
	}
	cmd.Flags().StringVar(&container, "container", "", "gjson path of the entity container")
	return cmd
}

func ingestOne(ctx context.Context, b *backend.Backend, doc *snapshot.Document, container, label string) error {
	start := time.Now()
	out, err := seed.IngestSnapshot(ctx, b.Store, doc, container)
	status := seed.Classify(out, err)
	if err != nil {
		var rej *seed.RejectionError
		if errors.As(err, &rej) {
			logger.Warn("Player rejected",
				"source", label, "fotmob_id", rej.ExternalID,
				"precondition", rej.Precondition, "value", rej.Value)
		}
		return fmt.Errorf("%s: %s: %w", label, status, err)
	}
	if err := b.AfterIngest(ctx); err != nil {
		logger.Warn("Post-ingest hook failed", "error", err)
	}
	logger.Info("Player ingested",
		"source", label, "fotmob_id", out.ExternalID, "status", status,
		"team_linked", out.TeamLinked, "position_mapped", out.PositionMapped,
		"duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func batchCmd() *cobra.Command {
	var (
		container string
		workers   int
	)
	cmd := &cobra.Command{
		Use:   "batch PATH|GLOB...",
		Short: "Ingest many saved snapshots concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := readSources(args)
			if err != nil {
				return err
			}
			return run(false, func(ctx context.Context, cfg *config.Config, b *backend.Backend) error {
				if workers <= 0 {
					workers = cfg.IngestWorkers
				}
				result := batch.Run(ctx, b.Store, sources, batch.Options{
					Workers:       workers,
					ContainerPath: containerOr(container, cfg),
					AfterCommit:   b.AfterIngest,
				}, logger)
				for _, e := range result.Errors {
					logger.Error("ingest error", "error", e)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&container, "container", "", "gjson path of the entity container")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent worker count (default INGEST_WORKERS)")
	return cmd
}

// readSources expands each argument as a glob and reads every match.
func readSources(patterns []string) ([]batch.Source, error) {
	var sources []batch.Source
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		for _, path := range matches {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			sources = append(sources, batch.Source{Label: path, Data: data})
		}
	}
	return sources, nil
}

// --------------------------------------------------------------------------
// stats / results commands
// --------------------------------------------------------------------------

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats FILE",
		Short: "Upsert season aggregates from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats []provider.SeasonStat
			if err := readJSON(args[0], &stats); err != nil {
				return err
			}
			return run(false, func(ctx context.Context, cfg *config.Config, b *backend.Backend) error {
				start := time.Now()
				result := seed.SeedSeasonStats(ctx, b.Store, stats, logger)
				logSeedResult("Season stats finished", start, result)
				return nil
			})
		},
	}
}

func resultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "results FILE",
		Short: "Upsert team match results from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var results []provider.MatchResult
			if err := readJSON(args[0], &results); err != nil {
				return err
			}
			return run(false, func(ctx context.Context, cfg *config.Config, b *backend.Backend) error {
				start := time.Now()
				result := seed.SeedMatchResults(ctx, b.Store, results, logger)
				logSeedResult("Match results finished", start, result)
				return nil
			})
		},
	}
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func logSeedResult(msg string, start time.Time, result seed.SeedResult) {
	logger.Info(msg,
		"duration", time.Since(start).Round(time.Millisecond),
		"summary", result.Summary())
	for _, e := range result.Errors {
		logger.Error("seed error", "error", e)
	}
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

func containerOr(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.SnapshotContainerPath
}

// run handles config loading, store connection, and context cancellation.
func run(applySchema bool, fn func(ctx context.Context, cfg *config.Config, b *backend.Backend) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	b, err := backend.Open(ctx, cfg, applySchema, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	return fn(ctx, cfg, b)
}
