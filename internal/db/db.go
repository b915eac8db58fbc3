// Package db provides a pgxpool-based connection pool with prepared statement
// registration, health checking and schema provisioning.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/gemscout-data/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the embedded Postgres schema.
func Schema() string {
	return schemaSQL
}

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool. The schema must already
// be applied: statements are prepared against it on every new connection.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// ApplySchema runs the embedded schema over a dedicated connection. It does
// not go through the pool because pooled connections prepare statements that
// need the tables to exist.
func ApplySchema(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// playerColumns is the column list scanned by the store's player reads.
const playerColumns = `id, fotmob_id, name, birth_date, nationality_id, current_team_id,
	image_url, position_group, specific_positions, height_cm, preferred_foot,
	contract_expiry, current_gem_score, current_market_value`

// dashboardSelect produces the PlayerDashboardResponse shape from live tables.
const dashboardSelect = `
	SELECT p.fotmob_id AS id, p.name,
		date_part('year', age(p.birth_date))::int AS age,
		c.name AS nationality, p.image_url, t.name AS team_name,
		p.position_group, p.specific_positions, p.height_cm, p.preferred_foot,
		p.current_gem_score, p.current_market_value
	FROM ` + config.PlayersTable + ` p
	JOIN ` + config.CountriesTable + ` c ON c.id = p.nationality_id
	LEFT JOIN ` + config.TeamsTable + ` t ON t.id = p.current_team_id`

// registerPreparedStatements registers all statements the API and ingestion
// layers use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Ingestion: natural-key lookups
		"country_id_by_name":     "SELECT id FROM " + config.CountriesTable + " WHERE name = $1",
		"team_id_by_name":        "SELECT id FROM " + config.TeamsTable + " WHERE name = $1",
		"competition_id_by_name": "SELECT id FROM " + config.CompetitionsTable + " WHERE name = $1",

		// Ingestion: players. The row lock keeps same-id writers ordered.
		"player_by_fotmob_id": "SELECT " + playerColumns + " FROM " + config.PlayersTable + " WHERE fotmob_id = $1 FOR UPDATE",
		"insert_player": `
			INSERT INTO ` + config.PlayersTable + ` (
				fotmob_id, name, birth_date, nationality_id, current_team_id,
				image_url, position_group, specific_positions, height_cm,
				preferred_foot, contract_expiry, current_gem_score, current_market_value
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			RETURNING id`,
		"update_player": `
			UPDATE ` + config.PlayersTable + ` SET
				name = $2,
				birth_date = $3,
				nationality_id = $4,
				current_team_id = $5,
				image_url = $6,
				position_group = $7,
				specific_positions = $8,
				height_cm = $9,
				preferred_foot = $10,
				contract_expiry = $11,
				current_gem_score = $12,
				current_market_value = $13,
				updated_at = NOW()
			WHERE id = $1`,

		// Static seed: get-or-create by natural key
		"ensure_country": `
			WITH ins AS (
				INSERT INTO ` + config.CountriesTable + ` (name, iso_code, continent, flag_url)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (name) DO NOTHING
				RETURNING id
			)
			SELECT id, true FROM ins
			UNION ALL
			SELECT id, false FROM ` + config.CountriesTable + ` WHERE name = $1
			LIMIT 1`,
		"ensure_competition": `
			WITH ins AS (
				INSERT INTO ` + config.CompetitionsTable + ` (name, type, country_id, logo_url)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (name) DO NOTHING
				RETURNING id
			)
			SELECT id, true FROM ins
			UNION ALL
			SELECT id, false FROM ` + config.CompetitionsTable + ` WHERE name = $1
			LIMIT 1`,
		"ensure_team": `
			WITH ins AS (
				INSERT INTO ` + config.TeamsTable + ` (name, country_id, is_national_team, current_competition_id, logo_url, fotmob_id)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (name) DO NOTHING
				RETURNING id
			)
			SELECT id, true FROM ins
			UNION ALL
			SELECT id, false FROM ` + config.TeamsTable + ` WHERE name = $1
			LIMIT 1`,

		// Aggregates
		"upsert_season_stat": `
			INSERT INTO ` + config.SeasonStatsTable + ` (
				player_id, team_id, competition_id, season_id, minutes, goals, assists,
				xg, xa, rating, yellow_cards, red_cards, detailed_stats
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			ON CONFLICT (player_id, team_id, competition_id, season_id) DO UPDATE SET
				minutes = EXCLUDED.minutes,
				goals = EXCLUDED.goals,
				assists = EXCLUDED.assists,
				xg = EXCLUDED.xg,
				xa = EXCLUDED.xa,
				rating = EXCLUDED.rating,
				yellow_cards = EXCLUDED.yellow_cards,
				red_cards = EXCLUDED.red_cards,
				detailed_stats = EXCLUDED.detailed_stats,
				updated_at = NOW()`,
		"upsert_match_result": `
			INSERT INTO ` + config.MatchResultsTable + ` (
				team_id, opponent_id, competition_id, season_id, date,
				goals_for, goals_against, is_home, is_neutral_venue,
				xg_for, xg_against, possession
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			ON CONFLICT (team_id, opponent_id, date) DO UPDATE SET
				competition_id = EXCLUDED.competition_id,
				season_id = EXCLUDED.season_id,
				goals_for = EXCLUDED.goals_for,
				goals_against = EXCLUDED.goals_against,
				is_home = EXCLUDED.is_home,
				is_neutral_venue = EXCLUDED.is_neutral_venue,
				xg_for = EXCLUDED.xg_for,
				xg_against = EXCLUDED.xg_against,
				possession = EXCLUDED.possession`,

		// API: dashboards (Postgres returns complete JSON)
		"api_player_dashboard": "SELECT row_to_json(d) FROM (" + dashboardSelect + " WHERE p.fotmob_id = $1) d",
		"api_players": `
			SELECT COALESCE(json_agg(row_to_json(d)), '[]'::json) FROM (
				SELECT fotmob_id AS id, name, age, nationality, image_url, team_name,
					position_group, specific_positions, height_cm, preferred_foot,
					current_gem_score, current_market_value
				FROM ` + config.PlayerDashboardMV + `
				ORDER BY current_market_value DESC NULLS LAST, fotmob_id
				LIMIT $1 OFFSET $2
			) d`,
		"api_teams": `
			SELECT COALESCE(json_agg(row_to_json(d) ORDER BY d.name), '[]'::json) FROM (
				SELECT t.id, t.name, c.name AS country, t.is_national_team, t.logo_url, t.fotmob_id
				FROM ` + config.TeamsTable + ` t
				JOIN ` + config.CountriesTable + ` c ON c.id = t.country_id
			) d`,
		"api_countries": `
			SELECT COALESCE(json_agg(row_to_json(d) ORDER BY d.name), '[]'::json) FROM (
				SELECT id, name, iso_code, continent, flag_url FROM ` + config.CountriesTable + `
			) d`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
