// Package postgres implements the store port on pgx/v5. All statements are
// the prepared statements registered by the db package.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/gemscout-data/internal/normalize"
	"github.com/albapepper/gemscout-data/internal/store"
)

// Store is a store.Store and store.Reader backed by a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Reader = (*Store)(nil)
	_ store.Tx     = (*Tx)(nil)
)

// New wraps a pool whose connections have the db package's prepared
// statements registered.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Begin opens a read-committed transaction.
func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// --------------------------------------------------------------------------
// Reader
// --------------------------------------------------------------------------

func (s *Store) Ping(ctx context.Context) error {
	var n int
	return s.pool.QueryRow(ctx, "health_check").Scan(&n)
}

func (s *Store) PlayerDashboard(ctx context.Context, externalID int64) ([]byte, error) {
	return s.queryJSON(ctx, "api_player_dashboard", externalID)
}

func (s *Store) Players(ctx context.Context, limit, offset int) ([]byte, error) {
	return s.queryJSON(ctx, "api_players", limit, offset)
}

func (s *Store) Teams(ctx context.Context) ([]byte, error) {
	return s.queryJSON(ctx, "api_teams")
}

func (s *Store) Countries(ctx context.Context) ([]byte, error) {
	return s.queryJSON(ctx, "api_countries")
}

// queryJSON runs a statement returning one JSON column and passes the bytes
// through untouched.
func (s *Store) queryJSON(ctx context.Context, stmt string, args ...any) ([]byte, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, stmt, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stmt, err)
	}
	return raw, nil
}

// --------------------------------------------------------------------------
// Tx
// --------------------------------------------------------------------------

// Tx is a store.Tx over a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) CountryIDByName(ctx context.Context, name string) (int64, bool, error) {
	return t.idByName(ctx, "country_id_by_name", name)
}

func (t *Tx) TeamIDByName(ctx context.Context, name string) (int64, bool, error) {
	return t.idByName(ctx, "team_id_by_name", name)
}

func (t *Tx) CompetitionIDByName(ctx context.Context, name string) (int64, bool, error) {
	return t.idByName(ctx, "competition_id_by_name", name)
}

func (t *Tx) idByName(ctx context.Context, stmt, name string) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRow(ctx, stmt, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", stmt, err)
	}
	return id, true, nil
}

func (t *Tx) PlayerByExternalID(ctx context.Context, externalID int64) (*store.Player, error) {
	var (
		p                  store.Player
		image, group, foot *string
		positions          []string
	)
	err := t.tx.QueryRow(ctx, "player_by_fotmob_id", externalID).Scan(
		&p.ID, &p.ExternalID, &p.Name, &p.BirthDate, &p.NationalityID, &p.CurrentTeamID,
		&image, &group, &positions, &p.HeightCM, &foot,
		&p.ContractExpiry, &p.CurrentGemScore, &p.CurrentMarketValue,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("player_by_fotmob_id: %w", err)
	}

	p.ImageURL = deref(image)
	p.PreferredFoot = deref(foot)
	p.SpecificPositions = positions
	if group != nil {
		g := normalize.PositionGroup(*group)
		p.PositionGroup = &g
	}
	return &p, nil
}

func (t *Tx) InsertPlayer(ctx context.Context, p *store.Player) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, "insert_player", playerArgs(p)...).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert_player: %w", err)
	}
	return id, nil
}

func (t *Tx) UpdatePlayer(ctx context.Context, p *store.Player) error {
	args := append([]any{p.ID}, playerArgs(p)[1:]...)
	if _, err := t.tx.Exec(ctx, "update_player", args...); err != nil {
		return fmt.Errorf("update_player: %w", err)
	}
	return nil
}

// playerArgs returns the insert_player parameters; update_player takes the
// same list with the row id in place of fotmob_id.
func playerArgs(p *store.Player) []any {
	var group *string
	if p.PositionGroup != nil {
		s := string(*p.PositionGroup)
		group = &s
	}
	positions := p.SpecificPositions
	if positions == nil {
		positions = []string{}
	}
	return []any{
		p.ExternalID, p.Name, p.BirthDate, p.NationalityID, p.CurrentTeamID,
		nilEmpty(p.ImageURL), group, positions, p.HeightCM,
		nilEmpty(p.PreferredFoot), p.ContractExpiry, p.CurrentGemScore, p.CurrentMarketValue,
	}
}

func (t *Tx) EnsureCountry(ctx context.Context, c store.Country) (int64, bool, error) {
	return t.ensure(ctx, "ensure_country",
		c.Name, nilEmpty(c.ISOCode), nilEmpty(c.Continent), nilEmpty(c.FlagURL))
}

func (t *Tx) EnsureCompetition(ctx context.Context, c store.Competition) (int64, bool, error) {
	return t.ensure(ctx, "ensure_competition",
		c.Name, string(c.Type), c.CountryID, nilEmpty(c.LogoURL))
}

func (t *Tx) EnsureTeam(ctx context.Context, tm store.Team) (int64, bool, error) {
	return t.ensure(ctx, "ensure_team",
		tm.Name, tm.CountryID, tm.IsNationalTeam, tm.CurrentCompetitionID, nilEmpty(tm.LogoURL), tm.FotmobID)
}

func (t *Tx) ensure(ctx context.Context, stmt string, args ...any) (int64, bool, error) {
	var (
		id      int64
		created bool
	)
	if err := t.tx.QueryRow(ctx, stmt, args...).Scan(&id, &created); err != nil {
		return 0, false, fmt.Errorf("%s: %w", stmt, err)
	}
	return id, created, nil
}

func (t *Tx) UpsertSeasonStat(ctx context.Context, s store.SeasonStat) error {
	detailed, err := json.Marshal(nonNilMap(s.DetailedStats))
	if err != nil {
		return fmt.Errorf("marshal detailed stats: %w", err)
	}
	_, err = t.tx.Exec(ctx, "upsert_season_stat",
		s.PlayerID, s.TeamID, s.CompetitionID, s.SeasonID, s.Minutes, s.Goals, s.Assists,
		s.XG, s.XA, s.Rating, s.YellowCards, s.RedCards, detailed,
	)
	if err != nil {
		return fmt.Errorf("upsert_season_stat: %w", err)
	}
	return nil
}

func (t *Tx) UpsertMatchResult(ctx context.Context, r store.MatchResult) error {
	_, err := t.tx.Exec(ctx, "upsert_match_result",
		r.TeamID, r.OpponentID, r.CompetitionID, r.SeasonID, r.Date,
		r.GoalsFor, r.GoalsAgainst, r.IsHome, r.IsNeutralVenue,
		r.XGFor, r.XGAgainst, r.Possession,
	)
	if err != nil {
		return fmt.Errorf("upsert_match_result: %w", err)
	}
	return nil
}

func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *Tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// nilEmpty returns nil for empty strings (maps to SQL NULL).
func nilEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nonNilMap ensures a nil map becomes an empty map for JSON marshaling.
func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
