// Package sqlite implements the store port on modernc.org/sqlite for local
// runs and tests. Dates are stored as YYYY-MM-DD text and list columns as
// JSON text.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/albapepper/gemscout-data/internal/normalize"
	"github.com/albapepper/gemscout-data/internal/store"
)

//go:embed schema.sql
var schema string

const dateLayout = "2006-01-02"

// Memory is the path that opens a private in-memory database.
const Memory = ":memory:"

// Store is a store.Store and store.Reader backed by a single SQLite
// connection. Transactions are serialized by the connection limit.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Reader = (*Store)(nil)
	_ store.Tx     = (*Tx)(nil)
)

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := "file::memory:?_pragma=foreign_keys(1)"
	if path != Memory {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the handle for tests and ad-hoc inspection.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// --------------------------------------------------------------------------
// Reader
// --------------------------------------------------------------------------

const dashboardSelect = `
	SELECT p.fotmob_id, p.name, p.birth_date, c.name, p.image_url, t.name,
		p.position_group, p.specific_positions, p.height_cm, p.preferred_foot,
		p.current_gem_score, p.current_market_value
	FROM players p
	JOIN countries c ON c.id = p.nationality_id
	LEFT JOIN teams t ON t.id = p.current_team_id`

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) PlayerDashboard(ctx context.Context, externalID int64) ([]byte, error) {
	rows, err := s.db.QueryContext(ctx, dashboardSelect+" WHERE p.fotmob_id = ?", externalID)
	if err != nil {
		return nil, fmt.Errorf("player dashboard: %w", err)
	}
	ds, err := s.scanDashboards(rows)
	if err != nil || len(ds) == 0 {
		return nil, err
	}
	return json.Marshal(ds[0])
}

func (s *Store) Players(ctx context.Context, limit, offset int) ([]byte, error) {
	rows, err := s.db.QueryContext(ctx,
		dashboardSelect+" ORDER BY p.current_market_value DESC NULLS LAST, p.fotmob_id LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("players: %w", err)
	}
	ds, err := s.scanDashboards(rows)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		ds = []store.Dashboard{}
	}
	return json.Marshal(ds)
}

func (s *Store) scanDashboards(rows *sql.Rows) ([]store.Dashboard, error) {
	defer rows.Close()
	var out []store.Dashboard
	for rows.Next() {
		var (
			d                        store.Dashboard
			birth, positions         string
			image, team, group, foot sql.NullString
			height, marketValue      sql.NullInt64
			gemScore                 sql.NullFloat64
		)
		if err := rows.Scan(&d.ID, &d.Name, &birth, &d.Nationality, &image, &team,
			&group, &positions, &height, &foot, &gemScore, &marketValue); err != nil {
			return nil, fmt.Errorf("scan dashboard: %w", err)
		}
		if b, err := time.Parse(dateLayout, birth); err == nil {
			age := store.AgeOn(b, s.now().UTC())
			d.Age = &age
		}
		d.ImageURL = nullString(image)
		d.TeamName = nullString(team)
		d.PositionGroup = nullString(group)
		d.PreferredFoot = nullString(foot)
		if height.Valid {
			h := int(height.Int64)
			d.HeightCM = &h
		}
		if gemScore.Valid {
			d.CurrentGemScore = &gemScore.Float64
		}
		if marketValue.Valid {
			d.CurrentMarketValue = &marketValue.Int64
		}
		d.SpecificPositions = decodeList(positions)
		out = append(out, d)
	}
	return out, rows.Err()
}

type teamRow struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Country        string  `json:"country"`
	IsNationalTeam bool    `json:"is_national_team"`
	LogoURL        *string `json:"logo_url"`
	FotmobID       *int64  `json:"fotmob_id"`
}

func (s *Store) Teams(ctx context.Context) ([]byte, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, c.name, t.is_national_team, t.logo_url, t.fotmob_id
		FROM teams t JOIN countries c ON c.id = t.country_id
		ORDER BY t.name`)
	if err != nil {
		return nil, fmt.Errorf("teams: %w", err)
	}
	defer rows.Close()

	out := []teamRow{}
	for rows.Next() {
		var (
			t    teamRow
			logo sql.NullString
			fm   sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Country, &t.IsNationalTeam, &logo, &fm); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		t.LogoURL = nullString(logo)
		if fm.Valid {
			t.FotmobID = &fm.Int64
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

type countryRow struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	ISOCode   *string `json:"iso_code"`
	Continent *string `json:"continent"`
	FlagURL   *string `json:"flag_url"`
}

func (s *Store) Countries(ctx context.Context) ([]byte, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, iso_code, continent, flag_url FROM countries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("countries: %w", err)
	}
	defer rows.Close()

	out := []countryRow{}
	for rows.Next() {
		var (
			c                    countryRow
			iso, continent, flag sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &iso, &continent, &flag); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		c.ISOCode = nullString(iso)
		c.Continent = nullString(continent)
		c.FlagURL = nullString(flag)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// --------------------------------------------------------------------------
// Tx
// --------------------------------------------------------------------------

// Tx is a store.Tx over a database/sql transaction.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) CountryIDByName(ctx context.Context, name string) (int64, bool, error) {
	return t.idByName(ctx, "countries", name)
}

func (t *Tx) TeamIDByName(ctx context.Context, name string) (int64, bool, error) {
	return t.idByName(ctx, "teams", name)
}

func (t *Tx) CompetitionIDByName(ctx context.Context, name string) (int64, bool, error) {
	return t.idByName(ctx, "competitions", name)
}

// idByName looks up a row by its unique name. table is always a constant.
func (t *Tx) idByName(ctx context.Context, table, name string) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, "SELECT id FROM "+table+" WHERE name = ?", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%s by name: %w", table, err)
	}
	return id, true, nil
}

func (t *Tx) PlayerByExternalID(ctx context.Context, externalID int64) (*store.Player, error) {
	var (
		p                  store.Player
		birth, positions   string
		teamID, height, mv sql.NullInt64
		image, group, foot sql.NullString
		contract           sql.NullString
		gem                sql.NullFloat64
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, fotmob_id, name, birth_date, nationality_id, current_team_id,
			image_url, position_group, specific_positions, height_cm, preferred_foot,
			contract_expiry, current_gem_score, current_market_value
		FROM players WHERE fotmob_id = ?`, externalID).Scan(
		&p.ID, &p.ExternalID, &p.Name, &birth, &p.NationalityID, &teamID,
		&image, &group, &positions, &height, &foot,
		&contract, &gem, &mv,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("player by fotmob id: %w", err)
	}

	if p.BirthDate, err = time.Parse(dateLayout, birth); err != nil {
		return nil, fmt.Errorf("player %d birth_date %q: %w", externalID, birth, err)
	}
	if contract.Valid {
		if d, err := time.Parse(dateLayout, contract.String); err == nil {
			p.ContractExpiry = &d
		}
	}
	if teamID.Valid {
		p.CurrentTeamID = &teamID.Int64
	}
	if height.Valid {
		h := int(height.Int64)
		p.HeightCM = &h
	}
	if mv.Valid {
		p.CurrentMarketValue = &mv.Int64
	}
	if gem.Valid {
		p.CurrentGemScore = &gem.Float64
	}
	if group.Valid {
		g := normalize.PositionGroup(group.String)
		p.PositionGroup = &g
	}
	p.ImageURL = image.String
	p.PreferredFoot = foot.String
	p.SpecificPositions = decodeList(positions)
	return &p, nil
}

func (t *Tx) InsertPlayer(ctx context.Context, p *store.Player) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO players (
			fotmob_id, name, birth_date, nationality_id, current_team_id,
			image_url, position_group, specific_positions, height_cm,
			preferred_foot, contract_expiry, current_gem_score, current_market_value
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`, playerArgs(p)...)
	if err != nil {
		return 0, fmt.Errorf("insert player: %w", err)
	}
	return res.LastInsertId()
}

func (t *Tx) UpdatePlayer(ctx context.Context, p *store.Player) error {
	args := append(playerArgs(p)[1:], p.ID)
	_, err := t.tx.ExecContext(ctx, `
		UPDATE players SET
			name = ?, birth_date = ?, nationality_id = ?, current_team_id = ?,
			image_url = ?, position_group = ?, specific_positions = ?, height_cm = ?,
			preferred_foot = ?, contract_expiry = ?, current_gem_score = ?,
			current_market_value = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	return nil
}

func playerArgs(p *store.Player) []any {
	var group any
	if p.PositionGroup != nil {
		group = string(*p.PositionGroup)
	}
	var contract any
	if p.ContractExpiry != nil {
		contract = p.ContractExpiry.Format(dateLayout)
	}
	return []any{
		p.ExternalID, p.Name, p.BirthDate.Format(dateLayout), p.NationalityID, p.CurrentTeamID,
		nilEmpty(p.ImageURL), group, encodeList(p.SpecificPositions), p.HeightCM,
		nilEmpty(p.PreferredFoot), contract, p.CurrentGemScore, p.CurrentMarketValue,
	}
}

func (t *Tx) EnsureCountry(ctx context.Context, c store.Country) (int64, bool, error) {
	return t.ensure(ctx, "countries", c.Name,
		`INSERT INTO countries (name, iso_code, continent, flag_url) VALUES (?,?,?,?)`,
		c.Name, nilEmpty(c.ISOCode), nilEmpty(c.Continent), nilEmpty(c.FlagURL))
}

func (t *Tx) EnsureCompetition(ctx context.Context, c store.Competition) (int64, bool, error) {
	return t.ensure(ctx, "competitions", c.Name,
		`INSERT INTO competitions (name, type, country_id, logo_url) VALUES (?,?,?,?)`,
		c.Name, string(c.Type), c.CountryID, nilEmpty(c.LogoURL))
}

func (t *Tx) EnsureTeam(ctx context.Context, tm store.Team) (int64, bool, error) {
	return t.ensure(ctx, "teams", tm.Name,
		`INSERT INTO teams (name, country_id, is_national_team, current_competition_id, logo_url, fotmob_id)
		 VALUES (?,?,?,?,?,?)`,
		tm.Name, tm.CountryID, tm.IsNationalTeam, tm.CurrentCompetitionID, nilEmpty(tm.LogoURL), tm.FotmobID)
}

func (t *Tx) ensure(ctx context.Context, table, name, insert string, args ...any) (int64, bool, error) {
	id, found, err := t.idByName(ctx, table, name)
	if err != nil || found {
		return id, false, err
	}
	res, err := t.tx.ExecContext(ctx, insert, args...)
	if err != nil {
		return 0, false, fmt.Errorf("insert into %s: %w", table, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (t *Tx) UpsertSeasonStat(ctx context.Context, s store.SeasonStat) error {
	detailed := s.DetailedStats
	if detailed == nil {
		detailed = map[string]any{}
	}
	raw, err := json.Marshal(detailed)
	if err != nil {
		return fmt.Errorf("marshal detailed stats: %w", err)
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO player_season_stats (
			player_id, team_id, competition_id, season_id, minutes, goals, assists,
			xg, xa, rating, yellow_cards, red_cards, detailed_stats
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT (player_id, team_id, competition_id, season_id) DO UPDATE SET
			minutes = excluded.minutes,
			goals = excluded.goals,
			assists = excluded.assists,
			xg = excluded.xg,
			xa = excluded.xa,
			rating = excluded.rating,
			yellow_cards = excluded.yellow_cards,
			red_cards = excluded.red_cards,
			detailed_stats = excluded.detailed_stats,
			updated_at = CURRENT_TIMESTAMP`,
		s.PlayerID, s.TeamID, s.CompetitionID, s.SeasonID, s.Minutes, s.Goals, s.Assists,
		s.XG, s.XA, s.Rating, s.YellowCards, s.RedCards, string(raw),
	)
	if err != nil {
		return fmt.Errorf("upsert season stat: %w", err)
	}
	return nil
}

func (t *Tx) UpsertMatchResult(ctx context.Context, r store.MatchResult) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO team_match_results (
			team_id, opponent_id, competition_id, season_id, date,
			goals_for, goals_against, is_home, is_neutral_venue,
			xg_for, xg_against, possession
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT (team_id, opponent_id, date) DO UPDATE SET
			competition_id = excluded.competition_id,
			season_id = excluded.season_id,
			goals_for = excluded.goals_for,
			goals_against = excluded.goals_against,
			is_home = excluded.is_home,
			is_neutral_venue = excluded.is_neutral_venue,
			xg_for = excluded.xg_for,
			xg_against = excluded.xg_against,
			possession = excluded.possession`,
		r.TeamID, r.OpponentID, r.CompetitionID, r.SeasonID, r.Date.Format(dateLayout),
		r.GoalsFor, r.GoalsAgainst, r.IsHome, r.IsNeutralVenue,
		r.XGFor, r.XGAgainst, r.Possession,
	)
	if err != nil {
		return fmt.Errorf("upsert match result: %w", err)
	}
	return nil
}

func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit()
}

func (t *Tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback()
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func nilEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func encodeList(l []string) string {
	if l == nil {
		l = []string{}
	}
	raw, _ := json.Marshal(l)
	return string(raw)
}

func decodeList(raw string) []string {
	out := []string{}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}
