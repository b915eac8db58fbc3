// Package store defines the persistence port the seed engine writes through.
//
// Adapters live in subpackages (postgres, sqlite). Every write happens inside
// a Tx; nothing is visible to other readers until Commit.
package store

import (
	"context"
	"time"

	"github.com/albapepper/gemscout-data/internal/normalize"
)

// CompetitionType classifies a competition.
type CompetitionType string

const (
	League        CompetitionType = "league"
	DomesticCup   CompetitionType = "domestic_cup"
	Continental   CompetitionType = "continental"
	International CompetitionType = "international"
)

// Valid reports whether t is one of the known competition types.
func (t CompetitionType) Valid() bool {
	switch t {
	case League, DomesticCup, Continental, International:
		return true
	}
	return false
}

// Country is a nationality and a home for teams and competitions.
type Country struct {
	ID        int64
	Name      string
	ISOCode   string
	Continent string
	FlagURL   string
}

// Competition is a league or cup.
type Competition struct {
	ID        int64
	Name      string
	Type      CompetitionType
	CountryID *int64
	LogoURL   string
}

// Team is a club or national side.
type Team struct {
	ID                   int64
	Name                 string
	CountryID            int64
	IsNationalTeam       bool
	CurrentCompetitionID *int64
	LogoURL              string
	FotmobID             *int64
}

// Player is the stored player row. ExternalID is unique across the table.
type Player struct {
	ID                 int64
	ExternalID         int64
	Name               string
	BirthDate          time.Time
	NationalityID      int64
	CurrentTeamID      *int64
	ImageURL           string
	PositionGroup      *normalize.PositionGroup
	SpecificPositions  []string
	HeightCM           *int
	PreferredFoot      string
	ContractExpiry     *time.Time
	CurrentGemScore    *float64
	CurrentMarketValue *int64
}

// SeasonStat is one aggregate row, unique per player, team, competition and
// season.
type SeasonStat struct {
	PlayerID      int64
	TeamID        int64
	CompetitionID int64
	SeasonID      string
	Minutes       int
	Goals         int
	Assists       int
	XG            *float64
	XA            *float64
	Rating        *float64
	YellowCards   int
	RedCards      int
	DetailedStats map[string]any
}

// MatchResult is one team's result against an opponent, unique per team,
// opponent and date.
type MatchResult struct {
	TeamID         int64
	OpponentID     int64
	CompetitionID  int64
	SeasonID       string
	Date           time.Time
	GoalsFor       int
	GoalsAgainst   int
	IsHome         bool
	IsNeutralVenue bool
	XGFor          *float64
	XGAgainst      *float64
	Possession     *float64
}

// Dashboard is the read model served for a single player. ID is the
// external id.
type Dashboard struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Age                *int     `json:"age"`
	Nationality        string   `json:"nationality"`
	ImageURL           *string  `json:"image_url"`
	TeamName           *string  `json:"team_name"`
	PositionGroup      *string  `json:"position_group"`
	SpecificPositions  []string `json:"specific_positions"`
	HeightCM           *int     `json:"height_cm"`
	PreferredFoot      *string  `json:"preferred_foot"`
	CurrentGemScore    *float64 `json:"current_gem_score"`
	CurrentMarketValue *int64   `json:"current_market_value"`
}

// Store opens transactions.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a unit of work. Lookups return found=false (or a nil record) rather
// than an error when the row does not exist.
type Tx interface {
	CountryIDByName(ctx context.Context, name string) (int64, bool, error)
	TeamIDByName(ctx context.Context, name string) (int64, bool, error)
	CompetitionIDByName(ctx context.Context, name string) (int64, bool, error)
	PlayerByExternalID(ctx context.Context, externalID int64) (*Player, error)

	InsertPlayer(ctx context.Context, p *Player) (int64, error)
	UpdatePlayer(ctx context.Context, p *Player) error

	// Ensure* return the id of the row matching the natural key, inserting
	// it when missing. Existing rows are left as they are.
	EnsureCountry(ctx context.Context, c Country) (id int64, created bool, err error)
	EnsureCompetition(ctx context.Context, c Competition) (id int64, created bool, err error)
	EnsureTeam(ctx context.Context, t Team) (id int64, created bool, err error)

	UpsertSeasonStat(ctx context.Context, s SeasonStat) error
	UpsertMatchResult(ctx context.Context, r MatchResult) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Reader serves the read API. Methods return ready-to-send JSON; a nil
// slice with a nil error means not found.
type Reader interface {
	Ping(ctx context.Context) error
	PlayerDashboard(ctx context.Context, externalID int64) ([]byte, error)
	Players(ctx context.Context, limit, offset int) ([]byte, error)
	Teams(ctx context.Context) ([]byte, error)
	Countries(ctx context.Context) ([]byte, error)
}

// AgeOn returns the age in whole years of someone born on birth, as of on.
func AgeOn(birth, on time.Time) int {
	age := on.Year() - birth.Year()
	if on.Month() < birth.Month() || (on.Month() == birth.Month() && on.Day() < birth.Day()) {
		age--
	}
	return age
}
