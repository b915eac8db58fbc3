// Package provider defines the canonical shapes scraped sources normalize
// into, plus the source-agnostic tools used to dig them out of loosely typed
// page state: the entity locator and the label/value field resolver.
//
// Source packages (fotmob) return these types; the seed package writes them.
// Adding a source means producing a PlayerProfile, nothing downstream changes.
package provider

import (
	"time"

	"github.com/albapepper/gemscout-data/internal/normalize"
)

// PlayerProfile is a fully normalized player read from one snapshot.
// Pointer and empty-string fields are absent values: the source did not carry
// them or they did not parse.
type PlayerProfile struct {
	ExternalID      int64                    `json:"fotmob_id"`
	Name            string                   `json:"name"`
	BirthDate       *time.Time               `json:"birth_date,omitempty"`
	ContractExpiry  *time.Time               `json:"contract_expiry,omitempty"`
	MarketValue     *int64                   `json:"current_market_value,omitempty"`
	NationalityName string                   `json:"nationality_name,omitempty"`
	TeamName        string                   `json:"team_name,omitempty"`
	PositionLabel   string                   `json:"position_label,omitempty"`
	PositionGroup   *normalize.PositionGroup `json:"position_group,omitempty"`
	HeightCM        *int                     `json:"height_cm,omitempty"`
	PreferredFoot   string                   `json:"preferred_foot,omitempty"`
	ImageURL        string                   `json:"image_url,omitempty"`
}

// SeasonStat is one player's aggregate line for a team, competition and
// season. Tier-one stats are columns; everything else rides in DetailedStats.
type SeasonStat struct {
	PlayerExternalID int64          `json:"fotmob_id"`
	SeasonName       string         `json:"season_name"`
	CompetitionName  string         `json:"competition_name"`
	TeamName         string         `json:"team_name"`
	Minutes          int            `json:"minutes"`
	Goals            int            `json:"goals"`
	Assists          int            `json:"assists"`
	XG               *float64       `json:"xg,omitempty"`
	XA               *float64       `json:"xa,omitempty"`
	Rating           *float64       `json:"rating,omitempty"`
	YellowCards      int            `json:"yellow_cards"`
	RedCards         int            `json:"red_cards"`
	DetailedStats    map[string]any `json:"detailed_stats,omitempty"`
}

// MatchResult is one team's view of a finished match.
type MatchResult struct {
	Date            string   `json:"date"`
	TeamName        string   `json:"team_name"`
	OpponentName    string   `json:"opponent_name"`
	CompetitionName string   `json:"competition_name"`
	SeasonName      string   `json:"season_name"`
	GoalsFor        int      `json:"goals_for"`
	GoalsAgainst    int      `json:"goals_against"`
	IsHome          *bool    `json:"is_home,omitempty"`
	IsNeutralVenue  bool     `json:"is_neutral_venue"`
	XGFor           *float64 `json:"xg_for,omitempty"`
	XGAgainst       *float64 `json:"xg_against,omitempty"`
	Possession      *float64 `json:"possession,omitempty"`
}
