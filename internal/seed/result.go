// Package seed writes normalized records through the store port: the player
// upsert engine, static reference data and season aggregates.
package seed

import "fmt"

// SeedResult tracks counts and errors from a seeding operation.
type SeedResult struct {
	CountriesCreated     int
	CompetitionsCreated  int
	TeamsCreated         int
	PlayersCreated       int
	PlayersUpdated       int
	SeasonStatsUpserted  int
	MatchResultsUpserted int
	Skipped              int
	Rejected             int
	Errors               []string
}

// Add merges another SeedResult into this one.
func (r *SeedResult) Add(other SeedResult) {
	r.CountriesCreated += other.CountriesCreated
	r.CompetitionsCreated += other.CompetitionsCreated
	r.TeamsCreated += other.TeamsCreated
	r.PlayersCreated += other.PlayersCreated
	r.PlayersUpdated += other.PlayersUpdated
	r.SeasonStatsUpserted += other.SeasonStatsUpserted
	r.MatchResultsUpserted += other.MatchResultsUpserted
	r.Skipped += other.Skipped
	r.Rejected += other.Rejected
	r.Errors = append(r.Errors, other.Errors...)
}

// AddOutcome counts a successful player upsert.
func (r *SeedResult) AddOutcome(o Outcome) {
	if o.Created {
		r.PlayersCreated++
	} else {
		r.PlayersUpdated++
	}
}

// AddError records an error message.
func (r *SeedResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddErrorf records a formatted error message.
func (r *SeedResult) AddErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the seed operation.
func (r *SeedResult) Summary() string {
	return fmt.Sprintf(
		"countries=%d competitions=%d teams=%d players_created=%d players_updated=%d season_stats=%d match_results=%d skipped=%d rejected=%d errors=%d",
		r.CountriesCreated, r.CompetitionsCreated, r.TeamsCreated,
		r.PlayersCreated, r.PlayersUpdated,
		r.SeasonStatsUpserted, r.MatchResultsUpserted,
		r.Skipped, r.Rejected, len(r.Errors),
	)
}
