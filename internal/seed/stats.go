package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/albapepper/gemscout-data/internal/normalize"
	"github.com/albapepper/gemscout-data/internal/provider"
	"github.com/albapepper/gemscout-data/internal/store"
)

// UpsertSeasonStat writes one season aggregate, keyed by player, team,
// competition and season. The player must already be ingested and the team
// and competition seeded; otherwise a *RejectionError is returned.
func UpsertSeasonStat(ctx context.Context, st store.Store, s provider.SeasonStat) error {
	return inTx(ctx, st, func(tx store.Tx) error {
		if strings.TrimSpace(s.SeasonName) == "" {
			return reject(s.PlayerExternalID, PreconditionSeason, "")
		}
		player, err := tx.PlayerByExternalID(ctx, s.PlayerExternalID)
		if err != nil {
			return storageErr("player lookup", err)
		}
		if player == nil {
			return reject(s.PlayerExternalID, PreconditionPlayer, fmt.Sprint(s.PlayerExternalID))
		}
		teamID, err := requireID(ctx, tx.TeamIDByName, s.PlayerExternalID, PreconditionTeam, s.TeamName)
		if err != nil {
			return err
		}
		compID, err := requireID(ctx, tx.CompetitionIDByName, s.PlayerExternalID, PreconditionCompetition, s.CompetitionName)
		if err != nil {
			return err
		}

		detailed := make(map[string]any, len(s.DetailedStats))
		for k, v := range provider.ExtractStats(s.DetailedStats) {
			detailed[k] = v
		}

		if err := tx.UpsertSeasonStat(ctx, store.SeasonStat{
			PlayerID:      player.ID,
			TeamID:        teamID,
			CompetitionID: compID,
			SeasonID:      s.SeasonName,
			Minutes:       s.Minutes,
			Goals:         s.Goals,
			Assists:       s.Assists,
			XG:            s.XG,
			XA:            s.XA,
			Rating:        s.Rating,
			YellowCards:   s.YellowCards,
			RedCards:      s.RedCards,
			DetailedStats: detailed,
		}); err != nil {
			return storageErr("upsert season stat", err)
		}
		return nil
	})
}

// RecordMatchResult writes one team's view of a match, keyed by team,
// opponent and date. A team cannot face itself.
func RecordMatchResult(ctx context.Context, st store.Store, r provider.MatchResult) error {
	date, ok := normalize.Date(r.Date)
	if !ok {
		return reject(0, PreconditionDate, r.Date)
	}
	if strings.TrimSpace(r.SeasonName) == "" {
		return reject(0, PreconditionSeason, "")
	}

	return inTx(ctx, st, func(tx store.Tx) error {
		teamID, err := requireID(ctx, tx.TeamIDByName, 0, PreconditionTeam, r.TeamName)
		if err != nil {
			return err
		}
		oppID, err := requireID(ctx, tx.TeamIDByName, 0, PreconditionOpponent, r.OpponentName)
		if err != nil {
			return err
		}
		if teamID == oppID {
			return reject(0, PreconditionOpponent, r.OpponentName)
		}
		compID, err := requireID(ctx, tx.CompetitionIDByName, 0, PreconditionCompetition, r.CompetitionName)
		if err != nil {
			return err
		}

		isHome := true
		if r.IsHome != nil {
			isHome = *r.IsHome
		}
		if err := tx.UpsertMatchResult(ctx, store.MatchResult{
			TeamID:         teamID,
			OpponentID:     oppID,
			CompetitionID:  compID,
			SeasonID:       r.SeasonName,
			Date:           date,
			GoalsFor:       r.GoalsFor,
			GoalsAgainst:   r.GoalsAgainst,
			IsHome:         isHome,
			IsNeutralVenue: r.IsNeutralVenue,
			XGFor:          r.XGFor,
			XGAgainst:      r.XGAgainst,
			Possession:     r.Possession,
		}); err != nil {
			return storageErr("upsert match result", err)
		}
		return nil
	})
}

// SeedSeasonStats upserts each aggregate in its own transaction and collects
// failures instead of stopping.
func SeedSeasonStats(ctx context.Context, st store.Store, stats []provider.SeasonStat, logger *slog.Logger) SeedResult {
	var result SeedResult
	for _, s := range stats {
		if err := UpsertSeasonStat(ctx, st, s); err != nil {
			countFailure(&result, err)
			result.AddErrorf("season stat %d %s/%s: %v", s.PlayerExternalID, s.CompetitionName, s.SeasonName, err)
			continue
		}
		result.SeasonStatsUpserted++
	}
	logger.Info("Season stats done", "upserted", result.SeasonStatsUpserted, "errors", len(result.Errors))
	return result
}

// SeedMatchResults records each result in its own transaction and collects
// failures instead of stopping.
func SeedMatchResults(ctx context.Context, st store.Store, results []provider.MatchResult, logger *slog.Logger) SeedResult {
	var result SeedResult
	for _, r := range results {
		if err := RecordMatchResult(ctx, st, r); err != nil {
			countFailure(&result, err)
			result.AddErrorf("match %s %s vs %s: %v", r.Date, r.TeamName, r.OpponentName, err)
			continue
		}
		result.MatchResultsUpserted++
	}
	logger.Info("Match results done", "upserted", result.MatchResultsUpserted, "errors", len(result.Errors))
	return result
}

func countFailure(r *SeedResult, err error) {
	if Classify(Outcome{}, err) == StatusRejected {
		r.Rejected++
	}
}

// requireID resolves a required natural key or rejects with precondition.
func requireID(
	ctx context.Context,
	lookup func(context.Context, string) (int64, bool, error),
	externalID int64,
	precondition, name string,
) (int64, error) {
	if name == "" {
		return 0, reject(externalID, precondition, "")
	}
	id, found, err := lookup(ctx, name)
	if err != nil {
		return 0, storageErr(precondition+" lookup", err)
	}
	if !found {
		return 0, reject(externalID, precondition, name)
	}
	return id, nil
}

// inTx runs fn in a transaction, committing on success and rolling back on
// any error.
func inTx(ctx context.Context, st store.Store, fn func(tx store.Tx) error) error {
	tx, err := st.Begin(ctx)
	if err != nil {
		return storageErr("begin", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return storageErr("commit", err)
	}
	return nil
}
