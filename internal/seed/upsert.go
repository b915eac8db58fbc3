package seed

import (
	"context"

	"github.com/albapepper/gemscout-data/internal/provider"
	"github.com/albapepper/gemscout-data/internal/store"
)

// Outcome confirms a persisted player.
type Outcome struct {
	PlayerID   int64
	ExternalID int64
	Created    bool
	// TeamLinked is false when the profile's team was absent or unknown.
	TeamLinked bool
	// PositionMapped is false when the label produced no position group and
	// the stored group was left as it was.
	PositionMapped bool
}

// UpsertPlayer persists one profile keyed by its external id, inside a single
// transaction. It returns a *RejectionError (matching ErrPreconditionFailed)
// when the nationality is unknown or the birth date is missing, and an error
// matching ErrStorage when the store fails. Either way nothing is written.
//
// Callers must not run two upserts for the same external id at once.
func UpsertPlayer(ctx context.Context, st store.Store, p provider.PlayerProfile) (Outcome, error) {
	if p.ExternalID <= 0 {
		return Outcome{}, reject(p.ExternalID, PreconditionExternalID, "")
	}

	var out Outcome
	err := inTx(ctx, st, func(tx store.Tx) error {
		var err error
		out, err = upsertPlayerTx(ctx, tx, p)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func upsertPlayerTx(ctx context.Context, tx store.Tx, p provider.PlayerProfile) (Outcome, error) {
	out := Outcome{ExternalID: p.ExternalID}

	// 1. Nationality is required and never created here.
	if p.NationalityName == "" {
		return out, reject(p.ExternalID, PreconditionNationality, "")
	}
	nationalityID, found, err := tx.CountryIDByName(ctx, p.NationalityName)
	if err != nil {
		return out, storageErr("country lookup", err)
	}
	if !found {
		return out, reject(p.ExternalID, PreconditionNationality, p.NationalityName)
	}

	// 2. Team is optional.
	var teamID *int64
	if p.TeamName != "" {
		id, found, err := tx.TeamIDByName(ctx, p.TeamName)
		if err != nil {
			return out, storageErr("team lookup", err)
		}
		if found {
			teamID = &id
		}
	}

	// 3. Birth date is required.
	if p.BirthDate == nil {
		return out, reject(p.ExternalID, PreconditionBirthDate, "")
	}

	// 4. Update in place or create, through the same assignment.
	existing, err := tx.PlayerByExternalID(ctx, p.ExternalID)
	if err != nil {
		return out, storageErr("player lookup", err)
	}
	rec := existing
	if rec == nil {
		rec = &store.Player{ExternalID: p.ExternalID}
	}
	assignPlayer(rec, p, nationalityID, teamID)

	if existing == nil {
		id, err := tx.InsertPlayer(ctx, rec)
		if err != nil {
			return out, storageErr("insert player", err)
		}
		rec.ID = id
		out.Created = true
	} else if err := tx.UpdatePlayer(ctx, rec); err != nil {
		return out, storageErr("update player", err)
	}

	out.PlayerID = rec.ID
	out.TeamLinked = teamID != nil
	out.PositionMapped = p.PositionGroup != nil
	return out, nil
}

// assignPlayer copies a profile onto a stored record. Identity and the
// lifecycle fields are last-write-wins; optional enrichment (team, position,
// physical data, image) only overwrites when the new value is present.
func assignPlayer(rec *store.Player, p provider.PlayerProfile, nationalityID int64, teamID *int64) {
	rec.Name = p.Name
	rec.BirthDate = *p.BirthDate
	rec.NationalityID = nationalityID
	rec.ContractExpiry = p.ContractExpiry
	rec.CurrentMarketValue = p.MarketValue

	if teamID != nil {
		rec.CurrentTeamID = teamID
	}
	if p.PositionGroup != nil {
		g := *p.PositionGroup
		rec.PositionGroup = &g
	}
	if p.PositionLabel != "" {
		rec.SpecificPositions = []string{p.PositionLabel}
	}
	if p.HeightCM != nil {
		rec.HeightCM = p.HeightCM
	}
	if p.PreferredFoot != "" {
		rec.PreferredFoot = p.PreferredFoot
	}
	if p.ImageURL != "" {
		rec.ImageURL = p.ImageURL
	}
}
