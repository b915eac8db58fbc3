package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/gemscout-data/internal/normalize"
	"github.com/albapepper/gemscout-data/internal/store"
)

type fixture struct {
	st      *Store
	england int64
	arsenal int64
	chelsea int64
	prem    int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	st, err := Open(ctx, Memory)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	st.now = func() time.Time { return time.Date(2025, time.September, 4, 12, 0, 0, 0, time.UTC) }

	f := &fixture{st: st}
	tx, err := st.Begin(ctx)
	require.NoError(t, err)
	f.england, _, err = tx.EnsureCountry(ctx, store.Country{Name: "England", ISOCode: "ENG"})
	require.NoError(t, err)
	f.prem, _, err = tx.EnsureCompetition(ctx, store.Competition{Name: "Premier League", Type: store.League, CountryID: &f.england})
	require.NoError(t, err)
	f.arsenal, _, err = tx.EnsureTeam(ctx, store.Team{Name: "Arsenal", CountryID: f.england, CurrentCompetitionID: &f.prem})
	require.NoError(t, err)
	f.chelsea, _, err = tx.EnsureTeam(ctx, store.Team{Name: "Chelsea", CountryID: f.england, CurrentCompetitionID: &f.prem})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	return f
}

func (f *fixture) insertPlayer(t *testing.T, p *store.Player) int64 {
	t.Helper()
	ctx := context.Background()
	tx, err := f.st.Begin(ctx)
	require.NoError(t, err)
	id, err := tx.InsertPlayer(ctx, p)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	return id
}

func TestEnsureIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.st.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	id, created, err := tx.EnsureCountry(ctx, store.Country{Name: "England", ISOCode: "GBR"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, f.england, id)

	id, created, err = tx.EnsureTeam(ctx, store.Team{Name: "Arsenal", CountryID: f.england})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, f.arsenal, id)

	_, found, err := tx.TeamIDByName(ctx, "arsenal")
	require.NoError(t, err)
	assert.False(t, found, "name lookups are exact")
}

func TestPlayerRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	group := normalize.WingerAM
	contract := time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)
	value := int64(130_500_000)
	height := 178
	in := &store.Player{
		ExternalID:         1083323,
		Name:               "Bukayo Saka",
		BirthDate:          time.Date(2001, time.September, 5, 0, 0, 0, 0, time.UTC),
		NationalityID:      f.england,
		CurrentTeamID:      &f.arsenal,
		PositionGroup:      &group,
		SpecificPositions:  []string{"Right Winger"},
		HeightCM:           &height,
		PreferredFoot:      "left",
		ContractExpiry:     &contract,
		CurrentMarketValue: &value,
	}
	in.ID = f.insertPlayer(t, in)

	tx, err := f.st.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	out, err := tx.PlayerByExternalID(ctx, 1083323)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in, out)

	missing, err := tx.PlayerByExternalID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdatePlayerClearsNullableFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	value := int64(1_000_000)
	p := &store.Player{
		ExternalID:         42,
		Name:               "Academy Prospect",
		BirthDate:          time.Date(2008, time.January, 2, 0, 0, 0, 0, time.UTC),
		NationalityID:      f.england,
		CurrentMarketValue: &value,
	}
	p.ID = f.insertPlayer(t, p)

	p.CurrentMarketValue = nil
	p.CurrentTeamID = &f.chelsea
	tx, err := f.st.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpdatePlayer(ctx, p))
	got, err := tx.PlayerByExternalID(ctx, 42)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	assert.Nil(t, got.CurrentMarketValue)
	require.NotNil(t, got.CurrentTeamID)
	assert.Equal(t, f.chelsea, *got.CurrentTeamID)
	assert.Equal(t, []string{}, got.SpecificPositions)
}

func TestDuplicateExternalIDIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := &store.Player{
		ExternalID:    7,
		Name:          "A",
		BirthDate:     time.Date(1999, time.March, 1, 0, 0, 0, 0, time.UTC),
		NationalityID: f.england,
	}
	f.insertPlayer(t, p)

	tx, err := f.st.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	_, err = tx.InsertPlayer(ctx, p)
	assert.Error(t, err)
}

func TestMatchResultAgainstItselfViolatesCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.st.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	err = tx.UpsertMatchResult(ctx, store.MatchResult{
		TeamID:        f.arsenal,
		OpponentID:    f.arsenal,
		CompetitionID: f.prem,
		SeasonID:      "2024/2025",
		Date:          time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.Error(t, err)
}

func TestReader(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	group := normalize.WingerAM
	rich := int64(130_000_000)
	f.insertPlayer(t, &store.Player{
		ExternalID:         1083323,
		Name:               "Bukayo Saka",
		BirthDate:          time.Date(2001, time.September, 5, 0, 0, 0, 0, time.UTC),
		NationalityID:      f.england,
		CurrentTeamID:      &f.arsenal,
		PositionGroup:      &group,
		SpecificPositions:  []string{"Right Winger"},
		CurrentMarketValue: &rich,
	})
	f.insertPlayer(t, &store.Player{
		ExternalID:    99,
		Name:          "Unvalued",
		BirthDate:     time.Date(2005, time.May, 1, 0, 0, 0, 0, time.UTC),
		NationalityID: f.england,
	})

	require.NoError(t, f.st.Ping(ctx))

	t.Run("dashboard", func(t *testing.T) {
		raw, err := f.st.PlayerDashboard(ctx, 1083323)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"id": 1083323,
			"name": "Bukayo Saka",
			"age": 23,
			"nationality": "England",
			"image_url": null,
			"team_name": "Arsenal",
			"position_group": "Winger_AM",
			"specific_positions": ["Right Winger"],
			"height_cm": null,
			"preferred_foot": null,
			"current_gem_score": null,
			"current_market_value": 130000000
		}`, string(raw))

		raw, err = f.st.PlayerDashboard(ctx, 5)
		require.NoError(t, err)
		assert.Nil(t, raw)
	})

	t.Run("players ordered by value", func(t *testing.T) {
		raw, err := f.st.Players(ctx, 10, 0)
		require.NoError(t, err)
		var ds []store.Dashboard
		require.NoError(t, json.Unmarshal(raw, &ds))
		require.Len(t, ds, 2)
		assert.Equal(t, int64(1083323), ds[0].ID)
		assert.Equal(t, int64(99), ds[1].ID)

		raw, err = f.st.Players(ctx, 10, 5)
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(raw))
	})

	t.Run("teams and countries", func(t *testing.T) {
		raw, err := f.st.Teams(ctx)
		require.NoError(t, err)
		var teams []teamRow
		require.NoError(t, json.Unmarshal(raw, &teams))
		require.Len(t, teams, 2)
		assert.Equal(t, "Arsenal", teams[0].Name)
		assert.Equal(t, "England", teams[0].Country)

		raw, err = f.st.Countries(ctx)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id": 1, "name": "England", "iso_code": "ENG", "continent": null, "flag_url": null}]`, string(raw))
	})
}

func TestOpenFileReappliesSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gemscout.db")

	st, err := Open(ctx, path)
	require.NoError(t, err)
	tx, err := st.Begin(ctx)
	require.NoError(t, err)
	_, _, err = tx.EnsureCountry(ctx, store.Country{Name: "Wales"})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, st.Close())

	st, err = Open(ctx, path)
	require.NoError(t, err)
	defer st.Close()

	raw, err := st.Countries(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"Wales"`)
}
