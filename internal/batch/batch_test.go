package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/gemscout-data/internal/seed"
	"github.com/albapepper/gemscout-data/internal/store/sqlite"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func setup(t *testing.T) *sqlite.Store {
	t.Helper()
	ctx := context.Background()
	st, err := sqlite.Open(ctx, sqlite.Memory)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cat, err := seed.ParseCatalogue([]byte(`
countries:
  - name: England
competitions:
  - name: Premier League
    country: England
    teams: [Arsenal]
`))
	require.NoError(t, err)
	_, err = seed.SeedStatic(ctx, st, cat, quiet)
	require.NoError(t, err)
	return st
}

func playerPage(id int, name, nationality string) Source {
	return Source{
		Label: fmt.Sprintf("player-%d.json", id),
		Data: []byte(fmt.Sprintf(`{"props":{"pageProps":{"fallback":{
			"team-1": {"name": "Arsenal", "id": 9825},
			"player-%d": {
				"id": %d,
				"name": %q,
				"birthDate": {"utcTime": "2001-09-05T00:00:00.000Z"},
				"primaryTeam": {"teamName": "Arsenal"},
				"meta": {"personJSONLD": {"nationality": {"name": %q}}},
				"positionDescription": {"primaryPosition": {"label": "Right Winger"}}
			}
		}}}}`, id, id, name, nationality)),
	}
}

func TestRun(t *testing.T) {
	st := setup(t)

	sources := []Source{
		playerPage(1, "One", "England"),
		playerPage(2, "Two", "England"),
		playerPage(1, "One Renamed", "England"),
		playerPage(3, "Three", "Wakanda"),
		{Label: "broken.json", Data: []byte(`{"props":`)},
		{Label: "team.json", Data: []byte(`{"props":{"pageProps":{"fallback":{"t":{"name":"Arsenal"}}}}}`)},
	}

	res := Run(context.Background(), st, sources, Options{Workers: 4}, quiet)

	_, err := uuid.Parse(res.RunID)
	assert.NoError(t, err)
	assert.Equal(t, 6, res.Sources)
	assert.Equal(t, 3, res.Groups)
	assert.Equal(t, 2, res.PlayersCreated)
	assert.Equal(t, 1, res.PlayersUpdated)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, res.Errors, 2)
	assert.Len(t, res.Items, 6)

	statuses := map[string]int{}
	for _, it := range res.Items {
		statuses[it.Status]++
	}
	assert.Equal(t, map[string]int{
		seed.StatusCreated:  2,
		seed.StatusUpdated:  1,
		seed.StatusRejected: 1,
		seed.StatusSkipped:  1,
		seed.StatusFailed:   1,
	}, statuses)

	var name string
	require.NoError(t, st.DB().QueryRow("SELECT name FROM players WHERE fotmob_id = 1").Scan(&name))
	assert.Equal(t, "One Renamed", name, "same-id sources apply in order")
}

func TestRunIsIdempotent(t *testing.T) {
	st := setup(t)
	sources := []Source{playerPage(10, "Ten", "England"), playerPage(11, "Eleven", "England")}

	first := Run(context.Background(), st, sources, Options{Workers: 2}, quiet)
	second := Run(context.Background(), st, sources, Options{Workers: 2}, quiet)

	assert.Equal(t, 2, first.PlayersCreated)
	assert.Equal(t, 0, second.PlayersCreated)
	assert.Equal(t, 2, second.PlayersUpdated)
	assert.NotEqual(t, first.RunID, second.RunID)

	var n int
	require.NoError(t, st.DB().QueryRow("SELECT COUNT(*) FROM players").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestRunAfterCommit(t *testing.T) {
	st := setup(t)

	calls := 0
	hook := func(context.Context) error {
		calls++
		return errors.New("view refresh failed")
	}

	res := Run(context.Background(), st, []Source{playerPage(5, "Five", "England")},
		Options{AfterCommit: hook}, quiet)
	assert.Equal(t, 1, calls)
	assert.Contains(t, res.Errors, "after commit: view refresh failed")

	res = Run(context.Background(), st, []Source{playerPage(6, "Six", "Narnia")},
		Options{AfterCommit: hook}, quiet)
	assert.Equal(t, 1, calls, "hook is skipped when nothing was written")
	assert.Equal(t, 1, res.Rejected)
}

func TestRunEmpty(t *testing.T) {
	st := setup(t)
	res := Run(context.Background(), st, nil, Options{}, quiet)
	assert.Zero(t, res.Groups)
	assert.Empty(t, res.Items)
	assert.Contains(t, res.Summary(), "sources=0")
}
