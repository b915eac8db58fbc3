package normalize

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   int64
		wantOK bool
	}{
		{"euro millions", "€180M", 180_000_000, true},
		{"pound thousands", "£1.5K", 1_500, true},
		{"dollar lower-case suffix", "$2.5m", 2_500_000, true},
		{"symbol with spaces", " € 75 M ", 75_000_000, true},
		{"unit-less string", "250000", 250_000, true},
		{"fractional millions rounds", "€1.15M", 1_150_000, true},
		{"json number", float64(900000), 900_000, true},
		{"empty", "", 0, false},
		{"symbol only", "€", 0, false},
		{"nil", nil, 0, false},
		{"garbage", "priceless", 0, false},
		{"negative", "-5M", 0, false},
		{"nan literal", "NaN", 0, false},
		{"inf literal", "Inf", 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Money(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMoneyNonFiniteNumber(t *testing.T) {
	_, ok := Money(math.Inf(1))
	assert.False(t, ok)
}

func TestDate(t *testing.T) {
	want := time.Date(2000, time.July, 21, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		input  any
		wantOK bool
	}{
		{"plain date", "2000-07-21", true},
		{"utc timestamp", "2000-07-21T00:00:00.000Z", true},
		{"utcTime object", map[string]any{"utcTime": "2000-07-21T00:00:00.000Z"}, true},
		{"offset is dropped not applied", "2000-07-21T23:30:00+02:00", true},
		{"space separated", "2000-07-21 10:00:00", true},
		{"minutes precision", "2000-07-21T10:00", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Date(tt.input)
			require.Equal(t, tt.wantOK, ok)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestDateAbsence(t *testing.T) {
	inputs := []any{
		nil,
		"",
		"21 Jul 2000",
		"not a date",
		"2000-13-45",
		42.0,
		map[string]any{},
		map[string]any{"utcTime": 123.0},
		[]any{"2000-07-21"},
	}
	for _, in := range inputs {
		_, ok := Date(in)
		assert.False(t, ok, "input %#v", in)
	}
}

func TestDateStringAndObjectAgree(t *testing.T) {
	a, okA := Date("2000-07-21")
	b, okB := Date(map[string]any{"utcTime": "2000-07-21T00:00:00.000Z"})
	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, a, b)
}

func TestPosition(t *testing.T) {
	tests := []struct {
		label  string
		want   PositionGroup
		wantOK bool
	}{
		{"Goalkeeper", Goalkeeper, true},
		{"Centre-Back", CentreBack, true},
		{"center back", CentreBack, true},
		{"Left Back", FullBack, true},
		{"Right-Back", FullBack, true},
		{"Defensive Midfielder", Midfielder, true},
		{"Central Midfielder", Midfielder, true},
		{"Attacking Midfielder", WingerAM, true},
		{"Left Winger", WingerAM, true},
		{"Right Wing", WingerAM, true},
		{"Winger", WingerAM, true},
		{"Centre-Forward", Striker, true},
		{"Center Forward", Striker, true},
		{"Striker", Striker, true},
		{"ST", Striker, true},
		{"CF", Striker, true},

		// Overlapping rules: "left wing" is checked before any later rule.
		{"Left Wing-Back", WingerAM, true},
		{"Right Wing Back", WingerAM, true},

		{"Sweeper", "", false},
		{"", "", false},
		{"   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := Position(tt.label)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPositionGroupValid(t *testing.T) {
	for _, g := range PositionGroups {
		assert.True(t, g.Valid(), string(g))
	}
	assert.False(t, PositionGroup("Libero").Valid())
}

func TestHeightCM(t *testing.T) {
	tests := []struct {
		input  any
		want   int
		wantOK bool
	}{
		{"195 cm", 195, true},
		{"181cm", 181, true},
		{float64(170), 170, true},
		{"6'4\"", 0, false},
		{"", 0, false},
		{"12 cm", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := HeightCM(tt.input)
		assert.Equal(t, tt.wantOK, ok, "input %#v", tt.input)
		assert.Equal(t, tt.want, got, "input %#v", tt.input)
	}
}

func TestFoot(t *testing.T) {
	got, ok := Foot("Left")
	require.True(t, ok)
	assert.Equal(t, "left", got)

	_, ok = Foot("Sideways")
	assert.False(t, ok)
	_, ok = Foot(nil)
	assert.False(t, ok)
}
