// Package normalize converts raw scraped values into typed domain values.
//
// Every function here is total: malformed input yields ok=false, never an
// error or a panic. Callers decide what absence means for their record.
package normalize

import "strings"

// PositionGroup is the closed set of canonical position categories used to
// partition players for comparison.
type PositionGroup string

const (
	Goalkeeper PositionGroup = "Goalkeeper"
	CentreBack PositionGroup = "Centre-Back"
	FullBack   PositionGroup = "Full-Back"
	Midfielder PositionGroup = "Midfielder"
	WingerAM   PositionGroup = "Winger_AM"
	Striker    PositionGroup = "Striker"
)

// PositionGroups lists every canonical category in rule-table order.
var PositionGroups = []PositionGroup{Goalkeeper, CentreBack, FullBack, Midfielder, WingerAM, Striker}

// Valid reports whether g is one of the canonical categories.
func (g PositionGroup) Valid() bool {
	for _, known := range PositionGroups {
		if g == known {
			return true
		}
	}
	return false
}

type positionRule struct {
	group    PositionGroup
	contains []string
}

// positionRules is evaluated top to bottom and the first hit wins. Labels
// such as "Left Wing-Back" satisfy more than one rule, so the order is part
// of the contract; changes here need the regression cases in normalize_test.go.
var positionRules = []positionRule{
	{Goalkeeper, []string{"goalkeeper"}},
	{CentreBack, []string{"centre back", "center back"}},
	{FullBack, []string{"left back", "right back"}},
	{Midfielder, []string{"defensive midfield", "central midfield"}},
	{WingerAM, []string{"attacking midfield", "right wing", "left wing", "winger"}},
	{Striker, []string{"center forward", "centre forward", "striker", "cf", "st"}},
}

// Position maps a free-text position label onto a canonical group.
// Hyphens and underscores are treated as spaces so "Centre-Back" and
// "centre back" hit the same rule.
func Position(label string) (PositionGroup, bool) {
	l := canonicalLabel(label)
	if l == "" {
		return "", false
	}
	for _, rule := range positionRules {
		for _, needle := range rule.contains {
			if strings.Contains(l, needle) {
				return rule.group, true
			}
		}
	}
	return "", false
}

func canonicalLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
