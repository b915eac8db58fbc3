package normalize

import (
	"strings"
	"time"
)

// dateLayouts are tried in order after sub-second and zone suffixes have been
// removed.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Date parses either a date-like string ("2000-07-21",
// "2000-07-21T00:00:00.000Z") or an object carrying one under "utcTime".
// The result is a calendar date at UTC midnight; the source zone is dropped,
// not converted.
func Date(raw any) (time.Time, bool) {
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case map[string]any:
		inner, ok := v["utcTime"].(string)
		if !ok {
			return time.Time{}, false
		}
		s = inner
	default:
		return time.Time{}, false
	}

	s = stripZone(strings.TrimSpace(s))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// stripZone removes a trailing "Z", fractional seconds and any numeric
// offset that follows the time component.
func stripZone(s string) string {
	s = strings.TrimSuffix(s, "Z")
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	if t := strings.IndexAny(s, "T "); t >= 0 {
		if z := strings.IndexAny(s[t:], "+-"); z >= 0 {
			s = s[:t+z]
		}
	}
	return s
}
