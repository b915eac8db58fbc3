package normalize

import (
	"strconv"
	"strings"
	"unicode"
)

// HeightCM reads a height such as "195 cm", "195cm" or 195 into centimetres.
// Values outside a plausible human range are rejected.
func HeightCM(raw any) (int, bool) {
	var n int
	switch v := raw.(type) {
	case float64:
		n = int(v)
	case int:
		n = v
	case string:
		digits := strings.TrimSpace(v)
		end := strings.IndexFunc(digits, func(r rune) bool { return !unicode.IsDigit(r) })
		if end >= 0 {
			digits = digits[:end]
		}
		parsed, err := strconv.Atoi(digits)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if n < 100 || n > 250 {
		return 0, false
	}
	return n, true
}

// Foot normalizes a preferred-foot label to "left", "right" or "both".
func Foot(raw any) (string, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "left", "right", "both":
		return f, true
	default:
		return "", false
	}
}
