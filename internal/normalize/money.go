package normalize

import (
	"math"
	"strconv"
	"strings"
)

var currencySymbols = strings.NewReplacer("€", "", "£", "", "$", "")

// Money parses a display amount such as "€180M", "£1.5K" or "250000" into a
// whole-unit amount in the document's reporting currency.
//
// JSON numbers are accepted as already unit-less amounts. Empty strings,
// negative or non-finite values and anything strconv cannot read yield
// ok=false.
func Money(raw any) (int64, bool) {
	switch v := raw.(type) {
	case string:
		return parseMoneyText(v)
	case float64:
		return wholeAmount(v)
	case int:
		return wholeAmount(float64(v))
	case int64:
		return wholeAmount(float64(v))
	default:
		return 0, false
	}
}

func parseMoneyText(s string) (int64, bool) {
	clean := strings.ToUpper(strings.TrimSpace(currencySymbols.Replace(s)))
	if clean == "" {
		return 0, false
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(clean, "M"):
		multiplier = 1_000_000
		clean = strings.TrimSuffix(clean, "M")
	case strings.HasSuffix(clean, "K"):
		multiplier = 1_000
		clean = strings.TrimSuffix(clean, "K")
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(clean), 64)
	if err != nil {
		return 0, false
	}
	return wholeAmount(f * multiplier)
}

func wholeAmount(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt64/2 {
		return 0, false
	}
	return int64(math.Round(f)), true
}
