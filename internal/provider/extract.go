package provider

import (
	"math"
	"strconv"
	"strings"
)

// ExtractValue normalizes a stat value from the shapes scraped stat blocks
// use.
//
// Stat cells arrive as plain numbers, numeric strings ("7.4", "63%") or
// objects such as {"value": 12, "per90": 0.4} / {"total": 15}. This handles
// all of them, extracting the aggregate.
//
// Returns the scalar float64 value, and ok=false if not extractable.
func ExtractValue(val any) (float64, bool) {
	if val == nil {
		return 0, false
	}

	switch v := val.(type) {
	case float64:
		return finite(v)
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(v), "%")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return finite(f)
		}
		return 0, false
	case map[string]any:
		for _, key := range []string{"value", "total", "all", "count", "average"} {
			if inner, exists := v[key]; exists && inner != nil {
				return ExtractValue(inner)
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

// ExtractStats flattens a detailed-stats blob to numeric values, dropping
// entries that carry no extractable number.
func ExtractStats(raw map[string]any) map[string]float64 {
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		if f, ok := ExtractValue(v); ok {
			out[k] = f
		}
	}
	return out
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
