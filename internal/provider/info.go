package provider

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Label is the title of an info item. The source emits it either as a plain
// string or as an object with a machine key and a display default; both
// shapes are closed over by TextLabel and KeyedLabel.
type Label interface {
	matches(targets map[string]struct{}) bool
}

// TextLabel is a title given as a bare string.
type TextLabel string

func (l TextLabel) matches(targets map[string]struct{}) bool {
	_, ok := targets[strings.ToLower(string(l))]
	return ok
}

// KeyedLabel is a title given as {"key": ..., "default": ...}. A match on
// either sub-field counts.
type KeyedLabel struct {
	Key     string
	Default string
}

func (l KeyedLabel) matches(targets map[string]struct{}) bool {
	if _, ok := targets[strings.ToLower(l.Key)]; ok {
		return true
	}
	_, ok := targets[strings.ToLower(l.Default)]
	return ok
}

// Value is the payload of an info item: ScalarValue or FallbackValue.
type Value interface {
	resolve() any
}

// ScalarValue is a value given directly as a string, number, bool or null.
type ScalarValue struct {
	Raw any
}

func (v ScalarValue) resolve() any { return v.Raw }

// FallbackValue is a structured value; only its "fallback" scalar is used.
type FallbackValue struct {
	Fallback any
}

func (v FallbackValue) resolve() any { return v.Fallback }

// InfoItem is one entry of a label/value list such as playerInformation.
type InfoItem struct {
	Label Label
	Value Value
}

// ParseInfoItems converts a raw label/value list into InfoItems. Items that
// are not objects or whose title has neither supported shape are dropped.
func ParseInfoItems(list gjson.Result) []InfoItem {
	if !list.IsArray() {
		return nil
	}

	var items []InfoItem
	list.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		label, ok := parseLabel(item.Get("title"))
		if !ok {
			return true
		}
		items = append(items, InfoItem{Label: label, Value: parseValue(item.Get("value"))})
		return true
	})
	return items
}

func parseLabel(r gjson.Result) (Label, bool) {
	switch {
	case r.Type == gjson.String:
		return TextLabel(r.String()), true
	case r.IsObject():
		return KeyedLabel{Key: r.Get("key").String(), Default: r.Get("default").String()}, true
	default:
		return nil, false
	}
}

func parseValue(r gjson.Result) Value {
	if r.IsObject() {
		return FallbackValue{Fallback: Scalar(r.Get("fallback"))}
	}
	return ScalarValue{Raw: Scalar(r)}
}

// Scalar converts a gjson result into the plain Go value normalizers accept:
// string, float64, bool, map[string]any, []any or nil.
func Scalar(r gjson.Result) any {
	if !r.Exists() {
		return nil
	}
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return r.Float()
	case gjson.String:
		return r.String()
	default:
		return r.Value()
	}
}

// Resolve returns the value of the first item whose label matches any of
// targets, compared case-insensitively. No list, no match or a null value
// all resolve to absence.
func Resolve(items []InfoItem, targets ...string) (any, bool) {
	if len(items) == 0 || len(targets) == 0 {
		return nil, false
	}
	want := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		want[strings.ToLower(t)] = struct{}{}
	}

	for _, item := range items {
		if item.Label == nil || !item.Label.matches(want) {
			continue
		}
		if item.Value == nil {
			return nil, false
		}
		v := item.Value.resolve()
		return v, v != nil
	}
	return nil, false
}

// ResolveString is Resolve for callers that want text. Numbers are formatted
// without trailing zeros; other shapes are absent.
func ResolveString(items []InfoItem, targets ...string) (string, bool) {
	v, ok := Resolve(items, targets...)
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, s != ""
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	default:
		return "", false
	}
}
