package provider

import (
	"errors"

	"github.com/tidwall/gjson"

	"github.com/albapepper/gemscout-data/internal/snapshot"
)

// ErrEntityNotFound means no container entry matched the signature. It is a
// normal outcome for pages that do not describe the expected entity kind.
var ErrEntityNotFound = errors.New("entity not found in document")

// Signature describes the fields an entity-of-interest must carry.
//
// The container mixes players, teams and competitions under opaque keys and
// all of them have a "name", so Identity alone is never enough: at least one
// of AnyOf must be present too.
type Signature struct {
	Identity string
	AnyOf    []string
}

// Matches reports whether v is an object satisfying the signature.
func (s Signature) Matches(v gjson.Result) bool {
	if !v.IsObject() || !v.Get(s.Identity).Exists() {
		return false
	}
	for _, field := range s.AnyOf {
		if v.Get(field).Exists() {
			return true
		}
	}
	return false
}

// Candidate is the container entry selected as the entity-of-interest.
type Candidate struct {
	Key   string
	Value gjson.Result
}

// Get reads a gjson path relative to the candidate.
func (c Candidate) Get(path string) gjson.Result {
	return c.Value.Get(path)
}

// Locate returns the first entry, in container order, matching sig.
func Locate(entries []snapshot.Entry, sig Signature) (Candidate, error) {
	for _, e := range entries {
		if sig.Matches(e.Value) {
			return Candidate{Key: e.Key, Value: e.Value}, nil
		}
	}
	return Candidate{}, ErrEntityNotFound
}
