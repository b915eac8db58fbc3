// Package snapshot holds a decoded page-state document and exposes its
// opaque cache container as an ordered list of entries.
//
// The document is never mapped onto structs: keys under the container are
// request cache identifiers that change per page and per deploy, so callers
// scan entries with a predicate instead.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

// DefaultContainerPath is where Next.js pages keep their SWR fallback cache.
const DefaultContainerPath = "props.pageProps.fallback"

// nextDataSelector matches the script tag Next.js renders its state into.
const nextDataSelector = "script#__NEXT_DATA__"

var (
	// ErrInvalidJSON is returned when the snapshot body is not valid JSON.
	ErrInvalidJSON = errors.New("snapshot is not valid JSON")
	// ErrNoNextData is returned when an HTML page has no __NEXT_DATA__ script.
	ErrNoNextData = errors.New("no __NEXT_DATA__ script in page")
)

// Document is one decoded snapshot. It is read-only and owned by a single
// extraction pass.
type Document struct {
	root gjson.Result
}

// Entry is one keyed value of the top-level container, in document order.
type Entry struct {
	Key   string
	Value gjson.Result
}

// Parse validates and wraps a JSON snapshot.
func Parse(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	return &Document{root: gjson.ParseBytes(data)}, nil
}

// FromHTML extracts the __NEXT_DATA__ payload from a saved page.
func FromHTML(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	script := doc.Find(nextDataSelector).First()
	if script.Length() == 0 {
		return nil, ErrNoNextData
	}
	payload := strings.TrimSpace(script.Text())
	if payload == "" {
		return nil, ErrNoNextData
	}
	return Parse([]byte(payload))
}

// Load sniffs the payload and dispatches to Parse or FromHTML.
func Load(data []byte) (*Document, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "<") {
		return FromHTML(strings.NewReader(trimmed))
	}
	return Parse(data)
}

// Root returns the whole decoded document.
func (d *Document) Root() gjson.Result {
	return d.root
}

// Get looks up a gjson path relative to the document root.
func (d *Document) Get(path string) gjson.Result {
	return d.root.Get(path)
}

// Entries returns the key/value pairs of the object at path in document
// order. A missing or non-object container yields nil.
func (d *Document) Entries(path string) []Entry {
	if path == "" {
		path = DefaultContainerPath
	}
	container := d.root.Get(path)
	if !container.IsObject() {
		return nil
	}

	var entries []Entry
	container.ForEach(func(key, value gjson.Result) bool {
		entries = append(entries, Entry{Key: key.String(), Value: value})
		return true
	})
	return entries
}
