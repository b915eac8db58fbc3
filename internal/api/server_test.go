package api

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/gemscout-data/internal/api/handler"
	"github.com/albapepper/gemscout-data/internal/api/respond"
	"github.com/albapepper/gemscout-data/internal/cache"
	"github.com/albapepper/gemscout-data/internal/config"
	"github.com/albapepper/gemscout-data/internal/seed"
	"github.com/albapepper/gemscout-data/internal/store"
	"github.com/albapepper/gemscout-data/internal/store/sqlite"
)

//go:embed testdata/player.json
var playerSnapshot []byte

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type testServer struct {
	*httptest.Server
	hooks atomic.Int32
}

func seededStore(t *testing.T) *sqlite.Store {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.Open(ctx, sqlite.Memory)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cat, err := seed.ParseCatalogue([]byte(`
countries:
  - name: England
  - name: Norway
competitions:
  - name: Premier League
    country: England
    teams: [Manchester City, Arsenal]
`))
	require.NoError(t, err)
	_, err = seed.SeedStatic(ctx, st, cat, quiet)
	require.NoError(t, err)
	return st
}

func newServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	st := seededStore(t)

	cfg := &config.Config{
		StoreDriver:           config.DriverSQLite,
		CORSAllowOrigins:      []string{"http://localhost:3000"},
		CacheEnabled:          true,
		SnapshotContainerPath: "props.pageProps.fallback",
	}
	if mutate != nil {
		mutate(cfg)
	}

	ts := &testServer{}
	router := NewRouter(handler.Deps{
		Reader: st,
		Store:  st,
		Cache:  cache.New(cfg.CacheEnabled),
		Logger: quiet,
		AfterIngest: func(context.Context) error {
			ts.hooks.Add(1)
			return nil
		},
	}, cfg)
	ts.Server = httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body []byte, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestRootAndHealth(t *testing.T) {
	ts := newServer(t, nil)

	resp := ts.do(t, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	root := decode[map[string]any](t, resp)
	assert.Equal(t, "sqlite", root["store"])
	assert.NotEmpty(t, resp.Header.Get("X-Process-Time"))

	resp = ts.do(t, http.MethodGet, "/health/db", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "connected", decode[map[string]any](t, resp)["database"])

	resp = ts.do(t, http.MethodGet, "/health/cache", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIngestThenRead(t *testing.T) {
	ts := newServer(t, nil)

	resp := ts.do(t, http.MethodPost, "/api/v1/ingest/player", playerSnapshot, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[handler.IngestResponse](t, resp)
	assert.Equal(t, seed.StatusCreated, created.Status)
	assert.Equal(t, int64(737066), created.FotmobID)
	assert.True(t, created.TeamLinked)
	assert.True(t, created.PositionMapped)
	assert.Equal(t, int32(1), ts.hooks.Load())

	resp = ts.do(t, http.MethodGet, "/api/v1/players/737066", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	d := decode[store.Dashboard](t, resp)
	assert.Equal(t, "Erling Haaland", d.Name)
	assert.Equal(t, "Norway", d.Nationality)
	require.NotNil(t, d.TeamName)
	assert.Equal(t, "Manchester City", *d.TeamName)
	require.NotNil(t, d.PositionGroup)
	assert.Equal(t, "Striker", *d.PositionGroup)
	require.NotNil(t, d.Age)

	resp = ts.do(t, http.MethodGet, "/api/v1/players/737066", nil, http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/v1/players/737066", nil, nil)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))

	// Re-ingesting updates in place and drops the cached dashboard.
	resp = ts.do(t, http.MethodPost, "/api/v1/ingest/player", playerSnapshot, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, seed.StatusUpdated, decode[handler.IngestResponse](t, resp).Status)

	resp = ts.do(t, http.MethodGet, "/api/v1/players/737066", nil, nil)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	resp = ts.do(t, http.MethodGet, "/api/v1/players?limit=10", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]store.Dashboard](t, resp), 1)
}

func TestIngestHTMLPage(t *testing.T) {
	ts := newServer(t, nil)
	page := `<html><head></head><body><script id="__NEXT_DATA__" type="application/json">` +
		string(playerSnapshot) + `</script></body></html>`

	resp := ts.do(t, http.MethodPost, "/api/v1/ingest/player", []byte(page),
		http.Header{"Content-Type": {"text/html"}})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestIngestErrors(t *testing.T) {
	ts := newServer(t, nil)

	norwegianless := bytes.Replace(playerSnapshot, []byte(`"Norway"`), []byte(`"Atlantis"`), -1)

	tests := []struct {
		name   string
		body   []byte
		path   string
		status int
		code   string
	}{
		{"not json", []byte(`{"props":`), "/api/v1/ingest/player", http.StatusBadRequest, respond.CodeInvalidSnapshot},
		{"html without next data", []byte(`<html><body></body></html>`), "/api/v1/ingest/player", http.StatusBadRequest, respond.CodeInvalidSnapshot},
		{"no player", []byte(`{"props":{"pageProps":{"fallback":{"t":{"name":"Arsenal"}}}}}`), "/api/v1/ingest/player", http.StatusNotFound, respond.CodeNotFound},
		{"wrong container", playerSnapshot, "/api/v1/ingest/player?container=props.other", http.StatusNotFound, respond.CodeNotFound},
		{"unknown nationality", norwegianless, "/api/v1/ingest/player", http.StatusUnprocessableEntity, respond.CodePreconditionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, tt.path, tt.body, nil)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode[respond.ErrorResponse](t, resp)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
	assert.Zero(t, ts.hooks.Load())
}

func TestIngestRejectionNamesPrecondition(t *testing.T) {
	ts := newServer(t, nil)
	body := bytes.Replace(playerSnapshot, []byte(`"Norway"`), []byte(`"Atlantis"`), -1)

	resp := ts.do(t, http.MethodPost, "/api/v1/ingest/player", body, nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	e := decode[respond.ErrorResponse](t, resp)
	assert.Equal(t, seed.PreconditionNationality, e.Error.Detail)
	assert.Contains(t, e.Error.Message, "Atlantis")
}

func TestReadErrors(t *testing.T) {
	ts := newServer(t, nil)

	tests := []struct {
		path   string
		status int
	}{
		{"/api/v1/players/abc", http.StatusBadRequest},
		{"/api/v1/players/-4", http.StatusBadRequest},
		{"/api/v1/players/12345", http.StatusNotFound},
		{"/api/v1/players?limit=0", http.StatusBadRequest},
		{"/api/v1/players?limit=201", http.StatusBadRequest},
		{"/api/v1/players?offset=-1", http.StatusBadRequest},
		{"/api/v1/players?limit=ten", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := ts.do(t, http.MethodGet, tt.path, nil, nil)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestReferenceData(t *testing.T) {
	ts := newServer(t, nil)

	resp := ts.do(t, http.MethodGet, "/api/v1/teams", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	teams := decode[[]map[string]any](t, resp)
	require.Len(t, teams, 2)
	assert.Equal(t, "Arsenal", teams[0]["name"])

	resp = ts.do(t, http.MethodGet, "/api/v1/countries", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]map[string]any](t, resp), 2)
}

func TestCORSPreflightAllowsPost(t *testing.T) {
	ts := newServer(t, nil)
	resp := ts.do(t, http.MethodOptions, "/api/v1/ingest/player", nil, http.Header{
		"Origin":                        {"http://localhost:3000"},
		"Access-Control-Request-Method": {"POST"},
	})
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToUpper(resp.Header.Get("Access-Control-Allow-Methods")), "POST")
}

func TestRateLimit(t *testing.T) {
	ts := newServer(t, func(cfg *config.Config) {
		cfg.RateLimitEnabled = true
		cfg.RateLimitRequests = 2
		cfg.RateLimitWindow = time.Minute
	})

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/health", nil, nil).StatusCode)
	resp := ts.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
	assert.Equal(t, respond.CodeRateLimited, decode[respond.ErrorResponse](t, resp).Error.Code)
}

// viewReader serves the player list from a stand-in for the dashboard view,
// which only changes when the post-ingest refresh runs.
type viewReader struct {
	store.Reader
	refreshed atomic.Bool
}

func (r *viewReader) Players(context.Context, int, int) ([]byte, error) {
	if r.refreshed.Load() {
		return []byte(`["fresh"]`), nil
	}
	return []byte(`["stale"]`), nil
}

func TestIngestDropsListsCachedDuringRefresh(t *testing.T) {
	st := seededStore(t)
	view := &viewReader{Reader: st}

	var srv *httptest.Server
	router := NewRouter(handler.Deps{
		Reader: view,
		Store:  st,
		Cache:  cache.New(true),
		Logger: quiet,
		AfterIngest: func(context.Context) error {
			// A list read lands before the refresh completes.
			resp, err := srv.Client().Get(srv.URL + "/api/v1/players")
			if err != nil {
				return err
			}
			resp.Body.Close()
			view.refreshed.Store(true)
			return nil
		},
	}, &config.Config{
		StoreDriver:           config.DriverSQLite,
		CacheEnabled:          true,
		SnapshotContainerPath: "props.pageProps.fallback",
	})
	srv = httptest.NewServer(router)
	t.Cleanup(srv.Close)

	resp, err := srv.Client().Post(srv.URL+"/api/v1/ingest/player", "application/json", bytes.NewReader(playerSnapshot))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = srv.Client().Get(srv.URL + "/api/v1/players")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.JSONEq(t, `["fresh"]`, string(body))
}

type brokenReader struct{ store.Reader }

func (brokenReader) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthDBDown(t *testing.T) {
	cfg := &config.Config{StoreDriver: config.DriverPostgres}
	router := NewRouter(handler.Deps{Reader: brokenReader{}, Cache: cache.New(false), Logger: quiet}, cfg)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/db", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
