package fotmob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/albapepper/gemscout-data/internal/snapshot"
)

// maxPageBytes bounds how much of a page is read before parsing.
const maxPageBytes = 16 << 20

// ClientOptions configures a page Client.
type ClientOptions struct {
	UserAgent         string
	RequestsPerMinute int
	Retries           int
	Timeout           time.Duration
}

// Client downloads server-rendered player pages and returns their embedded
// snapshot. It does not run scripts: pages that only hydrate client side
// have no __NEXT_DATA__ and fail with snapshot.ErrNoNextData.
type Client struct {
	httpClient *retryablehttp.Client
	userAgent  string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a page client with rate limiting and retries.
func NewClient(opts ClientOptions, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 20
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	hc := retryablehttp.NewClient()
	hc.RetryMax = opts.Retries
	hc.RetryWaitMin = 2 * time.Second
	hc.RetryWaitMax = 30 * time.Second
	hc.HTTPClient.Timeout = opts.Timeout
	hc.Logger = logger

	rps := float64(opts.RequestsPerMinute) / 60.0
	return &Client{
		httpClient: hc,
		userAgent:  opts.UserAgent,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// FetchSnapshot performs a rate-limited GET of pageURL and parses the
// __NEXT_DATA__ payload out of the returned HTML.
func (c *Client) FetchSnapshot(ctx context.Context, pageURL string) (*snapshot.Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := retryablehttp.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req = req.WithContext(ctx)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned %d: %s", pageURL, resp.StatusCode, truncate(body, 200))
	}

	c.logger.Debug("Fetched page", "url", pageURL, "bytes", len(body))
	return snapshot.FromHTML(bytes.NewReader(body))
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
