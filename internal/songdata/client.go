// Package songdata scrapes per-track audio attributes (Camelot key, BPM,
// energy) from songdata.io playlist pages.
package songdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://songdata.io"

	// songdata.io serves a blank shell to unknown clients, so present a
	// regular browser user agent.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	requestTimeout = 30 * time.Second
)

// Sentinel errors.
var (
	// ErrNotFound is returned when songdata.io has no page for the playlist.
	ErrNotFound = errors.New("playlist not found on songdata.io")

	// ErrRateLimited is returned when the site keeps refusing requests
	// after retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNoTable is returned when the page exists but the track table is
	// missing, usually meaning the site's HTML structure changed.
	ErrNoTable = errors.New("track table not found in page")
)

// Client scrapes songdata.io with rate limiting and retry on transient failures.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the scrape target, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit overrides the request rate limit.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(r, burst)
	}
}

// NewClient creates a scraper client. The default rate limit is one request
// per two seconds, polite enough for a site we have no agreement with.
func NewClient(logger *log.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    defaultBaseURL,
		limiter:    rate.NewLimiter(rate.Every(2*time.Second), 1),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PlaylistAttributes fetches and parses the songdata.io page for a Spotify
// playlist, returning one row per track the site lists. Rows the site shows
// without a Spotify ID are skipped; rows with unparsable attribute cells are
// kept with nil fields so the caller can treat them as unknown.
func (c *Client) PlaylistAttributes(ctx context.Context, playlistID string) ([]Row, error) {
	pageURL := fmt.Sprintf("%s/playlist/%s", c.baseURL, playlistID)

	body, err := c.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	rows, err := parseTable(body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("scraped playlist attributes", "playlist", playlistID, "rows", len(rows))
	return rows, nil
}

// fetch performs a rate-limited GET with retry on 429 and 5xx responses.
// Retries up to 3 times with exponential backoff (1s, 2s, 4s).
func (c *Client) fetch(ctx context.Context, pageURL string) (io.ReadCloser, error) {
	delays := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	var lastErr error

	for attempt := 0; attempt <= len(delays); attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying scrape", "url", pageURL, "attempt", attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delays[attempt-1]):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.doSingleRequest(ctx, pageURL)
		if err == nil {
			return resp.Body, nil
		}

		if errors.Is(err, ErrRateLimited) || isTransient(err) {
			lastErr = err
			continue
		}

		return nil, err
	}

	return nil, lastErr
}

// transientError marks 5xx responses as retryable.
type transientError struct {
	status int
}

func (e *transientError) Error() string {
	return fmt.Sprintf("songdata.io returned status %d", e.status)
}

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// doSingleRequest performs one HTTP request, mapping status codes to errors.
func (c *Client) doSingleRequest(ctx context.Context, pageURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp, nil
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		resp.Body.Close()
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		resp.Body.Close()
		return nil, &transientError{status: resp.StatusCode}
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("songdata.io returned status %d", resp.StatusCode)
	}
}
