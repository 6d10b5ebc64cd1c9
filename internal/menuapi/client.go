// Package menuapi is the HTTP client for the canteen menu backend
package menuapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/belphemur/canteen-menu/internal/logging"
)

var (
	// ErrNotFound is returned when the backend has no menu for the requested date
	ErrNotFound = errors.New("menu not found")
	// ErrEmptyResponse is returned when a successful response carries no usable payload
	ErrEmptyResponse = errors.New("empty response")
)

// maxResponseBytes bounds every response body read from the backend
const maxResponseBytes = 4 << 20

// StatusError is returned for any non-2xx response other than 404
type StatusError struct {
	StatusCode int
	Endpoint   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.Endpoint, e.StatusCode)
}

// Dish is one extracted dish in both languages
type Dish struct {
	PL string `json:"pl"`
	EN string `json:"en"`
}

// Menu is the payload returned by GET /menu
type Menu struct {
	Date      string `json:"date"`
	ContentPL string `json:"content_pl"`
	ContentEN string `json:"content_en"`
	Images    []Dish `json:"images"`
}

// CheckResult is the response of POST /check-now
type CheckResult struct {
	Status   string `json:"status"`
	NewFound bool   `json:"new_found"`
}

type datesResponse struct {
	Dates []string `json:"dates"`
}

// Source is what the viewer needs from the backend
type Source interface {
	Dates(ctx context.Context) ([]string, error)
	Menu(ctx context.Context, date string) (Menu, error)
	CheckNow(ctx context.Context, force bool) (CheckResult, error)
}

// Client talks to the menu backend over HTTP
type Client struct {
	baseURL      string
	httpClient   *http.Client
	timeout      time.Duration
	checkTimeout time.Duration
	now        func() time.Time
	logger     zerolog.Logger
}

var _ Source = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCheckTimeout sets the deadline of check-now calls, which make the backend
// scrape and extract the menu before answering. Defaults to the request timeout.
func WithCheckTimeout(d time.Duration) Option {
	return func(c *Client) { c.checkTimeout = d }
}

// WithClock overrides the clock used for the cache-busting parameter
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a client for the API rooted at baseURL (e.g. http://localhost:8000/api)
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{},
		timeout:      timeout,
		checkTimeout: timeout,
		now:          time.Now,
		logger:       logging.GetLogger("menu-api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dates returns the scanned menu dates, most recent first
func (c *Client) Dates(ctx context.Context) ([]string, error) {
	var resp datesResponse
	if err := c.do(ctx, http.MethodGet, "/dates", nil, nil, c.timeout, &resp); err != nil {
		return nil, err
	}
	if resp.Dates == nil {
		return []string{}, nil
	}
	c.logger.Debug().Int("count", len(resp.Dates)).Msg("Fetched available dates")
	return resp.Dates, nil
}

// Menu fetches the menu for date, or the latest menu when date is empty.
// A timestamp parameter is always sent so intermediaries never serve a cached menu.
func (c *Client) Menu(ctx context.Context, date string) (Menu, error) {
	query := url.Values{}
	if date != "" {
		query.Set("date", date)
	}
	query.Set("t", strconv.FormatInt(c.now().UnixMilli(), 10))

	var menu Menu
	if err := c.do(ctx, http.MethodGet, "/menu", query, nil, c.timeout, &menu); err != nil {
		return Menu{}, err
	}
	if menu.Date == "" {
		return Menu{}, fmt.Errorf("/menu: response has no date: %w", ErrEmptyResponse)
	}
	if menu.Images == nil {
		menu.Images = []Dish{}
	}
	return menu, nil
}

// CheckNow asks the backend to look for a new menu. force asks it to rescan
// even when a menu is already known for today.
func (c *Client) CheckNow(ctx context.Context, force bool) (CheckResult, error) {
	var body []byte
	if force {
		body = []byte(`{"force":true}`)
	}

	var result CheckResult
	if err := c.do(ctx, http.MethodPost, "/check-now", nil, body, c.checkTimeout, &result); err != nil {
		return CheckResult{}, err
	}
	c.logger.Info().Bool("force", force).Str("status", result.Status).Bool("new_found", result.NewFound).Msg("Check-now completed")
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, timeout time.Duration, out any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	endpoint := c.baseURL + path
	target := endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("url", target).Msg("Calling menu API")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Endpoint: path}
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", path, err)
	}
	if len(payload) > maxResponseBytes {
		return fmt.Errorf("%s response exceeds %d bytes", path, maxResponseBytes)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		// check-now may answer without a body
		if method == http.MethodPost {
			return nil
		}
		return fmt.Errorf("%s: %w", path, ErrEmptyResponse)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		// check-now bodies are informational only
		if method == http.MethodPost {
			c.logger.Warn().Err(err).Str("path", path).Msg("Ignoring undecodable response body")
			return nil
		}
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
