// Package portal provides a client for the lead portal's listing endpoint.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/httpclient"
	"github.com/ternarybob/leadrelay/internal/models"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the portal the original deployment targets
	DefaultBaseURL = "https://svform.urbanriseprojects.in"

	// DefaultTimeout is the default per-page HTTP timeout
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default page request rate (requests per second)
	DefaultRateLimit = 2

	// maxErrorBody caps how much of a failed response is kept on the error
	maxErrorBody = 2048
)

// Client calls the lead listing endpoint with session tokens lifted from a browser login
type Client struct {
	baseURL       string
	xsrfCookie    string
	sessionCookie string
	httpClient    *http.Client
	logger        arbor.ILogger
	limiter       *rate.Limiter
	maxPages      int
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit. Zero or negative disables limiting.
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithMaxPages caps how many pages Pages will request. Zero means no cap.
func WithMaxPages(maxPages int) ClientOption {
	return func(c *Client) {
		c.maxPages = maxPages
	}
}

// WithCookieNames overrides the cookie names the tokens are sent back under
func WithCookieNames(xsrfCookie, sessionCookie string) ClientOption {
	return func(c *Client) {
		if xsrfCookie != "" {
			c.xsrfCookie = xsrfCookie
		}
		if sessionCookie != "" {
			c.sessionCookie = sessionCookie
		}
	}
}

// NewClient creates a new portal client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		xsrfCookie:    "XSRF-TOKEN",
		sessionCookie: "sv_forms_session",
		httpClient:    httpclient.NewDefaultHTTPClient(DefaultTimeout),
		logger:        arbor.NewLogger(),
		limiter:       rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// listRequest is the JSON body the portal UI posts to /leadList
type listRequest struct {
	SearchBy   string      `json:"searchBy"`
	DateFilter string      `json:"dateFilter,omitempty"`
	Project    interface{} `json:"project,omitempty"`
}

type listResponse struct {
	Data        json.RawMessage `json:"data"`
	NextPageURL json.RawMessage `json:"next_page_url"`
}

// FetchPage performs one authenticated listing call for a 1-based page number.
// Every failure is returned as *models.APIError.
func (c *Client) FetchPage(ctx context.Context, page int, tokens *models.AuthTokens, filters models.Filters) (*models.Page, error) {
	if tokens == nil {
		return nil, &models.APIError{Page: page, Err: fmt.Errorf("missing auth tokens")}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &models.APIError{Page: page, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	body, err := json.Marshal(listRequest{
		SearchBy:   filters.SearchBy,
		DateFilter: filters.DateFilter,
		Project:    projectValue(filters.Project),
	})
	if err != nil {
		return nil, &models.APIError{Page: page, Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	reqURL := fmt.Sprintf("%s/leadList?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, &models.APIError{Page: page, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-XSRF-TOKEN", tokens.CSRFToken)
	req.Header.Set("Cookie", httpclient.CookieHeader(
		[2]string{c.xsrfCookie, tokens.CSRFToken},
		[2]string{c.sessionCookie, tokens.SessionID},
	))

	c.logger.Debug().
		Int("page", page).
		Str("date_filter", filters.DateFilter).
		Msg("Portal listing request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.APIError{Page: page, Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &models.APIError{
			Page:       page,
			StatusCode: resp.StatusCode,
			Body:       string(errBody),
		}
	}

	var payload listResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &models.APIError{Page: page, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	rows, err := decodeRows(payload.Data)
	if err != nil {
		return nil, &models.APIError{Page: page, StatusCode: resp.StatusCode, Err: err}
	}

	result := &models.Page{
		Number:      page,
		Rows:        rows,
		NextPageURL: nextSignal(payload.NextPageURL),
	}

	c.logger.Info().
		Int("page", page).
		Int("records", len(rows)).
		Bool("has_more", result.HasMore()).
		Msg("Portal page fetched")

	return result, nil
}

// Pages lazily yields pages 1..N, stopping after the first page without a
// next-page signal. The first error is yielded once and ends the sequence.
// The sequence can be consumed only once.
func (c *Client) Pages(ctx context.Context, tokens *models.AuthTokens, filters models.Filters) iter.Seq2[*models.Page, error] {
	var consumed atomic.Bool

	return func(yield func(*models.Page, error) bool) {
		if !consumed.CompareAndSwap(false, true) {
			yield(nil, &models.APIError{Err: fmt.Errorf("page sequence already consumed")})
			return
		}

		for n := 1; ; n++ {
			if c.maxPages > 0 && n > c.maxPages {
				yield(nil, &models.APIError{Page: n, Err: fmt.Errorf("portal still reports more pages after max_pages=%d", c.maxPages)})
				return
			}

			page, err := c.FetchPage(ctx, n, tokens, filters)
			if err != nil {
				yield(nil, err)
				return
			}

			if !yield(page, nil) {
				return
			}

			if !page.HasMore() {
				return
			}
		}
	}
}

// projectValue sends numeric selectors as JSON numbers, like the portal UI does
func projectValue(project string) interface{} {
	project = strings.TrimSpace(project)
	if project == "" {
		return nil
	}
	if n, err := strconv.ParseInt(project, 10, 64); err == nil {
		return n
	}
	return project
}
