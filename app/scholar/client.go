// Package scholar looks up author metrics from the Semantic Scholar API and
// evaluates paper authors against the cached results.
package scholar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Semantic Scholar graph API base URL.
	BaseURL = "https://api.semanticscholar.org/graph/v1"

	// AuthorFields are the fields requested for author search results.
	AuthorFields = "name,url,paperCount,citationCount,hIndex"

	// DefaultLookupInterval spaces out unauthenticated requests. The public
	// API allows roughly 1 request per second shared across callers.
	DefaultLookupInterval = 3 * time.Second
)

// Errors.
var (
	ErrNotFound     = errors.New("author not found")
	ErrRateLimited  = errors.New("semantic scholar rate limit exceeded")
	ErrAPIError     = errors.New("semantic scholar API error")
	ErrNetworkError = errors.New("network error connecting to semantic scholar")
)

// AuthorResult is a single author returned by the search endpoint.
type AuthorResult struct {
	AuthorID      string `json:"authorId"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	PaperCount    int    `json:"paperCount"`
	CitationCount int    `json:"citationCount"`
	HIndex        int    `json:"hIndex"`
}

// Client is a rate-limited HTTP client for the Semantic Scholar graph API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
	userAgent  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithUserAgent sets the User-Agent header for requests.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLookupInterval sets the minimum spacing between API requests.
func WithLookupInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		if interval > 0 {
			c.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

// NewClient creates a new Semantic Scholar API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(DefaultLookupInterval), 1),
		baseURL:    BaseURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SearchAuthor looks up the best-matching author for a name. The first search
// result is taken as the match; Semantic Scholar orders results by relevance.
// Returns ErrNotFound when the name matches no author.
func (c *Client) SearchAuthor(ctx context.Context, name string) (*AuthorResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	query := url.Values{}
	query.Set("query", name)
	query.Set("fields", AuthorFields)
	query.Set("limit", strconv.Itoa(1))

	reqURL := c.baseURL + "/author/search?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	var wrapper struct {
		Total int            `json:"total"`
		Data  []AuthorResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrAPIError, err)
	}

	if len(wrapper.Data) == 0 {
		return nil, ErrNotFound
	}

	return &wrapper.Data[0], nil
}
