// Package brave provides a client for the Brave web search API.
package brave

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-scout/internal/resilience"
)

const (
	defaultBaseURL = "https://api.search.brave.com/res/v1"
	// DefaultCount is the number of results requested when count <= 0.
	DefaultCount = 20
	maxCount     = 20
)

// Client performs keyword web searches.
type Client interface {
	// Search returns up to count organic web results for query.
	Search(ctx context.Context, query string, count int) ([]Result, error)
}

// Result is a single organic web result.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type searchResponse struct {
	Web struct {
		Results []Result `json:"results"`
	} `json:"web"`
}

// Option configures the Brave client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Brave search client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if count <= 0 {
		count = DefaultCount
	}
	if count > maxCount {
		count = maxCount
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/web/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "brave: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "brave: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "brave: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError("brave", resp.StatusCode, body)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "brave: unmarshal response")
	}

	out := result.Web.Results[:0]
	for _, r := range result.Web.Results {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
