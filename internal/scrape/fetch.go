// Package scrape fetches lead pages and flattens their HTML into text the
// extractor can scan.
package scrape

import (
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultUserAgent = "Mozilla/5.0 (compatible; LeadScout/1.0)"
	defaultTimeout   = 10 * time.Second
	defaultMaxBytes  = 2 << 20
)

// Fetcher downloads HTML pages. Any failure yields an empty string.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBytes caps how much of a body is read.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// NewFetcher creates a Fetcher. timeout bounds the whole request; zero uses
// 10s.
func NewFetcher(timeout time.Duration, opts ...Option) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	f := &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: timeout}).DialContext,
				TLSHandshakeTimeout: timeout,
			},
		},
		userAgent: defaultUserAgent,
		maxBytes:  defaultMaxBytes,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch returns the raw HTML at url, or "" on a transport error, a non-2xx
// status, a non-HTML content type or a bot challenge page.
func (f *Fetcher) Fetch(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		zap.L().Debug("scrape: bad url", zap.String("url", url), zap.Error(err))
		return ""
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		zap.L().Debug("scrape: fetch failed", zap.String("url", url), zap.Error(err))
		return ""
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		zap.L().Debug("scrape: non-2xx", zap.String("url", url), zap.Int("status", resp.StatusCode))
		return ""
	}
	if !isHTML(resp.Header.Get("Content-Type")) {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		zap.L().Debug("scrape: read body", zap.String("url", url), zap.Error(err))
		return ""
	}
	if challenged(resp, body) {
		zap.L().Debug("scrape: challenge page", zap.String("url", url))
		return ""
	}
	return string(body)
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "text/html")
	}
	return mt == "text/html"
}

// challenged detects interstitial anti-bot pages that carry none of the
// site's content. Pages that merely embed a captcha widget are kept.
func challenged(resp *http.Response, body []byte) bool {
	if resp.Header.Get("cf-mitigated") == "challenge" {
		return true
	}
	if len(body) > 64<<10 {
		return false
	}
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") ||
		strings.Contains(lower, "cf-challenge")
}
