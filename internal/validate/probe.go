package validate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-scout/internal/model"
)

// Verdict is the outcome of one live existence check.
type Verdict int

const (
	// Unknown means the check could not decide: network failure, timeout or
	// an ambiguous response.
	Unknown Verdict = iota
	// Present means the page positively exists.
	Present
	// Absent means the platform reported the page does not exist.
	Absent
)

// Keep collapses a verdict to the retain decision. Only Absent drops data.
func (v Verdict) Keep() bool { return v != Absent }

func (v Verdict) String() string {
	switch v {
	case Present:
		return "present"
	case Absent:
		return "absent"
	default:
		return "unknown"
	}
}

// Profile describes how to check one platform. URL is a fmt template taking
// the handle. The markers are plain substrings of the page body and track
// each platform's markup, so expect to update them when that markup changes.
type Profile struct {
	URL            string   `mapstructure:"url" yaml:"url"`
	AbsentMarkers  []string `mapstructure:"absent" yaml:"absent"`
	PresentMarkers []string `mapstructure:"present" yaml:"present"`
}

// DefaultProfiles returns the built-in profile checks for every social kind
// that supports one. Discord is absent on purpose: invites have no reliable
// existence check.
func DefaultProfiles() map[model.Kind]Profile {
	return map[model.Kind]Profile{
		model.KindInstagram: {
			URL:           "https://www.instagram.com/%s/",
			AbsentMarkers: []string{"Sorry, this page isn't available", "Page Not Found", `"user":null`},
		},
		model.KindTwitter: {
			URL:           "https://twitter.com/%s",
			AbsentMarkers: []string{"This account doesn't exist", "Account suspended"},
		},
		model.KindGitHub: {
			URL: "https://github.com/%s",
		},
		model.KindLinkedIn: {
			URL: "https://www.linkedin.com/in/%s/",
		},
		model.KindTelegram: {
			URL: "https://t.me/%s",
			PresentMarkers: []string{
				"If you have <strong>Telegram</strong>, you can contact",
				"can view and join",
				"Preview channel",
			},
		},
	}
}

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultTimeout   = 5 * time.Second
	maxProbeBody     = 1 << 20
)

// Prober performs live HTTP existence checks. Each request carries its own
// timeout; failures never surface as errors.
type Prober struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	limiter   *rate.Limiter
	profiles  map[model.Kind]Profile
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) ProberOption {
	return func(p *Prober) { p.client = c }
}

// WithUserAgent overrides the browser-like User-Agent header.
func WithUserAgent(ua string) ProberOption {
	return func(p *Prober) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ProberOption {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithRate throttles outbound checks to perSec requests per second.
// Zero or negative disables throttling.
func WithRate(perSec float64, burst int) ProberOption {
	return func(p *Prober) {
		if perSec <= 0 {
			p.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// WithProfile replaces the check for one platform.
func WithProfile(kind model.Kind, prof Profile) ProberOption {
	return func(p *Prober) { p.profiles[kind] = prof }
}

// NewProber creates a Prober with browser-like defaults.
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		client:    &http.Client{},
		userAgent: defaultUserAgent,
		timeout:   defaultTimeout,
		profiles:  DefaultProfiles(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// CheckWebsite treats 404, 410 and any 5xx as absent. Everything else,
// including network failure, is not definitive.
func (p *Prober) CheckWebsite(ctx context.Context, rawURL string) Verdict {
	status, _, err := p.get(ctx, rawURL, false)
	if err != nil {
		zap.L().Debug("validate: website check failed", zap.String("url", rawURL), zap.Error(err))
		return Unknown
	}
	if status == http.StatusNotFound || status == http.StatusGone || status >= 500 {
		return Absent
	}
	return Present
}

// CheckProfile fetches the platform's profile page for handle and applies
// that platform's existence rules. Kinds without a profile are Unknown.
func (p *Prober) CheckProfile(ctx context.Context, kind model.Kind, handle string) Verdict {
	prof, ok := p.profiles[kind]
	if !ok || prof.URL == "" {
		return Unknown
	}
	target := fmt.Sprintf(prof.URL, strings.TrimPrefix(handle, "@"))

	readBody := len(prof.AbsentMarkers) > 0 || len(prof.PresentMarkers) > 0
	status, body, err := p.get(ctx, target, readBody)
	if err != nil {
		zap.L().Debug("validate: profile check failed",
			zap.String("kind", string(kind)),
			zap.String("handle", handle),
			zap.Error(err),
		)
		return Unknown
	}
	if status == http.StatusNotFound {
		return Absent
	}
	for _, m := range prof.AbsentMarkers {
		if strings.Contains(body, m) {
			return Absent
		}
	}
	for _, m := range prof.PresentMarkers {
		if strings.Contains(body, m) {
			return Present
		}
	}
	if status >= 200 && status < 300 {
		return Present
	}
	return Unknown
}

func (p *Prober) get(ctx context.Context, target string, readBody bool) (int, string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return 0, "", err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	if !readBody {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxProbeBody))
		return resp.StatusCode, "", nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode, string(body), nil
}
