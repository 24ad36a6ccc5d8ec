package validate

import (
	"context"
	"net/url"
	"strings"

	"github.com/sells-group/lead-scout/internal/model"
)

// URLCheck is the outcome of checking one profile or website URL. Platform
// and Handle are empty when the URL is not a known profile.
type URLCheck struct {
	Valid    bool   `json:"valid"`
	Platform string `json:"platform,omitempty"`
	Handle   string `json:"handle,omitempty"`
}

var platformHosts = []struct {
	domain string
	kind   model.Kind
}{
	{"instagram.com", model.KindInstagram},
	{"twitter.com", model.KindTwitter},
	{"x.com", model.KindTwitter},
	{"github.com", model.KindGitHub},
	{"linkedin.com", model.KindLinkedIn},
	{"t.me", model.KindTelegram},
	{"telegram.me", model.KindTelegram},
}

// CheckURL infers the platform from the host and the handle from the path,
// then runs the profile check. Unknown hosts, platform URLs with no
// profile handle and LinkedIn pages other than /in/ fall back to the
// website check on the URL itself. Unparseable input is never valid.
func (p *Prober) CheckURL(ctx context.Context, raw string) URLCheck {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return URLCheck{}
	}

	kind, ok := platformFor(u.Hostname())
	if !ok {
		return URLCheck{Valid: p.CheckWebsite(ctx, u.String()).Keep()}
	}

	handle := handleFromPath(kind, u.Path)
	if handle == "" {
		return URLCheck{
			Valid:    p.CheckWebsite(ctx, u.String()).Keep(),
			Platform: string(kind),
		}
	}
	return URLCheck{
		Valid:    p.CheckProfile(ctx, kind, handle).Keep(),
		Platform: string(kind),
		Handle:   handle,
	}
}

func platformFor(host string) (model.Kind, bool) {
	host = strings.ToLower(host)
	for _, ph := range platformHosts {
		if host == ph.domain || strings.HasSuffix(host, "."+ph.domain) {
			return ph.kind, true
		}
	}
	return "", false
}

func handleFromPath(kind model.Kind, path string) string {
	var parts []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	// Only personal profiles have a handle-addressable page.
	if kind == model.KindLinkedIn {
		if len(parts) < 2 || parts[0] != "in" {
			return ""
		}
		return strings.ToLower(parts[1])
	}
	return strings.ToLower(strings.TrimPrefix(parts[0], "@"))
}
