package extract

import (
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/sells-group/lead-scout/internal/validate"
)

// MaxWebsites is the number of distinct root domains kept per call.
const MaxWebsites = 3

var skipPathParts = []string{
	"/cdn/", "/static/", "/assets/", "/images/", "/js/", "/css/", "/api/",
	"/feed", "/rss", "/sitemap",
}

var assetExts = map[string]bool{
	".js": true, ".css": true, ".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".svg": true, ".webp": true, ".ico": true,
	".woff": true, ".woff2": true, ".ttf": true, ".pdf": true,
}

// RootDomain returns the registrable domain of host (eTLD+1). Hosts the
// public suffix list cannot place fall back to the host without "www.".
func RootDomain(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return ""
	}
	if root, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return root
	}
	return strings.TrimPrefix(host, "www.")
}

// rootDomainOf parses a source URL. Malformed input yields "" so the
// self-domain check simply does not apply.
func rootDomainOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return RootDomain(u.Hostname())
}

// websites finds candidate main websites in text, reduced to
// scheme://host and capped at MaxWebsites distinct root domains.
func (e *Extractor) websites(text, self string) []string {
	var out []string
	seen := make(map[string]bool)

	for _, raw := range websiteRe.FindAllString(text, -1) {
		if len(out) >= e.maxWebsites {
			break
		}
		candidate, root, ok := e.website(raw, self)
		if !ok || seen[root] {
			continue
		}
		seen[root] = true
		out = append(out, candidate)
	}
	return out
}

func (e *Extractor) website(raw, self string) (candidate, root string, ok bool) {
	raw = strings.TrimRight(raw, ".,;:!?'\"")
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "", "", false
	}

	host := strings.ToLower(u.Hostname())
	root = RootDomain(host)
	if self != "" && root == self {
		return "", "", false
	}
	if e.lists.IsBlockedWebsiteHost(host) {
		return "", "", false
	}

	p := strings.ToLower(u.EscapedPath())
	for _, part := range skipPathParts {
		if strings.Contains(p, part) {
			return "", "", false
		}
	}
	if assetExts[path.Ext(p)] {
		return "", "", false
	}
	if depth(p) > 1 {
		return "", "", false
	}

	candidate = strings.ToLower(u.Scheme) + "://" + host
	if u.Port() != "" {
		candidate += ":" + u.Port()
	}
	if !validate.IsValidWebsite(candidate) {
		return "", "", false
	}
	return candidate, root, true
}

func depth(p string) int {
	p = strings.Trim(p, "/")
	if p == "" {
		return 0
	}
	return strings.Count(p, "/") + 1
}
