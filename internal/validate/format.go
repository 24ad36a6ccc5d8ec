// Package validate checks contact bundles in two tiers: a synchronous format
// tier that needs no network, and a best-effort deep tier that probes
// profile pages and websites.
package validate

import (
	"net/url"
	"regexp"
	"strings"

	emailaddress "github.com/mcnijman/go-emailaddress"

	"github.com/sells-group/lead-scout/internal/denylist"
	"github.com/sells-group/lead-scout/internal/model"
)

// Result is a validated bundle plus the number of candidates rejected.
type Result struct {
	model.ContactBundle
	RemovedCount int `json:"removed_count"`
}

var (
	emailShapeRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	handleCharsRe  = regexp.MustCompile(`^[a-z0-9._-]+$`)
	assetSuffixes  = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".css", ".js"}
	reservedLabels = []string{"example", "test", "localhost"}
)

// placeholderHosts are never real lead websites.
var placeholderHosts = []string{"example.com", "localhost", "test.com", "sentry.io"}

// shareMarkers identify social sharing and intent URLs rather than sites.
var shareMarkers = []string{
	"google.com/search",
	"facebook.com/sharer",
	"twitter.com/intent",
	"x.com/intent",
	"linkedin.com/sharing",
}

// Validator applies per-kind format predicates. It holds only immutable
// state and is safe for concurrent use.
type Validator struct {
	lists *denylist.Lists
}

// New returns a Validator backed by lists. Nil selects the built-in lists.
func New(lists *denylist.Lists) *Validator {
	if lists == nil {
		lists = denylist.Default()
	}
	return &Validator{lists: lists}
}

var defaultValidator = New(nil)

// Format runs the format tier with the built-in lists.
func Format(b model.ContactBundle) Result {
	return defaultValidator.Format(b)
}

// IsValidSocialHandle reports whether h passes the social-handle predicate
// with the built-in lists.
func IsValidSocialHandle(h string) bool {
	return defaultValidator.IsValidSocialHandle(h)
}

// Format deduplicates each kind and keeps only items passing that kind's
// predicate. Every rejected item increments RemovedCount.
func (v *Validator) Format(b model.ContactBundle) Result {
	var res Result
	for _, k := range model.AllKinds() {
		items := b.Values(k)
		if len(items) == 0 {
			continue
		}
		kept := make([]string, 0, len(items))
		seen := make(map[string]bool, len(items))
		for _, item := range items {
			if seen[item] {
				continue
			}
			seen[item] = true
			if v.Valid(k, item) {
				kept = append(kept, item)
			} else {
				res.RemovedCount++
			}
		}
		res.Set(k, kept)
	}
	return res
}

// Valid applies the predicate for kind k to a single item.
func (v *Validator) Valid(k model.Kind, item string) bool {
	switch k {
	case model.KindEmails:
		return v.IsValidEmail(item)
	case model.KindPhones, model.KindWhatsApp:
		return IsValidPhone(item)
	case model.KindWebsites:
		return IsValidWebsite(item)
	case model.KindInstagram, model.KindGitHub, model.KindTwitter,
		model.KindLinkedIn, model.KindTelegram, model.KindDiscord:
		return v.IsValidSocialHandle(item)
	}
	return false
}

// IsValidEmail rejects malformed addresses, shared inboxes, placeholder and
// blocked domains, and asset file names that happen to contain an @.
func (v *Validator) IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if !emailShapeRe.MatchString(email) {
		return false
	}
	if _, err := emailaddress.Parse(email); err != nil {
		return false
	}

	lower := strings.ToLower(email)
	at := strings.LastIndex(lower, "@")
	local, domain := lower[:at], lower[at+1:]

	if v.lists.IsGenericInbox(local) {
		return false
	}
	for _, label := range reservedLabels {
		if strings.HasPrefix(domain, label+".") || domain == label {
			return false
		}
	}
	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(domain, suffix) {
			return false
		}
	}
	return !v.lists.IsBlockedEmailDomain(domain)
}

// IsValidPhone accepts 7 to 15 digits once separators are stripped, and
// rejects degenerate repeated-digit or sequential filler numbers.
func IsValidPhone(phone string) bool {
	digits := Digits(phone)
	if len(digits) < 7 || len(digits) > 15 {
		return false
	}
	if strings.Count(digits, digits[:1]) == len(digits) {
		return false
	}
	return !strings.HasPrefix(digits, "123456") && !strings.HasPrefix(digits, "000000")
}

// Digits strips everything but ASCII digits.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidSocialHandle checks length, charset and the junk-handle filter on
// the lower-cased handle without a leading @.
func (v *Validator) IsValidSocialHandle(h string) bool {
	h = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "@"))
	if len(h) < 2 || len(h) > 30 {
		return false
	}
	if !handleCharsRe.MatchString(h) {
		return false
	}
	return !v.lists.IsJunkHandle(h)
}

// IsValidWebsite requires an http(s) URL that is not a placeholder host or a
// social sharing link.
func IsValidWebsite(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	for _, p := range placeholderHosts {
		if host == p || strings.HasSuffix(host, "."+p) {
			return false
		}
	}
	href := strings.ToLower(u.String())
	for _, m := range shareMarkers {
		if strings.Contains(href, m) {
			return false
		}
	}
	return true
}
