// Package denylist holds the static block lists used to tell real contact
// identifiers apart from incidental matches in page text.
package denylist

import (
	"regexp"
	"strings"
)

// junkHandles are tokens that show up after profile URL prefixes in markup,
// scripts, and boilerplate but are never real accounts.
var junkHandles = []string{
	// markup and script vocabulary
	"page", "class", "data", "count", "title", "name", "type", "value",
	"id", "div", "span", "link", "href", "src", "img", "alt", "url",
	"style", "script", "head", "body", "html", "meta", "form", "text",
	"input", "button", "label", "content", "item", "items", "list",
	"width", "height", "size", "color", "font", "border", "display",
	"margin", "padding", "flex", "grid", "block", "none", "auto",
	"center", "left", "right", "top", "bottom", "true", "false",
	"null", "undefined", "object", "array", "string", "number",
	"menu", "nav", "header", "footer", "main", "section", "article",
	"aside", "wrapper", "container", "row", "col", "column", "card",
	"box", "panel", "modal", "icon", "image", "logo", "avatar",
	"thumb", "thumbnail", "btn", "submit", "cancel", "close", "open",
	"active", "disabled", "hidden", "visible", "show", "hide", "toggle",
	"loading", "error", "success", "warning", "info", "alert", "message",
	"primary", "secondary", "default", "custom", "static", "dynamic",
	// platform names
	"instagram", "twitter", "facebook", "linkedin", "github", "youtube",
	"tiktok", "pinterest", "snapchat", "reddit", "whatsapp", "telegram",
	// page sections
	"home", "about", "contact", "privacy", "terms", "legal", "blog",
	"login", "signup", "register", "settings", "profile", "account",
	"search", "share", "intent", "hashtag", "status", "media", "post",
	"news", "help", "support", "faq", "careers", "jobs", "store", "shop",
	// generic words
	"user", "users", "admin", "test", "demo", "example", "sample", "app",
	"new", "old", "first", "last", "next", "prev", "previous", "api",
	"more", "less", "all", "any", "some", "other", "another", "web",
	"version", "beta", "alpha", "latest", "release", "update", "site",
	"username", "yourname", "home.php", "sharer", "explore", "in", "company",
}

// blockedWebsiteDomains are social, CDN, analytics, ad, dev-tool and
// file-hosting domains. Matched by substring against the candidate host.
var blockedWebsiteDomains = []string{
	"facebook.com", "twitter.com", "x.com", "instagram.com", "linkedin.com",
	"youtube.com", "tiktok.com", "pinterest.com", "reddit.com",
	"t.me", "telegram.me", "wa.me", "whatsapp.com",
	"discord.com", "discord.gg", "github.com", "gitlab.com",
	"google.com", "googleapis.com", "gstatic.com", "googleusercontent.com",
	"apple.com", "microsoft.com", "amazon.com", "amazonaws.com",
	"cloudflare.com", "cloudfront.net", "akamaihd.net", "fastly.net",
	"jsdelivr.net", "unpkg.com", "cdnjs.com", "bootstrapcdn.com",
	"google-analytics.com", "googletagmanager.com", "doubleclick.net",
	"facebook.net", "fbcdn.net", "hotjar.com", "mixpanel.com",
	"w3.org", "schema.org", "json-ld.org",
	"medium.com", "substack.com", "wordpress.com", "blogger.com",
	"wix.com", "squarespace.com", "gravatar.com", "wp.com",
	"sentry.io", "bugsnag.com", "logrocket.com",
	"dropbox.com", "imgur.com", "giphy.com",
}

// blockedEmailDomains never belong to a lead regardless of local part.
var blockedEmailDomains = []string{
	"example.com", "example.org", "domain.com", "email.com", "test.com",
	"sentry.io", "sentry-next.wixpress.com", "wixpress.com", "wix.com",
	"mailchimp.com", "godaddy.com", "squarespace.com", "wordpress.com",
	"github.com", "users.noreply.github.com", "cloudflare.com", "w3.org",
}

// genericInboxes are shared mailbox local parts that carry no lead signal.
var genericInboxes = []string{
	"info", "contact", "hello", "support", "admin",
	"noreply", "no-reply", "sales", "team", "help",
}

var (
	numericRe      = regexp.MustCompile(`^[0-9]+$`)
	versionLikeRe  = regexp.MustCompile(`^[0-9.]+$`)
	semverRe       = regexp.MustCompile(`^v?\d+\.\d+`)
	tooShortRe     = regexp.MustCompile(`^[a-z]{1,2}$`)
	digitsWordRe   = regexp.MustCompile(`^\d+[a-z]+$`)
	wordDigitsRe   = regexp.MustCompile(`^[a-z]+\d+$`)
	fixtureTokenRe = regexp.MustCompile(`^(item|data|class|page|type|name|value|count|index|node|row|col)_?\d*$`)
	letterStartRe  = regexp.MustCompile(`^[a-z]`)
)

// Lists is an immutable set of block lists. Build one with Default or Load
// and share it freely across goroutines.
type Lists struct {
	junkHandles    map[string]struct{}
	websiteDomains []string
	emailDomains   []string
	genericInboxes map[string]struct{}
}

// Extra carries additional entries appended to the built-in lists.
type Extra struct {
	JunkHandles    []string `yaml:"junk_handles"`
	WebsiteDomains []string `yaml:"website_domains"`
	EmailDomains   []string `yaml:"email_domains"`
	GenericInboxes []string `yaml:"generic_inboxes"`
}

var defaultLists = build(Extra{})

// Default returns the built-in lists.
func Default() *Lists { return defaultLists }

func build(extra Extra) *Lists {
	return &Lists{
		junkHandles:    toSet(junkHandles, extra.JunkHandles),
		websiteDomains: lowerAll(blockedWebsiteDomains, extra.WebsiteDomains),
		emailDomains:   lowerAll(blockedEmailDomains, extra.EmailDomains),
		genericInboxes: toSet(genericInboxes, extra.GenericInboxes),
	}
}

func toSet(lists ...[]string) map[string]struct{} {
	s := make(map[string]struct{})
	for _, list := range lists {
		for _, v := range list {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != "" {
				s[v] = struct{}{}
			}
		}
	}
	return s
}

func lowerAll(lists ...[]string) []string {
	var out []string
	for _, list := range lists {
		for _, v := range list {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// JunkHandleTokens returns the exact-match junk tokens, unordered.
func (l *Lists) JunkHandleTokens() []string {
	out := make([]string, 0, len(l.junkHandles))
	for h := range l.junkHandles {
		out = append(out, h)
	}
	return out
}

// IsJunkHandle applies the junk-handle filter to a cleaned, lower-cased
// handle. It reports true when the handle should be rejected.
func (l *Lists) IsJunkHandle(h string) bool {
	if len(h) < 2 {
		return true
	}
	if _, ok := l.junkHandles[h]; ok {
		return true
	}
	switch {
	case numericRe.MatchString(h),
		versionLikeRe.MatchString(h),
		semverRe.MatchString(h),
		tooShortRe.MatchString(h),
		digitsWordRe.MatchString(h),
		wordDigitsRe.MatchString(h),
		fixtureTokenRe.MatchString(h):
		return true
	}
	return !letterStartRe.MatchString(h)
}

// IsBlockedWebsiteHost reports whether host contains any blocked website domain.
func (l *Lists) IsBlockedWebsiteHost(host string) bool {
	host = strings.ToLower(host)
	for _, d := range l.websiteDomains {
		if hostHasDomain(host, d) {
			return true
		}
	}
	return false
}

// hostHasDomain guards the substring match so that "x.com" does not block
// "dropbox.com" while still blocking "mobile.x.com" or "x.com.br".
func hostHasDomain(host, d string) bool {
	i := strings.Index(host, d)
	for i >= 0 {
		end := i + len(d)
		if (i == 0 || host[i-1] == '.') && (end == len(host) || host[end] == '.') {
			return true
		}
		next := strings.Index(host[i+1:], d)
		if next < 0 {
			break
		}
		i += next + 1
	}
	return false
}

// IsBlockedEmailDomain reports whether domain equals, or is a subdomain of,
// a blocked email domain.
func (l *Lists) IsBlockedEmailDomain(domain string) bool {
	domain = strings.ToLower(domain)
	for _, d := range l.emailDomains {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

// IsGenericInbox reports whether local is a shared mailbox name like info or sales.
func (l *Lists) IsGenericInbox(local string) bool {
	_, ok := l.genericInboxes[strings.ToLower(local)]
	return ok
}
