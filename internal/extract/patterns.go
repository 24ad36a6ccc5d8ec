package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/lead-scout/internal/model"
	"github.com/sells-group/lead-scout/internal/validate"
)

// urlBoundary keeps a platform domain from matching inside a longer host, so
// "dropbox.com/x" never reads as an x.com profile.
const urlBoundary = `(?:^|[^a-z0-9.-])`

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	// Digit groups joined by one space, dot or dash, after an optional
	// country code and parenthesized area code. Groups never join across a
	// newline or a second "(", so adjacent numbers stay apart.
	phoneRe    = regexp.MustCompile(`\+?(?:\d{1,3}[ .-]?)?(?:\(\d{1,4}\)[ .-]?)?\d+(?:[ .-]\d+)*`)
	whatsappRe = regexp.MustCompile(`(?i)(?:wa\.me/|whatsapp\.com/send/?\?phone=|whatsapp:[ \t]*)(\+?\d(?:[ ().-]{0,2}\d){6,14})`)
	websiteRe  = regexp.MustCompile(`(?i)https?://[^\s"'<>()\[\]{}]+`)

	instagramRe = regexp.MustCompile(`(?i)` + urlBoundary + `(?:www\.)?instagram\.com/@?([a-z0-9_.]+)`)
	githubRe    = regexp.MustCompile(`(?i)` + urlBoundary + `(?:www\.)?github\.com/([a-z0-9-]+)`)
	twitterRe   = regexp.MustCompile(`(?i)` + urlBoundary + `(?:www\.|mobile\.)?(?:twitter|x)\.com/@?([a-z0-9_]{1,30})`)
	telegramRe  = regexp.MustCompile(`(?i)` + urlBoundary + `(?:t|telegram)\.me/@?([a-z0-9_]{2,32})`)
	linkedinRe  = regexp.MustCompile(`(?i)` + urlBoundary + `(?:[a-z]{2,3}\.)?linkedin\.com/(?:in|company)/([a-z0-9_-]+)`)
	discordRe   = regexp.MustCompile(`(?i)` + urlBoundary + `(?:discord\.gg|discord(?:app)?\.com/invite)/([a-z0-9-]+)`)
)

// cleaner maps a raw capture to its normalized form, or reports false to
// reject it.
type cleaner func(e *Extractor, raw string) (string, bool)

// pattern recognizes one kind. group selects the capture to clean; zero is
// the whole match.
type pattern struct {
	re    *regexp.Regexp
	group int
	clean cleaner
}

var patterns = map[model.Kind]pattern{
	model.KindEmails:    {re: emailRe, clean: cleanEmail},
	model.KindPhones:    {re: phoneRe, clean: cleanPhone},
	model.KindWhatsApp:  {re: whatsappRe, group: 1, clean: cleanPhone},
	model.KindInstagram: {re: instagramRe, group: 1, clean: cleanHandle},
	model.KindGitHub:    {re: githubRe, group: 1, clean: cleanHandle},
	model.KindTwitter:   {re: twitterRe, group: 1, clean: cleanHandle},
	model.KindTelegram:  {re: telegramRe, group: 1, clean: cleanHandle},
	model.KindLinkedIn:  {re: linkedinRe, group: 1, clean: cleanLinkedIn},
	model.KindDiscord:   {re: discordRe, group: 1, clean: cleanDiscord},
}

func cleanEmail(_ *Extractor, raw string) (string, bool) {
	s := strings.TrimRight(strings.ToLower(raw), ".")
	return s, s != ""
}

func cleanPhone(_ *Extractor, raw string) (string, bool) {
	d := validate.Digits(raw)
	if len(d) < 7 || len(d) > 15 {
		return "", false
	}
	return d, true
}

// cleanHandle lower-cases, drops a leading @ and trailing dots, and applies
// the junk-handle filter.
func cleanHandle(e *Extractor, raw string) (string, bool) {
	h := strings.TrimRight(strings.TrimPrefix(strings.ToLower(raw), "@"), ".")
	if e.lists.IsJunkHandle(h) {
		return "", false
	}
	return h, true
}

func cleanLinkedIn(_ *Extractor, raw string) (string, bool) {
	h := strings.ToLower(raw)
	return h, len(h) > 1
}

// cleanDiscord keeps invite codes verbatim; they are case-sensitive.
func cleanDiscord(_ *Extractor, raw string) (string, bool) {
	return raw, len(raw) > 1
}
