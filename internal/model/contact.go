package model

// Kind names one of the ten contact categories the extractor and validator act on.
type Kind string

const (
	KindEmails    Kind = "emails"
	KindPhones    Kind = "phones"
	KindWebsites  Kind = "websites"
	KindWhatsApp  Kind = "whatsapp"
	KindInstagram Kind = "instagram"
	KindGitHub    Kind = "github"
	KindTwitter   Kind = "twitter"
	KindLinkedIn  Kind = "linkedin"
	KindTelegram  Kind = "telegram"
	KindDiscord   Kind = "discord"
)

var allKinds = []Kind{
	KindEmails,
	KindPhones,
	KindWebsites,
	KindWhatsApp,
	KindInstagram,
	KindGitHub,
	KindTwitter,
	KindLinkedIn,
	KindTelegram,
	KindDiscord,
}

// AllKinds returns every contact kind in canonical field order.
func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Valid reports whether k is one of the ten known kinds.
func (k Kind) Valid() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsSocial reports whether k holds platform handles rather than raw identifiers.
func (k Kind) IsSocial() bool {
	switch k {
	case KindInstagram, KindGitHub, KindTwitter, KindLinkedIn, KindTelegram, KindDiscord:
		return true
	}
	return false
}

// ParseKinds converts names to kinds, silently dropping unknown names and duplicates.
func ParseKinds(names []string) []Kind {
	seen := make(map[Kind]bool, len(names))
	var out []Kind
	for _, n := range names {
		k := Kind(n)
		if !k.Valid() || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// KindSet is a lookup set of requested kinds.
type KindSet map[Kind]bool

// NewKindSet builds a set from kinds. An empty input selects nothing.
func NewKindSet(kinds ...Kind) KindSet {
	s := make(KindSet, len(kinds))
	for _, k := range kinds {
		s[k] = true
	}
	return s
}

// Has reports whether k was requested.
func (s KindSet) Has(k Kind) bool { return s[k] }

// ContactBundle holds every identifier found for one page or entity. Each
// field is duplicate-free; element order is first-seen order.
type ContactBundle struct {
	Emails    []string `json:"emails"`
	Phones    []string `json:"phones"`
	Websites  []string `json:"websites"`
	WhatsApp  []string `json:"whatsapp"`
	Instagram []string `json:"instagram"`
	GitHub    []string `json:"github"`
	Twitter   []string `json:"twitter"`
	LinkedIn  []string `json:"linkedin"`
	Telegram  []string `json:"telegram"`
	Discord   []string `json:"discord"`
}

func (b *ContactBundle) field(k Kind) *[]string {
	switch k {
	case KindEmails:
		return &b.Emails
	case KindPhones:
		return &b.Phones
	case KindWebsites:
		return &b.Websites
	case KindWhatsApp:
		return &b.WhatsApp
	case KindInstagram:
		return &b.Instagram
	case KindGitHub:
		return &b.GitHub
	case KindTwitter:
		return &b.Twitter
	case KindLinkedIn:
		return &b.LinkedIn
	case KindTelegram:
		return &b.Telegram
	case KindDiscord:
		return &b.Discord
	}
	return nil
}

// Values returns the values held for kind k. Unknown kinds yield nil.
func (b ContactBundle) Values(k Kind) []string {
	if f := b.field(k); f != nil {
		return *f
	}
	return nil
}

// Set replaces the values held for kind k. Unknown kinds are ignored.
func (b *ContactBundle) Set(k Kind, values []string) {
	if f := b.field(k); f != nil {
		*f = values
	}
}

// Total counts contact values across all kinds.
func (b ContactBundle) Total() int {
	n := 0
	for _, k := range allKinds {
		n += len(b.Values(k))
	}
	return n
}

// IsEmpty reports whether the bundle carries no contact values at all.
func (b ContactBundle) IsEmpty() bool { return b.Total() == 0 }

// Normalized returns a copy where every field is non-nil, so JSON output
// always carries ten arrays.
func (b ContactBundle) Normalized() ContactBundle {
	var out ContactBundle
	for _, k := range allKinds {
		v := b.Values(k)
		cp := make([]string, len(v))
		copy(cp, v)
		out.Set(k, cp)
	}
	return out
}
