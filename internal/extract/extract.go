// Package extract turns raw page text into a typed contact bundle using
// per-kind patterns, cleaners and the format tier of the validator.
package extract

import (
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/lead-scout/internal/denylist"
	"github.com/sells-group/lead-scout/internal/model"
	"github.com/sells-group/lead-scout/internal/validate"
)

// Extractor is stateless apart from its immutable lists and safe for
// concurrent use.
type Extractor struct {
	lists       *denylist.Lists
	format      *validate.Validator
	maxWebsites int
}

// New returns an Extractor backed by lists. Nil selects the built-in lists.
func New(lists *denylist.Lists) *Extractor {
	if lists == nil {
		lists = denylist.Default()
	}
	return &Extractor{
		lists:       lists,
		format:      validate.New(lists),
		maxWebsites: MaxWebsites,
	}
}

var defaultExtractor = New(nil)

// Extract runs the built-in Extractor.
func Extract(text, sourceURL string, targets []model.Kind) model.ContactBundle {
	return defaultExtractor.Extract(text, sourceURL, targets)
}

// Extract returns the contacts of each requested kind found in text. Kinds
// not in targets are never scanned. sourceURL identifies the page the text
// came from so links back to it are not reported as websites.
func (e *Extractor) Extract(text, sourceURL string, targets []model.Kind) model.ContactBundle {
	var b model.ContactBundle
	if text == "" || len(targets) == 0 {
		return b
	}
	text = norm.NFKC.String(text)
	want := model.NewKindSet(targets...)

	for _, k := range model.AllKinds() {
		if !want.Has(k) {
			continue
		}

		var found []string
		if k == model.KindWebsites {
			found = e.websites(text, rootDomainOf(sourceURL))
		} else {
			found = e.match(k, text)
		}

		kept := found[:0]
		for _, v := range found {
			if e.format.Valid(k, v) {
				kept = append(kept, v)
			}
		}
		if len(kept) > 0 {
			b.Set(k, kept)
		}
	}
	return b
}

// match runs the kind's pattern and cleaner, dropping rejects and repeats
// while keeping first-seen order.
func (e *Extractor) match(k model.Kind, text string) []string {
	p, ok := patterns[k]
	if !ok {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	for _, m := range p.re.FindAllStringSubmatch(text, -1) {
		if p.group >= len(m) {
			continue
		}
		v, ok := p.clean(e, m[p.group])
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
