// Package lead combines contact bundles and lead records found by
// independent sources. Merges are additive: no accepted contact value is
// ever removed.
package lead

import (
	"net/url"
	"strings"
	"time"

	"github.com/sells-group/lead-scout/internal/model"
	"github.com/sells-group/lead-scout/internal/scorer"
)

// MergeBundles returns the per-kind union of a and b. Values of a come
// first, followed by values of b not already present.
func MergeBundles(a, b model.ContactBundle) model.ContactBundle {
	var out model.ContactBundle
	for _, k := range model.AllKinds() {
		if merged := union(a.Values(k), b.Values(k)); len(merged) > 0 {
			out.Set(k, merged)
		}
	}
	return out
}

func union(existing, incoming []string) []string {
	if len(existing) == 0 && len(incoming) == 0 {
		return nil
	}
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]bool, len(existing)+len(incoming))
	for _, list := range [][]string{existing, incoming} {
		for _, v := range list {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

func unionSources(existing, incoming []model.Source) []model.Source {
	out := make([]model.Source, 0, len(existing)+len(incoming))
	seen := make(map[model.Source]bool)
	for _, list := range [][]model.Source{existing, incoming} {
		for _, s := range list {
			if s != "" && !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// Incoming is a newly discovered record to fold into a persisted lead.
type Incoming struct {
	Contacts       model.ContactBundle
	Source         model.Source
	Quality        model.Quality
	RelevanceScore *int
	Tags           []string
	Description    string
}

// MergeIntoLead folds in into existing and returns it. Contacts, tags and
// sources are unioned with existing values kept first. Quality only moves
// up, except that an enriched source always sets it to high. The best
// relevance score is kept and UpdatedAt is refreshed.
func MergeIntoLead(existing *model.Lead, in Incoming) *model.Lead {
	existing.Contacts = MergeBundles(existing.Contacts, in.Contacts)
	existing.Tags = union(existing.Tags, in.Tags)
	existing.Sources = unionSources(existing.Sources, []model.Source{in.Source})
	if existing.Source == "" {
		existing.Source = in.Source
	}

	switch {
	case in.Source == model.SourceEnriched:
		existing.Quality = model.QualityHigh
	case scorer.Better(in.Quality, existing.Quality):
		existing.Quality = in.Quality
	}

	existing.RelevanceScore = maxScore(existing.RelevanceScore, in.RelevanceScore)
	if existing.Description == "" {
		existing.Description = in.Description
	}
	existing.UpdatedAt = time.Now().UTC()
	return existing
}

func maxScore(a, b *int) *int {
	switch {
	case b == nil:
		return a
	case a == nil || *b > *a:
		v := *b
		return &v
	default:
		return a
	}
}

// Candidate is one search or research result for a URL within a single
// discovery run, before it is persisted.
type Candidate struct {
	URL            string
	Title          string
	Description    string
	Contacts       model.ContactBundle
	Sources        []model.Source
	Quality        model.Quality
	RelevanceScore *int
	Tags           []string
}

// Absorb merges other into c: contacts, tags and sources are unioned, a
// higher relevance score is adopted, empty title and description are
// filled, and quality is recomputed from the merged bundle.
func (c *Candidate) Absorb(other Candidate) {
	c.Contacts = MergeBundles(c.Contacts, other.Contacts)
	c.Tags = union(c.Tags, other.Tags)
	c.Sources = unionSources(c.Sources, other.Sources)
	if other.RelevanceScore != nil && (c.RelevanceScore == nil || *other.RelevanceScore > *c.RelevanceScore) {
		v := *other.RelevanceScore
		c.RelevanceScore = &v
	}
	if c.Title == "" {
		c.Title = other.Title
	}
	if c.Description == "" {
		c.Description = other.Description
	}
	c.Rescore()
}

// Rescore recomputes the quality tier from the current bundle.
func (c *Candidate) Rescore() {
	c.Quality = scorer.Quality(c.Contacts, strings.TrimSpace(c.Description) != "")
}

// Combine merges candidates sharing a canonical URL, keeping the order in
// which URLs were first seen.
func Combine(cands []Candidate) []Candidate {
	var out []Candidate
	index := make(map[string]int, len(cands))
	for _, c := range cands {
		key := CanonicalURL(c.URL)
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			out[i].Absorb(c)
			continue
		}
		c.URL = key
		c.Rescore()
		index[key] = len(out)
		out = append(out, c)
	}
	return out
}

// CanonicalURL lower-cases scheme and host, drops the fragment and any
// trailing slash. Unparseable input is returned trimmed.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String()
}
