// Package scorer derives triage signals for leads: the coarse quality tier
// and a keyword relevance score.
package scorer

import "github.com/sells-group/lead-scout/internal/model"

// Quality returns the tier for a bundle. High needs three or more contacts,
// at least one email and a description; medium needs two contacts or any
// email.
func Quality(b model.ContactBundle, hasDescription bool) model.Quality {
	total := b.Total()
	emails := len(b.Emails)
	switch {
	case total >= 3 && emails >= 1 && hasDescription:
		return model.QualityHigh
	case total >= 2 || emails >= 1:
		return model.QualityMedium
	default:
		return model.QualityLow
	}
}

// Better reports whether a ranks strictly above b.
func Better(a, b model.Quality) bool {
	return a.Rank() > b.Rank()
}
