package scorer

import (
	"math"
	"strings"

	"github.com/sells-group/lead-scout/internal/model"
)

// Relevance weights for keyword-search results, which carry no score of
// their own.
const (
	relevanceBase       = 50
	relevancePerKeyword = 10
	relevanceIndustry   = 10
)

// Relevance scores a search result against the project's keywords on a
// 0-100 scale. Any exclude keyword yields zero and excluded=true.
func Relevance(p *model.Project, title, description string) (score int, excluded bool) {
	if p == nil {
		return relevanceBase, false
	}
	lower := strings.ToLower(title + " " + description)

	if containsAny(lower, lowerAll(p.ExcludeKeywords)...) {
		return 0, true
	}

	s := float64(relevanceBase)
	for _, kw := range lowerAll(p.TargetKeywords) {
		if strings.Contains(lower, kw) {
			s += relevancePerKeyword
		}
	}
	if p.Industry != "" && strings.Contains(lower, strings.ToLower(p.Industry)) {
		s += relevanceIndustry
	}
	return int(math.Min(100, s)), false
}

// containsAny checks if s contains any of the given substrings.
func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
