package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/lead-scout/internal/model"
)

func TestQuality(t *testing.T) {
	tests := []struct {
		name    string
		bundle  model.ContactBundle
		hasDesc bool
		want    model.Quality
	}{
		{"empty", model.ContactBundle{}, false, model.QualityLow},
		{"empty with description", model.ContactBundle{}, true, model.QualityLow},
		{"one phone", model.ContactBundle{Phones: []string{"5551234"}}, true, model.QualityLow},
		{"one email", model.ContactBundle{Emails: []string{"a@acme.com"}}, false, model.QualityMedium},
		{"two socials", model.ContactBundle{GitHub: []string{"acme"}, Twitter: []string{"acme"}}, true, model.QualityMedium},
		{
			"email and phone no description",
			model.ContactBundle{Emails: []string{"a@acme.com"}, Phones: []string{"5551234"}},
			false,
			model.QualityMedium,
		},
		{
			"four contacts with description",
			model.ContactBundle{
				Emails:   []string{"a@acme.com"},
				Phones:   []string{"5551234", "5559876"},
				Websites: []string{"https://acme.com"},
			},
			true,
			model.QualityHigh,
		},
		{
			"four contacts without description",
			model.ContactBundle{
				Emails:   []string{"a@acme.com"},
				Phones:   []string{"5551234", "5559876"},
				Websites: []string{"https://acme.com"},
			},
			false,
			model.QualityMedium,
		},
		{
			"three contacts no email",
			model.ContactBundle{Phones: []string{"5551234"}, GitHub: []string{"acme"}, Twitter: []string{"acme"}},
			true,
			model.QualityMedium,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Quality(tt.bundle, tt.hasDesc))
		})
	}
}

func TestBetter(t *testing.T) {
	assert.True(t, Better(model.QualityHigh, model.QualityMedium))
	assert.False(t, Better(model.QualityMedium, model.QualityMedium))
	assert.False(t, Better(model.QualityLow, model.QualityHigh))
	assert.True(t, Better(model.QualityLow, ""))
}

func TestRelevance(t *testing.T) {
	p := &model.Project{
		TargetKeywords:  []string{"Nostr", "relay", " "},
		ExcludeKeywords: []string{"casino"},
		Industry:        "Fintech",
	}

	score, excluded := Relevance(p, "Nostr relay operators", "A fintech directory")
	assert.False(t, excluded)
	assert.Equal(t, 80, score)

	score, excluded = Relevance(p, "Nostr casino", "")
	assert.True(t, excluded)
	assert.Zero(t, score)

	score, _ = Relevance(p, "Unrelated", "")
	assert.Equal(t, 50, score)

	score, excluded = Relevance(nil, "anything", "")
	assert.False(t, excluded)
	assert.Equal(t, 50, score)
}
