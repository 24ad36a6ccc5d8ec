package lead

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-scout/internal/model"
)

func intPtr(v int) *int { return &v }

func TestMergeBundles(t *testing.T) {
	a := model.ContactBundle{Emails: []string{"a@x.com"}, GitHub: []string{"acme"}}
	b := model.ContactBundle{Emails: []string{"b@x.com", "a@x.com"}, Twitter: []string{"acme"}}

	got := MergeBundles(a, b)

	assert.Equal(t, []string{"a@x.com", "b@x.com"}, got.Emails)
	assert.Equal(t, []string{"acme"}, got.GitHub)
	assert.Equal(t, []string{"acme"}, got.Twitter)
	assert.Nil(t, got.Phones)

	// Inputs are not aliased.
	got.Emails[0] = "changed"
	assert.Equal(t, "a@x.com", a.Emails[0])
}

func TestMergeBundles_Commutative(t *testing.T) {
	a := model.ContactBundle{Phones: []string{"5551234", "5559876"}}
	b := model.ContactBundle{Phones: []string{"5559876", "5550000"}}
	assert.ElementsMatch(t, MergeBundles(a, b).Phones, MergeBundles(b, a).Phones)
}

func TestMergeIntoLead(t *testing.T) {
	before := time.Now().Add(-time.Hour).UTC()
	existing := &model.Lead{
		URL:            "https://acme.com",
		Contacts:       model.ContactBundle{Emails: []string{"jane@acme.com"}},
		Source:         model.SourceKeywordSearch,
		Sources:        []model.Source{model.SourceKeywordSearch},
		Quality:        model.QualityMedium,
		Tags:           []string{"saas"},
		RelevanceScore: intPtr(70),
		UpdatedAt:      before,
	}

	got := MergeIntoLead(existing, Incoming{
		Contacts:       model.ContactBundle{Emails: []string{"bob@acme.com", "jane@acme.com"}, GitHub: []string{"acme"}},
		Source:         model.SourceAIResearch,
		Quality:        model.QualityLow,
		RelevanceScore: intPtr(60),
		Tags:           []string{"saas", "b2b"},
		Description:    "Acme makes widgets",
	})

	require.Same(t, existing, got)
	assert.Equal(t, []string{"jane@acme.com", "bob@acme.com"}, got.Contacts.Emails)
	assert.Equal(t, []string{"acme"}, got.Contacts.GitHub)
	assert.Equal(t, []string{"saas", "b2b"}, got.Tags)
	assert.Equal(t, []model.Source{model.SourceKeywordSearch, model.SourceAIResearch}, got.Sources)
	assert.Equal(t, model.SourceKeywordSearch, got.Source)
	assert.Equal(t, model.QualityMedium, got.Quality, "quality never downgrades")
	assert.Equal(t, 70, *got.RelevanceScore)
	assert.Equal(t, "Acme makes widgets", got.Description)
	assert.True(t, got.UpdatedAt.After(before))
}

func TestMergeIntoLead_QualityUpgrade(t *testing.T) {
	l := &model.Lead{Quality: model.QualityLow}
	MergeIntoLead(l, Incoming{Source: model.SourceKeywordSearch, Quality: model.QualityMedium, RelevanceScore: intPtr(40)})
	assert.Equal(t, model.QualityMedium, l.Quality)
	assert.Equal(t, 40, *l.RelevanceScore)
}

func TestMergeIntoLead_EnrichmentForcesHigh(t *testing.T) {
	l := &model.Lead{Quality: model.QualityLow}
	MergeIntoLead(l, Incoming{Source: model.SourceEnriched, Quality: model.QualityMedium})
	assert.Equal(t, model.QualityHigh, l.Quality)
	assert.Contains(t, l.Sources, model.SourceEnriched)
}

func TestMergeIntoLead_NeverRemovesContacts(t *testing.T) {
	l := &model.Lead{Contacts: model.ContactBundle{Telegram: []string{"durov"}}}
	MergeIntoLead(l, Incoming{Source: model.SourceManual})
	assert.Equal(t, []string{"durov"}, l.Contacts.Telegram)
}

func TestCandidate_Absorb(t *testing.T) {
	c := Candidate{
		URL:            "https://acme.com",
		Contacts:       model.ContactBundle{Emails: []string{"jane@acme.com"}},
		Sources:        []model.Source{model.SourceKeywordSearch},
		RelevanceScore: intPtr(50),
		Tags:           []string{"a"},
	}
	c.Absorb(Candidate{
		Title:          "Acme",
		Description:    "Widgets",
		Contacts:       model.ContactBundle{Emails: []string{"jane@acme.com"}, Phones: []string{"4155550100"}, GitHub: []string{"acme"}},
		Sources:        []model.Source{model.SourceAIResearch},
		RelevanceScore: intPtr(85),
		Tags:           []string{"b", "a"},
	})

	assert.Equal(t, "Acme", c.Title)
	assert.Equal(t, 3, c.Contacts.Total())
	assert.Equal(t, []string{"a", "b"}, c.Tags)
	assert.Equal(t, []model.Source{model.SourceKeywordSearch, model.SourceAIResearch}, c.Sources)
	assert.Equal(t, 85, *c.RelevanceScore)
	assert.Equal(t, model.QualityHigh, c.Quality)

	c.Absorb(Candidate{RelevanceScore: intPtr(10)})
	assert.Equal(t, 85, *c.RelevanceScore)
}

func TestCombine(t *testing.T) {
	got := Combine([]Candidate{
		{URL: "https://Acme.com/", Contacts: model.ContactBundle{Emails: []string{"jane@acme.com"}}, Sources: []model.Source{model.SourceKeywordSearch}},
		{URL: "https://other.io", Contacts: model.ContactBundle{GitHub: []string{"other"}}},
		{URL: "https://acme.com#team", Contacts: model.ContactBundle{Twitter: []string{"acme"}}, Sources: []model.Source{model.SourceAIResearch}},
		{URL: ""},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "https://acme.com", got[0].URL)
	assert.Equal(t, []string{"jane@acme.com"}, got[0].Contacts.Emails)
	assert.Equal(t, []string{"acme"}, got[0].Contacts.Twitter)
	assert.Equal(t, model.QualityMedium, got[0].Quality)
	assert.Equal(t, "https://other.io", got[1].URL)
	assert.Equal(t, model.QualityLow, got[1].Quality)
}

func TestCanonicalURL(t *testing.T) {
	tests := map[string]string{
		"https://ACME.com/":          "https://acme.com",
		"HTTPS://acme.com/about/":    "https://acme.com/about",
		"https://acme.com/a?b=1#top": "https://acme.com/a?b=1",
		"  not a url ":               "not a url",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, CanonicalURL(in))
		})
	}
}
