package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-scout/internal/model"
	"github.com/sells-group/lead-scout/internal/resilience"
	"github.com/sells-group/lead-scout/internal/store"
	"github.com/sells-group/lead-scout/pkg/brave"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const researchReply = "```json\n" + `[
	{"url":"https://acme.com","title":"Acme","description":"Relay operator","contacts":{"github":["acme"]},"relevanceScore":90,"tags":["relay"]},
	{"url":"https://gamma.dev","title":"Gamma","contacts":{"emails":["not-an-email"]},"relevanceScore":70}
]` + "\n```"

func seed(t *testing.T, st *mockStore, sources ...model.QuerySource) (*model.Project, *model.Query) {
	t.Helper()
	ctx := context.Background()
	p := &model.Project{
		Name:            "Relays",
		TargetKeywords:  []string{"relay"},
		ExcludeKeywords: []string{"casino"},
	}
	require.NoError(t, st.CreateProject(ctx, p))
	q := &model.Query{
		ProjectID:  p.ID,
		SearchTerm: "nostr relays",
		Targets:    []model.Kind{model.KindEmails, model.KindGitHub},
		Sources:    sources,
		Status:     model.QueryStatusPending,
	}
	require.NoError(t, st.CreateQuery(ctx, q))
	return p, q
}

func newTestRunner(st store.Store, opts ...Option) *Runner {
	opts = append([]Option{WithRetryPolicy(resilience.Policy{Attempts: 1})}, opts...)
	r := NewRunner(st, opts...)
	r.now = func() time.Time { return fixedNow }
	return r
}

func searchHits() []brave.Result {
	return []brave.Result{
		{URL: "https://acme.com/", Title: "Acme Relays", Description: "Relay operators. Contact jane@acme.com"},
		{URL: "https://casino.example.net", Title: "Casino relay bonus", Description: "win big"},
		{URL: "https://beta.io", Title: "Beta", Description: "Beta relay platform"},
	}
}

func TestRun_KeywordAndAI(t *testing.T) {
	st := newMockStore()
	_, q := seed(t, st)
	search := &mockSearch{results: searchHits()}
	research := &mockResearch{content: researchReply}
	fetcher := &mockFetcher{pages: map[string]string{
		"https://beta.io": `<html><head><title>Beta Relays</title></head><body><p>Write to bob@beta.io</p></body></html>`,
	}}

	r := newTestRunner(st, WithSearch(search), WithResearch(research), WithFetcher(fetcher))
	res, err := r.Run(context.Background(), q.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Searched)
	assert.Equal(t, 2, res.Researched)
	assert.Equal(t, 1, res.Excluded)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 0, res.Updated)
	require.Len(t, res.Leads, 2)
	assert.Equal(t, []string{"https://beta.io"}, fetcher.calls)

	acme, ok := st.leadByURL("https://acme.com")
	require.True(t, ok)
	assert.Equal(t, q.ID, acme.QueryID)
	assert.Equal(t, "Acme Relays", acme.Title)
	assert.Equal(t, []string{"jane@acme.com"}, acme.Contacts.Emails)
	assert.Equal(t, []string{"acme"}, acme.Contacts.GitHub)
	assert.Equal(t, []model.Source{model.SourceKeywordSearch, model.SourceAIResearch}, acme.Sources)
	assert.Equal(t, model.SourceKeywordSearch, acme.Source)
	assert.Equal(t, model.QualityMedium, acme.Quality)
	require.NotNil(t, acme.RelevanceScore)
	assert.Equal(t, 90, *acme.RelevanceScore)
	assert.Equal(t, []string{"relay"}, acme.Tags)
	assert.Equal(t, model.LeadStatusNew, acme.Status)

	beta, ok := st.leadByURL("https://beta.io")
	require.True(t, ok)
	assert.Equal(t, "Beta", beta.Title)
	assert.Equal(t, []string{"bob@beta.io"}, beta.Contacts.Emails)
	assert.Equal(t, 60, *beta.RelevanceScore)

	_, ok = st.leadByURL("https://gamma.dev")
	assert.False(t, ok, "leads with no valid contacts are not saved")

	got, err := st.GetQuery(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QueryStatusCompleted, got.Status)
	assert.Equal(t, 2, got.ResultCount)
	require.NotNil(t, got.LastRun)
	assert.Equal(t, fixedNow, *got.LastRun)
	assert.Equal(t, []model.QueryStatus{model.QueryStatusRunning, model.QueryStatusCompleted}, st.updates)
}

func TestRun_PageTitleFillsBlankSnippet(t *testing.T) {
	st := newMockStore()
	_, q := seed(t, st, model.QuerySourceKeyword)
	search := &mockSearch{results: []brave.Result{{URL: "https://beta.io", Description: "relay"}}}
	fetcher := &mockFetcher{pages: map[string]string{
		"https://beta.io": `<html><head><title>Beta Relays</title></head><body>bob@beta.io</body></html>`,
	}}

	r := newTestRunner(st, WithSearch(search), WithFetcher(fetcher))
	_, err := r.Run(context.Background(), q.ID)
	require.NoError(t, err)

	beta, ok := st.leadByURL("https://beta.io")
	require.True(t, ok)
	assert.Equal(t, "Beta Relays", beta.Title)
}

func TestRun_SourcesRestrictProviders(t *testing.T) {
	st := newMockStore()
	_, q := seed(t, st, model.QuerySourceAI)
	search := &mockSearch{results: searchHits()}
	research := &mockResearch{content: researchReply}

	r := newTestRunner(st, WithSearch(search), WithResearch(research))
	res, err := r.Run(context.Background(), q.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, search.calls)
	assert.Equal(t, 1, research.calls)
	assert.Equal(t, 0, res.Searched)
	assert.Equal(t, 1, res.Created)
}

func TestRun_ImprovedQueryIsSearched(t *testing.T) {
	st := newMockStore()
	_, q := seed(t, st, model.QuerySourceAI)
	q.ImprovedQuery = "nostr relay operators contact"
	require.NoError(t, st.UpdateQuery(context.Background(), q))
	research := &mockResearch{content: "[]"}

	r := newTestRunner(st, WithResearch(research))
	_, err := r.Run(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Contains(t, research.last.Messages[1].Content, `"nostr relay operators contact"`)
}

func TestRun_MergesIntoExistingLead(t *testing.T) {
	st := newMockStore()
	p, q := seed(t, st, model.QuerySourceAI)
	existing := &model.Lead{
		ProjectID: p.ID,
		URL:       "https://acme.com",
		Contacts:  model.ContactBundle{Emails: []string{"old@acme.com"}},
		Source:    model.SourceManual,
		Sources:   []model.Source{model.SourceManual},
		Quality:   model.QualityLow,
		Status:    model.LeadStatusContacted,
	}
	require.NoError(t, st.CreateLead(context.Background(), existing))

	r := newTestRunner(st, WithResearch(&mockResearch{content: researchReply}))
	res, err := r.Run(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Updated)

	got, err := st.GetLead(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"old@acme.com"}, got.Contacts.Emails)
	assert.Equal(t, []string{"acme"}, got.Contacts.GitHub)
	assert.Equal(t, []model.Source{model.SourceManual, model.SourceAIResearch}, got.Sources)
	assert.Equal(t, model.SourceManual, got.Source)
	assert.Equal(t, model.QualityLow, got.Quality, "a github-only candidate does not upgrade quality")
	assert.Equal(t, model.LeadStatusContacted, got.Status)
	assert.Equal(t, "Acme", got.Title)
}

func TestRun_PartialFailureCompletes(t *testing.T) {
	st := newMockStore()
	_, q := seed(t, st)
	search := &mockSearch{err: errors.New("search down")}
	research := &mockResearch{content: researchReply}

	r := newTestRunner(st, WithSearch(search), WithResearch(research))
	res, err := r.Run(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	got, _ := st.GetQuery(context.Background(), q.ID)
	assert.Equal(t, model.QueryStatusCompleted, got.Status)
}

func TestRun_AllProvidersFail(t *testing.T) {
	st := newMockStore()
	_, q := seed(t, st)
	search := &mockSearch{err: errors.New("search down")}
	research := &mockResearch{err: errors.New("research down")}

	r := newTestRunner(st, WithSearch(search), WithResearch(research))
	res, err := r.Run(context.Background(), q.ID)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "search down")
	assert.Contains(t, err.Error(), "research down")

	got, _ := st.GetQuery(context.Background(), q.ID)
	assert.Equal(t, model.QueryStatusFailed, got.Status)
	assert.Equal(t, 0, got.ResultCount)
	assert.Equal(t, []model.QueryStatus{model.QueryStatusRunning, model.QueryStatusFailed}, st.updates)
}

func TestRun_NoProviders(t *testing.T) {
	st := newMockStore()
	_, q := seed(t, st)

	res, err := newTestRunner(st).Run(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Leads)

	got, _ := st.GetQuery(context.Background(), q.ID)
	assert.Equal(t, model.QueryStatusCompleted, got.Status)
}

func TestRun_QueryNotFound(t *testing.T) {
	_, err := newTestRunner(newMockStore()).Run(context.Background(), "query_missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestRun_BreakerOpenSkipsSearch(t *testing.T) {
	st := newMockStore()
	_, q := seed(t, st, model.QuerySourceKeyword)
	search := &mockSearch{err: errors.New("search down")}
	b := resilience.NewBreaker("brave", 1, time.Hour)

	r := newTestRunner(st, WithSearch(search), WithBreaker(b))
	_, err := r.Run(context.Background(), q.ID)
	require.Error(t, err)
	_, err = r.Run(context.Background(), q.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit open")
	assert.Equal(t, 1, search.calls)
}
