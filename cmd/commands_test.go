package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-scout/internal/discovery"
	"github.com/sells-group/lead-scout/internal/model"
	"github.com/sells-group/lead-scout/internal/resilience"
	"github.com/sells-group/lead-scout/internal/sheet"
	"github.com/sells-group/lead-scout/internal/store"
	"github.com/sells-group/lead-scout/pkg/perplexity"
)

func TestCreateAndListProjects(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, testConfig(t))

	err := createProject(ctx, st, &model.Project{})
	assert.ErrorContains(t, err, "project name is required")

	p := &model.Project{Name: "Relays", Industry: "infrastructure"}
	require.NoError(t, createProject(ctx, st, p))
	assert.NotEmpty(t, p.ID)

	var buf bytes.Buffer
	require.NoError(t, listProjects(ctx, st, &buf))
	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, p.ID)
	assert.Contains(t, out, "Relays")
	assert.Contains(t, out, "infrastructure")
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name    string
		project string
		term    string
		targets []string
		sources []string
		wantErr string
		check   func(t *testing.T, q *model.Query)
	}{
		{
			name:    "defaults",
			project: "proj_1",
			term:    "  nostr relays ",
			check: func(t *testing.T, q *model.Query) {
				assert.Equal(t, "nostr relays", q.SearchTerm)
				assert.Nil(t, q.Targets)
				assert.Nil(t, q.Sources)
			},
		},
		{
			name:    "targets and sources",
			project: "proj_1",
			term:    "relays",
			targets: []string{"emails", "github"},
			sources: []string{"AI"},
			check: func(t *testing.T, q *model.Query) {
				assert.Equal(t, []model.Kind{model.KindEmails, model.KindGitHub}, q.Targets)
				assert.Equal(t, []model.QuerySource{model.QuerySourceAI}, q.Sources)
			},
		},
		{name: "missing project", term: "relays", wantErr: "project id is required"},
		{name: "blank term", project: "proj_1", term: " ", wantErr: "search term is required"},
		{name: "bad target", project: "proj_1", term: "x", targets: []string{"fax"}, wantErr: "unknown contact kind"},
		{name: "bad source", project: "proj_1", term: "x", sources: []string{"google"}, wantErr: "unknown query source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := buildQuery(tt.project, tt.term, tt.targets, tt.sources)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, q)
		})
	}
}

func TestListQueries(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, testConfig(t))
	p := &model.Project{Name: "Relays"}
	require.NoError(t, st.CreateProject(ctx, p))
	q := &model.Query{ProjectID: p.ID, SearchTerm: "nostr relays", ImprovedQuery: "nostr relay operators"}
	require.NoError(t, st.CreateQuery(ctx, q))

	var buf bytes.Buffer
	require.NoError(t, listQueries(ctx, st, &buf, p.ID))
	assert.Contains(t, buf.String(), q.ID)
	assert.Contains(t, buf.String(), "pending")
	assert.Contains(t, buf.String(), "nostr relay operators")

	buf.Reset()
	require.NoError(t, listQueries(ctx, st, &buf, "proj_other"))
	assert.NotContains(t, buf.String(), q.ID)
}

func seedLead(t *testing.T, st store.Store) (*model.Project, *model.Lead) {
	t.Helper()
	ctx := context.Background()
	p := &model.Project{Name: "Relays"}
	require.NoError(t, st.CreateProject(ctx, p))
	l := &model.Lead{
		ProjectID: p.ID,
		URL:       "https://acme.com",
		Title:     "Acme",
		Contacts:  model.ContactBundle{Emails: []string{"jane@acme.com"}, GitHub: []string{"acme"}},
		Source:    model.SourceKeywordSearch,
		Quality:   model.QualityMedium,
	}
	require.NoError(t, st.CreateLead(ctx, l))
	return p, l
}

func TestSetLeadStatus(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, testConfig(t))
	_, l := seedLead(t, st)

	got, err := setLeadStatus(ctx, st, l.ID, model.LeadStatusContacted, "emailed Jane")
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusContacted, got.Status)

	stored, err := st.GetLead(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusContacted, stored.Status)
	assert.Equal(t, "emailed Jane", stored.Notes)

	_, err = setLeadStatus(ctx, st, l.ID, "ghosted", "")
	assert.ErrorContains(t, err, "unknown lead status")

	_, err = setLeadStatus(ctx, st, "lead_missing", model.LeadStatusReplied, "")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestWriteLeadTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeLeadTable(&buf, []model.Lead{{
		ID:       "lead_abc",
		URL:      "https://acme.com",
		Quality:  model.QualityHigh,
		Status:   model.LeadStatusNew,
		Contacts: model.ContactBundle{Emails: []string{"jane@acme.com"}},
	}}))
	assert.Contains(t, buf.String(), "QUALITY")
	assert.Contains(t, buf.String(), "lead_abc")
	assert.Contains(t, buf.String(), "https://acme.com")
}

func TestExportLeads(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, testConfig(t))
	p, _ := seedLead(t, st)

	var buf bytes.Buffer
	n, err := exportLeads(ctx, st, &buf, store.LeadFilter{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	recs, err := sheet.ReadLeadsBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "https://acme.com", recs[0].URL)
	assert.Equal(t, []string{"jane@acme.com"}, recs[0].Contacts.Emails)
	assert.Equal(t, []string{"acme"}, recs[0].Contacts.GitHub)
}

func TestLeadFilter(t *testing.T) {
	defer func() { leadsFlags.status, leadsFlags.quality = "", "" }()

	leadsFlags.status, leadsFlags.quality = "replied", "high"
	f, err := leadFilter()
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusReplied, f.Status)
	assert.Equal(t, model.QualityHigh, f.Quality)

	leadsFlags.status = "bogus"
	_, err = leadFilter()
	assert.ErrorContains(t, err, "unknown lead status")

	leadsFlags.status, leadsFlags.quality = "", "great"
	_, err = leadFilter()
	assert.ErrorContains(t, err, "unknown quality")
}

func perplexityServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":"bad"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(perplexity.ChatCompletionResponse{
			Choices: []perplexity.Choice{{Message: perplexity.Message{Role: "assistant", Content: content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testRunner(st store.Store, baseURL string) *discovery.Runner {
	return discovery.NewRunner(st,
		discovery.WithRetryPolicy(resilience.Policy{Attempts: 1}),
		discovery.WithResearch(perplexity.NewClient("pplx", perplexity.WithBaseURL(baseURL))),
	)
}

func TestEnrichLeads(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, testConfig(t))
	_, l := seedLead(t, st)
	srv := perplexityServer(t, http.StatusOK, `{"companyInfo":"Relays","additionalContacts":{"emails":["ceo@acme.com"]}}`)

	var buf bytes.Buffer
	err := enrichLeads(ctx, testRunner(st, srv.URL), &buf, []string{l.ID, "lead_missing"})
	assert.ErrorContains(t, err, "1 of 2 leads failed to enrich")
	assert.Contains(t, buf.String(), l.ID+"\thigh\t3 contacts")
	assert.Contains(t, buf.String(), "lead_missing\tfailed")

	stored, err := st.GetLead(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QualityHigh, stored.Quality)
	assert.NotNil(t, stored.EnrichedAt)
}
