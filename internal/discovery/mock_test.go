package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sells-group/lead-scout/internal/model"
	"github.com/sells-group/lead-scout/internal/store"
	"github.com/sells-group/lead-scout/pkg/brave"
	"github.com/sells-group/lead-scout/pkg/perplexity"
)

// mockStore is an in-memory store.Store for testing.
type mockStore struct {
	mu       sync.Mutex
	seq      int
	projects map[string]model.Project
	queries  map[string]model.Query
	leads    map[string]model.Lead
	searches map[string]model.EntitySearch
	entities map[string]model.Entity
	updates  []model.QueryStatus
	esStates []model.QueryStatus
}

func newMockStore() *mockStore {
	return &mockStore{
		projects: make(map[string]model.Project),
		queries:  make(map[string]model.Query),
		leads:    make(map[string]model.Lead),
		searches: make(map[string]model.EntitySearch),
		entities: make(map[string]model.Entity),
	}
}

func (m *mockStore) id(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s_%d", prefix, m.seq)
}

func (m *mockStore) CreateProject(_ context.Context, p *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = m.id("proj")
	}
	m.projects[p.ID] = *p
	return nil
}

func (m *mockStore) GetProject(_ context.Context, id string) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *mockStore) ListProjects(_ context.Context) ([]model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockStore) UpdateProject(_ context.Context, p *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[p.ID]; !ok {
		return store.ErrNotFound
	}
	m.projects[p.ID] = *p
	return nil
}

func (m *mockStore) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *mockStore) CreateQuery(_ context.Context, q *model.Query) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.ID == "" {
		q.ID = m.id("query")
	}
	m.queries[q.ID] = *q
	return nil
}

func (m *mockStore) GetQuery(_ context.Context, id string) (*model.Query, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queries[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &q, nil
}

func (m *mockStore) ListQueries(_ context.Context, projectID string) ([]model.Query, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Query
	for _, q := range m.queries {
		if projectID == "" || q.ProjectID == projectID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateQuery(_ context.Context, q *model.Query) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.queries[q.ID]; !ok {
		return store.ErrNotFound
	}
	m.queries[q.ID] = *q
	m.updates = append(m.updates, q.Status)
	return nil
}

func (m *mockStore) DeleteQuery(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.queries, id)
	return nil
}

func (m *mockStore) CreateLead(_ context.Context, l *model.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == "" {
		l.ID = m.id("lead")
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	m.leads[l.ID] = *l
	return nil
}

func (m *mockStore) GetLead(_ context.Context, id string) (*model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &l, nil
}

func (m *mockStore) GetLeadByURL(_ context.Context, projectID, url string) (*model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.leads {
		if l.ProjectID == projectID && l.URL == url {
			return &l, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) ListLeads(_ context.Context, f store.LeadFilter) ([]model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Lead
	for _, l := range m.leads {
		if f.ProjectID != "" && l.ProjectID != f.ProjectID {
			continue
		}
		if f.Quality != "" && l.Quality != f.Quality {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out, nil
}

func (m *mockStore) UpdateLead(_ context.Context, l *model.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[l.ID]; !ok {
		return store.ErrNotFound
	}
	m.leads[l.ID] = *l
	return nil
}

func (m *mockStore) DeleteLead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.leads, id)
	return nil
}

func (m *mockStore) CreateEntitySearch(_ context.Context, es *model.EntitySearch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if es.ID == "" {
		es.ID = m.id("dsearch")
	}
	m.searches[es.ID] = *es
	m.esStates = append(m.esStates, es.Status)
	return nil
}

func (m *mockStore) GetEntitySearch(_ context.Context, id string) (*model.EntitySearch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	es, ok := m.searches[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &es, nil
}

func (m *mockStore) ListEntitySearches(_ context.Context, projectID string) ([]model.EntitySearch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.EntitySearch
	for _, es := range m.searches {
		if projectID == "" || es.ProjectID == projectID {
			out = append(out, es)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateEntitySearch(_ context.Context, es *model.EntitySearch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.searches[es.ID]; !ok {
		return store.ErrNotFound
	}
	m.searches[es.ID] = *es
	m.esStates = append(m.esStates, es.Status)
	return nil
}

func (m *mockStore) CreateEntity(_ context.Context, e *model.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = m.id("ent")
	}
	m.entities[e.ID] = *e
	return nil
}

func (m *mockStore) GetEntity(_ context.Context, id string) (*model.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &e, nil
}

func (m *mockStore) ListEntities(_ context.Context, f store.EntityFilter) ([]model.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Entity
	for _, e := range m.entities {
		if f.ProjectID != "" && e.ProjectID != f.ProjectID {
			continue
		}
		if f.SearchID != "" && e.SearchID != f.SearchID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockStore) UpdateEntity(_ context.Context, e *model.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entities[e.ID]; !ok {
		return store.ErrNotFound
	}
	m.entities[e.ID] = *e
	return nil
}

func (m *mockStore) DeleteEntity(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entities, id)
	return nil
}

func (m *mockStore) Migrate(_ context.Context) error { return nil }
func (m *mockStore) Close() error                    { return nil }

func (m *mockStore) leadByURL(url string) (model.Lead, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.leads {
		if l.URL == url {
			return l, true
		}
	}
	return model.Lead{}, false
}

// mockSearch implements brave.Client.
type mockSearch struct {
	results []brave.Result
	err     error
	calls   int
}

func (m *mockSearch) Search(_ context.Context, _ string, _ int) ([]brave.Result, error) {
	m.calls++
	return m.results, m.err
}

// mockResearch implements perplexity.Client, replying with fixed content.
type mockResearch struct {
	content string
	err     error
	calls   int
	last    perplexity.ChatCompletionRequest
}

func (m *mockResearch) ChatCompletion(_ context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	m.calls++
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return &perplexity.ChatCompletionResponse{
		Choices: []perplexity.Choice{{Message: perplexity.Message{Role: "assistant", Content: m.content}}},
	}, nil
}

// mockFetcher serves HTML by URL.
type mockFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (m *mockFetcher) Fetch(_ context.Context, url string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, url)
	return m.pages[url]
}
