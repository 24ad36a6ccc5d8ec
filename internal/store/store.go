// Package store persists projects, queries, leads and directory entities. Each record is kept
// as a JSON document next to the columns used for lookups and filters.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-scout/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = eris.New("store: not found")

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	ProjectID string           `json:"project_id,omitempty"`
	QueryID   string           `json:"query_id,omitempty"`
	Status    model.LeadStatus `json:"status,omitempty"`
	Quality   model.Quality    `json:"quality,omitempty"`
	Limit     int              `json:"limit,omitempty"`
	Offset    int              `json:"offset,omitempty"`
}

func (f LeadFilter) limit() int {
	if f.Limit <= 0 {
		return 500
	}
	return f.Limit
}

// EntityFilter specifies criteria for listing directory entities. An empty
// or "all" type matches every type.
type EntityFilter struct {
	ProjectID string           `json:"project_id,omitempty"`
	SearchID  string           `json:"search_id,omitempty"`
	Type      model.EntityType `json:"type,omitempty"`
	Limit     int              `json:"limit,omitempty"`
	Offset    int              `json:"offset,omitempty"`
}

func (f EntityFilter) limit() int {
	if f.Limit <= 0 {
		return 500
	}
	return f.Limit
}

func (f EntityFilter) typeFilter() string {
	if f.Type == model.EntityAll {
		return ""
	}
	return string(f.Type)
}

// Store defines the persistence interface for lead discovery.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, p *model.Project) error
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	UpdateProject(ctx context.Context, p *model.Project) error
	// DeleteProject removes the project with its queries, leads, entities
	// and entity searches.
	DeleteProject(ctx context.Context, id string) error

	// Queries
	CreateQuery(ctx context.Context, q *model.Query) error
	GetQuery(ctx context.Context, id string) (*model.Query, error)
	ListQueries(ctx context.Context, projectID string) ([]model.Query, error)
	UpdateQuery(ctx context.Context, q *model.Query) error
	DeleteQuery(ctx context.Context, id string) error

	// Leads
	CreateLead(ctx context.Context, l *model.Lead) error
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	GetLeadByURL(ctx context.Context, projectID, url string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	UpdateLead(ctx context.Context, l *model.Lead) error
	DeleteLead(ctx context.Context, id string) error

	// Directory
	CreateEntitySearch(ctx context.Context, es *model.EntitySearch) error
	GetEntitySearch(ctx context.Context, id string) (*model.EntitySearch, error)
	ListEntitySearches(ctx context.Context, projectID string) ([]model.EntitySearch, error)
	UpdateEntitySearch(ctx context.Context, es *model.EntitySearch) error
	CreateEntity(ctx context.Context, e *model.Entity) error
	GetEntity(ctx context.Context, id string) (*model.Entity, error)
	ListEntities(ctx context.Context, filter EntityFilter) ([]model.Entity, error)
	UpdateEntity(ctx context.Context, e *model.Entity) error
	DeleteEntity(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// newID returns a short prefixed identifier such as "lead_3f9a1c2b7d4e".
func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

// stamp fills the id and timestamps of a record about to be inserted.
func stamp(id *string, prefix string, created, updated *time.Time) {
	if *id == "" {
		*id = newID(prefix)
	}
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func prepareProject(p *model.Project) {
	stamp(&p.ID, "proj", &p.CreatedAt, &p.UpdatedAt)
}

func prepareQuery(q *model.Query) {
	stamp(&q.ID, "query", &q.CreatedAt, &q.UpdatedAt)
	if q.Status == "" {
		q.Status = model.QueryStatusPending
	}
	if len(q.Targets) == 0 {
		q.Targets = []model.Kind{model.KindEmails}
	}
}

func prepareLead(l *model.Lead) {
	stamp(&l.ID, "lead", &l.CreatedAt, &l.UpdatedAt)
	if l.Status == "" {
		l.Status = model.LeadStatusNew
	}
	if l.Quality == "" {
		l.Quality = model.QualityLow
	}
	if l.Source != "" && len(l.Sources) == 0 {
		l.Sources = []model.Source{l.Source}
	}
}

func prepareEntitySearch(es *model.EntitySearch) {
	stamp(&es.ID, "dsearch", &es.CreatedAt, &es.UpdatedAt)
	if es.Status == "" {
		es.Status = model.QueryStatusPending
	}
	if es.EntityType == "" {
		es.EntityType = model.EntityAll
	}
}

func prepareEntity(e *model.Entity) {
	stamp(&e.ID, "ent", &e.CreatedAt, &e.UpdatedAt)
	if !e.Type.Valid() {
		e.Type = model.EntityOrganization
	}
	if e.Source == "" {
		e.Source = model.SourceAIResearch
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
}

func decode[T any](data []byte, what string) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, eris.Wrapf(err, "store: unmarshal %s", what)
	}
	return &v, nil
}
