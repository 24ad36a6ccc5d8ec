package model

import "time"

// Source identifies where a lead or discovery result came from.
type Source string

const (
	SourceKeywordSearch Source = "keyword-search"
	SourceAIResearch    Source = "ai-research"
	SourceEnriched      Source = "enriched"
	SourceManual        Source = "manual"
)

// Quality is the coarse outreach triage tier of a lead.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// Rank orders tiers low < medium < high. Unknown tiers rank below low.
func (q Quality) Rank() int {
	switch q {
	case QualityLow:
		return 1
	case QualityMedium:
		return 2
	case QualityHigh:
		return 3
	default:
		return 0
	}
}

// LeadStatus tracks outreach progress on a lead.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusReplied   LeadStatus = "replied"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusRejected  LeadStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusReplied, LeadStatusConverted, LeadStatusRejected:
		return true
	}
	return false
}

// Lead is one discovered prospect, keyed by URL within a project.
type Lead struct {
	ID             string        `json:"id"`
	ProjectID      string        `json:"project_id"`
	QueryID        string        `json:"query_id,omitempty"`
	URL            string        `json:"url"`
	Title          string        `json:"title"`
	Description    string        `json:"description,omitempty"`
	Contacts       ContactBundle `json:"contacts"`
	Source         Source        `json:"source"`
	Sources        []Source      `json:"sources"`
	Quality        Quality       `json:"quality"`
	Tags           []string      `json:"tags"`
	RelevanceScore *int          `json:"relevance_score,omitempty"` // 0-100
	Status         LeadStatus    `json:"status"`
	Notes          string        `json:"notes,omitempty"`
	Enrichment     *Enrichment   `json:"enrichment,omitempty"`
	EnrichedAt     *time.Time    `json:"enriched_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Enrichment holds company research attached by an enrichment pass.
type Enrichment struct {
	CompanyInfo string      `json:"company_info,omitempty"`
	Industry    string      `json:"industry,omitempty"`
	Size        string      `json:"size,omitempty"`
	Funding     string      `json:"funding,omitempty"`
	TechStack   []string    `json:"tech_stack,omitempty"`
	KeyPeople   []KeyPerson `json:"key_people,omitempty"`
}

// KeyPerson is a named contact at an enriched company.
type KeyPerson struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Contact string `json:"contact,omitempty"`
}

// Project groups queries and leads under one outreach goal.
type Project struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Context         string    `json:"context,omitempty"` // free text used to steer AI research
	TargetKeywords  []string  `json:"target_keywords,omitempty"`
	ExcludeKeywords []string  `json:"exclude_keywords,omitempty"`
	Industry        string    `json:"industry,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// QuerySource selects which discovery providers a query runs against.
type QuerySource string

const (
	QuerySourceKeyword QuerySource = "keyword"
	QuerySourceAI      QuerySource = "ai"
	QuerySourceAll     QuerySource = "all"
)

// QueryStatus is the lifecycle state of a query run.
type QueryStatus string

const (
	QueryStatusPending   QueryStatus = "pending"
	QueryStatusRunning   QueryStatus = "running"
	QueryStatusCompleted QueryStatus = "completed"
	QueryStatusFailed    QueryStatus = "failed"
)

// Query is a saved search that feeds leads into a project.
type Query struct {
	ID            string        `json:"id"`
	ProjectID     string        `json:"project_id"`
	SearchTerm    string        `json:"search_term"`
	ImprovedQuery string        `json:"improved_query,omitempty"`
	Targets       []Kind        `json:"targets"`
	Sources       []QuerySource `json:"sources"`
	Status        QueryStatus   `json:"status"`
	LastRun       *time.Time    `json:"last_run,omitempty"`
	ResultCount   int           `json:"result_count"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Term returns the improved query when present, else the raw search term.
func (q Query) Term() string {
	if q.ImprovedQuery != "" {
		return q.ImprovedQuery
	}
	return q.SearchTerm
}

// Uses reports whether the query is configured to run against src.
func (q Query) Uses(src QuerySource) bool {
	if len(q.Sources) == 0 {
		return true
	}
	for _, s := range q.Sources {
		if s == src || s == QuerySourceAll {
			return true
		}
	}
	return false
}
