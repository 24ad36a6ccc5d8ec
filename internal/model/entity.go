package model

import "time"

// EntityType classifies a directory entity.
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityOrganization EntityType = "organization"
	EntityBook         EntityType = "book"
	EntityProduct      EntityType = "product"
	EntityEvent        EntityType = "event"
	EntityPlace        EntityType = "place"

	// EntityAll is only meaningful as a search or list filter.
	EntityAll EntityType = "all"
)

// Valid reports whether t names a concrete entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntityPerson, EntityOrganization, EntityBook, EntityProduct, EntityEvent, EntityPlace:
		return true
	}
	return false
}

// Entity is a person, organization or other named thing found by a
// directory search. Contact fields share the lead bundle so they pass the
// same validation and merge rules.
type Entity struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	SearchID    string     `json:"search_id"`
	Type        EntityType `json:"type"`
	Name        string     `json:"name"`
	Image       string     `json:"image,omitempty"`
	Description string     `json:"description,omitempty"`

	// People
	Title   string `json:"title,omitempty"`
	Role    string `json:"role,omitempty"`
	Company string `json:"company,omitempty"`

	// Organizations
	Industry     string `json:"industry,omitempty"`
	Size         string `json:"size,omitempty"`
	Founded      string `json:"founded,omitempty"`
	Headquarters string `json:"headquarters,omitempty"`

	// Books and other publications
	Author    string `json:"author,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	Year      string `json:"year,omitempty"`

	Contacts   ContactBundle `json:"contacts"`
	Source     Source        `json:"source"`
	Tags       []string      `json:"tags"`
	EnrichedAt *time.Time    `json:"enriched_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// EntitySearch records one directory search and its outcome.
type EntitySearch struct {
	ID          string      `json:"id"`
	ProjectID   string      `json:"project_id"`
	SearchTerm  string      `json:"search_term"`
	EntityType  EntityType  `json:"entity_type"`
	Status      QueryStatus `json:"status"`
	LastRun     *time.Time  `json:"last_run,omitempty"`
	ResultCount int         `json:"result_count"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
