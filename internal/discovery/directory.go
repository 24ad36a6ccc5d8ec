package discovery

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-scout/internal/lead"
	"github.com/sells-group/lead-scout/internal/model"
	"github.com/sells-group/lead-scout/internal/resilience"
	"github.com/sells-group/lead-scout/internal/validate"
	"github.com/sells-group/lead-scout/pkg/perplexity"
)

// SearchDirectory runs an entity search for a project and saves every named
// entity it returns. Entity contacts pass the format tier before they are
// stored. The search record moves through running to completed or failed.
func (r *Runner) SearchDirectory(ctx context.Context, projectID, term string, entityType model.EntityType) (*model.EntitySearch, []model.Entity, error) {
	if r.research == nil {
		return nil, nil, ErrNoResearch
	}
	if _, err := r.project(ctx, projectID); err != nil {
		return nil, nil, err
	}
	if !entityType.Valid() {
		entityType = model.EntityAll
	}

	es := &model.EntitySearch{
		ProjectID:  projectID,
		SearchTerm: term,
		EntityType: entityType,
		Status:     model.QueryStatusRunning,
	}
	if err := r.store.CreateEntitySearch(ctx, es); err != nil {
		return nil, nil, eris.Wrap(err, "discovery: create entity search")
	}

	policy := r.policy
	policy.OnRetry = resilience.LogRetry("perplexity", "search entities")
	results, err := resilience.DoVal(ctx, policy, func(ctx context.Context) ([]perplexity.EntityResult, error) {
		return perplexity.SearchEntities(ctx, r.research, term, entityType)
	})
	if err != nil {
		es.Status = model.QueryStatusFailed
		if uerr := r.store.UpdateEntitySearch(ctx, es); uerr != nil {
			zap.L().Error("discovery: mark entity search failed", zap.String("search_id", es.ID), zap.Error(uerr))
		}
		return es, nil, eris.Wrapf(err, "discovery: entity search %s", es.ID)
	}

	entities := make([]model.Entity, 0, len(results))
	removed := 0
	for _, res := range results {
		e := entityFromResult(projectID, es.ID, res)
		checked := r.format.Format(entityContacts(res.Website, res.Email, res.Twitter, res.LinkedIn))
		e.Contacts = checked.ContactBundle
		removed += checked.RemovedCount
		if err := r.store.CreateEntity(ctx, &e); err != nil {
			return es, entities, eris.Wrapf(err, "discovery: save entity %q", e.Name)
		}
		entities = append(entities, e)
	}

	now := r.now().UTC()
	es.Status = model.QueryStatusCompleted
	es.ResultCount = len(entities)
	es.LastRun = &now
	if err := r.store.UpdateEntitySearch(ctx, es); err != nil {
		return es, entities, eris.Wrapf(err, "discovery: update entity search %s", es.ID)
	}
	zap.L().Info("discovery: directory search complete",
		zap.String("search_id", es.ID),
		zap.String("type", string(entityType)),
		zap.Int("entities", len(entities)),
		zap.Int("removed", removed),
	)
	return es, entities, nil
}

// EnrichEntity researches an entity's contact details. Validated contacts
// are merged into the existing bundle; descriptive fields are replaced only
// by non-empty values. Links with no contact kind are kept as tags.
func (r *Runner) EnrichEntity(ctx context.Context, entityID string) (*model.Entity, error) {
	if r.research == nil {
		return nil, ErrNoResearch
	}
	e, err := r.store.GetEntity(ctx, entityID)
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: get entity %s", entityID)
	}

	policy := r.policy
	policy.OnRetry = resilience.LogRetry("perplexity", "enrich entity")
	p, err := resilience.DoVal(ctx, policy, func(ctx context.Context) (*perplexity.EntityProfile, error) {
		return perplexity.EnrichEntity(ctx, r.research, e)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: enrich entity %s", entityID)
	}

	found := entityContacts(p.Website, p.Email, p.Twitter, p.LinkedIn)
	if h := handleOf(p.GitHub); h != "" {
		found.GitHub = []string{strings.ToLower(h)}
	}
	if h := handleOf(p.Instagram); h != "" {
		found.Instagram = []string{strings.ToLower(h)}
	}
	if d := validate.Digits(p.Phone); d != "" {
		found.Phones = []string{d}
	}
	checked := r.format.Format(found)
	e.Contacts = lead.MergeBundles(e.Contacts, checked.ContactBundle)

	e.Description = firstNonEmpty(p.Bio, e.Description)
	e.Founded = firstNonEmpty(p.Founded, e.Founded)
	e.Size = firstNonEmpty(p.Size, e.Size)
	e.Headquarters = firstNonEmpty(p.Address, e.Headquarters)

	tags := []string{enrichedTag}
	if p.YouTube != "" {
		tags = append(tags, "yt:"+strings.TrimSpace(p.YouTube))
	}
	if p.Funding != "" {
		tags = append(tags, "funding:"+strings.TrimSpace(p.Funding))
	}
	e.Tags = unionStrings(e.Tags, tags)

	now := r.now().UTC()
	e.EnrichedAt = &now
	if err := r.store.UpdateEntity(ctx, e); err != nil {
		return nil, eris.Wrapf(err, "discovery: save enriched entity %s", entityID)
	}
	zap.L().Info("discovery: entity enriched",
		zap.String("entity_id", e.ID),
		zap.Int("contacts", e.Contacts.Total()),
		zap.Int("removed", checked.RemovedCount),
	)
	return e, nil
}

func entityFromResult(projectID, searchID string, res perplexity.EntityResult) model.Entity {
	t := res.Type
	if !t.Valid() {
		t = model.EntityOrganization
	}
	tags := res.Tags
	if tags == nil {
		tags = []string{}
	}
	return model.Entity{
		ProjectID:    projectID,
		SearchID:     searchID,
		Type:         t,
		Name:         strings.TrimSpace(res.Name),
		Image:        res.Image,
		Description:  res.Description,
		Title:        res.Title,
		Role:         res.Role,
		Company:      res.Company,
		Industry:     res.Industry,
		Size:         res.Size,
		Founded:      res.Founded,
		Headquarters: res.Headquarters,
		Author:       res.Author,
		Publisher:    res.Publisher,
		Year:         res.Year,
		Source:       model.SourceAIResearch,
		Tags:         tags,
	}
}

// entityContacts builds a bundle from the single-valued contact fields the
// model reports. Handles given as profile URLs are reduced to their slug.
func entityContacts(website, email, twitter, linkedin string) model.ContactBundle {
	var b model.ContactBundle
	if w := strings.TrimSpace(website); w != "" {
		if !strings.Contains(w, "://") {
			w = "https://" + w
		}
		b.Websites = []string{strings.TrimRight(w, "/")}
	}
	if m := strings.ToLower(strings.TrimSpace(email)); m != "" {
		b.Emails = []string{m}
	}
	if h := handleOf(twitter); h != "" {
		b.Twitter = []string{strings.ToLower(h)}
	}
	if h := handleOf(linkedin); h != "" {
		b.LinkedIn = []string{strings.ToLower(h)}
	}
	return b
}

// handleOf trims a leading @ and, for URLs, keeps the last path segment.
func handleOf(raw string) string {
	s := strings.Trim(strings.TrimSpace(raw), "/")
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimPrefix(s, "@")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func unionStrings(existing, incoming []string) []string {
	out := append([]string{}, existing...)
	seen := make(map[string]bool, len(existing))
	for _, v := range existing {
		seen[v] = true
	}
	for _, v := range incoming {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
