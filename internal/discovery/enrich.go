package discovery

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-scout/internal/lead"
	"github.com/sells-group/lead-scout/internal/model"
	"github.com/sells-group/lead-scout/internal/resilience"
	"github.com/sells-group/lead-scout/internal/scorer"
	"github.com/sells-group/lead-scout/internal/sheet"
	"github.com/sells-group/lead-scout/internal/store"
	"github.com/sells-group/lead-scout/pkg/perplexity"
)

// ErrNoResearch is returned by operations that need the AI provider when
// none is configured.
var ErrNoResearch = eris.New("discovery: research provider not configured")

const enrichedTag = "enriched"

// Enrich researches a lead in depth. Additional contacts are
// format-validated and merged with the enriched source, which always sets
// quality to high.
func (r *Runner) Enrich(ctx context.Context, leadID string) (*model.Lead, error) {
	if r.research == nil {
		return nil, ErrNoResearch
	}
	l, err := r.store.GetLead(ctx, leadID)
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: get lead %s", leadID)
	}

	var projectContext string
	if p, err := r.store.GetProject(ctx, l.ProjectID); err == nil {
		projectContext = p.Context
	}

	policy := r.policy
	policy.OnRetry = resilience.LogRetry("perplexity", "enrich")
	info, err := resilience.DoVal(ctx, policy, func(ctx context.Context) (*perplexity.EnrichResult, error) {
		return perplexity.Enrich(ctx, r.research, l, projectContext)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: enrich lead %s", leadID)
	}

	extra := r.format.Format(info.AdditionalContacts)
	lead.MergeIntoLead(l, lead.Incoming{
		Contacts: extra.ContactBundle,
		Source:   model.SourceEnriched,
		Quality:  l.Quality,
		Tags:     []string{enrichedTag},
	})
	l.Enrichment = info.Enrichment()
	now := r.now().UTC()
	l.EnrichedAt = &now

	if err := r.store.UpdateLead(ctx, l); err != nil {
		return nil, eris.Wrapf(err, "discovery: save enriched lead %s", leadID)
	}
	zap.L().Info("discovery: lead enriched",
		zap.String("lead_id", l.ID),
		zap.Int("contacts", l.Contacts.Total()),
		zap.Int("removed", extra.RemovedCount),
	)
	return l, nil
}

// Improve rewrites a query's search term and stores the result. Provider
// failure leaves the improved query equal to the original term.
func (r *Runner) Improve(ctx context.Context, queryID string) (*model.Query, error) {
	if r.research == nil {
		return nil, ErrNoResearch
	}
	q, err := r.store.GetQuery(ctx, queryID)
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: get query %s", queryID)
	}
	p, err := r.project(ctx, q.ProjectID)
	if err != nil {
		return nil, err
	}

	q.ImprovedQuery = perplexity.ImproveQuery(ctx, r.research, q.SearchTerm, q.Targets, p.Context)
	if err := r.store.UpdateQuery(ctx, q); err != nil {
		return nil, eris.Wrapf(err, "discovery: save improved query %s", queryID)
	}
	return q, nil
}

// Clean re-applies the format tier to a persisted lead and returns how many
// contact values were removed. Quality is recomputed unless the lead has
// been enriched.
func (r *Runner) Clean(l *model.Lead) int {
	v := r.format.Format(l.Contacts)
	l.Contacts = v.ContactBundle
	if l.EnrichedAt == nil {
		l.Quality = scorer.Quality(l.Contacts, strings.TrimSpace(l.Description) != "")
	}
	return v.RemovedCount
}

// CleanAll cleans every lead matching filter and saves those that changed.
func (r *Runner) CleanAll(ctx context.Context, filter store.LeadFilter) (changed, removed int, err error) {
	leads, err := r.store.ListLeads(ctx, filter)
	if err != nil {
		return 0, 0, eris.Wrap(err, "discovery: list leads")
	}
	for i := range leads {
		l := &leads[i]
		before := l.Quality
		n := r.Clean(l)
		if n == 0 && l.Quality == before {
			continue
		}
		if err := r.store.UpdateLead(ctx, l); err != nil {
			return changed, removed, eris.Wrapf(err, "discovery: save cleaned lead %s", l.ID)
		}
		changed++
		removed += n
	}
	zap.L().Info("discovery: clean complete",
		zap.Int("leads", len(leads)),
		zap.Int("changed", changed),
		zap.Int("removed", removed),
	)
	return changed, removed, nil
}

// Import saves manually supplied records into a project with the manual
// source. Contacts are format-validated; records for a URL the project
// already holds are merged into that lead.
func (r *Runner) Import(ctx context.Context, projectID string, recs []sheet.Record) (created, updated int, err error) {
	if _, err := r.project(ctx, projectID); err != nil {
		return 0, 0, err
	}
	for _, rec := range recs {
		url := lead.CanonicalURL(rec.URL)
		if url == "" {
			continue
		}
		v := r.format.Format(rec.Contacts)
		c := lead.Candidate{
			URL:         url,
			Title:       rec.Title,
			Description: rec.Description,
			Contacts:    v.ContactBundle,
			Sources:     []model.Source{model.SourceManual},
			Tags:        rec.Tags,
		}
		c.Rescore()

		l, isNew, err := r.save(ctx, projectID, "", c)
		if err != nil {
			return created, updated, err
		}
		if isNew && rec.Notes != "" {
			l.Notes = rec.Notes
			if err := r.store.UpdateLead(ctx, l); err != nil {
				return created, updated, eris.Wrapf(err, "discovery: save notes %s", l.ID)
			}
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	return created, updated, nil
}

// IsNotFound reports whether err means a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
