package discovery

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-scout/internal/lead"
	"github.com/sells-group/lead-scout/internal/model"
	"github.com/sells-group/lead-scout/internal/resilience"
	"github.com/sells-group/lead-scout/internal/scorer"
	"github.com/sells-group/lead-scout/internal/scrape"
	"github.com/sells-group/lead-scout/internal/store"
	"github.com/sells-group/lead-scout/pkg/brave"
	"github.com/sells-group/lead-scout/pkg/perplexity"
)

// RunResult summarizes one query run.
type RunResult struct {
	QueryID    string       `json:"query_id"`
	Searched   int          `json:"searched"`
	Researched int          `json:"researched"`
	Excluded   int          `json:"excluded"`
	Removed    int          `json:"removed"`
	Created    int          `json:"created"`
	Updated    int          `json:"updated"`
	Leads      []model.Lead `json:"leads"`
}

// Run executes a saved query. The query is marked running, then completed
// with its result count. If every provider the query uses fails, the query
// is marked failed and the error returned.
func (r *Runner) Run(ctx context.Context, queryID string) (*RunResult, error) {
	q, err := r.store.GetQuery(ctx, queryID)
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: get query %s", queryID)
	}
	p, err := r.project(ctx, q.ProjectID)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("query_id", q.ID), zap.String("project_id", p.ID))

	q.Status = model.QueryStatusRunning
	if err := r.store.UpdateQuery(ctx, q); err != nil {
		return nil, eris.Wrap(err, "discovery: mark running")
	}

	targets := q.Targets
	if len(targets) == 0 {
		targets = []model.Kind{model.KindEmails}
	}
	res := &RunResult{QueryID: q.ID}

	var (
		cands    []lead.Candidate
		tried    int
		failures []error
	)

	if r.search != nil && q.Uses(model.QuerySourceKeyword) {
		tried++
		found, err := r.keyword(ctx, p, q.Term(), targets, res)
		if err != nil {
			log.Warn("discovery: keyword search failed", zap.Error(err))
			failures = append(failures, err)
		}
		cands = append(cands, found...)
	}

	if r.research != nil && q.Uses(model.QuerySourceAI) {
		tried++
		found, err := r.ai(ctx, p, q.Term(), targets, res)
		if err != nil {
			log.Warn("discovery: ai research failed", zap.Error(err))
			failures = append(failures, err)
		}
		cands = append(cands, found...)
	}

	if tried > 0 && len(failures) == tried {
		r.finish(ctx, q, model.QueryStatusFailed, 0)
		return nil, eris.Wrapf(errors.Join(failures...), "discovery: run query %s", q.ID)
	}

	combined := lead.Combine(cands)
	if r.deep != nil {
		for i := range combined {
			v := r.deep.Validate(ctx, combined[i].Contacts)
			combined[i].Contacts = v.ContactBundle
			res.Removed += v.RemovedCount
			combined[i].Rescore()
		}
	}

	for _, c := range combined {
		if c.Contacts.IsEmpty() {
			continue
		}
		l, created, err := r.save(ctx, p.ID, q.ID, c)
		if err != nil {
			r.finish(ctx, q, model.QueryStatusFailed, len(res.Leads))
			return nil, err
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
		res.Leads = append(res.Leads, *l)
	}

	r.finish(ctx, q, model.QueryStatusCompleted, len(res.Leads))
	log.Info("discovery: run complete",
		zap.Int("searched", res.Searched),
		zap.Int("researched", res.Researched),
		zap.Int("excluded", res.Excluded),
		zap.Int("candidates", len(combined)),
		zap.Int("removed", res.Removed),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
	)
	return res, nil
}

func (r *Runner) finish(ctx context.Context, q *model.Query, status model.QueryStatus, count int) {
	now := r.now().UTC()
	q.Status = status
	q.LastRun = &now
	q.ResultCount = count
	if err := r.store.UpdateQuery(ctx, q); err != nil {
		zap.L().Error("discovery: update query status", zap.String("query_id", q.ID), zap.Error(err))
	}
}

// keyword searches, drops excluded results and extracts contacts from each
// snippet, falling back to the fetched page when the snippet has none.
func (r *Runner) keyword(ctx context.Context, p *model.Project, term string, targets []model.Kind, res *RunResult) ([]lead.Candidate, error) {
	policy := r.policy
	policy.OnRetry = resilience.LogRetry("brave", "search")
	results, err := resilience.DoVal(ctx, policy, func(ctx context.Context) ([]brave.Result, error) {
		return resilience.CallVal(ctx, r.breaker, func(ctx context.Context) ([]brave.Result, error) {
			return r.search.Search(ctx, term, r.searchCount)
		})
	})
	if err != nil {
		return nil, eris.Wrap(err, "discovery: keyword search")
	}
	res.Searched = len(results)

	cands := make([]lead.Candidate, 0, len(results))
	for _, hit := range results {
		score, excluded := scorer.Relevance(p, hit.Title, hit.Description)
		if excluded {
			res.Excluded++
			continue
		}
		cands = append(cands, lead.Candidate{
			URL:            hit.URL,
			Title:          hit.Title,
			Description:    hit.Description,
			Contacts:       r.extractor.Extract(hit.Title+"\n"+hit.Description, hit.URL, targets),
			Sources:        []model.Source{model.SourceKeywordSearch},
			RelevanceScore: &score,
		})
	}

	r.fillFromPages(ctx, cands, targets)
	return cands, nil
}

// fillFromPages fetches the pages of candidates whose snippet yielded no
// contacts, with bounded concurrency. Each goroutine owns one slot of
// cands. Fetch failures leave the candidate empty.
func (r *Runner) fillFromPages(ctx context.Context, cands []lead.Candidate, targets []model.Kind) {
	if r.fetcher == nil {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.fetchConcurrency)
	for i := range cands {
		if !cands[i].Contacts.IsEmpty() {
			continue
		}
		g.Go(func() error {
			html := r.fetcher.Fetch(gctx, cands[i].URL)
			if html == "" {
				return nil
			}
			b := r.extractor.Extract(scrape.Text(html), cands[i].URL, targets)

			cands[i].Contacts = b
			if strings.TrimSpace(cands[i].Title) == "" {
				cands[i].Title = scrape.Title(html)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// ai runs structured research and format-validates the returned bundles.
func (r *Runner) ai(ctx context.Context, p *model.Project, term string, targets []model.Kind, res *RunResult) ([]lead.Candidate, error) {
	policy := r.policy
	policy.OnRetry = resilience.LogRetry("perplexity", "research")
	leads, err := resilience.DoVal(ctx, policy, func(ctx context.Context) ([]perplexity.StructuredLead, error) {
		return perplexity.Research(ctx, r.research, term, targets, p.Context)
	})
	if err != nil {
		return nil, eris.Wrap(err, "discovery: ai research")
	}
	res.Researched = len(leads)

	cands := make([]lead.Candidate, 0, len(leads))
	for _, l := range leads {
		v := r.format.Format(l.Contacts)
		res.Removed += v.RemovedCount
		score := l.Score()
		cands = append(cands, lead.Candidate{
			URL:            l.URL,
			Title:          l.Title,
			Description:    l.Description,
			Contacts:       v.ContactBundle,
			Sources:        []model.Source{model.SourceAIResearch},
			RelevanceScore: &score,
			Tags:           l.Tags,
		})
	}
	return cands, nil
}

// save merges c into the project's existing lead for the same URL, or
// creates a new lead.
func (r *Runner) save(ctx context.Context, projectID, queryID string, c lead.Candidate) (*model.Lead, bool, error) {
	existing, err := r.store.GetLeadByURL(ctx, projectID, c.URL)
	switch {
	case errors.Is(err, store.ErrNotFound):
		l := &model.Lead{
			ProjectID:      projectID,
			QueryID:        queryID,
			URL:            c.URL,
			Title:          c.Title,
			Description:    c.Description,
			Contacts:       c.Contacts,
			Sources:        c.Sources,
			Quality:        c.Quality,
			Tags:           c.Tags,
			RelevanceScore: c.RelevanceScore,
			Status:         model.LeadStatusNew,
		}
		if len(c.Sources) > 0 {
			l.Source = c.Sources[0]
		}
		if err := r.store.CreateLead(ctx, l); err != nil {
			return nil, false, eris.Wrapf(err, "discovery: create lead %s", c.URL)
		}
		return l, true, nil
	case err != nil:
		return nil, false, eris.Wrapf(err, "discovery: get lead %s", c.URL)
	}

	for _, src := range c.Sources {
		lead.MergeIntoLead(existing, lead.Incoming{
			Contacts:       c.Contacts,
			Source:         src,
			Quality:        c.Quality,
			RelevanceScore: c.RelevanceScore,
			Tags:           c.Tags,
			Description:    c.Description,
		})
	}
	if existing.Title == "" {
		existing.Title = c.Title
	}
	if err := r.store.UpdateLead(ctx, existing); err != nil {
		return nil, false, eris.Wrapf(err, "discovery: update lead %s", existing.ID)
	}
	return existing, false, nil
}
