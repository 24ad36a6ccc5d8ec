// Package discovery runs saved queries against the search and research
// providers and turns their results into persisted leads.
package discovery

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-scout/internal/denylist"
	"github.com/sells-group/lead-scout/internal/extract"
	"github.com/sells-group/lead-scout/internal/model"
	"github.com/sells-group/lead-scout/internal/resilience"
	"github.com/sells-group/lead-scout/internal/store"
	"github.com/sells-group/lead-scout/internal/validate"
	"github.com/sells-group/lead-scout/pkg/brave"
	"github.com/sells-group/lead-scout/pkg/perplexity"
)

// PageFetcher returns the HTML of a page, or "" when it cannot be used.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) string
}

// Runner wires providers, extraction, validation and persistence. Any
// provider may be nil; the steps that need it are skipped.
type Runner struct {
	store     store.Store
	search    brave.Client
	research  perplexity.Client
	fetcher   PageFetcher
	extractor *extract.Extractor
	format    *validate.Validator
	deep      *validate.Deep

	breaker          *resilience.Breaker
	policy           resilience.Policy
	searchCount      int
	fetchConcurrency int
	now              func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithSearch sets the keyword search provider.
func WithSearch(c brave.Client) Option {
	return func(r *Runner) { r.search = c }
}

// WithResearch sets the AI research provider.
func WithResearch(c perplexity.Client) Option {
	return func(r *Runner) { r.research = c }
}

// WithFetcher sets the page fetcher used when a search snippet yields no
// contacts.
func WithFetcher(f PageFetcher) Option {
	return func(r *Runner) { r.fetcher = f }
}

// WithLists replaces the built-in denylists for extraction and validation.
func WithLists(l *denylist.Lists) Option {
	return func(r *Runner) {
		r.extractor = extract.New(l)
		r.format = validate.New(l)
	}
}

// WithDeep enables deep validation of every candidate before it is saved.
func WithDeep(d *validate.Deep) Option {
	return func(r *Runner) { r.deep = d }
}

// WithSearchCount sets how many search results are requested.
func WithSearchCount(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.searchCount = n
		}
	}
}

// WithFetchConcurrency bounds concurrent page fetches.
func WithFetchConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.fetchConcurrency = n
		}
	}
}

// WithRetryPolicy sets the retry policy for provider calls.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(r *Runner) { r.policy = p }
}

// WithBreaker sets the circuit breaker guarding the search provider.
func WithBreaker(b *resilience.Breaker) Option {
	return func(r *Runner) {
		if b != nil {
			r.breaker = b
		}
	}
}

// NewRunner creates a Runner persisting to st.
func NewRunner(st store.Store, opts ...Option) *Runner {
	r := &Runner{
		store:            st,
		extractor:        extract.New(nil),
		format:           validate.New(nil),
		breaker:          resilience.NewBreaker("brave", 0, 0),
		policy:           resilience.DefaultPolicy(),
		searchCount:      brave.DefaultCount,
		fetchConcurrency: 5,
		now:              time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Store returns the runner's store.
func (r *Runner) Store() store.Store { return r.store }

func (r *Runner) project(ctx context.Context, id string) (*model.Project, error) {
	p, err := r.store.GetProject(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: get project %s", id)
	}
	return p, nil
}
