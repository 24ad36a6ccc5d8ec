package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-scout/internal/config"
	"github.com/sells-group/lead-scout/internal/denylist"
	"github.com/sells-group/lead-scout/internal/discovery"
	"github.com/sells-group/lead-scout/internal/model"
	"github.com/sells-group/lead-scout/internal/resilience"
	"github.com/sells-group/lead-scout/internal/scrape"
	"github.com/sells-group/lead-scout/internal/store"
	"github.com/sells-group/lead-scout/internal/validate"
	"github.com/sells-group/lead-scout/pkg/brave"
	"github.com/sells-group/lead-scout/pkg/perplexity"
)

// initStore opens the configured store and applies migrations.
func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch c.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(c.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, c.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: c.Store.MaxConns,
			MinConns: c.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// withStore runs fn against a freshly opened store and closes it after.
func withStore(ctx context.Context, fn func(st store.Store) error) error {
	if err := cfg.Validate("store"); err != nil {
		return err
	}
	st, err := initStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	return fn(st)
}

// tooling bundles the validators built from config.
type tooling struct {
	lists  *denylist.Lists
	format *validate.Validator
	prober *validate.Prober
	deep   *validate.Deep
}

func newTooling(c *config.Config) (*tooling, error) {
	lists, err := denylist.Load(c.Denylist.File)
	if err != nil {
		return nil, err
	}

	opts := []validate.ProberOption{
		validate.WithTimeout(c.Validation.Timeout()),
		validate.WithRate(c.Validation.RatePerSec, c.Validation.RateBurst),
	}
	if c.Validation.UserAgent != "" {
		opts = append(opts, validate.WithUserAgent(c.Validation.UserAgent))
	}
	for name, prof := range c.Validation.Profiles {
		kind := model.Kind(name)
		if !kind.IsSocial() {
			zap.L().Warn("ignoring validation profile for unknown platform", zap.String("platform", name))
			continue
		}
		opts = append(opts, validate.WithProfile(kind, prof))
	}

	format := validate.New(lists)
	prober := validate.NewProber(opts...)
	return &tooling{
		lists:  lists,
		format: format,
		prober: prober,
		deep: validate.NewDeep(format, prober,
			validate.WithCaps(c.Validation.MaxSocialChecks, c.Validation.MaxWebsiteChecks)),
	}, nil
}

// newRunner builds a discovery runner with every provider that has a key.
func newRunner(c *config.Config, st store.Store, tl *tooling) *discovery.Runner {
	opts := []discovery.Option{
		discovery.WithLists(tl.lists),
		discovery.WithSearchCount(c.Brave.Count),
		discovery.WithFetchConcurrency(c.Discovery.FetchConcurrency),
		discovery.WithFetcher(scrape.NewFetcher(c.Fetch.Timeout(),
			scrape.WithUserAgent(c.Fetch.UserAgent),
			scrape.WithMaxBytes(c.Fetch.MaxBytes),
		)),
		discovery.WithBreaker(resilience.NewBreaker("brave",
			c.Discovery.BreakerThreshold, c.Discovery.BreakerCooldown())),
	}

	policy := resilience.DefaultPolicy()
	policy.Attempts = c.Discovery.SearchRetries + 1
	opts = append(opts, discovery.WithRetryPolicy(policy))

	if c.Brave.Key != "" {
		opts = append(opts, discovery.WithSearch(brave.NewClient(c.Brave.Key, brave.WithBaseURL(c.Brave.BaseURL))))
	}
	if c.Perplexity.Key != "" {
		opts = append(opts, discovery.WithResearch(perplexity.NewClient(c.Perplexity.Key,
			perplexity.WithBaseURL(c.Perplexity.BaseURL),
			perplexity.WithModel(c.Perplexity.Model),
		)))
	}
	if c.Validation.Deep {
		opts = append(opts, discovery.WithDeep(tl.deep))
	}
	return discovery.NewRunner(st, opts...)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
