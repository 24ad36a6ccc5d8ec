package validate

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-scout/internal/model"
)

// Default per-call caps on live checks. Items past a cap are kept unchecked.
const (
	DefaultMaxSocialChecks  = 5
	DefaultMaxWebsiteChecks = 3
)

// deepSocialKinds are checked concurrently after websites. Discord invites
// pass through untouched.
var deepSocialKinds = []model.Kind{
	model.KindInstagram,
	model.KindTwitter,
	model.KindGitHub,
	model.KindLinkedIn,
	model.KindTelegram,
}

// Deep runs the format tier followed by live existence checks.
type Deep struct {
	format      *Validator
	prober      *Prober
	maxSocial   int
	maxWebsites int
}

// DeepOption configures a Deep validator.
type DeepOption func(*Deep)

// WithCaps sets how many social handles per kind and how many websites are
// checked per call. Non-positive values keep the defaults.
func WithCaps(maxSocial, maxWebsites int) DeepOption {
	return func(d *Deep) {
		if maxSocial > 0 {
			d.maxSocial = maxSocial
		}
		if maxWebsites > 0 {
			d.maxWebsites = maxWebsites
		}
	}
}

// NewDeep creates a deep validator. A nil format validator uses the
// built-in lists; a nil prober uses NewProber defaults.
func NewDeep(format *Validator, prober *Prober, opts ...DeepOption) *Deep {
	if format == nil {
		format = defaultValidator
	}
	if prober == nil {
		prober = NewProber()
	}
	d := &Deep{
		format:      format,
		prober:      prober,
		maxSocial:   DefaultMaxSocialChecks,
		maxWebsites: DefaultMaxWebsiteChecks,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Prober returns the prober used for live checks.
func (d *Deep) Prober() *Prober { return d.prober }

// Validate never fails. Only a definitive Absent verdict removes an item;
// timeouts and network errors keep it.
func (d *Deep) Validate(ctx context.Context, b model.ContactBundle) Result {
	res := d.format.Format(b)

	res.Websites = d.filter(res.Websites, d.maxWebsites, &res.RemovedCount, func(w string) Verdict {
		return d.prober.CheckWebsite(ctx, w)
	}, model.KindWebsites)

	kept := make([][]string, len(deepSocialKinds))
	removed := make([]int, len(deepSocialKinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, k := range deepSocialKinds {
		items := res.Values(k)
		if len(items) == 0 {
			kept[i] = items
			continue
		}
		g.Go(func() error {
			kept[i] = d.filter(items, d.maxSocial, &removed[i], func(h string) Verdict {
				return d.prober.CheckProfile(gctx, k, h)
			}, k)
			return nil
		})
	}
	_ = g.Wait()

	for i, k := range deepSocialKinds {
		res.Set(k, kept[i])
		res.RemovedCount += removed[i]
	}
	return res
}

func (d *Deep) filter(items []string, limit int, removed *int, check func(string) Verdict, kind model.Kind) []string {
	if len(items) == 0 {
		return items
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		if i >= limit {
			out = append(out, item)
			continue
		}
		if check(item).Keep() {
			out = append(out, item)
			continue
		}
		*removed++
		zap.L().Info("validate: removed "+string(kind), zap.String("value", item))
	}
	return out
}
