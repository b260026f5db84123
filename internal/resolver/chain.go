package resolver

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"logosvc/internal/logocache"
	"logosvc/internal/metrics"
	"logosvc/internal/models"
)

// Resolution is the outcome of a successful chain run.
type Resolution struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// CandidateValidator confirms a candidate URL decodes to a real image.
// Implemented by internal/validator; faked in tests.
type CandidateValidator interface {
	ValidateDetail(ctx context.Context, url string) (ok bool, status int)
}

// Persister durably stores a validated logo. Implemented by internal/persist;
// always invoked fire-and-forget.
type Persister interface {
	Persist(ctx context.Context, entry models.CatalogEntry, url string) bool
}

// Chain drives the ordered strategy list across the validator until one
// candidate passes. Concurrent resolutions for the same entity share a
// single run via singleflight; redundant runs would be harmless (the cache
// is last-write-wins) but wasteful.
type Chain struct {
	strategies []Strategy
	validator  CandidateValidator
	cache      *logocache.Cache
	persister  Persister

	group singleflight.Group
}

// NewChain assembles the chain. persister may be nil (persistence disabled).
func NewChain(v CandidateValidator, cache *logocache.Cache, persister Persister, strategies ...Strategy) *Chain {
	return &Chain{
		strategies: strategies,
		validator:  v,
		cache:      cache,
		persister:  persister,
	}
}

// DefaultStrategies builds the production strategy list in priority order.
func DefaultStrategies(overrides map[string]string, brandToken string, gate *CooldownGate) []Strategy {
	return []Strategy{
		NewOverrideStrategy(overrides),
		CatalogIconStrategy{},
		DomainGuessStrategy{},
		NewFaviconAPIStrategy(gate),
		NewBrandAPIStrategy(brandToken, "", gate),
		NewHTMLScrapeStrategy(),
	}
}

// Resolve returns the first validated candidate for the entry, tagged with
// the strategy that produced it. Returns ok=false when every strategy is
// exhausted; the caller falls back to a placeholder. Resolve never returns
// an error and never retries a candidate within one run.
func (c *Chain) Resolve(ctx context.Context, entry models.CatalogEntry) (Resolution, bool) {
	// A validated cache hit means another caller already finished this work.
	if rec, ok := c.cache.Record(entry.ID); ok && rec.Validated {
		return Resolution{URL: rec.URL, Source: rec.Source}, true
	}

	c.cache.Seed(entry)

	v, err, _ := c.group.Do(entry.ID, func() (any, error) {
		if res, ok := c.run(ctx, entry); ok {
			return res, nil
		}
		return nil, errNoLogo
	})
	if err != nil {
		return Resolution{}, false
	}
	return v.(Resolution), true
}

var errNoLogo = errNoLogoType{}

type errNoLogoType struct{}

func (errNoLogoType) Error() string { return "no logo available" }

func (c *Chain) run(ctx context.Context, entry models.CatalogEntry) (Resolution, bool) {
	for _, strat := range c.strategies {
		for _, candidate := range strat.Candidates(ctx, entry) {
			if models.IsPlaceholderURL(candidate) {
				continue
			}

			ok, status := c.validator.ValidateDetail(ctx, candidate)
			if aware, isAware := strat.(RateLimitAware); isAware {
				aware.NoteStatus(candidate, status)
			}
			if !ok {
				continue
			}

			c.cache.Register(entry.ID, candidate, entry.Domain(), strat.Name())
			metrics.RecordResolution(strat.Name(), "ok")
			slog.Debug("logo resolved",
				"entity", entry.ID, "source", strat.Name(), "url", candidate)

			if c.persister != nil {
				// Fire and forget: persistence must never block or fail the
				// path that triggered it.
				go c.persister.Persist(context.WithoutCancel(ctx), entry, candidate)
			}

			return Resolution{URL: candidate, Source: strat.Name()}, true
		}
	}

	metrics.RecordResolution("none", "fail")
	slog.Debug("logo resolution exhausted", "entity", entry.ID, "domain", entry.Domain())
	return Resolution{}, false
}
