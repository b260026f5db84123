// Package resolver implements the ordered resolution strategy chain that
// produces and validates candidate logo URLs for catalog entries.
package resolver

import (
	"context"
	"sync"
	"time"

	"logosvc/internal/metrics"
	"logosvc/internal/models"
)

// Strategy proposes candidate logo URLs for a catalog entry, in its own
// order of preference. An empty slice means the strategy has nothing to
// offer for this entry.
type Strategy interface {
	Name() string
	Candidates(ctx context.Context, entry models.CatalogEntry) []string
}

// RateLimitAware is implemented by strategies backed by external providers.
// The chain reports the HTTP status each candidate produced so the strategy
// can suppress a rate-limited provider for a cooldown window.
type RateLimitAware interface {
	NoteStatus(candidate string, status int)
}

// CooldownGate tracks per-provider suppression windows after rate-limit
// responses. Safe for concurrent use.
type CooldownGate struct {
	mu     sync.Mutex
	until  map[string]time.Time
	window time.Duration
	now    func() time.Time
}

// NewCooldownGate creates a gate with the given suppression window.
func NewCooldownGate(window time.Duration) *CooldownGate {
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &CooldownGate{
		until:  make(map[string]time.Time),
		window: window,
		now:    time.Now,
	}
}

// Active reports whether provider is currently suppressed.
func (g *CooldownGate) Active(provider string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.now().Before(g.until[provider])
}

// Trip suppresses provider for the cooldown window.
func (g *CooldownGate) Trip(provider string) {
	g.mu.Lock()
	g.until[provider] = g.now().Add(g.window)
	g.mu.Unlock()
	metrics.RecordProviderCooldown(provider)
}

// isRateLimit reports whether an HTTP status signals provider rejection
// worth a cooldown rather than a plain miss.
func isRateLimit(status int) bool {
	return status == 429 || status == 403 || status == 401
}
