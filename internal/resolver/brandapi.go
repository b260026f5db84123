package resolver

import (
	"context"
	"net/url"

	"logosvc/internal/models"
)

const brandProviderName = "brand-api"

// BrandAPIStrategy looks up brand imagery by domain against one optional,
// swappable brand-metadata provider. The vector format is offered before
// raster since the provider serves both. Disabled when no token is set.
type BrandAPIStrategy struct {
	baseURL string
	token   string
	gate    *CooldownGate
}

// NewBrandAPIStrategy creates the strategy. An empty token disables it;
// baseURL defaults to the hosted provider and is overridable for tests.
func NewBrandAPIStrategy(token, baseURL string, gate *CooldownGate) *BrandAPIStrategy {
	if baseURL == "" {
		baseURL = "https://img.logo.dev"
	}
	return &BrandAPIStrategy{baseURL: baseURL, token: token, gate: gate}
}

func (s *BrandAPIStrategy) Name() string { return models.SourceBrandAPI }

func (s *BrandAPIStrategy) Candidates(_ context.Context, entry models.CatalogEntry) []string {
	if s.token == "" || s.gate.Active(brandProviderName) {
		return nil
	}
	domain := entry.Domain()
	if domain == "" {
		return nil
	}

	base := s.baseURL + "/" + url.PathEscape(domain) + "?token=" + url.QueryEscape(s.token)
	return []string{
		base + "&format=svg",
		base + "&format=png&size=128",
	}
}

// NoteStatus trips the cooldown on auth failure or rate limiting. Both are
// treated the same: suppress the provider rather than retrying per entity.
func (s *BrandAPIStrategy) NoteStatus(_ string, status int) {
	if isRateLimit(status) {
		s.gate.Trip(brandProviderName)
	}
}
