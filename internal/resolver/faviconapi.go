package resolver

import (
	"context"
	"net/url"
	"strings"

	"logosvc/internal/models"
)

// faviconProvider is one third-party favicon service queried by domain.
type faviconProvider struct {
	name   string
	prefix string // URL prefix used to attribute a candidate back to its provider
	build  func(domain string) string
}

// defaultFaviconProviders are tried in fixed fallback order. All of them may
// be slow, rate-limited or absent for a given domain; none is required.
var defaultFaviconProviders = []faviconProvider{
	{
		name:   "google-s2",
		prefix: "https://www.google.com/s2/favicons",
		build: func(domain string) string {
			return "https://www.google.com/s2/favicons?sz=128&domain=" + url.QueryEscape(domain)
		},
	},
	{
		name:   "duckduckgo",
		prefix: "https://icons.duckduckgo.com/",
		build: func(domain string) string {
			return "https://icons.duckduckgo.com/ip3/" + url.PathEscape(domain) + ".ico"
		},
	},
	{
		name:   "icon-horse",
		prefix: "https://icon.horse/",
		build: func(domain string) string {
			return "https://icon.horse/icon/" + url.PathEscape(domain)
		},
	},
}

// FaviconAPIStrategy queries third-party favicon services by domain, skipping
// any provider currently on rate-limit cooldown.
type FaviconAPIStrategy struct {
	providers []faviconProvider
	gate      *CooldownGate
}

// NewFaviconAPIStrategy creates the strategy with the default provider list.
func NewFaviconAPIStrategy(gate *CooldownGate) *FaviconAPIStrategy {
	return &FaviconAPIStrategy{providers: defaultFaviconProviders, gate: gate}
}

func (s *FaviconAPIStrategy) Name() string { return models.SourceFaviconAPI }

func (s *FaviconAPIStrategy) Candidates(_ context.Context, entry models.CatalogEntry) []string {
	domain := entry.Domain()
	if domain == "" {
		return nil
	}

	var urls []string
	for _, p := range s.providers {
		if s.gate.Active(p.name) {
			continue
		}
		urls = append(urls, p.build(domain))
	}
	return urls
}

// NoteStatus places a provider on cooldown when one of its candidates came
// back rate-limited, so later entities do not hammer it.
func (s *FaviconAPIStrategy) NoteStatus(candidate string, status int) {
	if !isRateLimit(status) {
		return
	}
	for _, p := range s.providers {
		if strings.HasPrefix(candidate, p.prefix) {
			s.gate.Trip(p.name)
			return
		}
	}
}
