package models

import (
	"net/url"
	"strings"
)

// CatalogEntry is the read-only shape of one catalog item (an external web
// application). Owned by the catalog collaborator; the logo pipeline never
// mutates it.
type CatalogEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Icon string `json:"icon,omitempty"` // optional pre-supplied candidate
}

// Domain derives the entity's web domain from its home page URL.
// Returns "" if the URL does not parse to a host.
func (e *CatalogEntry) Domain() string {
	u, err := url.Parse(e.URL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// IsPlaceholderURL reports whether a URL is one of the placeholder values
// that must never be treated as a real logo candidate.
func IsPlaceholderURL(u string) bool {
	if u == "" {
		return true
	}
	lower := strings.ToLower(u)
	return strings.Contains(lower, "/placeholder") ||
		strings.HasSuffix(lower, "placeholder.svg") ||
		strings.HasSuffix(lower, "placeholder.png") ||
		strings.HasPrefix(lower, "data:")
}
