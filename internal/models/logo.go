package models

import "time"

// Resolution strategy source tags. Stored on LogoRecord.Source so cache
// merges and diagnostics can tell where a URL came from.
const (
	SourceOverride    = "override"
	SourceCatalogIcon = "catalog-icon"
	SourceDomainGuess = "domain-guess"
	SourceFaviconAPI  = "favicon-api"
	SourceBrandAPI    = "brand-api"
	SourceHTMLScrape  = "html-scrape"
	SourceStore       = "store" // already migrated to the object store
)

// LogoRecord is the cached knowledge about one entity's logo.
type LogoRecord struct {
	EntityID  string    `json:"entity_id"`
	URL       string    `json:"url"`
	Domain    string    `json:"domain"`
	Validated bool      `json:"validated"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// Expired reports whether the record is older than the given TTL.
func (r *LogoRecord) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(r.Timestamp) > ttl
}
