package resolver

import (
	"context"

	"logosvc/internal/models"
)

// CatalogIconStrategy offers the entry's own pre-supplied icon URL when it
// is present and not a placeholder.
type CatalogIconStrategy struct{}

func (CatalogIconStrategy) Name() string { return models.SourceCatalogIcon }

func (CatalogIconStrategy) Candidates(_ context.Context, entry models.CatalogEntry) []string {
	if models.IsPlaceholderURL(entry.Icon) {
		return nil
	}
	return []string{entry.Icon}
}
