package resolver

import (
	"context"

	"logosvc/internal/models"
)

// OverrideStrategy serves the curated override table: exact, manually vetted
// URLs for entries where automated resolution is known to be unreliable.
// Highest priority in the chain.
type OverrideStrategy struct {
	table map[string]string // entity ID -> URL
}

// NewOverrideStrategy creates the strategy from an override table, usually
// loaded from the optional YAML config file.
func NewOverrideStrategy(table map[string]string) *OverrideStrategy {
	return &OverrideStrategy{table: table}
}

func (s *OverrideStrategy) Name() string { return models.SourceOverride }

func (s *OverrideStrategy) Candidates(_ context.Context, entry models.CatalogEntry) []string {
	if url, ok := s.table[entry.ID]; ok && url != "" {
		return []string{url}
	}
	return nil
}
