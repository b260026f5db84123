package resolver

import (
	"context"

	"logosvc/internal/models"
)

// conventionalPaths lists well-known icon locations on an entity's own site,
// best first: brand asset directories, favicon filenames, Apple touch icons.
var conventionalPaths = []string{
	"/favicon.svg",
	"/logo.svg",
	"/assets/logo.svg",
	"/images/logo.svg",
	"/apple-touch-icon.png",
	"/apple-touch-icon-precomposed.png",
	"/favicon-196x196.png",
	"/favicon.png",
	"/favicon.ico",
}

// DomainGuessStrategy tries conventional icon paths against the entity's
// own domain.
type DomainGuessStrategy struct{}

func (DomainGuessStrategy) Name() string { return models.SourceDomainGuess }

func (DomainGuessStrategy) Candidates(_ context.Context, entry models.CatalogEntry) []string {
	domain := entry.Domain()
	if domain == "" {
		return nil
	}

	urls := make([]string, 0, len(conventionalPaths))
	for _, p := range conventionalPaths {
		urls = append(urls, "https://"+domain+p)
	}
	return urls
}
