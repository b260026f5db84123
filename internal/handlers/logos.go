package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"logosvc/internal/db"
	"logosvc/internal/logocache"
	"logosvc/internal/models"
	"logosvc/internal/placeholder"
	"logosvc/internal/resolver"
	"logosvc/internal/retry"
	"logosvc/internal/validation"
)

// Store is the subset of the db layer the logo handlers need.
type Store interface {
	GetCatalogEntry(ctx context.Context, id string) (*models.CatalogEntry, error)
	GetLogoMapping(ctx context.Context, entityID string) (*models.LogoMapping, error)
	DeleteLogoMapping(ctx context.Context, entityID string) error
	ListEntriesWithoutLogo(ctx context.Context, limit int) ([]models.CatalogEntry, error)
}

// LogoResolver runs the strategy chain for one entry.
type LogoResolver interface {
	Resolve(ctx context.Context, entry models.CatalogEntry) (resolver.Resolution, bool)
}

// BatchResolver resolves many entries cooperatively.
type BatchResolver interface {
	ResolveBatch(ctx context.Context, entries []models.CatalogEntry) int
}

// LogoHandler serves logo URLs for catalog entries.
type LogoHandler struct {
	store Store
	cache *logocache.Cache
	chain LogoResolver
	batch BatchResolver
}

// NewLogoHandler creates a new logo handler. batch may be nil, which
// disables the prefetch endpoint.
func NewLogoHandler(store Store, cache *logocache.Cache, chain LogoResolver, batch BatchResolver) *LogoHandler {
	return &LogoHandler{store: store, cache: cache, chain: chain, batch: batch}
}

// logoResponse is the payload handed to UI consumers.
type logoResponse struct {
	EntityID    string      `json:"entity_id"`
	URL         string      `json:"url,omitempty"`
	Source      string      `json:"source,omitempty"`
	Validated   bool        `json:"validated"`
	Placeholder string      `json:"placeholder,omitempty"`
	Retry       *retry.Plan `json:"retry,omitempty"`
}

// Get returns the logo URL for an entity: from cache when known, otherwise
// from the lookup table, otherwise by running the resolution chain. Total
// resolution failure is a normal terminal state answered with the
// placeholder, never an error status.
func (h *LogoHandler) Get(c fiber.Ctx) error {
	id := c.Params("id")
	if !validation.ValidateEntityID(id) {
		return jsonError(c, fiber.StatusBadRequest, "invalid entity id")
	}

	if rec, ok := h.cache.Record(id); ok && rec.Validated {
		return jsonSuccess(c, resolvedResponse(id, rec.URL, rec.Source, rec.Domain))
	}

	// The lookup table lets this process benefit from migrations done by
	// other sessions without re-running resolution.
	if m, err := h.store.GetLogoMapping(c.Context(), id); err == nil {
		entry, _ := h.store.GetCatalogEntry(c.Context(), id)
		domain := ""
		if entry != nil {
			domain = entry.Domain()
		}
		h.cache.Register(id, m.PublicURL, domain, models.SourceStore)
		return jsonSuccess(c, resolvedResponse(id, m.PublicURL, models.SourceStore, domain))
	} else if !errors.Is(err, db.ErrMappingNotFound) {
		return jsonError(c, fiber.StatusInternalServerError, "lookup failed")
	}

	entry, err := h.store.GetCatalogEntry(c.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrEntryNotFound) {
			return jsonError(c, fiber.StatusNotFound, "unknown catalog entry")
		}
		return jsonError(c, fiber.StatusInternalServerError, "catalog lookup failed")
	}

	if res, ok := h.chain.Resolve(c.Context(), *entry); ok {
		return jsonSuccess(c, resolvedResponse(id, res.URL, res.Source, entry.Domain()))
	}

	return jsonSuccess(c, logoResponse{
		EntityID:    id,
		Validated:   false,
		Placeholder: "/api/logos/" + id + "/placeholder",
	})
}

// Placeholder serves the deterministic initials-on-color SVG for an entity.
// Works for unknown entities too, so broken clients always get an image.
func (h *LogoHandler) Placeholder(c fiber.Ctx) error {
	id := c.Params("id")
	if !validation.ValidateEntityID(id) {
		return jsonError(c, fiber.StatusBadRequest, "invalid entity id")
	}

	name := id
	if entry, err := h.store.GetCatalogEntry(c.Context(), id); err == nil {
		name = entry.Name
	}

	c.Set(fiber.HeaderContentType, "image/svg+xml")
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400, immutable")
	return c.SendString(placeholder.SVG(id, name))
}

// Refresh forces re-resolution of an entity, discarding the cached record
// and the lookup-table row first. Admin action.
func (h *LogoHandler) Refresh(c fiber.Ctx) error {
	id := c.Params("id")
	if !validation.ValidateEntityID(id) {
		return jsonError(c, fiber.StatusBadRequest, "invalid entity id")
	}

	entry, err := h.store.GetCatalogEntry(c.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrEntryNotFound) {
			return jsonError(c, fiber.StatusNotFound, "unknown catalog entry")
		}
		return jsonError(c, fiber.StatusInternalServerError, "catalog lookup failed")
	}

	h.cache.Forget(id)
	if err := h.store.DeleteLogoMapping(c.Context(), id); err != nil && !errors.Is(err, db.ErrMappingNotFound) {
		return jsonError(c, fiber.StatusInternalServerError, "failed to discard mapping")
	}

	if res, ok := h.chain.Resolve(c.Context(), *entry); ok {
		return jsonSuccess(c, resolvedResponse(id, res.URL, res.Source, entry.Domain()))
	}
	return jsonSuccess(c, logoResponse{
		EntityID:    id,
		Validated:   false,
		Placeholder: "/api/logos/" + id + "/placeholder",
	})
}

// prefetchRequest selects which entries to warm. Empty IDs means every
// entry without a migrated logo.
type prefetchRequest struct {
	IDs []string `json:"ids"`
}

// Prefetch warms the cache for many entries in cooperative chunks.
func (h *LogoHandler) Prefetch(c fiber.Ctx) error {
	if h.batch == nil {
		return jsonError(c, fiber.StatusNotImplemented, "prefetch disabled")
	}

	var req prefetchRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	var entries []models.CatalogEntry
	if len(req.IDs) == 0 {
		var err error
		entries, err = h.store.ListEntriesWithoutLogo(c.Context(), 100)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "catalog lookup failed")
		}
	} else {
		for _, id := range req.IDs {
			if !validation.ValidateEntityID(id) {
				continue
			}
			if entry, err := h.store.GetCatalogEntry(c.Context(), id); err == nil {
				entries = append(entries, *entry)
			}
		}
	}

	resolved := h.batch.ResolveBatch(c.Context(), entries)
	return jsonSuccess(c, fiber.Map{
		"requested": len(entries),
		"resolved":  resolved,
	})
}

func resolvedResponse(id, url, source, domain string) logoResponse {
	plan := retry.PlanFor(url, domain, time.Now())
	return logoResponse{
		EntityID:  id,
		URL:       url,
		Source:    source,
		Validated: true,
		Retry:     &plan,
	}
}
