package handlers

import (
	"github.com/gofiber/fiber/v3"

	"logosvc/internal/logocache"
)

// CacheHandler exposes operator actions on the tiered cache.
type CacheHandler struct {
	cache *logocache.Cache
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(cache *logocache.Cache) *CacheHandler {
	return &CacheHandler{cache: cache}
}

// Flush forces an immediate durable-tier write.
func (h *CacheHandler) Flush(c fiber.Ctx) error {
	h.cache.Flush()
	return jsonSuccess(c, fiber.Map{"records": h.cache.Len()})
}

// Clear wipes all cache tiers. Debug/support action.
func (h *CacheHandler) Clear(c fiber.Ctx) error {
	h.cache.Clear()
	return jsonSuccess(c, fiber.Map{"records": 0})
}
