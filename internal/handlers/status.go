package handlers

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"logosvc/internal/db"
	"logosvc/internal/logocache"
)

// StatusHandler renders the operator status page.
type StatusHandler struct {
	db      *db.DB
	cache   *logocache.Cache
	started time.Time
	env     string
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(database *db.DB, cache *logocache.Cache, env string) *StatusHandler {
	return &StatusHandler{
		db:      database,
		cache:   cache,
		started: time.Now(),
		env:     env,
	}
}

// Show renders a small HTML page with cache and lookup-table statistics.
func (h *StatusHandler) Show(c fiber.Ctx) error {
	mappings := int64(-1)
	if h.db != nil {
		if n, err := h.db.CountLogoMappings(c.Context()); err == nil {
			mappings = n
		}
	}

	return c.Render("status", fiber.Map{
		"Title":        "Logo Service",
		"Env":          h.env,
		"Uptime":       time.Since(h.started).Round(time.Second).String(),
		"CacheRecords": h.cache.Len(),
		"Mappings":     mappings,
	})
}
