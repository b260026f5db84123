package handlers

import (
	"github.com/gofiber/fiber/v3"

	"logosvc/internal/db"
)

// ProbeHandler answers Kubernetes liveness and readiness probes.
type ProbeHandler struct {
	db *db.DB
}

// NewProbeHandler creates a new probe handler.
func NewProbeHandler(database *db.DB) *ProbeHandler {
	return &ProbeHandler{db: database}
}

// Liveness reports that the process is up. Never touches dependencies, so a
// slow database cannot get the pod restarted.
func (h *ProbeHandler) Liveness(c fiber.Ctx) error {
	return jsonSuccess(c, fiber.Map{"alive": true})
}

// Readiness reports whether the service can answer logo requests, which
// requires the catalog database. The cache tiers are excluded: the cache
// degrades to memory-only and keeps serving.
func (h *ProbeHandler) Readiness(c fiber.Ctx) error {
	if h.db == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "database not configured")
	}
	if err := h.db.Ping(c.Context()); err != nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "database unreachable")
	}
	return jsonSuccess(c, fiber.Map{"database": "up"})
}
