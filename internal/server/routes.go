package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"logosvc/internal/db"
	"logosvc/internal/handlers"
	"logosvc/internal/jobs"
	"logosvc/internal/logocache"
	"logosvc/internal/resolver"
)

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(database *db.DB, cache *logocache.Cache, chain *resolver.Chain, prefetcher *jobs.Prefetcher) {
	// Initialize handlers
	logoHandler := handlers.NewLogoHandler(database, cache, chain, prefetcher)
	cacheHandler := handlers.NewCacheHandler(cache)
	probeHandler := handlers.NewProbeHandler(database)
	statusHandler := handlers.NewStatusHandler(database, cache, s.Cfg.Env)

	// Logo API - the UI consumer surface
	s.App.Get("/api/logos/:id", logoHandler.Get)
	s.App.Get("/api/logos/:id/placeholder", logoHandler.Placeholder)
	s.App.Post("/api/logos/:id/refresh", logoHandler.Refresh)
	s.App.Post("/api/logos/prefetch", logoHandler.Prefetch)

	// Operator cache actions
	s.App.Post("/api/cache/flush", cacheHandler.Flush)
	s.App.Delete("/api/cache", cacheHandler.Clear)

	// Probes and observability
	s.App.Get("/healthz", probeHandler.Liveness)
	s.App.Get("/readyz", probeHandler.Readiness)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	s.App.Get("/status", statusHandler.Show)
}
