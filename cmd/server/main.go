package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"logosvc/internal/config"
	"logosvc/internal/db"
	"logosvc/internal/jobs"
	"logosvc/internal/kvstore"
	"logosvc/internal/logocache"
	"logosvc/internal/metrics"
	"logosvc/internal/models"
	"logosvc/internal/persist"
	"logosvc/internal/resolver"
	"logosvc/internal/server"
	"logosvc/internal/validator"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	yamlCfg, err := config.LoadYAMLConfig()
	if err != nil {
		log.Fatalf("Failed to load config file: %v", err)
	}

	// Initialize database
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	if cfg.IsDev() {
		if err := database.SeedDevCatalog(ctx); err != nil {
			log.Printf("Warning: failed to seed dev catalog: %v", err)
		}
	}

	metrics.Init(database)

	// Cache tiers: both persisted tiers live in Redis as JSON blobs. When
	// Redis is not configured the cache degrades to memory-only.
	var sessionTier, durableTier kvstore.BlobStore
	if cfg.RedisURL != "" {
		store := kvstore.NewRedis(cfg.RedisURL)
		sessionTier, durableTier = store, store
		defer store.Close()
	} else {
		log.Println("REDIS_URL not set; cache runs memory-only")
	}

	cache := logocache.New(sessionTier, durableTier, logocache.Options{
		SessionTTL:       cfg.SessionTierTTL,
		DurableTTL:       cfg.DurableTTL,
		DurableCapacity:  cfg.DurableCapacity,
		FlushProbability: cfg.FlushProbability,
	})
	cache.Init(ctx)

	// Persistence bridge: disabled without object store configuration.
	var bridge resolver.Persister
	if cfg.S3Configured() {
		store, err := persist.NewS3Store(ctx, persist.S3Options{
			Endpoint:       cfg.S3Endpoint,
			Region:         cfg.S3Region,
			Bucket:         cfg.S3Bucket,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			ForcePathStyle: cfg.S3ForcePathStyle,
			PublicBaseURL:  cfg.S3PublicBaseURL,
		})
		if err != nil {
			log.Fatalf("Failed to initialize object store: %v", err)
		}
		b := persist.NewBridge(store, database, store.PublicBase(), cfg.MaxImageBytes)
		b.AllowPrivateHosts = cfg.IsDev()
		bridge = b
	} else {
		log.Println("Object store not configured; logo migration disabled")
	}

	// Resolution chain
	v := validator.New(cfg.ValidateTimeout, cfg.MaxImageBytes)
	v.AllowPrivateHosts = cfg.IsDev()

	gate := resolver.NewCooldownGate(cfg.ProviderCooldown)
	strategies := resolver.DefaultStrategies(yamlCfg.OverrideMap(), cfg.BrandAPIToken, gate)
	if yamlCfg != nil {
		strategies = filterStrategies(strategies, yamlCfg.Providers)
	}
	chain := resolver.NewChain(v, cache, bridge, strategies...)

	// Background prefetcher
	prefetcher := jobs.NewPrefetcher(database, chain, cache,
		cfg.PrefetchInterval, cfg.PrefetchChunkSize, cfg.PrefetchChunkWait)

	jobCtx, cancelJobs := context.WithCancel(ctx)
	go prefetcher.Start(jobCtx)

	// HTTP server
	srv := server.New(cfg)
	srv.RegisterRoutes(database, cache, chain, prefetcher)

	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()
	log.Printf("Server started on %s", cfg.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancelJobs()
	if err := srv.Shutdown(); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Best-effort final cache flush, the explicit teardown half of the
	// cache lifecycle.
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cache.Dispose(flushCtx)

	log.Println("Server exited")
}

// filterStrategies drops strategies disabled in the config file.
func filterStrategies(strategies []resolver.Strategy, p config.ProvidersConfig) []resolver.Strategy {
	disabled := map[string]bool{
		models.SourceFaviconAPI: p.DisableFaviconAPIs,
		models.SourceBrandAPI:   p.DisableBrandAPI,
		models.SourceHTMLScrape: p.DisableHTMLScrape,
	}

	kept := make([]resolver.Strategy, 0, len(strategies))
	for _, s := range strategies {
		if !disabled[s.Name()] {
			kept = append(kept, s)
		}
	}
	return kept
}
