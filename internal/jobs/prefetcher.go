package jobs

import (
	"context"
	"log"
	"time"

	"logosvc/internal/db"
	"logosvc/internal/logocache"
	"logosvc/internal/models"
	"logosvc/internal/resolver"
)

// Prefetcher resolves logos for catalog entries that have not been migrated
// yet, so first page loads rarely pay resolution latency. It works in small
// chunks with a cooperative pause between them to keep the service
// responsive during a large catalog's initial fill.
type Prefetcher struct {
	db        *db.DB
	chain     *resolver.Chain
	cache     *logocache.Cache
	interval  time.Duration
	chunkSize int
	chunkWait time.Duration
}

// NewPrefetcher creates a prefetcher.
func NewPrefetcher(database *db.DB, chain *resolver.Chain, cache *logocache.Cache, interval time.Duration, chunkSize int, chunkWait time.Duration) *Prefetcher {
	if chunkSize <= 0 {
		chunkSize = 5
	}
	if chunkWait <= 0 {
		chunkWait = 500 * time.Millisecond
	}
	return &Prefetcher{
		db:        database,
		chain:     chain,
		cache:     cache,
		interval:  interval,
		chunkSize: chunkSize,
		chunkWait: chunkWait,
	}
}

// Start begins the background prefetch loop.
func (p *Prefetcher) Start(ctx context.Context) {
	log.Printf("Prefetcher started (interval: %v, chunk: %d)", p.interval, p.chunkSize)

	// Run immediately on start
	p.runOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Prefetcher stopped")
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

// runOnce resolves one batch of unmigrated entries.
func (p *Prefetcher) runOnce(ctx context.Context) {
	entries, err := p.db.ListEntriesWithoutLogo(ctx, 50)
	if err != nil {
		log.Printf("Prefetcher: failed to list entries: %v", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	log.Printf("Prefetcher: resolving %d entries", len(entries))
	p.ResolveBatch(ctx, entries)
}

// ResolveBatch resolves entries in chunks with a pause between chunks.
// Also used by the prefetch API endpoint.
func (p *Prefetcher) ResolveBatch(ctx context.Context, entries []models.CatalogEntry) (resolved int) {
	for i := 0; i < len(entries); i += p.chunkSize {
		end := min(i+p.chunkSize, len(entries))
		for _, entry := range entries[i:end] {
			select {
			case <-ctx.Done():
				return resolved
			default:
			}

			if rec, ok := p.cache.Record(entry.ID); ok && rec.Validated {
				continue
			}
			if _, ok := p.chain.Resolve(ctx, entry); ok {
				resolved++
			}
		}

		if end < len(entries) {
			select {
			case <-ctx.Done():
				return resolved
			case <-time.After(p.chunkWait):
			}
		}
	}
	return resolved
}
