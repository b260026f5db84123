// Package logocache implements the tiered logo cache: an in-memory map of
// validated logo records backed by a per-process session blob and a
// cross-session durable blob, both stored as whole JSON snapshots.
package logocache

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"logosvc/internal/kvstore"
	"logosvc/internal/metrics"
	"logosvc/internal/models"
)

const durableKey = "logocache:durable"

// Options tunes cache behaviour. Zero values fall back to defaults.
type Options struct {
	SessionTTL       time.Duration // expiry of the session tier blob
	DurableTTL       time.Duration // max age of durable records accepted on Init
	DurableCapacity  int           // hard cap on records written by Flush
	FlushProbability float64       // chance Register triggers a durable flush
}

func (o *Options) applyDefaults() {
	if o.SessionTTL <= 0 {
		o.SessionTTL = 12 * time.Hour
	}
	if o.DurableTTL <= 0 {
		o.DurableTTL = 30 * 24 * time.Hour
	}
	if o.DurableCapacity <= 0 {
		o.DurableCapacity = 500
	}
	if o.FlushProbability <= 0 {
		o.FlushProbability = 0.125
	}
}

// Cache is the tiered cache service. Construct with New, call Init once at
// startup and Dispose on shutdown. All methods are safe for concurrent use
// and none of them performs network activity or returns an error: storage
// failures degrade the cache to memory-only operation.
type Cache struct {
	mu      sync.RWMutex
	records map[string]models.LogoRecord

	session    kvstore.BlobStore
	durable    kvstore.BlobStore
	sessionKey string
	opts       Options

	// now is swappable in tests for TTL and eviction checks.
	now func() time.Time
}

// New creates a cache over the two persisted tiers. Either store may be nil,
// which disables that tier.
func New(session, durable kvstore.BlobStore, opts Options) *Cache {
	opts.applyDefaults()
	return &Cache{
		records:    make(map[string]models.LogoRecord),
		session:    session,
		durable:    durable,
		sessionKey: "logocache:session:" + uuid.NewString(),
		opts:       opts,
		now:        time.Now,
	}
}

// Init loads both persisted tiers into memory. The session tier is loaded
// first and trusted as-is; durable records are added only for entity IDs not
// already present and only when within the TTL window. The merged state is
// then written back to the session tier so later reads in this process are
// consistent. Tier failures are logged and tolerated.
func (c *Cache) Init(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, rec := range c.loadTier(c.session, c.sessionKey, "session") {
		c.records[rec.EntityID] = rec
	}

	cutoff := c.now()
	for _, rec := range c.loadTier(c.durable, durableKey, "durable") {
		if _, exists := c.records[rec.EntityID]; exists {
			continue
		}
		if rec.Expired(c.opts.DurableTTL, cutoff) {
			continue
		}
		c.records[rec.EntityID] = rec
	}

	c.writeSessionLocked()
	slog.Info("logo cache initialized", "records", len(c.records))
}

// Get returns the best known URL for an entity without any network activity.
func (c *Cache) Get(entityID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.records[entityID]
	if !ok {
		metrics.RecordCacheOp("memory", "get", "miss")
		return "", false
	}
	metrics.RecordCacheOp("memory", "get", "hit")
	return rec.URL, true
}

// Record returns the full cached record for an entity.
func (c *Cache) Record(entityID string) (models.LogoRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[entityID]
	return rec, ok
}

// Register marks a URL as validated for an entity. Last write wins; calling
// it twice with the same arguments is a no-op for observable state. The
// session tier is updated synchronously and, with a small probability, the
// durable tier is flushed to amortize its write cost.
func (c *Cache) Register(entityID, url, domain, source string) {
	c.mu.Lock()
	c.records[entityID] = models.LogoRecord{
		EntityID:  entityID,
		URL:       url,
		Domain:    domain,
		Validated: true,
		Source:    source,
		Timestamp: c.now(),
	}
	c.writeSessionLocked()
	c.mu.Unlock()

	metrics.RecordCacheOp("memory", "register", "ok")

	if rand.Float64() < c.opts.FlushProbability {
		c.Flush()
	}
}

// Seed stores an entity's pre-supplied candidate as an unvalidated record so
// it can be offered as a first guess. An existing record is never displaced.
func (c *Cache) Seed(entry models.CatalogEntry) {
	if models.IsPlaceholderURL(entry.Icon) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.records[entry.ID]; exists {
		return
	}
	c.records[entry.ID] = models.LogoRecord{
		EntityID:  entry.ID,
		URL:       entry.Icon,
		Domain:    entry.Domain(),
		Validated: false,
		Source:    models.SourceCatalogIcon,
		Timestamp: c.now(),
	}
}

// Forget drops the record for one entity from memory and rewrites the
// session tier. Used by the forced-refresh path before re-resolving.
func (c *Cache) Forget(entityID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.records[entityID]; !ok {
		return
	}
	delete(c.records, entityID)
	c.writeSessionLocked()
}

// Flush writes all validated in-memory records to the durable tier, keeping
// only the newest DurableCapacity records by timestamp.
func (c *Cache) Flush() {
	if c.durable == nil {
		return
	}

	c.mu.RLock()
	validated := make([]models.LogoRecord, 0, len(c.records))
	for _, rec := range c.records {
		if rec.Validated {
			validated = append(validated, rec)
		}
	}
	c.mu.RUnlock()

	sort.Slice(validated, func(i, j int) bool {
		return validated[i].Timestamp.After(validated[j].Timestamp)
	})
	if len(validated) > c.opts.DurableCapacity {
		validated = validated[:c.opts.DurableCapacity]
	}

	data, err := json.Marshal(validated)
	if err != nil {
		slog.Warn("failed to serialize durable cache tier", "error", err)
		metrics.RecordCacheOp("durable", "flush", "error")
		return
	}
	if err := c.durable.Set(durableKey, data, 0); err != nil {
		slog.Warn("failed to write durable cache tier", "error", err)
		metrics.RecordCacheOp("durable", "flush", "error")
		return
	}
	metrics.RecordCacheOp("durable", "flush", "ok")
}

// Clear wipes all three tiers. Operator/debug action, not part of normal
// operation.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.records = make(map[string]models.LogoRecord)
	c.mu.Unlock()

	if c.session != nil {
		if err := c.session.Delete(c.sessionKey); err != nil {
			slog.Warn("failed to clear session cache tier", "error", err)
		}
	}
	if c.durable != nil {
		if err := c.durable.Delete(durableKey); err != nil {
			slog.Warn("failed to clear durable cache tier", "error", err)
		}
	}
	metrics.RecordCacheOp("memory", "clear", "ok")
}

// SessionKey returns the per-process key of the session tier blob.
// Exposed for diagnostics.
func (c *Cache) SessionKey() string {
	return c.sessionKey
}

// Len returns the number of in-memory records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Dispose performs a best-effort final flush. Called from the host
// application's shutdown hook.
func (c *Cache) Dispose(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		c.Flush()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("cache flush on shutdown did not complete", "error", ctx.Err())
	}
}

// loadTier reads and decodes one tier blob. Any failure is logged and an
// empty slice returned so the cache degrades instead of failing startup.
func (c *Cache) loadTier(store kvstore.BlobStore, key, tier string) []models.LogoRecord {
	if store == nil {
		return nil
	}

	data, err := store.Get(key)
	if err != nil {
		slog.Warn("failed to read cache tier", "tier", tier, "error", err)
		metrics.RecordCacheOp(tier, "load", "error")
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var recs []models.LogoRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		slog.Warn("failed to decode cache tier", "tier", tier, "error", err)
		metrics.RecordCacheOp(tier, "load", "error")
		return nil
	}
	metrics.RecordCacheOp(tier, "load", "ok")
	return recs
}

// writeSessionLocked serializes all validated records to the session tier.
// Caller must hold c.mu.
func (c *Cache) writeSessionLocked() {
	if c.session == nil {
		return
	}

	validated := make([]models.LogoRecord, 0, len(c.records))
	for _, rec := range c.records {
		if rec.Validated {
			validated = append(validated, rec)
		}
	}

	data, err := json.Marshal(validated)
	if err != nil {
		slog.Warn("failed to serialize session cache tier", "error", err)
		metrics.RecordCacheOp("session", "write", "error")
		return
	}
	if err := c.session.Set(c.sessionKey, data, c.opts.SessionTTL); err != nil {
		slog.Warn("failed to write session cache tier", "error", err)
		metrics.RecordCacheOp("session", "write", "error")
		return
	}
	metrics.RecordCacheOp("session", "write", "ok")
}
