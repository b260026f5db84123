// Package persist implements the remote persistence bridge: once a logo URL
// is validated, a copy of the image is written to the object store and a
// lookup-table row recorded so no session ever re-runs resolution for that
// entity.
package persist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"logosvc/internal/db"
	"logosvc/internal/metrics"
	"logosvc/internal/models"
	"logosvc/internal/validation"
)

// ObjectStore accepts (path, bytes, contentType) and returns a public URL.
// Must support overwrite-by-path.
type ObjectStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// MappingStore is the lookup table: upsert/query logo mappings by entity ID.
// Implemented by the db layer.
type MappingStore interface {
	GetLogoMapping(ctx context.Context, entityID string) (*models.LogoMapping, error)
	UpsertLogoMapping(ctx context.Context, m *models.LogoMapping) error
}

// Bridge copies validated logo images into durable storage. All methods are
// fire-and-forget safe: failures are logged and reported as false, never
// propagated.
type Bridge struct {
	store      ObjectStore
	mappings   MappingStore
	client     *http.Client
	publicBase string
	maxBytes   int64

	// AllowPrivateHosts skips the SSRF guard for development fixtures.
	AllowPrivateHosts bool

	// now is swappable in tests for deterministic storage paths.
	now func() time.Time
}

// NewBridge creates a bridge. publicBase identifies URLs that already point
// at this bridge's own storage so migrated assets are never re-uploaded.
func NewBridge(store ObjectStore, mappings MappingStore, publicBase string, maxBytes int64) *Bridge {
	if maxBytes <= 0 {
		maxBytes = 5 * 1024 * 1024
	}
	return &Bridge{
		store:      store,
		mappings:   mappings,
		client:     &http.Client{Timeout: 15 * time.Second},
		publicBase: strings.TrimSuffix(publicBase, "/"),
		maxBytes:   maxBytes,
		now:        time.Now,
	}
}

// Persist durably stores a copy of url for the entry. Returns true only
// when a new upload and mapping row were written. Safe to call concurrently
// for the same entity: the duplicate check prevents redundant uploads, and
// a lost race merely overwrites with an equivalent row.
func (b *Bridge) Persist(ctx context.Context, entry models.CatalogEntry, rawURL string) bool {
	if b.store == nil || b.mappings == nil {
		return false
	}
	if models.IsPlaceholderURL(rawURL) {
		metrics.RecordPersist("skipped")
		return false
	}
	if b.publicBase != "" && strings.HasPrefix(rawURL, b.publicBase) {
		// Already migrated; re-uploading our own copy would be pointless.
		metrics.RecordPersist("skipped")
		return false
	}

	if existing, err := b.mappings.GetLogoMapping(ctx, entry.ID); err == nil && existing != nil {
		metrics.RecordPersist("skipped")
		return false
	} else if err != nil && !errors.Is(err, db.ErrMappingNotFound) {
		slog.Warn("logo mapping lookup failed", "entity", entry.ID, "error", err)
		metrics.RecordPersist("failed")
		return false
	}

	data, contentType, ok := b.fetch(ctx, rawURL)
	if !ok {
		metrics.RecordPersist("failed")
		return false
	}

	// Timestamp suffix defeats stale CDN caches in front of the store.
	path := fmt.Sprintf("logos/%s-%d.%s", entry.ID, b.now().Unix(), extensionFor(contentType))

	publicURL, err := b.store.Put(ctx, path, data, contentType)
	if err != nil {
		slog.Warn("logo upload failed", "entity", entry.ID, "path", path, "error", err)
		metrics.RecordPersist("failed")
		return false
	}

	m := &models.LogoMapping{
		EntityID:    entry.ID,
		PublicURL:   publicURL,
		StoragePath: path,
		Source:      models.SourceStore,
	}
	if err := b.mappings.UpsertLogoMapping(ctx, m); err != nil {
		slog.Warn("logo mapping upsert failed", "entity", entry.ID, "error", err)
		metrics.RecordPersist("failed")
		return false
	}

	metrics.RecordPersist("uploaded")
	slog.Info("logo migrated to object store", "entity", entry.ID, "path", path)
	return true
}

// fetch downloads the image bytes with caching disabled, so a stale cached
// error page is never stored as a logo.
func (b *Bridge) fetch(ctx context.Context, rawURL string) (data []byte, contentType string, ok bool) {
	if !b.AllowPrivateHosts {
		if valid, _ := validation.ValidateURLForFetch(rawURL); !valid {
			return nil, "", false
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", false
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("User-Agent", "logosvc-bridge/1.0")

	resp, err := b.client.Do(req)
	if err != nil {
		slog.Warn("logo fetch failed", "url", rawURL, "error", err)
		return nil, "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", false
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, b.maxBytes))
	if err != nil || len(data) == 0 {
		return nil, "", false
	}

	contentType = resp.Header.Get("Content-Type")
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, true
}

// extensionFor maps a declared content type to a file extension.
func extensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/svg+xml":
		return "svg"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/x-icon", "image/vnd.microsoft.icon":
		return "ico"
	default:
		return "png"
	}
}
