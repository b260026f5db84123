package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logosvc/internal/db"
	"logosvc/internal/logocache"
	"logosvc/internal/models"
	"logosvc/internal/resolver"
)

type fakeStore struct {
	entries     map[string]models.CatalogEntry
	mappings    map[string]models.LogoMapping
	deleted     []string
	withoutLogo []models.CatalogEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entries:  make(map[string]models.CatalogEntry),
		mappings: make(map[string]models.LogoMapping),
	}
}

func (s *fakeStore) GetCatalogEntry(_ context.Context, id string) (*models.CatalogEntry, error) {
	if e, ok := s.entries[id]; ok {
		return &e, nil
	}
	return nil, db.ErrEntryNotFound
}

func (s *fakeStore) GetLogoMapping(_ context.Context, entityID string) (*models.LogoMapping, error) {
	if m, ok := s.mappings[entityID]; ok {
		return &m, nil
	}
	return nil, db.ErrMappingNotFound
}

func (s *fakeStore) DeleteLogoMapping(_ context.Context, entityID string) error {
	s.deleted = append(s.deleted, entityID)
	if _, ok := s.mappings[entityID]; !ok {
		return db.ErrMappingNotFound
	}
	delete(s.mappings, entityID)
	return nil
}

func (s *fakeStore) ListEntriesWithoutLogo(_ context.Context, limit int) ([]models.CatalogEntry, error) {
	if len(s.withoutLogo) > limit {
		return s.withoutLogo[:limit], nil
	}
	return s.withoutLogo, nil
}

type fakeResolver struct {
	resolution resolver.Resolution
	ok         bool
	calls      int
}

func (r *fakeResolver) Resolve(_ context.Context, _ models.CatalogEntry) (resolver.Resolution, bool) {
	r.calls++
	return r.resolution, r.ok
}

type fakeBatch struct {
	resolved int
	got      []models.CatalogEntry
}

func (b *fakeBatch) ResolveBatch(_ context.Context, entries []models.CatalogEntry) int {
	b.got = entries
	return b.resolved
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func newTestApp(store *fakeStore, cache *logocache.Cache, chain LogoResolver, batch BatchResolver) *fiber.App {
	app := fiber.New()
	h := NewLogoHandler(store, cache, chain, batch)
	app.Get("/api/logos/:id", h.Get)
	app.Get("/api/logos/:id/placeholder", h.Placeholder)
	app.Post("/api/logos/:id/refresh", h.Refresh)
	app.Post("/api/logos/prefetch", h.Prefetch)
	return app
}

func TestLogoGet_CacheHit(t *testing.T) {
	store := newFakeStore()
	cache := logocache.New(nil, nil, logocache.Options{})
	cache.Register("acme", "https://acme.test/logo.svg", "acme.test", models.SourceDomainGuess)
	chain := &fakeResolver{}
	app := newTestApp(store, cache, chain, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/logos/acme", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.Equal(t, "ok", env.Status)

	var data struct {
		EntityID  string `json:"entity_id"`
		URL       string `json:"url"`
		Source    string `json:"source"`
		Validated bool   `json:"validated"`
		Retry     *struct {
			CacheBustURL string `json:"cache_bust_url"`
			FallbackURL  string `json:"fallback_url"`
		} `json:"retry"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "acme", data.EntityID)
	assert.Equal(t, "https://acme.test/logo.svg", data.URL)
	assert.Equal(t, models.SourceDomainGuess, data.Source)
	assert.True(t, data.Validated)
	require.NotNil(t, data.Retry)
	assert.Contains(t, data.Retry.FallbackURL, "acme.test")

	assert.Equal(t, 0, chain.calls, "a cache hit must not run the chain")
}

func TestLogoGet_MappingHitRegistersInCache(t *testing.T) {
	store := newFakeStore()
	store.entries["acme"] = models.CatalogEntry{ID: "acme", Name: "Acme", URL: "https://acme.test"}
	store.mappings["acme"] = models.LogoMapping{EntityID: "acme", PublicURL: "https://store.test/logos/acme-1.png"}
	cache := logocache.New(nil, nil, logocache.Options{})
	app := newTestApp(store, cache, &fakeResolver{}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/logos/acme", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rec, ok := cache.Record("acme")
	require.True(t, ok)
	assert.True(t, rec.Validated)
	assert.Equal(t, "https://store.test/logos/acme-1.png", rec.URL)
	assert.Equal(t, models.SourceStore, rec.Source)
}

func TestLogoGet_RunsChain(t *testing.T) {
	store := newFakeStore()
	store.entries["acme"] = models.CatalogEntry{ID: "acme", Name: "Acme", URL: "https://acme.test"}
	cache := logocache.New(nil, nil, logocache.Options{})
	chain := &fakeResolver{resolution: resolver.Resolution{URL: "https://acme.test/favicon.ico", Source: models.SourceDomainGuess}, ok: true}
	app := newTestApp(store, cache, chain, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/logos/acme", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, chain.calls)
}

func TestLogoGet_ExhaustedReturnsPlaceholder(t *testing.T) {
	store := newFakeStore()
	store.entries["acme"] = models.CatalogEntry{ID: "acme", Name: "Acme", URL: "https://acme.test"}
	cache := logocache.New(nil, nil, logocache.Options{})
	app := newTestApp(store, cache, &fakeResolver{ok: false}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/logos/acme", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, "resolution failure is not an error status")

	env := decodeEnvelope(t, resp)
	var data struct {
		Validated   bool   `json:"validated"`
		Placeholder string `json:"placeholder"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.False(t, data.Validated)
	assert.Equal(t, "/api/logos/acme/placeholder", data.Placeholder)
}

func TestLogoGet_UnknownEntry(t *testing.T) {
	app := newTestApp(newFakeStore(), logocache.New(nil, nil, logocache.Options{}), &fakeResolver{}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/logos/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLogoGet_InvalidID(t *testing.T) {
	app := newTestApp(newFakeStore(), logocache.New(nil, nil, logocache.Options{}), &fakeResolver{}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/logos/bad%20id", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPlaceholder(t *testing.T) {
	store := newFakeStore()
	store.entries["acme"] = models.CatalogEntry{ID: "acme", Name: "Acme Corp"}
	app := newTestApp(store, logocache.New(nil, nil, logocache.Options{}), &fakeResolver{}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/logos/acme/placeholder", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<svg")
	assert.Contains(t, string(body), ">AC<", "initials come from the catalog name")
}

func TestPlaceholder_UnknownEntityStillServes(t *testing.T) {
	app := newTestApp(newFakeStore(), logocache.New(nil, nil, logocache.Options{}), &fakeResolver{}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/logos/mystery/placeholder", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRefresh_DiscardsStateAndReResolves(t *testing.T) {
	store := newFakeStore()
	store.entries["acme"] = models.CatalogEntry{ID: "acme", Name: "Acme", URL: "https://acme.test"}
	store.mappings["acme"] = models.LogoMapping{EntityID: "acme", PublicURL: "https://store.test/logos/acme-1.png"}

	cache := logocache.New(nil, nil, logocache.Options{})
	cache.Register("acme", "https://old.test/logo.png", "acme.test", models.SourceFaviconAPI)

	chain := &fakeResolver{resolution: resolver.Resolution{URL: "https://acme.test/new.svg", Source: models.SourceHTMLScrape}, ok: true}
	app := newTestApp(store, cache, chain, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/logos/acme/refresh", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Contains(t, store.deleted, "acme")
	assert.Equal(t, 1, chain.calls)
}

func TestPrefetch_ExplicitIDs(t *testing.T) {
	store := newFakeStore()
	store.entries["acme"] = models.CatalogEntry{ID: "acme"}
	store.entries["beta"] = models.CatalogEntry{ID: "beta"}
	batch := &fakeBatch{resolved: 2}
	app := newTestApp(store, logocache.New(nil, nil, logocache.Options{}), &fakeResolver{}, batch)

	body := bytes.NewBufferString(`{"ids":["acme","beta","missing","bad id"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/logos/prefetch", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	var data struct {
		Requested int `json:"requested"`
		Resolved  int `json:"resolved"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 2, data.Requested, "unknown and invalid IDs are dropped")
	assert.Equal(t, 2, data.Resolved)
	assert.Len(t, batch.got, 2)
}

func TestPrefetch_EmptyBodyUsesBacklog(t *testing.T) {
	store := newFakeStore()
	store.withoutLogo = []models.CatalogEntry{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	batch := &fakeBatch{resolved: 3}
	app := newTestApp(store, logocache.New(nil, nil, logocache.Options{}), &fakeResolver{}, batch)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/logos/prefetch", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, batch.got, 3)
}

func TestPrefetch_Disabled(t *testing.T) {
	app := newTestApp(newFakeStore(), logocache.New(nil, nil, logocache.Options{}), &fakeResolver{}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/logos/prefetch", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}
