package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logosvc/internal/models"
)

func TestExtractIconURLs_Ordering(t *testing.T) {
	page := `<!DOCTYPE html>
<html><head>
<meta property="og:image" content="/social-card.png">
<link rel="icon" href="/favicon.ico" sizes="16x16 32x32">
<link rel="icon" href="/icon.svg" type="image/svg+xml">
<link rel="apple-touch-icon" href="/apple-touch-icon.png">
<link rel="icon" href="/icon-512.png" sizes="512x512">
</head><body></body></html>`

	base, _ := url.Parse("https://acme.test/")
	got := extractIconURLs(strings.NewReader(page), base)

	require.Len(t, got, 5)
	assert.Equal(t, "https://acme.test/icon.svg", got[0], "SVG ranks first")
	assert.Equal(t, "https://acme.test/icon-512.png", got[1], "then largest declared size")
	assert.Equal(t, "https://acme.test/apple-touch-icon.png", got[2], "apple touch icons assume 180px")
	assert.Equal(t, "https://acme.test/favicon.ico", got[3])
	assert.Equal(t, "https://acme.test/social-card.png", got[4], "og:image always last")
}

func TestExtractIconURLs_ResolvesRelativeAndDedupes(t *testing.T) {
	page := `<html><head>
<link rel="icon" href="favicon.ico">
<link rel="shortcut icon" href="/app/favicon.ico">
</head></html>`

	base, _ := url.Parse("https://acme.test/app/")
	got := extractIconURLs(strings.NewReader(page), base)

	require.Len(t, got, 1, "both declarations resolve to the same URL")
	assert.Equal(t, "https://acme.test/app/favicon.ico", got[0])
}

func TestExtractIconURLs_SizesAny(t *testing.T) {
	page := `<html><head>
<link rel="icon" href="/big.png" sizes="any">
<link rel="icon" href="/small.png" sizes="48x48">
</head></html>`

	base, _ := url.Parse("https://acme.test/")
	got := extractIconURLs(strings.NewReader(page), base)

	require.Len(t, got, 2)
	assert.Equal(t, "https://acme.test/big.png", got[0])
}

func TestExtractIconURLs_EmptyHead(t *testing.T) {
	base, _ := url.Parse("https://acme.test/")
	got := extractIconURLs(strings.NewReader("<html><head></head><body>hi</body></html>"), base)
	assert.Empty(t, got)
}

func TestHTMLScrapeStrategy_Candidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/html")
		rw.Write([]byte(`<html><head><link rel="icon" href="/logo.svg"></head></html>`))
	}))
	t.Cleanup(srv.Close)

	s := NewHTMLScrapeStrategy()
	s.AllowPrivateHosts = true

	got := s.Candidates(context.Background(), models.CatalogEntry{ID: "acme", URL: srv.URL})
	require.Len(t, got, 1)
	assert.Equal(t, srv.URL+"/logo.svg", got[0])
}

func TestHTMLScrapeStrategy_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		http.Error(rw, "nope", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	s := NewHTMLScrapeStrategy()
	s.AllowPrivateHosts = true

	assert.Empty(t, s.Candidates(context.Background(), models.CatalogEntry{ID: "acme", URL: srv.URL}))
}

func TestHTMLScrapeStrategy_BlocksPrivateHostsByDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		t.Error("the strategy must not fetch a private host")
	}))
	t.Cleanup(srv.Close)

	s := NewHTMLScrapeStrategy()
	assert.Empty(t, s.Candidates(context.Background(), models.CatalogEntry{ID: "acme", URL: srv.URL}))
}
