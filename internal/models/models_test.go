package models

import (
	"testing"
	"time"
)

func TestCatalogEntryDomain(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"plain", "https://acme.test", "acme.test"},
		{"www stripped", "https://www.acme.test/app", "acme.test"},
		{"uppercase host", "https://ACME.Test", "acme.test"},
		{"port dropped", "https://acme.test:8443/login", "acme.test"},
		{"empty", "", ""},
		{"no host", "/relative/path", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := CatalogEntry{ID: "x", URL: tt.url}
			if got := e.Domain(); got != tt.want {
				t.Errorf("Domain() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsPlaceholderURL(t *testing.T) {
	placeholders := []string{
		"",
		"/static/placeholder.svg",
		"https://cdn.test/img/Placeholder.PNG",
		"https://cdn.test/placeholder/logo.png",
		"data:image/png;base64,AAAA",
	}
	for _, u := range placeholders {
		if !IsPlaceholderURL(u) {
			t.Errorf("IsPlaceholderURL(%q) = false, want true", u)
		}
	}

	real := []string{
		"https://acme.test/favicon.ico",
		"https://acme.test/logo.svg",
	}
	for _, u := range real {
		if IsPlaceholderURL(u) {
			t.Errorf("IsPlaceholderURL(%q) = true, want false", u)
		}
	}
}

func TestLogoRecordExpired(t *testing.T) {
	now := time.Now()
	ttl := 30 * 24 * time.Hour

	fresh := LogoRecord{Timestamp: now.Add(-24 * time.Hour)}
	if fresh.Expired(ttl, now) {
		t.Error("one-day-old record reported expired")
	}

	stale := LogoRecord{Timestamp: now.Add(-31 * 24 * time.Hour)}
	if !stale.Expired(ttl, now) {
		t.Error("31-day-old record reported fresh")
	}
}
