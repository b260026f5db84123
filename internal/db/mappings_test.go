package db_test

import (
	"context"
	"errors"
	"testing"

	"logosvc/internal/db"
	"logosvc/internal/models"
	"logosvc/internal/testutil"
)

func TestLogoMappingLifecycle(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	m := &models.LogoMapping{
		EntityID:    "acme",
		PublicURL:   "https://store.test/logos/acme-1.png",
		StoragePath: "logos/acme-1.png",
		Source:      models.SourceStore,
	}
	if err := database.UpsertLogoMapping(ctx, m); err != nil {
		t.Fatalf("UpsertLogoMapping() error: %v", err)
	}
	if m.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("upsert did not populate the generated ID")
	}
	if m.CreatedAt.IsZero() || m.UpdatedAt.IsZero() {
		t.Error("upsert did not populate timestamps")
	}

	got, err := database.GetLogoMapping(ctx, "acme")
	if err != nil {
		t.Fatalf("GetLogoMapping() error: %v", err)
	}
	if got.PublicURL != m.PublicURL {
		t.Errorf("PublicURL = %q, want %q", got.PublicURL, m.PublicURL)
	}

	// Upsert on the same entity replaces, never duplicates.
	m2 := &models.LogoMapping{
		EntityID:    "acme",
		PublicURL:   "https://store.test/logos/acme-2.svg",
		StoragePath: "logos/acme-2.svg",
		Source:      models.SourceStore,
	}
	if err := database.UpsertLogoMapping(ctx, m2); err != nil {
		t.Fatalf("UpsertLogoMapping() second call error: %v", err)
	}
	if m2.ID != m.ID {
		t.Error("upsert created a second row instead of updating")
	}

	n, err := database.CountLogoMappings(ctx)
	if err != nil {
		t.Fatalf("CountLogoMappings() error: %v", err)
	}
	if n != 1 {
		t.Errorf("CountLogoMappings() = %d, want 1", n)
	}

	if err := database.DeleteLogoMapping(ctx, "acme"); err != nil {
		t.Fatalf("DeleteLogoMapping() error: %v", err)
	}
	if _, err := database.GetLogoMapping(ctx, "acme"); !errors.Is(err, db.ErrMappingNotFound) {
		t.Errorf("GetLogoMapping() after delete error = %v, want ErrMappingNotFound", err)
	}
}

func TestGetLogoMappingNotFound(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()

	_, err := database.GetLogoMapping(context.Background(), "missing")
	if !errors.Is(err, db.ErrMappingNotFound) {
		t.Errorf("error = %v, want ErrMappingNotFound", err)
	}
}

func TestDeleteLogoMappingNotFound(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()

	err := database.DeleteLogoMapping(context.Background(), "missing")
	if !errors.Is(err, db.ErrMappingNotFound) {
		t.Errorf("error = %v, want ErrMappingNotFound", err)
	}
}
