package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"logosvc/internal/models"
)

// The apps table is owned by the catalog collaborator; this layer only ever
// reads it.

// GetCatalogEntry returns one catalog entry by ID, or ErrEntryNotFound.
func (d *DB) GetCatalogEntry(ctx context.Context, id string) (*models.CatalogEntry, error) {
	query := `SELECT id, name, url, COALESCE(icon, '') FROM apps WHERE id = $1`

	var e models.CatalogEntry
	err := d.Pool.QueryRow(ctx, query, id).Scan(&e.ID, &e.Name, &e.URL, &e.Icon)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListCatalogEntries returns up to limit catalog entries ordered by name.
func (d *DB) ListCatalogEntries(ctx context.Context, limit int) ([]models.CatalogEntry, error) {
	query := `SELECT id, name, url, COALESCE(icon, '') FROM apps ORDER BY name LIMIT $1`

	rows, err := d.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// ListEntriesWithoutLogo returns catalog entries that have no lookup-table
// row yet, oldest first. The prefetcher works through these in chunks.
func (d *DB) ListEntriesWithoutLogo(ctx context.Context, limit int) ([]models.CatalogEntry, error) {
	query := `
		SELECT a.id, a.name, a.url, COALESCE(a.icon, '')
		FROM apps a
		LEFT JOIN logo_mappings m ON m.entity_id = a.id
		WHERE m.entity_id IS NULL
		ORDER BY a.created_at
		LIMIT $1
	`

	rows, err := d.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]models.CatalogEntry, error) {
	defer rows.Close()

	var entries []models.CatalogEntry
	for rows.Next() {
		var e models.CatalogEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.URL, &e.Icon); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
