package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"logosvc/internal/models"
)

// mappingColumns is the standard column list for logo mapping queries.
const mappingColumns = `id, entity_id, public_url, storage_path, source, created_at, updated_at`

// scanMapping scans a row into a LogoMapping struct.
func scanMapping(row pgx.Row) (*models.LogoMapping, error) {
	var m models.LogoMapping
	err := row.Scan(
		&m.ID,
		&m.EntityID,
		&m.PublicURL,
		&m.StoragePath,
		&m.Source,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMappingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetLogoMapping returns the lookup-table row for an entity, or
// ErrMappingNotFound.
func (d *DB) GetLogoMapping(ctx context.Context, entityID string) (*models.LogoMapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM logo_mappings WHERE entity_id = $1`
	return scanMapping(d.Pool.QueryRow(ctx, query, entityID))
}

// UpsertLogoMapping inserts or replaces the mapping for an entity.
// Last write wins on conflict, matching the cache's registration semantics.
func (d *DB) UpsertLogoMapping(ctx context.Context, m *models.LogoMapping) error {
	query := `
		INSERT INTO logo_mappings (entity_id, public_url, storage_path, source)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (entity_id) DO UPDATE SET
			public_url = EXCLUDED.public_url,
			storage_path = EXCLUDED.storage_path,
			source = EXCLUDED.source,
			updated_at = now()
		RETURNING ` + mappingColumns

	saved, err := scanMapping(d.Pool.QueryRow(ctx, query, m.EntityID, m.PublicURL, m.StoragePath, m.Source))
	if err != nil {
		return err
	}
	*m = *saved
	return nil
}

// DeleteLogoMapping removes the mapping for an entity. Used by the
// operator cache-clear path.
func (d *DB) DeleteLogoMapping(ctx context.Context, entityID string) error {
	tag, err := d.Pool.Exec(ctx, `DELETE FROM logo_mappings WHERE entity_id = $1`, entityID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMappingNotFound
	}
	return nil
}

// CountLogoMappings returns the number of rows in the lookup table.
// Used by the metrics collector.
func (d *DB) CountLogoMappings(ctx context.Context) (int64, error) {
	var n int64
	err := d.Pool.QueryRow(ctx, `SELECT count(*) FROM logo_mappings`).Scan(&n)
	return n, err
}
