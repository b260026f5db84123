package db

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"logosvc/migrations"
)

// DB wraps a pgxpool connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// RunMigrations runs all embedded SQL migrations.
func (d *DB) RunMigrations(connString string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Ping checks database connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.Pool.Ping(ctx)
}

// Close closes the connection pool.
func (d *DB) Close() {
	d.Pool.Close()
}

// SeedDevCatalog inserts test catalog entries for development. Skips entries
// that already exist.
func (d *DB) SeedDevCatalog(ctx context.Context) error {
	entries := []struct {
		id   string
		name string
		url  string
		icon string
	}{
		{"github", "GitHub", "https://github.com", ""},
		{"go-dev", "Go", "https://go.dev", ""},
		{"wikipedia", "Wikipedia", "https://www.wikipedia.org", ""},
		{"duckduckgo", "DuckDuckGo", "https://duckduckgo.com", ""},
		{"example", "Example", "https://example.org", ""},
	}

	query := `
		INSERT INTO apps (id, name, url, icon)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	for _, e := range entries {
		if _, err := d.Pool.Exec(ctx, query, e.id, e.name, e.url, e.icon); err != nil {
			return fmt.Errorf("failed to seed catalog entry %s: %w", e.id, err)
		}
	}

	return nil
}
