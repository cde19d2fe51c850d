// Package postgres implements catalog.Store on top of a PostgreSQL database
// using pgx. The schema is embedded as DDL and applied via Migrate.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/LBKdotdev/the-scoop/internal/catalog"
)

// Schema is the SQL DDL for the flavors table. Execute it via
// [Store.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS flavors (
    id         BIGSERIAL PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    category   TEXT NOT NULL DEFAULT 'classics',
    active     BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_flavors_active ON flavors(active);
`

// DB is the database interface used by [Store]. Both *pgxpool.Pool and
// *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is a [catalog.Store] backed by PostgreSQL.
type Store struct {
	db DB
}

// Compile-time interface check.
var _ catalog.Store = (*Store)(nil)

// New creates a Store that uses the given database connection or pool. The
// caller is responsible for calling [Store.Migrate] before issuing queries.
func New(db DB) *Store {
	return &Store{db: db}
}

// Migrate executes the [Schema] DDL, creating the flavors table and index
// if they do not already exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("catalog: migrate: %w", err)
	}
	return nil
}

// List implements catalog.Store.
func (s *Store) List(ctx context.Context, activeOnly bool) ([]catalog.Flavor, error) {
	q := `SELECT id, name, category, active FROM flavors ORDER BY name`
	if activeOnly {
		q = `SELECT id, name, category, active FROM flavors WHERE active ORDER BY name`
	}

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var out []catalog.Flavor
	for rows.Next() {
		var f catalog.Flavor
		if err := rows.Scan(&f.ID, &f.Name, &f.Category, &f.Active); err != nil {
			return nil, fmt.Errorf("catalog: scan flavor: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list rows: %w", err)
	}
	return out, nil
}

// Get implements catalog.Store.
func (s *Store) Get(ctx context.Context, id int64) (catalog.Flavor, error) {
	var f catalog.Flavor
	err := s.db.QueryRow(ctx,
		`SELECT id, name, category, active FROM flavors WHERE id = $1`, id,
	).Scan(&f.ID, &f.Name, &f.Category, &f.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Flavor{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Flavor{}, fmt.Errorf("catalog: get %d: %w", id, err)
	}
	return f, nil
}

// Create implements catalog.Store.
func (s *Store) Create(ctx context.Context, name, category string) (catalog.Flavor, error) {
	f := catalog.Flavor{Name: name, Category: category, Active: true}
	err := s.db.QueryRow(ctx,
		`INSERT INTO flavors (name, category) VALUES ($1, $2) RETURNING id`,
		name, category,
	).Scan(&f.ID)
	if err != nil {
		return catalog.Flavor{}, fmt.Errorf("catalog: create %q: %w", name, err)
	}
	return f, nil
}

// SetActive implements catalog.Store.
func (s *Store) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE flavors SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("catalog: set active %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}
