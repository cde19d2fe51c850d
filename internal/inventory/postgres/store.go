// Package postgres implements inventory.Store on top of a PostgreSQL
// database using pgx. The schema is embedded as DDL and applied via Migrate.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/LBKdotdev/the-scoop/internal/inventory"
)

// Schema is the SQL DDL for the counts, production, and par-level tables.
const Schema = `
CREATE TABLE IF NOT EXISTS counts (
    id           BIGSERIAL PRIMARY KEY,
    flavor_id    BIGINT NOT NULL REFERENCES flavors(id),
    product_type TEXT NOT NULL CHECK (product_type IN ('tub', 'pint', 'quart')),
    quantity     NUMERIC NOT NULL CHECK (quantity >= 0),
    counted_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    counted_by   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_counts_counted_at ON counts(counted_at);

CREATE TABLE IF NOT EXISTS production (
    id           BIGSERIAL PRIMARY KEY,
    flavor_id    BIGINT NOT NULL REFERENCES flavors(id),
    product_type TEXT NOT NULL CHECK (product_type IN ('tub', 'pint', 'quart')),
    quantity     NUMERIC NOT NULL CHECK (quantity > 0),
    produced_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    produced_by  TEXT NOT NULL DEFAULT '',
    notes        TEXT NOT NULL DEFAULT '',
    deleted_at   TIMESTAMPTZ,
    deleted_by   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_production_produced_at ON production(produced_at);

CREATE TABLE IF NOT EXISTS par_levels (
    flavor_id    BIGINT NOT NULL REFERENCES flavors(id),
    product_type TEXT NOT NULL CHECK (product_type IN ('tub', 'pint', 'quart')),
    level        NUMERIC NOT NULL CHECK (level >= 0),
    PRIMARY KEY (flavor_id, product_type)
);
`

// DB is the database interface used by [Store]. Both *pgxpool.Pool and
// *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is an [inventory.Store] backed by PostgreSQL.
type Store struct {
	db DB
}

// Compile-time interface check.
var _ inventory.Store = (*Store)(nil)

// New creates a Store over the given connection or pool. Call
// [Store.Migrate] before issuing queries; the flavors table must already
// exist (see the catalog store's schema).
func New(db DB) *Store {
	return &Store{db: db}
}

// Migrate executes the [Schema] DDL.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("inventory: migrate: %w", err)
	}
	return nil
}

// SubmitCounts implements inventory.Store. The batch is inserted row by
// row; validation failures abort before any insert.
func (s *Store) SubmitCounts(ctx context.Context, counts []inventory.Count) error {
	for _, c := range counts {
		if err := inventory.ValidateCount(c); err != nil {
			return err
		}
	}

	for _, c := range counts {
		countedAt := c.CountedAt
		if countedAt.IsZero() {
			countedAt = time.Now()
		}
		_, err := s.db.Exec(ctx,
			`INSERT INTO counts (flavor_id, product_type, quantity, counted_at, counted_by)
			 VALUES ($1, $2, $3, $4, $5)`,
			c.FlavorID, c.ProductType, c.Quantity, countedAt, c.CountedBy)
		if err != nil {
			return fmt.Errorf("inventory: submit count flavor %d: %w", c.FlavorID, err)
		}
	}
	return nil
}

// CountHistory implements inventory.Store.
func (s *Store) CountHistory(ctx context.Context, days int) ([]inventory.Count, error) {
	rows, err := s.db.Query(ctx,
		`SELECT c.id, c.flavor_id, f.name, c.product_type, c.quantity, c.counted_at, c.counted_by
		 FROM counts c JOIN flavors f ON f.id = c.flavor_id
		 WHERE c.counted_at > now() - make_interval(days => $1)
		 ORDER BY c.counted_at DESC`, days)
	if err != nil {
		return nil, fmt.Errorf("inventory: count history: %w", err)
	}
	defer rows.Close()

	var out []inventory.Count
	for rows.Next() {
		var c inventory.Count
		if err := rows.Scan(&c.ID, &c.FlavorID, &c.FlavorName, &c.ProductType, &c.Quantity, &c.CountedAt, &c.CountedBy); err != nil {
			return nil, fmt.Errorf("inventory: scan count: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inventory: count history rows: %w", err)
	}
	return out, nil
}

// LogProduction implements inventory.Store.
func (s *Store) LogProduction(ctx context.Context, entry inventory.ProductionEntry) (int64, error) {
	if err := inventory.ValidateProduction(entry); err != nil {
		return 0, err
	}

	producedAt := entry.ProducedAt
	if producedAt.IsZero() {
		producedAt = time.Now()
	}

	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO production (flavor_id, product_type, quantity, produced_at, produced_by, notes)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		entry.FlavorID, entry.ProductType, entry.Quantity, producedAt, entry.ProducedBy, entry.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inventory: log production flavor %d: %w", entry.FlavorID, err)
	}
	return id, nil
}

// ListProduction implements inventory.Store.
func (s *Store) ListProduction(ctx context.Context, days int, includeDeleted bool) ([]inventory.ProductionEntry, error) {
	q := `SELECT p.id, p.flavor_id, f.name, p.product_type, p.quantity, p.produced_at, p.produced_by, p.notes, p.deleted_at, p.deleted_by
	      FROM production p JOIN flavors f ON f.id = p.flavor_id
	      WHERE p.produced_at > now() - make_interval(days => $1)`
	if !includeDeleted {
		q += ` AND p.deleted_at IS NULL`
	}
	q += ` ORDER BY p.produced_at DESC`

	rows, err := s.db.Query(ctx, q, days)
	if err != nil {
		return nil, fmt.Errorf("inventory: list production: %w", err)
	}
	defer rows.Close()

	var out []inventory.ProductionEntry
	for rows.Next() {
		var p inventory.ProductionEntry
		if err := rows.Scan(&p.ID, &p.FlavorID, &p.FlavorName, &p.ProductType, &p.Quantity,
			&p.ProducedAt, &p.ProducedBy, &p.Notes, &p.DeletedAt, &p.DeletedBy); err != nil {
			return nil, fmt.Errorf("inventory: scan production: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inventory: list production rows: %w", err)
	}
	return out, nil
}

// DeleteProduction implements inventory.Store.
func (s *Store) DeleteProduction(ctx context.Context, id int64, deletedBy string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE production SET deleted_at = now(), deleted_by = $2
		 WHERE id = $1 AND deleted_at IS NULL`, id, deletedBy)
	if err != nil {
		return fmt.Errorf("inventory: delete production %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return inventory.ErrNotFound
	}
	return nil
}

// ParLevels implements inventory.Store.
func (s *Store) ParLevels(ctx context.Context) ([]inventory.ParLevel, error) {
	rows, err := s.db.Query(ctx,
		`SELECT flavor_id, product_type, level FROM par_levels ORDER BY flavor_id, product_type`)
	if err != nil {
		return nil, fmt.Errorf("inventory: par levels: %w", err)
	}
	defer rows.Close()

	var out []inventory.ParLevel
	for rows.Next() {
		var p inventory.ParLevel
		if err := rows.Scan(&p.FlavorID, &p.ProductType, &p.Level); err != nil {
			return nil, fmt.Errorf("inventory: scan par level: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inventory: par levels rows: %w", err)
	}
	return out, nil
}

// SetParLevel implements inventory.Store.
func (s *Store) SetParLevel(ctx context.Context, level inventory.ParLevel) error {
	if !level.ProductType.IsValid() {
		return fmt.Errorf("inventory: invalid product type %q", level.ProductType)
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO par_levels (flavor_id, product_type, level) VALUES ($1, $2, $3)
		 ON CONFLICT (flavor_id, product_type) DO UPDATE SET level = EXCLUDED.level`,
		level.FlavorID, level.ProductType, level.Level)
	if err != nil {
		return fmt.Errorf("inventory: set par level flavor %d: %w", level.FlavorID, err)
	}
	return nil
}
