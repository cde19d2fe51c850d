// Package inventory persists the shop's operational records: nightly stock
// counts, production log entries, and per-line-item par levels. It stores
// and retrieves; it never computes ordering deficits or projections.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LBKdotdev/the-scoop/internal/voice"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("inventory: not found")

// Count is one line item of a stock count: how many units of a flavor in a
// product type were on hand at count time.
type Count struct {
	ID          int64             `json:"id"`
	FlavorID    int64             `json:"flavor_id"`
	FlavorName  string            `json:"flavor_name,omitempty"`
	ProductType voice.ProductType `json:"product_type"`
	Quantity    float64           `json:"quantity"`
	CountedAt   time.Time         `json:"counted_at"`
	CountedBy   string            `json:"counted_by,omitempty"`
}

// ProductionEntry records one production run. Entries are soft-deleted:
// DeletedAt/DeletedBy are set instead of removing the row, so the log stays
// auditable.
type ProductionEntry struct {
	ID          int64             `json:"id"`
	FlavorID    int64             `json:"flavor_id"`
	FlavorName  string            `json:"flavor_name,omitempty"`
	ProductType voice.ProductType `json:"product_type"`
	Quantity    float64           `json:"quantity"`
	ProducedAt  time.Time         `json:"produced_at"`
	ProducedBy  string            `json:"produced_by,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	DeletedAt   *time.Time        `json:"deleted_at,omitempty"`
	DeletedBy   string            `json:"deleted_by,omitempty"`
}

// Deleted reports whether the entry has been soft-deleted.
func (p ProductionEntry) Deleted() bool { return p.DeletedAt != nil }

// ParLevel is the stored reorder target for one line item. What to do when
// stock falls below it is a back-office concern outside this package.
type ParLevel struct {
	FlavorID    int64             `json:"flavor_id"`
	ProductType voice.ProductType `json:"product_type"`
	Level       float64           `json:"level"`
}

// Store persists counts, production entries, and par levels.
type Store interface {
	// SubmitCounts records a batch of stock counts as one submission.
	SubmitCounts(ctx context.Context, counts []Count) error

	// CountHistory returns counts from the last `days` days, newest first.
	CountHistory(ctx context.Context, days int) ([]Count, error)

	// LogProduction records one production run and returns its id.
	LogProduction(ctx context.Context, entry ProductionEntry) (int64, error)

	// ListProduction returns production entries from the last `days` days,
	// newest first. Soft-deleted entries are omitted unless includeDeleted.
	ListProduction(ctx context.Context, days int, includeDeleted bool) ([]ProductionEntry, error)

	// DeleteProduction soft-deletes one production entry.
	DeleteProduction(ctx context.Context, id int64, deletedBy string) error

	// ParLevels returns every stored par level.
	ParLevels(ctx context.Context) ([]ParLevel, error)

	// SetParLevel inserts or updates the par level for one line item.
	SetParLevel(ctx context.Context, level ParLevel) error
}

// ValidateCount checks a count line item before storage.
func ValidateCount(c Count) error {
	if !c.ProductType.IsValid() {
		return fmt.Errorf("inventory: invalid product type %q", c.ProductType)
	}
	if c.Quantity < 0 {
		return fmt.Errorf("inventory: negative quantity %v", c.Quantity)
	}
	return nil
}

// ValidateProduction checks a production entry before storage.
func ValidateProduction(p ProductionEntry) error {
	if !p.ProductType.IsValid() {
		return fmt.Errorf("inventory: invalid product type %q", p.ProductType)
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("inventory: production quantity must be positive, got %v", p.Quantity)
	}
	return nil
}
