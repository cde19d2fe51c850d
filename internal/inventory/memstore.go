package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/LBKdotdev/the-scoop/internal/voice"
)

// MemStore is an in-memory [Store] for tests and database-less runs.
type MemStore struct {
	mu         sync.Mutex
	counts     []Count
	production []ProductionEntry
	parLevels  map[parKey]float64
	nextID     int64
}

type parKey struct {
	flavorID    int64
	productType voice.ProductType
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		parLevels: make(map[parKey]float64),
		nextID:    1,
	}
}

// SubmitCounts implements Store.
func (m *MemStore) SubmitCounts(_ context.Context, counts []Count) error {
	for _, c := range counts {
		if err := ValidateCount(c); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, c := range counts {
		c.ID = m.nextID
		m.nextID++
		if c.CountedAt.IsZero() {
			c.CountedAt = now
		}
		m.counts = append(m.counts, c)
	}
	return nil
}

// CountHistory implements Store.
func (m *MemStore) CountHistory(_ context.Context, days int) ([]Count, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -days)
	var out []Count
	for _, c := range m.counts {
		if c.CountedAt.After(cutoff) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CountedAt.After(out[j].CountedAt) })
	return out, nil
}

// LogProduction implements Store.
func (m *MemStore) LogProduction(_ context.Context, entry ProductionEntry) (int64, error) {
	if err := ValidateProduction(entry); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = m.nextID
	m.nextID++
	if entry.ProducedAt.IsZero() {
		entry.ProducedAt = time.Now()
	}
	m.production = append(m.production, entry)
	return entry.ID, nil
}

// ListProduction implements Store.
func (m *MemStore) ListProduction(_ context.Context, days int, includeDeleted bool) ([]ProductionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -days)
	var out []ProductionEntry
	for _, p := range m.production {
		if !p.ProducedAt.After(cutoff) {
			continue
		}
		if p.Deleted() && !includeDeleted {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProducedAt.After(out[j].ProducedAt) })
	return out, nil
}

// DeleteProduction implements Store.
func (m *MemStore) DeleteProduction(_ context.Context, id int64, deletedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.production {
		if m.production[i].ID != id || m.production[i].Deleted() {
			continue
		}
		now := time.Now()
		m.production[i].DeletedAt = &now
		m.production[i].DeletedBy = deletedBy
		return nil
	}
	return ErrNotFound
}

// ParLevels implements Store.
func (m *MemStore) ParLevels(_ context.Context) ([]ParLevel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ParLevel, 0, len(m.parLevels))
	for k, v := range m.parLevels {
		out = append(out, ParLevel{FlavorID: k.flavorID, ProductType: k.productType, Level: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FlavorID != out[j].FlavorID {
			return out[i].FlavorID < out[j].FlavorID
		}
		return out[i].ProductType < out[j].ProductType
	})
	return out, nil
}

// SetParLevel implements Store.
func (m *MemStore) SetParLevel(_ context.Context, level ParLevel) error {
	if !level.ProductType.IsValid() {
		return fmt.Errorf("inventory: invalid product type %q", level.ProductType)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parLevels[parKey{level.FlavorID, level.ProductType}] = level.Level
	return nil
}
