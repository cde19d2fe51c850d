package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemStore is an in-memory Store. It backs tests, the MCP server's
// standalone mode, and scoopd when no database is configured.
type MemStore struct {
	mu      sync.RWMutex
	nextID  int64
	flavors map[int64]Flavor
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		nextID:  1,
		flavors: make(map[int64]Flavor),
	}
}

// NewMemStoreWith creates a MemStore pre-populated with the given flavors.
// Flavor IDs are preserved; the next assigned ID is one past the maximum.
func NewMemStoreWith(flavors []Flavor) *MemStore {
	s := NewMemStore()
	for _, f := range flavors {
		s.flavors[f.ID] = f
		if f.ID >= s.nextID {
			s.nextID = f.ID + 1
		}
	}
	return s
}

// List implements Store.
func (s *MemStore) List(_ context.Context, activeOnly bool) ([]Flavor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Flavor, 0, len(s.flavors))
	for _, f := range s.flavors {
		if activeOnly && !f.Active {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get implements Store.
func (s *MemStore) Get(_ context.Context, id int64) (Flavor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flavors[id]
	if !ok {
		return Flavor{}, ErrNotFound
	}
	return f, nil
}

// Create implements Store.
func (s *MemStore) Create(_ context.Context, name, category string) (Flavor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := Flavor{ID: s.nextID, Name: name, Category: category, Active: true}
	s.flavors[f.ID] = f
	s.nextID++
	return f, nil
}

// SetActive implements Store.
func (s *MemStore) SetActive(_ context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flavors[id]
	if !ok {
		return ErrNotFound
	}
	f.Active = active
	s.flavors[id] = f
	return nil
}
