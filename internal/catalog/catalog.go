// Package catalog defines the flavor catalog: the authoritative list of
// flavors the shop carries, each with a category and an active flag.
//
// The voice parser consumes the catalog as a read-only snapshot taken at the
// start of a parsing session; it is never refreshed mid-parse. Stores hand
// out copies, so callers may hold a snapshot for as long as their session
// lives without observing concurrent mutation.
package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store methods when the requested flavor does
// not exist.
var ErrNotFound = errors.New("catalog: flavor not found")

// Flavor is one catalog entry.
type Flavor struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Active   bool   `json:"active"`
}

// Store is the flavor catalog persistence interface.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// List returns flavors ordered by name. When activeOnly is true,
	// discontinued flavors are excluded.
	List(ctx context.Context, activeOnly bool) ([]Flavor, error)

	// Get returns the flavor with the given ID, or ErrNotFound.
	Get(ctx context.Context, id int64) (Flavor, error)

	// Create inserts a new flavor and returns it with its assigned ID.
	Create(ctx context.Context, name, category string) (Flavor, error)

	// SetActive marks a flavor as active (reactivate) or inactive
	// (discontinue). Returns ErrNotFound when the flavor does not exist.
	SetActive(ctx context.Context, id int64, active bool) error
}

// Names returns the flavor names in slice order. Used to pass the catalog
// to the boost interpreter and to the suggestion matcher.
func Names(flavors []Flavor) []string {
	names := make([]string, len(flavors))
	for i, f := range flavors {
		names[i] = f.Name
	}
	return names
}
