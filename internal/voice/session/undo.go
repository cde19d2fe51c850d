package session

import "github.com/LBKdotdev/the-scoop/internal/voice"

// MaxUndoDepth is the number of applied batches kept for reversal.
// Pushing beyond it evicts the oldest batch.
const MaxUndoDepth = 5

// Key identifies one editable line item: a flavor in a product type.
type Key struct {
	FlavorID int64             `json:"flavor_id"`
	Type     voice.ProductType `json:"product_type"`
}

// Change records one line-item mutation made by an applied batch.
// OldValue is what Undo restores.
type Change struct {
	Key        Key     `json:"key"`
	FlavorName string  `json:"flavor_name"`
	OldValue   float64 `json:"old_value"`
	NewValue   float64 `json:"new_value"`
}

// undoStack is a bounded LIFO of applied change batches. Batches are pushed
// and popped whole; there is no redo.
type undoStack struct {
	batches [][]Change
}

func (s *undoStack) push(batch []Change) {
	if len(batch) == 0 {
		return
	}
	s.batches = append(s.batches, batch)
	if len(s.batches) > MaxUndoDepth {
		s.batches = s.batches[1:]
	}
}

// pop removes and returns the most recent batch, nil when empty.
func (s *undoStack) pop() []Change {
	if len(s.batches) == 0 {
		return nil
	}
	batch := s.batches[len(s.batches)-1]
	s.batches = s.batches[:len(s.batches)-1]
	return batch
}

func (s *undoStack) depth() int { return len(s.batches) }
