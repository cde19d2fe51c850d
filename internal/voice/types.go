// Package voice converts free-form speech transcripts into structured
// inventory update entries.
//
// The pipeline has four stages, applied in order by [Parser.Parse]:
//
//  1. Lexical normalisation — filler and article removal, add/set intent
//     detection ([Normalize]).
//  2. Shared-context grammar rules — sentence forms that declare one product
//     type for a trailing flavor list ("these are all tubs: vanilla,
//     chocolate"), evaluated before the general segmenter.
//  3. Segment extraction — splitting the utterance into one segment per
//     flavor/type/quantity group ([ExtractSegments]).
//  4. Per-segment interpretation — quantity, product type, and flavor list
//     extraction, with each flavor resolved against the catalog snapshot.
//
// All stages are pure string processing with no I/O; a [Parser] holds a
// read-only catalog snapshot and is safe for concurrent use.
package voice

import "github.com/LBKdotdev/the-scoop/internal/catalog"

// ProductType is one of the three packaging types the shop counts.
// Tubs alone support quarter-unit fractional quantities.
type ProductType string

const (
	Tub   ProductType = "tub"
	Pint  ProductType = "pint"
	Quart ProductType = "quart"
)

// IsValid reports whether p is a recognised product type.
func (p ProductType) IsValid() bool {
	switch p {
	case Tub, Pint, Quart:
		return true
	}
	return false
}

// Action says how an entry's quantity is applied to the current line-item
// value: replace it (set) or add to it (add).
type Action string

const (
	ActionSet Action = "set"
	ActionAdd Action = "add"
)

// Entry is one resolved (flavor, product type, quantity, action) tuple
// ready to apply. Entries are produced by the parser and consumed read-only
// by the apply engine.
type Entry struct {
	FlavorID   int64       `json:"flavor_id"`
	FlavorName string      `json:"flavor_name"`
	Type       ProductType `json:"product_type"`
	Quantity   float64     `json:"quantity"`
	Action     Action      `json:"action"`

	// Confidence is the per-entry match confidence in [0,1]:
	// 1.0 exact name match, 0.8 substring match, 0.6 fuzzy word overlap.
	Confidence float64 `json:"confidence"`
}

// Result is the outcome of parsing one utterance.
type Result struct {
	// Entries is the ordered entry list, segment order preserved.
	Entries []Entry `json:"entries"`

	// RawTranscript is the transcript as received, before normalisation.
	RawTranscript string `json:"raw_transcript"`

	// Success is true iff at least one entry was produced.
	Success bool `json:"success"`

	// Confidence is the arithmetic mean of entry confidences, 0 when
	// Entries is empty. Always in [0,1].
	Confidence float64 `json:"confidence"`
}

// meanConfidence computes the aggregate confidence for a set of entries.
// Entries that carry no confidence count as 0.5.
func meanConfidence(entries []Entry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range entries {
		c := e.Confidence
		if c == 0 {
			c = 0.5
		}
		sum += c
	}
	return sum / float64(len(entries))
}

// NewResult assembles a Result from entries parsed out of rawTranscript.
func NewResult(entries []Entry, rawTranscript string) Result {
	return Result{
		Entries:       entries,
		RawTranscript: rawTranscript,
		Success:       len(entries) > 0,
		Confidence:    meanConfidence(entries),
	}
}

// entryFor builds an Entry for a matched catalog flavor.
func entryFor(f catalog.Flavor, spoken string, t ProductType, qty float64, action Action) Entry {
	return Entry{
		FlavorID:   f.ID,
		FlavorName: f.Name,
		Type:       t,
		Quantity:   qty,
		Action:     action,
		Confidence: MatchConfidence(spoken, f),
	}
}
