package voice

import (
	"strings"

	"github.com/LBKdotdev/the-scoop/internal/catalog"
)

// MatchFlavor resolves a spoken flavor-name fragment to a catalog entry.
//
// The cascade is evaluated strictly in order, first hit wins:
//
//  1. Exact: case-insensitive full-string equality.
//  2. Containment: the catalog name contains the spoken text; the longest
//     name wins so multi-word flavors beat generic substrings.
//  3. Reverse containment: the spoken text contains the catalog name; again
//     the longest name wins, so "black cherry vanilla" resolves to
//     "Black Cherry Vanilla" rather than "Vanilla".
//  4. Fuzzy word overlap: every word of the catalog name has some spoken
//     word where one contains the other; the first such entry in catalog
//     order wins.
//
// Returns nil when nothing matches. The cascade order is load-bearing:
// reordering changes behaviour on ambiguous inputs.
func MatchFlavor(spoken string, flavors []catalog.Flavor) *catalog.Flavor {
	normalized := strings.ToLower(strings.TrimSpace(spoken))
	if normalized == "" {
		return nil
	}

	// 1. Exact.
	for i := range flavors {
		if strings.ToLower(flavors[i].Name) == normalized {
			return &flavors[i]
		}
	}

	// 2. Containment, longest name first.
	if m := longestWhere(flavors, func(name string) bool {
		return strings.Contains(name, normalized)
	}); m != nil {
		return m
	}

	// 3. Reverse containment, longest name first.
	if m := longestWhere(flavors, func(name string) bool {
		return strings.Contains(normalized, name)
	}); m != nil {
		return m
	}

	// 4. Fuzzy word overlap, catalog order.
	spokenWords := strings.Fields(normalized)
	for i := range flavors {
		if wordsOverlap(strings.Fields(strings.ToLower(flavors[i].Name)), spokenWords) {
			return &flavors[i]
		}
	}

	return nil
}

// longestWhere returns the flavor with the longest name whose lower-cased
// name satisfies pred, or nil. On equal lengths the earlier entry wins.
func longestWhere(flavors []catalog.Flavor, pred func(name string) bool) *catalog.Flavor {
	var best *catalog.Flavor
	for i := range flavors {
		if !pred(strings.ToLower(flavors[i].Name)) {
			continue
		}
		if best == nil || len(flavors[i].Name) > len(best.Name) {
			best = &flavors[i]
		}
	}
	return best
}

// wordsOverlap reports whether every flavor word has some spoken word such
// that one is a substring of the other.
func wordsOverlap(flavorWords, spokenWords []string) bool {
	if len(flavorWords) == 0 {
		return false
	}
	for _, fw := range flavorWords {
		found := false
		for _, sw := range spokenWords {
			if strings.Contains(sw, fw) || strings.Contains(fw, sw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// MatchConfidence scores how trustworthy a [MatchFlavor] result is:
// 1.0 for exact equality, 0.8 for a substring match in either direction,
// 0.6 otherwise (fuzzy).
func MatchConfidence(spoken string, matched catalog.Flavor) float64 {
	normalized := strings.ToLower(strings.TrimSpace(spoken))
	name := strings.ToLower(matched.Name)

	switch {
	case normalized == name:
		return 1.0
	case strings.Contains(name, normalized) || strings.Contains(normalized, name):
		return 0.8
	default:
		return 0.6
	}
}
