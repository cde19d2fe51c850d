package voice

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/LBKdotdev/the-scoop/internal/catalog"
)

// suggestFuzzyThreshold is the minimum Jaro-Winkler score for a suggestion
// when no phonetic candidate exists. Phonetic candidates (shared Double
// Metaphone codes) are held to a lower bar since the encoding already
// filtered them.
const (
	suggestPhoneticThreshold = 0.60
	suggestFuzzyThreshold    = 0.78
)

// Suggest proposes up to max catalog names that sound like the spoken text.
// It backs the "did you mean" guidance on parse failures and never feeds
// the matcher itself — the deterministic cascade in [MatchFlavor] alone
// decides what an utterance resolves to.
//
// Candidates sharing a Double Metaphone code with any spoken token are
// ranked by Jaro-Winkler similarity; when no phonetic candidate clears the
// bar, a pure similarity pass over the whole catalog is used with a higher
// threshold.
func Suggest(spoken string, flavors []catalog.Flavor, max int) []string {
	normalized := strings.ToLower(strings.TrimSpace(spoken))
	if normalized == "" || len(flavors) == 0 || max <= 0 {
		return nil
	}

	spokenCodes := metaphoneCodes(strings.Fields(normalized))

	type scored struct {
		name  string
		score float64
	}
	var phonetic, fuzzy []scored

	for _, f := range flavors {
		nameLower := strings.ToLower(f.Name)
		score := matchr.JaroWinkler(normalized, nameLower, false)

		// Best pairwise token score handles one spoken word against one
		// word of a multi-word flavor name.
		for _, sw := range strings.Fields(normalized) {
			for _, nw := range strings.Fields(nameLower) {
				if s := matchr.JaroWinkler(sw, nw, false); s > score {
					score = s
				}
			}
		}

		if codesOverlap(spokenCodes, metaphoneCodes(strings.Fields(nameLower))) {
			if score >= suggestPhoneticThreshold {
				phonetic = append(phonetic, scored{f.Name, score})
			}
		} else if score >= suggestFuzzyThreshold {
			fuzzy = append(fuzzy, scored{f.Name, score})
		}
	}

	ranked := phonetic
	if len(ranked) == 0 {
		ranked = fuzzy
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if len(ranked) > max {
		ranked = ranked[:max]
	}
	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.name
	}
	return out
}

// metaphoneCodes returns the union of Double Metaphone codes for the given
// tokens, excluding empty codes.
func metaphoneCodes(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap reports whether the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}
