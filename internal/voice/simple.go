package voice

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/LBKdotdev/the-scoop/internal/catalog"
)

var simpleFillerRe = regexp.MustCompile(`\b(um|uh|like|you know)\b`)

// ParseSimple is the last-resort single-entry parser, used only when both
// the segmented parser and the boost interpreter come up empty. It trades
// precision for tolerance: the homophone table maps misheard words ("nice",
// "won", "tree") to digits, which would corrupt flavor names in multi-entry
// parsing but is acceptable when the whole utterance describes one entry.
//
// Returns nil unless a flavor, a product type, and a quantity all resolve.
// A successful simple parse carries confidence 1.0 and action "set".
func ParseSimple(transcript string, flavors []catalog.Flavor) *Entry {
	cleaned := strings.TrimSpace(simpleFillerRe.ReplaceAllString(strings.ToLower(transcript), ""))
	words := strings.Fields(cleaned)

	qty, qtyIdx := simpleQuantity(words)

	typeIdx := -1
	var productType ProductType
	for i, w := range words {
		if _, exact := productTypeWords[w]; exact {
			typeIdx = i
			productType, _ = ParseProductTypeWord(w)
			break
		}
	}

	consumed := make(map[int]bool, len(qtyIdx)+1)
	for _, i := range qtyIdx {
		consumed[i] = true
	}
	if typeIdx >= 0 {
		consumed[typeIdx] = true
	}

	var flavorWords []string
	for i, w := range words {
		if !consumed[i] {
			flavorWords = append(flavorWords, w)
		}
	}

	matched := MatchFlavor(strings.Join(flavorWords, " "), flavors)
	if matched == nil || typeIdx < 0 || qty == 0 {
		return nil
	}

	return &Entry{
		FlavorID:   matched.ID,
		FlavorName: matched.Name,
		Type:       productType,
		Quantity:   qty,
		Action:     ActionSet,
		Confidence: 1.0,
	}
}

// simpleQuantity finds the first quantity in words using the tolerant
// vocabulary (number words plus homophones). It returns the value and the
// indices of every consumed token so the caller can exclude them from the
// flavor text. A zero value with nil indices means no quantity was found.
func simpleQuantity(words []string) (float64, []int) {
	for i, w := range words {
		v, known := tolerantNumber(w)

		// "nine and a half", "seven and a quarter".
		if known && i+3 < len(words) && words[i+1] == "and" && words[i+2] == "a" {
			if frac, ok := fractionValue(words[i+3]); ok {
				return v + frac, []int{i, i + 1, i + 2, i + 3}
			}
		}

		if known && v >= 1 {
			return v, []int{i}
		}

		if n, err := strconv.ParseFloat(w, 64); err == nil && n > 0 {
			return n, []int{i}
		}
	}
	return 0, nil
}

// tolerantNumber looks a word up in the conservative vocabulary first, then
// the homophone table.
func tolerantNumber(word string) (float64, bool) {
	if v, ok := numberWords[word]; ok {
		return v, true
	}
	if v, ok := homophoneNumbers[word]; ok {
		return v, true
	}
	return 0, false
}
