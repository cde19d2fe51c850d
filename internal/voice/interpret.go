package voice

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	digitRe       = regexp.MustCompile(`\b\d+(\.\d+)?\b`)
	typeWordRe    = regexp.MustCompile(`\b(tubs?|pints?|quarts?)\b`)
	ofRe          = regexp.MustCompile(`\bof\b`)
	flavorSplitRe = regexp.MustCompile(`\s+and\s+`)
	numberWordRe  *regexp.Regexp
)

func init() {
	words := make([]string, 0, len(numberWords))
	for w := range numberWords {
		words = append(words, w)
	}
	// Longest first so "fourteen" is never consumed as "four" + "teen".
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	numberWordRe = regexp.MustCompile(`\b(` + strings.Join(words, "|") + `)\b`)
}

// extractQuantity scans a segment left to right for a quantity. At each
// position it tries, in order: a compound "<number> and (a) half/quarter"
// pattern, a standalone number word with value >= 1, and a bare decimal
// > 0. The first hit wins. ok is false when the segment carries no quantity
// (callers default to 1).
func extractQuantity(segment string) (qty float64, ok bool) {
	words := strings.Fields(segment)

	for i, raw := range words {
		word := strings.ToLower(raw)
		base, isNumber := numberWords[word]

		// "two and half" / "two and a half" — articles may or may not have
		// been stripped upstream.
		if isNumber && i+2 < len(words) && words[i+1] == "and" {
			fracWord := words[i+2]
			if fracWord == "a" && i+3 < len(words) {
				fracWord = words[i+3]
			}
			if frac, found := fractionValue(fracWord); found {
				return base + frac, true
			}
		}

		if isNumber && base >= 1 {
			return base, true
		}

		if n, err := strconv.ParseFloat(word, 64); err == nil && n > 0 {
			return n, true
		}
	}

	return 0, false
}

// fractionValue maps the two compound-fraction words to their value.
func fractionValue(word string) (float64, bool) {
	switch word {
	case "half":
		return 0.5, true
	case "quarter":
		return 0.25, true
	}
	return 0, false
}

// extractProductType scans a segment for a product-type word by prefix
// match. Product type is mandatory per segment; ok is false when absent and
// the caller rejects the whole segment.
func extractProductType(segment string) (ProductType, bool) {
	for _, word := range strings.Fields(segment) {
		if t, ok := ParseProductTypeWord(word); ok {
			return t, true
		}
	}
	return "", false
}

// extractFlavorText strips the consumed quantity words, bare digits,
// product-type words, and "of" from a segment. "and" is deliberately kept:
// it still separates a compound flavor list ("vanilla and chocolate"),
// which [parseFlavorList] splits.
func extractFlavorText(segment string, hasQuantity bool) string {
	text := segment

	if hasQuantity {
		text = numberWordRe.ReplaceAllString(text, "")
		text = digitRe.ReplaceAllString(text, "")
	}
	text = typeWordRe.ReplaceAllString(text, "")
	text = ofRe.ReplaceAllString(text, "")

	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// parseFlavorList splits flavor text on the literal " and " separator into
// one or more flavor name candidates. Flavor names containing "and" as part
// of a longer word ("brandy") are unaffected.
func parseFlavorList(text string) []string {
	parts := flavorSplitRe.Split(text, -1)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseSegment interprets one segment into zero or more entries. A segment
// with no resolvable product type is rejected entirely (nil). Flavor
// candidates that fail catalog resolution are dropped silently; overall
// parse failure is only signalled when the whole utterance yields zero
// entries.
func (p *Parser) parseSegment(segment string, defaultAction Action) []Entry {
	qty, hasQty := extractQuantity(segment)
	if !hasQty {
		qty = 1
	}

	productType, ok := extractProductType(segment)
	if !ok {
		return nil
	}

	flavorText := extractFlavorText(segment, hasQty)

	var entries []Entry
	for _, candidate := range parseFlavorList(flavorText) {
		matched := MatchFlavor(candidate, p.flavors)
		if matched == nil {
			continue
		}
		entries = append(entries, entryFor(*matched, candidate, productType, qty, defaultAction))
	}
	return entries
}
