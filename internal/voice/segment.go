package voice

import "strings"

// ExtractSegments splits a normalised utterance into independent command
// segments, one per flavor/type/quantity group.
//
// The walk accumulates tokens into the current segment. "and" is ambiguous:
// it separates entries in "two tubs of vanilla and five pints of strawberry"
// but joins a compound flavor list in "tub of vanilla and chocolate". The
// tie-breaker is the next token — when it is a product-type word, a quantity
// word, or a bare digit, a new entry is starting, so the buffer is flushed
// and the "and" dropped; otherwise the "and" stays in the segment for
// [parseFlavorList] to handle.
func ExtractSegments(text string) []string {
	words := strings.Fields(text)

	var segments []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			segments = append(segments, strings.Join(current, " "))
			current = nil
		}
	}

	for i, word := range words {
		if word != "and" {
			current = append(current, word)
			continue
		}

		var next string
		if i+1 < len(words) {
			next = words[i+1]
		}
		if isProductTypeWord(next) || isQuantityWord(next) || isDigit(next) {
			flush()
		} else {
			current = append(current, word)
		}
	}
	flush()

	return segments
}
