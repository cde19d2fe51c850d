package voice

import (
	"strconv"
	"strings"
)

// numberWords is the conservative spoken-number vocabulary used by the
// segmented parser. Deliberately free of homophones: in multi-entry parsing
// a misheard "to" or "for" is far more likely to be part of a flavor name
// than a quantity.
var numberWords = map[string]float64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
	"half": 0.5, "quarter": 0.25, "third": 0.33, "fourth": 0.25,
}

// homophoneNumbers maps commonly misheard words to digits. Used only by the
// single-entry fallback parser ([ParseSimple]); the segmented parser stays
// conservative so homophones cannot corrupt flavor names.
var homophoneNumbers = map[string]float64{
	"nice": 9, "to": 2, "too": 2, "for": 4, "fore": 4, "ate": 8, "won": 1,
	"tree": 3, "free": 3, "sex": 6, "tin": 10, "tube": 2, "tooth": 2,
}

// productTypeWords are the raw tokens recognised as product types, singular
// and plural.
var productTypeWords = map[string]ProductType{
	"tub": Tub, "tubs": Tub,
	"pint": Pint, "pints": Pint,
	"quart": Quart, "quarts": Quart,
}

// ParseProductTypeWord resolves a single token to a ProductType by prefix
// match, so "tubs", "pints", and "quarts" all resolve to their singular.
func ParseProductTypeWord(word string) (ProductType, bool) {
	w := strings.ToLower(word)
	switch {
	case strings.HasPrefix(w, "tub"):
		return Tub, true
	case strings.HasPrefix(w, "pint"):
		return Pint, true
	case strings.HasPrefix(w, "quart"):
		return Quart, true
	}
	return "", false
}

// isProductTypeWord reports whether word is exactly one of the recognised
// product-type tokens. Used by the segmenter, which must not treat arbitrary
// "tub…"-prefixed flavor words as entry boundaries.
func isProductTypeWord(word string) bool {
	_, ok := productTypeWords[strings.ToLower(word)]
	return ok
}

// isQuantityWord reports whether word is in the conservative number
// vocabulary.
func isQuantityWord(word string) bool {
	_, ok := numberWords[strings.ToLower(word)]
	return ok
}

// isDigit reports whether word parses as a decimal number.
func isDigit(word string) bool {
	if word == "" {
		return false
	}
	_, err := strconv.ParseFloat(word, 64)
	return err == nil
}
