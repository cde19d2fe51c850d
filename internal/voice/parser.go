package voice

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/LBKdotdev/the-scoop/internal/catalog"
)

// ContextRule pairs a compiled utterance pattern with the handler that
// expands it into entries. Rules are checked in order before the general
// segmenter; the first rule that yields at least one resolved entry wins
// and segment-based extraction is skipped for that utterance.
type ContextRule struct {
	// Name is a human-readable label for logging and tests.
	Name string

	// Regex is matched against the normalised utterance text. Submatches
	// are passed to Handle.
	Regex *regexp.Regexp

	// Handle expands the match into entries. An empty return means the rule
	// did not apply after all and evaluation falls through.
	Handle func(p *Parser, matches []string, action Action) []Entry
}

// Parser converts transcripts into entries against a fixed catalog
// snapshot. Construct one per parsing session; the snapshot is read-only
// for the session's lifetime, so a Parser is safe for concurrent use.
type Parser struct {
	flavors []catalog.Flavor
	rules   []ContextRule
}

// Option is a functional option for [NewParser].
type Option func(*Parser)

// WithContextRules replaces the default shared-context rule set. Used in
// tests to exercise rules independently.
func WithContextRules(rules []ContextRule) Option {
	return func(p *Parser) {
		p.rules = rules
	}
}

// NewParser creates a Parser over a catalog snapshot. Only active flavors
// should be passed in; the parser itself never filters or mutates the
// slice.
func NewParser(flavors []catalog.Flavor, opts ...Option) *Parser {
	p := &Parser{
		flavors: flavors,
		rules:   defaultContextRules(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Flavors returns the catalog snapshot the parser resolves against.
func (p *Parser) Flavors() []catalog.Flavor {
	return p.flavors
}

// Parse runs the full pipeline on one transcript: normalise, try the
// shared-context rules, and fall back to segment extraction with
// per-segment interpretation. Parse never fails; an unparseable utterance
// produces a Result with Success=false and Confidence=0.
func (p *Parser) Parse(transcript string) Result {
	norm := Normalize(transcript)

	for _, rule := range p.rules {
		matches := rule.Regex.FindStringSubmatch(norm.Text)
		if matches == nil {
			continue
		}
		if entries := rule.Handle(p, matches, norm.Action); len(entries) > 0 {
			return NewResult(entries, transcript)
		}
	}

	var entries []Entry
	for _, segment := range ExtractSegments(norm.Text) {
		entries = append(entries, p.parseSegment(segment, norm.Action)...)
	}

	return NewResult(entries, transcript)
}

// The shared-context pattern — one product type declared once for a
// trailing flavor list — is split into two anchored rules rather than one
// loose regex. An unanchored pattern would fire on ordinary segmented
// utterances too ("two tubs of vanilla and five pints of strawberry"
// contains "tubs" followed by text), so each rule requires its own
// discriminator: a spoken lead-in phrase, or a colon/comma right after the
// type word.

// sharedTypePrefixedRe: "these are all tubs vanilla, chocolate, strawberry".
// The lead-in phrase is the discriminator; the delimiter after the type
// word may be plain whitespace.
var sharedTypePrefixedRe = regexp.MustCompile(
	`^(?:these are|they're(?: all)?|i made)\s+(?:all\s+)?(tubs?|pints?|quarts?)[\s:,]+(.+)$`)

// sharedTypeDelimitedRe: "tubs: vanilla, chocolate" or
// "all quarts, i'm gonna list off: …". Without a lead-in phrase the
// delimiter itself must be unambiguous.
var sharedTypeDelimitedRe = regexp.MustCompile(
	`^(?:all\s+)?(tubs?|pints?|quarts?)(?:\s*[:,]\s*|\s+i'?m\s+(?:gonna|going to)\s+list\s+off:?\s*)(.+)$`)

// listItemQtyRe matches an optional quantity prefix on a single list item:
// "2 vanilla", "three chocolate".
var listItemQtyRe = regexp.MustCompile(
	`^(\d+|one|two|three|four|five|six|seven|eight|nine|ten)\s+(.+)`)

// listSplitRe separates flavor list items on commas and standalone "and".
var listSplitRe = regexp.MustCompile(`,|\band\b`)

// defaultContextRules returns the built-in shared-context rule set.
func defaultContextRules() []ContextRule {
	return []ContextRule{
		{
			Name:   "shared-type-prefixed",
			Regex:  sharedTypePrefixedRe,
			Handle: expandSharedType,
		},
		{
			Name:   "shared-type-delimited",
			Regex:  sharedTypeDelimitedRe,
			Handle: expandSharedType,
		},
	}
}

// expandSharedType applies one product type and one action to every flavor
// in the trailing list. Each item may carry its own quantity prefix;
// without one the quantity defaults to 1. Unresolved items are dropped.
func expandSharedType(p *Parser, matches []string, action Action) []Entry {
	productType, ok := ParseProductTypeWord(matches[1])
	if !ok {
		return nil
	}

	var entries []Entry
	for _, item := range listSplitRe.Split(matches[2], -1) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		qty := 1.0
		name := item
		if m := listItemQtyRe.FindStringSubmatch(item); m != nil {
			if v, found := parseNumberWord(m[1]); found && v > 0 {
				qty = v
				name = m[2]
			}
		}

		matched := MatchFlavor(name, p.flavors)
		if matched == nil {
			continue
		}
		entries = append(entries, entryFor(*matched, name, productType, qty, action))
	}
	return entries
}

// parseNumberWord resolves a single token to a number using the
// conservative vocabulary, accepting bare decimals too.
func parseNumberWord(word string) (float64, bool) {
	w := strings.ToLower(strings.TrimSpace(word))
	if v, ok := numberWords[w]; ok {
		return v, true
	}
	if v, err := strconv.ParseFloat(w, 64); err == nil {
		return v, true
	}
	return 0, false
}
