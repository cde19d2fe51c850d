package voice_test

import (
	"testing"

	"github.com/LBKdotdev/the-scoop/internal/catalog"
	"github.com/LBKdotdev/the-scoop/internal/voice"
)

func parserCatalog() []catalog.Flavor {
	return []catalog.Flavor{
		{ID: 1, Name: "Vanilla", Active: true},
		{ID: 2, Name: "Chocolate", Active: true},
		{ID: 3, Name: "Strawberry", Active: true},
		{ID: 4, Name: "Mint Chip", Active: true},
		{ID: 5, Name: "Cookie Dough", Active: true},
		{ID: 6, Name: "Coffee", Active: true},
	}
}

func TestParseSingleEntry(t *testing.T) {
	t.Parallel()

	result := voice.NewParser(parserCatalog()).Parse("two tubs of vanilla")
	if !result.Success {
		t.Fatal("parse failed")
	}
	if len(result.Entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(result.Entries))
	}
	e := result.Entries[0]
	if e.FlavorName != "Vanilla" || e.Type != voice.Tub || e.Quantity != 2 {
		t.Errorf("entry = %+v", e)
	}
	if e.Action != voice.ActionSet {
		t.Errorf("action = %q, want set", e.Action)
	}
	if e.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", e.Confidence)
	}
	if result.RawTranscript != "two tubs of vanilla" {
		t.Errorf("raw transcript = %q", result.RawTranscript)
	}
}

func TestParseAddIntent(t *testing.T) {
	t.Parallel()

	result := voice.NewParser(parserCatalog()).Parse("add three pints of chocolate")
	if !result.Success || len(result.Entries) != 1 {
		t.Fatalf("result = %+v", result)
	}
	e := result.Entries[0]
	if e.Action != voice.ActionAdd {
		t.Errorf("action = %q, want add", e.Action)
	}
	if e.FlavorName != "Chocolate" || e.Quantity != 3 || e.Type != voice.Pint {
		t.Errorf("entry = %+v", e)
	}
}

func TestParseQuantities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"number word", "five quarts of coffee", 5},
		{"compound fraction", "two and a half tubs of cookie dough", 2.5},
		{"compound quarter", "one and a quarter tubs of vanilla", 1.25},
		{"bare decimal", "2.5 tubs of vanilla", 2.5},
		{"defaults to one", "tub of vanilla", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := voice.NewParser(parserCatalog()).Parse(tt.in)
			if !result.Success || len(result.Entries) != 1 {
				t.Fatalf("Parse(%q) = %+v", tt.in, result)
			}
			if got := result.Entries[0].Quantity; got != tt.want {
				t.Errorf("Parse(%q) quantity = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseMultipleSegments(t *testing.T) {
	t.Parallel()

	result := voice.NewParser(parserCatalog()).Parse("two tubs of vanilla and five pints of strawberry")
	if len(result.Entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2: %+v", len(result.Entries), result.Entries)
	}
	if result.Entries[0].FlavorName != "Vanilla" || result.Entries[0].Quantity != 2 {
		t.Errorf("first entry = %+v", result.Entries[0])
	}
	if result.Entries[1].FlavorName != "Strawberry" || result.Entries[1].Type != voice.Pint || result.Entries[1].Quantity != 5 {
		t.Errorf("second entry = %+v", result.Entries[1])
	}
	if result.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", result.Confidence)
	}
}

func TestParseCompoundFlavorList(t *testing.T) {
	t.Parallel()

	result := voice.NewParser(parserCatalog()).Parse("one tub of vanilla and chocolate")
	if len(result.Entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2: %+v", len(result.Entries), result.Entries)
	}
	for _, e := range result.Entries {
		if e.Type != voice.Tub || e.Quantity != 1 {
			t.Errorf("entry = %+v, want tub quantity 1", e)
		}
	}
	if result.Entries[0].FlavorName != "Vanilla" || result.Entries[1].FlavorName != "Chocolate" {
		t.Errorf("entries = %+v", result.Entries)
	}
}

func TestParseSharedTypeContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{"spoken lead-in", "these are all tubs vanilla, chocolate, 2 strawberry"},
		{"delimited", "tubs: vanilla, chocolate, 2 strawberry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := voice.NewParser(parserCatalog()).Parse(tt.in)
			if len(result.Entries) != 3 {
				t.Fatalf("len(entries) = %d, want 3: %+v", len(result.Entries), result.Entries)
			}
			for _, e := range result.Entries {
				if e.Type != voice.Tub {
					t.Errorf("entry %q type = %q, want tub", e.FlavorName, e.Type)
				}
			}
			if result.Entries[2].FlavorName != "Strawberry" || result.Entries[2].Quantity != 2 {
				t.Errorf("quantity-prefixed item = %+v", result.Entries[2])
			}
		})
	}
}

func TestParseSharedTypeDoesNotFireOnSegmentedInput(t *testing.T) {
	t.Parallel()

	// A normal multi-segment utterance contains type words mid-sentence; the
	// anchored shared-type rules must leave it to the segmenter.
	result := voice.NewParser(parserCatalog()).Parse("two tubs of vanilla and 3 pints of coffee")
	if len(result.Entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2: %+v", len(result.Entries), result.Entries)
	}
	if result.Entries[1].Type != voice.Pint {
		t.Errorf("second entry type = %q, want pint", result.Entries[1].Type)
	}
}

func TestParseFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{"no product type", "two vanilla"},
		{"unknown flavor", "two tubs of motor oil"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := voice.NewParser(parserCatalog()).Parse(tt.in)
			if result.Success {
				t.Errorf("Parse(%q) succeeded: %+v", tt.in, result)
			}
			if result.Confidence != 0 {
				t.Errorf("Parse(%q) confidence = %v, want 0", tt.in, result.Confidence)
			}
		})
	}
}

func TestParseMeanConfidence(t *testing.T) {
	t.Parallel()

	// "vanil" resolves by containment (0.8), "chocolate" exactly (1.0).
	result := voice.NewParser(parserCatalog()).Parse("two tubs of vanil and chocolate")
	if len(result.Entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2: %+v", len(result.Entries), result.Entries)
	}
	want := (0.8 + 1.0) / 2
	if result.Confidence != want {
		t.Errorf("confidence = %v, want %v", result.Confidence, want)
	}
}

func TestParseCustomContextRule(t *testing.T) {
	t.Parallel()

	rule := voice.ContextRule{
		Name:  "everything-is-vanilla",
		Regex: mustCompile(`^vanilla day$`),
		Handle: func(p *voice.Parser, _ []string, action voice.Action) []voice.Entry {
			f := p.Flavors()[0]
			return []voice.Entry{{
				FlavorID: f.ID, FlavorName: f.Name,
				Type: voice.Tub, Quantity: 1, Action: action, Confidence: 1.0,
			}}
		},
	}

	p := voice.NewParser(parserCatalog(), voice.WithContextRules([]voice.ContextRule{rule}))
	result := p.Parse("vanilla day")
	if len(result.Entries) != 1 || result.Entries[0].FlavorName != "Vanilla" {
		t.Fatalf("result = %+v", result)
	}
}
