package voice_test

import (
	"testing"

	"github.com/LBKdotdev/the-scoop/internal/voice"
)

func TestNormalizeStripsFillersAndArticles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single-word fillers", "um two tubs of uh vanilla", "two tubs of vanilla"},
		{"multi-word filler as a unit", "oh wait three pints of chocolate", "three pints of chocolate"},
		{"articles", "a tub of the vanilla", "tub of vanilla"},
		{"case folding and whitespace", "  TWO   Tubs of Vanilla ", "two tubs of vanilla"},
		{"no-op passthrough", "five quarts of strawberry", "five quarts of strawberry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := voice.Normalize(tt.in)
			if got.Text != tt.want {
				t.Errorf("Normalize(%q).Text = %q, want %q", tt.in, got.Text, tt.want)
			}
		})
	}
}

func TestNormalizeDetectsAddIntent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want voice.Action
	}{
		{"two tubs of vanilla", voice.ActionSet},
		{"add two tubs of vanilla", voice.ActionAdd},
		{"found another pint of chocolate", voice.ActionAdd},
		{"plus three quarts", voice.ActionAdd},
		{"also two tubs", voice.ActionAdd},
		{"two more pints of coffee", voice.ActionAdd},
	}
	for _, tt := range tests {
		if got := voice.Normalize(tt.in); got.Action != tt.want {
			t.Errorf("Normalize(%q).Action = %q, want %q", tt.in, got.Action, tt.want)
		}
	}
}

func TestNormalizeStripsToCountAfterIntent(t *testing.T) {
	t.Parallel()

	got := voice.Normalize("add two tubs to the count")
	if got.Action != voice.ActionAdd {
		t.Errorf("Action = %q, want add", got.Action)
	}
	if got.Text != "add two tubs" {
		t.Errorf("Text = %q, want %q", got.Text, "add two tubs")
	}
}
