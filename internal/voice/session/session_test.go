package session_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/LBKdotdev/the-scoop/internal/catalog"
	"github.com/LBKdotdev/the-scoop/internal/voice"
	"github.com/LBKdotdev/the-scoop/internal/voice/session"
)

func testFlavors() []catalog.Flavor {
	return []catalog.Flavor{
		{ID: 1, Name: "Vanilla", Active: true},
		{ID: 2, Name: "Chocolate", Active: true},
		{ID: 3, Name: "Strawberry", Active: true},
		{ID: 4, Name: "Mint Chip", Active: true},
	}
}

// stubBooster is a canned Booster for routing tests.
type stubBooster struct {
	result voice.Result
	err    error
	calls  int
}

func (b *stubBooster) Parse(_ context.Context, transcript string, _ []catalog.Flavor) (voice.Result, error) {
	b.calls++
	if b.err != nil {
		return voice.Result{RawTranscript: transcript}, b.err
	}
	return b.result, nil
}

func key(id int64, t voice.ProductType) session.Key {
	return session.Key{FlavorID: id, Type: t}
}

func TestInterpretHighConfidenceStagesForAutoReview(t *testing.T) {
	t.Parallel()
	engine := session.New(testFlavors())

	out, err := engine.Interpret(context.Background(), "two tubs of vanilla")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if out.Status != session.StatusPending || !out.Auto {
		t.Fatalf("outcome = %+v, want pending auto", out)
	}
	if engine.Pending() == nil {
		t.Fatal("expected a staged result")
	}
	// Nothing applied until commit.
	if got := engine.Value(key(1, voice.Tub)); got != 0 {
		t.Fatalf("edit state mutated before commit: %v", got)
	}
}

func TestInterpretMediumConfidenceNeedsConfirmation(t *testing.T) {
	t.Parallel()
	engine := session.New(testFlavors())

	// "chip mint" only resolves to Mint Chip via fuzzy word overlap, which
	// scores 0.6: above the confirm gate, below the auto gate.
	out, err := engine.Interpret(context.Background(), "two tubs of chip mint")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if out.Status != session.StatusPending || out.Auto {
		t.Fatalf("outcome = %+v, want pending non-auto", out)
	}
}

func TestInterpretMediumConfidenceBoostSubstitution(t *testing.T) {
	t.Parallel()
	booster := &stubBooster{
		result: voice.NewResult([]voice.Entry{{
			FlavorID: 1, FlavorName: "Vanilla", Type: voice.Tub,
			Quantity: 2, Action: voice.ActionSet, Confidence: 0.95,
		}}, "two tubs of chip mint"),
	}
	engine := session.New(testFlavors(), session.WithBooster(booster))

	out, err := engine.Interpret(context.Background(), "two tubs of chip mint")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if !out.Boosted {
		t.Fatalf("outcome = %+v, want boosted", out)
	}
	if booster.calls != 1 {
		t.Fatalf("booster calls = %d, want 1", booster.calls)
	}
	if len(out.Result.Entries) != 1 || out.Result.Entries[0].FlavorName != "Vanilla" {
		t.Fatalf("entries = %+v", out.Result.Entries)
	}
}

func TestInterpretBoostFailureKeepsPrimary(t *testing.T) {
	t.Parallel()
	booster := &stubBooster{err: errors.New("timeout")}
	engine := session.New(testFlavors(), session.WithBooster(booster))

	out, err := engine.Interpret(context.Background(), "two tubs of chip mint")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if out.Boosted || out.Status != session.StatusPending {
		t.Fatalf("outcome = %+v, want non-boosted pending", out)
	}
}

func TestInterpretLowConfidenceFallbackParser(t *testing.T) {
	t.Parallel()
	engine := session.New(testFlavors())

	// "won" is homophone vocabulary the primary parser does not consume, so
	// it corrupts the flavor text there; the tolerant single-entry parser
	// reads it as the quantity 1 and resolves the rest.
	out, err := engine.Interpret(context.Background(), "won tub mint")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if out.Status != session.StatusPending || !out.Auto {
		t.Fatalf("outcome = %+v, want pending auto via fallback", out)
	}
	if len(out.Result.Entries) != 1 {
		t.Fatalf("entries = %+v", out.Result.Entries)
	}
	e := out.Result.Entries[0]
	if e.FlavorName != "Mint Chip" || e.Quantity != 1 || e.Type != voice.Tub {
		t.Fatalf("entry = %+v", e)
	}
	if e.Confidence != 1.0 {
		t.Fatalf("fallback confidence = %v, want 1.0", e.Confidence)
	}
}

func TestInterpretRejectionCarriesSuggestions(t *testing.T) {
	t.Parallel()
	engine := session.New(testFlavors())

	out, err := engine.Interpret(context.Background(), "two tubs of strawbery")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if out.Status != session.StatusRejected {
		t.Fatalf("outcome = %+v, want rejected", out)
	}
	found := false
	for _, s := range out.Suggestions {
		if s == "Strawberry" {
			found = true
		}
	}
	if !found {
		t.Fatalf("suggestions = %v, want Strawberry included", out.Suggestions)
	}
}

func TestCommitAppliesStagedBatch(t *testing.T) {
	t.Parallel()
	engine := session.New(testFlavors())

	if _, err := engine.Interpret(context.Background(), "two tubs of vanilla and five pints of strawberry"); err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	report, err := engine.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(report.Updates) != 2 || len(report.Failures) != 0 {
		t.Fatalf("report = %+v", report)
	}
	if got := engine.Value(key(1, voice.Tub)); got != 2 {
		t.Errorf("vanilla tubs = %v, want 2", got)
	}
	if got := engine.Value(key(3, voice.Pint)); got != 5 {
		t.Errorf("strawberry pints = %v, want 5", got)
	}
	if engine.Pending() != nil {
		t.Error("pending result not cleared by commit")
	}
	if _, err := engine.Commit(); !errors.Is(err, session.ErrNoPending) {
		t.Errorf("second commit err = %v, want ErrNoPending", err)
	}
}

func TestSubmitCommandCommits(t *testing.T) {
	t.Parallel()
	engine := session.New(testFlavors())

	if _, err := engine.Interpret(context.Background(), "three quarts of chocolate"); err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	out, err := engine.Interpret(context.Background(), "submit")
	if err != nil {
		t.Fatalf("Interpret submit: %v", err)
	}
	if out.Status != session.StatusApplied || out.Applied == nil {
		t.Fatalf("outcome = %+v, want applied", out)
	}
	if got := engine.Value(key(2, voice.Quart)); got != 3 {
		t.Errorf("chocolate quarts = %v, want 3", got)
	}
}

func TestRemoveEntryBeforeCommit(t *testing.T) {
	t.Parallel()
	engine := session.New(testFlavors())

	if _, err := engine.Interpret(context.Background(), "two tubs of vanilla and five pints of strawberry"); err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if err := engine.RemoveEntry(0); err != nil {
		t.Fatalf("RemoveEntry: %v", err)
	}
	report, err := engine.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(report.Updates) != 1 {
		t.Fatalf("updates = %+v", report.Updates)
	}
	if got := engine.Value(key(1, voice.Tub)); got != 0 {
		t.Errorf("removed entry still applied: %v", got)
	}
	if got := engine.Value(key(3, voice.Pint)); got != 5 {
		t.Errorf("strawberry pints = %v, want 5", got)
	}
}

func TestRemoveLastEntryDiscardsPending(t *testing.T) {
	t.Parallel()
	engine := session.New(testFlavors())

	if _, err := engine.Interpret(context.Background(), "two tubs of vanilla"); err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if err := engine.RemoveEntry(0); err != nil {
		t.Fatalf("RemoveEntry: %v", err)
	}
	if engine.Pending() != nil {
		t.Error("pending result should be discarded when its last entry is removed")
	}
	if _, err := engine.Commit(); !errors.Is(err, session.ErrNoPending) {
		t.Errorf("Commit err = %v, want ErrNoPending", err)
	}
}

func TestApplyAddVersusSet(t *testing.T) {
	t.Parallel()
	engine := session.New(testFlavors())

	engine.Apply([]voice.Entry{{FlavorID: 1, FlavorName: "Vanilla", Type: voice.Pint, Quantity: 4, Action: voice.ActionSet}})
	engine.Apply([]voice.Entry{{FlavorID: 1, FlavorName: "Vanilla", Type: voice.Pint, Quantity: 3, Action: voice.ActionAdd}})
	if got := engine.Value(key(1, voice.Pint)); got != 7 {
		t.Fatalf("after set 4 + add 3: %v, want 7", got)
	}

	engine.Apply([]voice.Entry{{FlavorID: 1, FlavorName: "Vanilla", Type: voice.Pint, Quantity: 2, Action: voice.ActionSet}})
	if got := engine.Value(key(1, voice.Pint)); got != 2 {
		t.Fatalf("after set 2: %v, want 2", got)
	}
}

func TestApplyMissingTargetIsSoftFailure(t *testing.T) {
	t.Parallel()
	engine := session.New(testFlavors())

	report := engine.Apply([]voice.Entry{
		{FlavorID: 99, FlavorName: "Pistachio", Type: voice.Tub, Quantity: 1, Action: voice.ActionSet},
		{FlavorID: 1, FlavorName: "Vanilla", Type: voice.Tub, Quantity: 2, Action: voice.ActionSet},
	})
	if len(report.Updates) != 1 || len(report.Failures) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.Failures[0].Reason != "not visible" {
		t.Errorf("failure reason = %q", report.Failures[0].Reason)
	}
	if got := engine.Value(key(1, voice.Tub)); got != 2 {
		t.Errorf("vanilla tubs = %v, want 2", got)
	}

	// The failed entry must not be in the undo record.
	changes, ok := engine.Undo()
	if !ok || len(changes) != 1 || changes[0].Key != key(1, voice.Tub) {
		t.Fatalf("undo batch = %+v", changes)
	}
}

func TestApplyNormalizesQuantities(t *testing.T) {
	t.Parallel()
	engine := session.New(testFlavors())

	engine.Apply([]voice.Entry{
		{FlavorID: 1, FlavorName: "Vanilla", Type: voice.Tub, Quantity: 2.5, Action: voice.ActionSet},
		{FlavorID: 2, FlavorName: "Chocolate", Type: voice.Pint, Quantity: 2.5, Action: voice.ActionSet},
		{FlavorID: 3, FlavorName: "Strawberry", Type: voice.Tub, Quantity: -1, Action: voice.ActionAdd},
	})

	if got := engine.Value(key(1, voice.Tub)); got != 2.5 {
		t.Errorf("tub keeps quarter fraction: %v", got)
	}
	// Half-away-from-zero: 2.5 pints becomes 3.
	if got := engine.Value(key(2, voice.Pint)); got != 3 {
		t.Errorf("pint rounded to whole: %v, want 3", got)
	}
	if got := engine.Value(key(3, voice.Tub)); got != 0 {
		t.Errorf("negative clamped: %v, want 0", got)
	}
}

func TestTubFractionDomain(t *testing.T) {
	t.Parallel()
	engine := session.New(testFlavors())
	k := key(1, voice.Tub)

	quantities := []float64{0.5, 0.25, 1.75, 0.3, 2.5, 0.1}
	for _, q := range quantities {
		engine.Apply([]voice.Entry{{FlavorID: 1, FlavorName: "Vanilla", Type: voice.Tub, Quantity: q, Action: voice.ActionAdd}})
		v := engine.Value(k)
		frac := v - float64(int(v))
		switch frac {
		case 0, 0.25, 0.5, 0.75:
		default:
			t.Fatalf("after add %v: value %v has fraction %v", q, v, frac)
		}
	}
}

func TestUndoRoundTrip(t *testing.T) {
	t.Parallel()
	engine := session.New(testFlavors())
	k := key(1, voice.Tub)

	engine.SetValue(k, 3)
	engine.Apply([]voice.Entry{{FlavorID: 1, FlavorName: "Vanilla", Type: voice.Tub, Quantity: 8, Action: voice.ActionSet}})
	if got := engine.Value(k); got != 8 {
		t.Fatalf("value = %v, want 8", got)
	}

	// Intervening manual edit: undo still restores the recorded old value.
	engine.SetValue(k, 100)

	changes, ok := engine.Undo()
	if !ok {
		t.Fatal("Undo reported empty stack")
	}
	if len(changes) != 1 || changes[0].OldValue != 3 || changes[0].NewValue != 8 {
		t.Fatalf("changes = %+v", changes)
	}
	if got := engine.Value(k); got != 3 {
		t.Fatalf("value after undo = %v, want 3", got)
	}

	if _, ok := engine.Undo(); ok {
		t.Fatal("second undo should report empty stack")
	}
}

func TestUndoDepthBounded(t *testing.T) {
	t.Parallel()
	engine := session.New(testFlavors())
	k := key(1, voice.Pint)

	for i := 1; i <= 6; i++ {
		engine.Apply([]voice.Entry{{FlavorID: 1, FlavorName: "Vanilla", Type: voice.Pint, Quantity: float64(i), Action: voice.ActionSet}})
	}
	if got := engine.UndoDepth(); got != session.MaxUndoDepth {
		t.Fatalf("depth = %d, want %d", got, session.MaxUndoDepth)
	}

	// Unwinding everything lands on the 1st batch's result (value 1), not
	// the initial 0: the oldest batch was evicted.
	for i := 0; i < session.MaxUndoDepth; i++ {
		if _, ok := engine.Undo(); !ok {
			t.Fatalf("undo %d reported empty stack", i+1)
		}
	}
	if got := engine.Value(k); got != 1 {
		t.Fatalf("value after full unwind = %v, want 1", got)
	}
}

func TestUndoCommand(t *testing.T) {
	t.Parallel()
	engine := session.New(testFlavors())

	engine.Apply([]voice.Entry{{FlavorID: 1, FlavorName: "Vanilla", Type: voice.Tub, Quantity: 4, Action: voice.ActionSet}})
	out, err := engine.Interpret(context.Background(), "undo last")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if out.Command != voice.CommandUndo || len(out.Undone) != 1 {
		t.Fatalf("outcome = %+v", out)
	}
	if got := engine.Value(key(1, voice.Tub)); got != 0 {
		t.Fatalf("value = %v, want 0", got)
	}
}

func TestStopEndsSession(t *testing.T) {
	t.Parallel()
	engine := session.New(testFlavors())

	out, err := engine.Interpret(context.Background(), "stop listening")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if out.Command != voice.CommandStop || !engine.Stopped() {
		t.Fatalf("outcome = %+v, stopped = %v", out, engine.Stopped())
	}
	if _, err := engine.Interpret(context.Background(), "two tubs of vanilla"); !errors.Is(err, session.ErrStopped) {
		t.Fatalf("err = %v, want ErrStopped", err)
	}
}

func TestMultiEntryBatchOrderPreserved(t *testing.T) {
	t.Parallel()
	engine := session.New(testFlavors())

	if _, err := engine.Interpret(context.Background(), "two tubs of vanilla and chocolate and five pints of strawberry"); err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	pending := engine.Pending()
	if pending == nil {
		t.Fatal("no pending result")
	}
	var got []string
	for _, e := range pending.Entries {
		got = append(got, fmt.Sprintf("%s/%s", e.FlavorName, e.Type))
	}
	want := []string{"Vanilla/tub", "Chocolate/tub", "Strawberry/pint"}
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entries = %v, want %v", got, want)
		}
	}
}
