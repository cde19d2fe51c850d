// Package session runs one operator's voice-entry session: it routes parse
// results through a confidence-gated confirmation workflow, applies
// confirmed entries to the session's edit state, and keeps a bounded undo
// history of applied batches.
package session

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"

	"github.com/LBKdotdev/the-scoop/internal/catalog"
	"github.com/LBKdotdev/the-scoop/internal/voice"
)

// Confidence gates for routing a parse result.
const (
	// AutoApplyThreshold: above this the result goes straight to the
	// lightweight review step, no explicit confirmation required.
	AutoApplyThreshold = 0.7

	// ConfirmThreshold: at or below this the result is not trusted enough
	// to confirm; secondary interpretation and the fallback parser are
	// tried before rejecting.
	ConfirmThreshold = 0.4
)

const maxSuggestions = 3

// ErrStopped is returned by Interpret after Stop has been called.
var ErrStopped = errors.New("session: stopped")

// ErrNoPending is returned by Commit and RemoveEntry when no parse result
// is awaiting review.
var ErrNoPending = errors.New("session: no pending result")

// Status classifies the outcome of interpreting one transcript.
type Status string

const (
	// StatusPending: a result is staged for review. Outcome.Auto says
	// whether it cleared the auto-apply gate.
	StatusPending Status = "pending"

	// StatusApplied: entries were applied to the edit state (submit
	// command on a staged result).
	StatusApplied Status = "applied"

	// StatusRejected: nothing usable could be parsed.
	StatusRejected Status = "rejected"

	// StatusCommand: the transcript was a control command (undo, stop).
	StatusCommand Status = "command"
)

// Outcome is what one call to [Engine.Interpret] produced.
type Outcome struct {
	Status  Status
	Command voice.Command

	// Result is the staged parse result for StatusPending, or the result
	// whose entries were applied for StatusApplied.
	Result voice.Result

	// Auto is true when Result cleared AutoApplyThreshold.
	Auto bool

	// Boosted is true when Result came from the secondary interpreter.
	Boosted bool

	// Applied is set for StatusApplied and for an undo command.
	Applied *ApplyReport
	Undone  []Change

	// Suggestions holds close flavor names for StatusRejected.
	Suggestions []string
}

// Failure is one entry that could not be applied.
type Failure struct {
	Entry  voice.Entry `json:"entry"`
	Reason string      `json:"reason"`
}

// ApplyReport is the outcome of applying one batch. Partial success is
// normal: some entries update, others fail, and the report carries both.
type ApplyReport struct {
	Updates  []Change  `json:"updates"`
	Failures []Failure `json:"failures"`
}

// Booster is the optional secondary interpretation service consulted when
// the primary parser is unsure. *boost.Interpreter satisfies it.
type Booster interface {
	Parse(ctx context.Context, transcript string, flavors []catalog.Flavor) (voice.Result, error)
}

// Option is a functional option for [New].
type Option func(*Engine)

// WithBooster enables secondary interpretation for low- and
// medium-confidence results.
func WithBooster(b Booster) Option {
	return func(e *Engine) { e.booster = b }
}

// WithLogger sets the engine's logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithContextRules passes a replacement grammar rule set through to the
// parser.
func WithContextRules(rules []voice.ContextRule) Option {
	return func(e *Engine) { e.parserOpts = append(e.parserOpts, voice.WithContextRules(rules)) }
}

// Engine holds one session's parser, edit state, staged result, and undo
// history. Construct one per recognition session with a catalog snapshot;
// safe for concurrent use.
type Engine struct {
	flavors    []catalog.Flavor
	parser     *voice.Parser
	parserOpts []voice.Option
	booster    Booster
	logger     *slog.Logger

	mu      sync.Mutex
	edit    map[Key]float64
	targets map[Key]bool
	undo    undoStack
	pending *voice.Result
	stopped bool
}

// New builds an Engine over a catalog snapshot. The snapshot defines both
// the parser vocabulary and the set of applyable line items (every active
// flavor in every product type).
func New(flavors []catalog.Flavor, opts ...Option) *Engine {
	e := &Engine{
		flavors: flavors,
		logger:  slog.Default(),
		edit:    make(map[Key]float64),
		targets: make(map[Key]bool),
	}
	for _, o := range opts {
		o(e)
	}
	e.parser = voice.NewParser(flavors, e.parserOpts...)
	for _, f := range flavors {
		for _, t := range []voice.ProductType{voice.Tub, voice.Pint, voice.Quart} {
			e.targets[Key{FlavorID: f.ID, Type: t}] = true
		}
	}
	return e
}

// Interpret processes one final transcript. Control commands act
// immediately; everything else is parsed and staged for review according
// to its confidence. Interpret never mutates edit state directly — only a
// submit command (or [Engine.Commit]) applies the staged result.
func (e *Engine) Interpret(ctx context.Context, transcript string) (Outcome, error) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return Outcome{}, ErrStopped
	}
	e.mu.Unlock()

	if cmd := voice.DetectCommand(transcript); cmd != voice.CommandNone {
		return e.runCommand(cmd)
	}

	result := e.parser.Parse(transcript)
	log := e.logger.With("transcript", transcript, "confidence", result.Confidence, "entries", len(result.Entries))

	switch {
	case result.Success && result.Confidence > AutoApplyThreshold:
		log.Debug("parse staged for auto review")
		e.stage(result)
		return Outcome{Status: StatusPending, Result: result, Auto: true}, nil

	case result.Success && result.Confidence > ConfirmThreshold:
		boosted, ok := e.tryBoost(ctx, transcript)
		if ok {
			log.Debug("boost substituted for medium-confidence parse")
			e.stage(boosted)
			return Outcome{Status: StatusPending, Result: boosted, Boosted: true}, nil
		}
		log.Debug("parse staged for confirmation")
		e.stage(result)
		return Outcome{Status: StatusPending, Result: result}, nil

	default:
		return e.interpretLowConfidence(ctx, transcript, log)
	}
}

// interpretLowConfidence handles results at or below ConfirmThreshold:
// boost first, then the tolerant single-entry fallback parser, then
// rejection with flavor suggestions.
func (e *Engine) interpretLowConfidence(ctx context.Context, transcript string, log *slog.Logger) (Outcome, error) {
	if boosted, ok := e.tryBoost(ctx, transcript); ok {
		log.Debug("boost rescued low-confidence parse")
		e.stage(boosted)
		return Outcome{Status: StatusPending, Result: boosted, Boosted: true}, nil
	}

	if entry := voice.ParseSimple(transcript, e.flavors); entry != nil {
		result := voice.NewResult([]voice.Entry{*entry}, transcript)
		log.Debug("fallback parser produced an entry", "flavor", entry.FlavorName)
		e.stage(result)
		return Outcome{Status: StatusPending, Result: result, Auto: true}, nil
	}

	log.Debug("transcript rejected")
	return Outcome{
		Status:      StatusRejected,
		Result:      voice.Result{RawTranscript: transcript},
		Suggestions: voice.Suggest(transcript, e.flavors, maxSuggestions),
	}, nil
}

// tryBoost runs the secondary interpreter. Any failure, transport or
// malformed response alike, reads as "no substitution".
func (e *Engine) tryBoost(ctx context.Context, transcript string) (voice.Result, bool) {
	if e.booster == nil {
		return voice.Result{}, false
	}
	result, err := e.booster.Parse(ctx, transcript, e.flavors)
	if err != nil {
		e.logger.Warn("boost failed, keeping primary result", "error", err)
		return voice.Result{}, false
	}
	return result, result.Success
}

func (e *Engine) runCommand(cmd voice.Command) (Outcome, error) {
	switch cmd {
	case voice.CommandSubmit:
		report, result, err := e.commit()
		if err != nil {
			return Outcome{Status: StatusCommand, Command: cmd}, err
		}
		return Outcome{Status: StatusApplied, Command: cmd, Result: result, Applied: &report}, nil

	case voice.CommandUndo:
		undone, _ := e.Undo()
		return Outcome{Status: StatusCommand, Command: cmd, Undone: undone}, nil

	case voice.CommandStop:
		e.Stop()
		return Outcome{Status: StatusCommand, Command: cmd}, nil
	}
	return Outcome{Status: StatusCommand, Command: cmd}, nil
}

func (e *Engine) stage(result voice.Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = &result
}

// Pending returns a copy of the staged result, or nil.
func (e *Engine) Pending() *voice.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return nil
	}
	copied := *e.pending
	copied.Entries = append([]voice.Entry(nil), e.pending.Entries...)
	return &copied
}

// RemoveEntry drops one entry from the staged result before commit.
// Removing the last entry discards the staged result entirely, so a
// subsequent commit reports ErrNoPending instead of applying an empty batch.
func (e *Engine) RemoveEntry(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return ErrNoPending
	}
	if index < 0 || index >= len(e.pending.Entries) {
		return errors.New("session: entry index out of range")
	}
	e.pending.Entries = append(e.pending.Entries[:index], e.pending.Entries[index+1:]...)
	if len(e.pending.Entries) == 0 {
		e.pending = nil
	}
	return nil
}

// Commit applies the staged result's remaining entries as one batch and
// clears the staging area.
func (e *Engine) Commit() (ApplyReport, error) {
	report, _, err := e.commit()
	return report, err
}

func (e *Engine) commit() (ApplyReport, voice.Result, error) {
	e.mu.Lock()
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()
	if pending == nil {
		return ApplyReport{}, voice.Result{}, ErrNoPending
	}
	return e.Apply(pending.Entries), *pending, nil
}

// Apply mutates the edit state with one batch of entries. Entries whose
// line item is not in the session's target set fail individually without
// aborting the batch; only successful updates enter the undo record.
// Apply never returns an error: partial success is the normal shape of
// the outcome.
func (e *Engine) Apply(entries []voice.Entry) ApplyReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	var report ApplyReport
	var batch []Change
	for _, entry := range entries {
		key := Key{FlavorID: entry.FlavorID, Type: entry.Type}
		if !e.targets[key] {
			report.Failures = append(report.Failures, Failure{Entry: entry, Reason: "not visible"})
			continue
		}

		old := e.edit[key]
		value := entry.Quantity
		if entry.Action == voice.ActionAdd {
			value = old + entry.Quantity
		}
		value = normalizeQuantity(entry.Type, value)

		e.edit[key] = value
		change := Change{Key: key, FlavorName: entry.FlavorName, OldValue: old, NewValue: value}
		report.Updates = append(report.Updates, change)
		batch = append(batch, change)
	}

	e.undo.push(batch)
	if len(report.Failures) > 0 {
		e.logger.Info("batch applied with failures", "updates", len(report.Updates), "failures", len(report.Failures))
	}
	return report
}

// Undo reverses the most recent applied batch, restoring each line item's
// prior value regardless of intervening manual edits. It reports false on
// an empty stack; that is a no-op, not an error.
func (e *Engine) Undo() ([]Change, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	batch := e.undo.pop()
	if batch == nil {
		return nil, false
	}
	for _, change := range batch {
		e.edit[change.Key] = change.OldValue
	}
	return batch, true
}

// UndoDepth reports how many batches are currently reversible.
func (e *Engine) UndoDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.undo.depth()
}

// Value reads one line item's current edit-state value.
func (e *Engine) Value(key Key) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.edit[key]
}

// SetValue records a direct manual edit. Manual edits do not enter the
// undo history.
func (e *Engine) SetValue(key Key, value float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.edit[key] = normalizeQuantity(key.Type, value)
}

// Values returns a snapshot of the full edit state.
func (e *Engine) Values() map[Key]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := make(map[Key]float64, len(e.edit))
	for k, v := range e.edit {
		snapshot[k] = v
	}
	return snapshot
}

// Stop ends the session: subsequent Interpret calls return ErrStopped.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = true
}

// Stopped reports whether Stop has been called.
func (e *Engine) Stopped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopped
}

// Flavors returns the catalog snapshot the session was built over.
func (e *Engine) Flavors() []catalog.Flavor {
	return e.flavors
}

// normalizeQuantity clamps negatives to zero and snaps the value to the
// product type's grain: quarter units for tubs, whole units otherwise.
func normalizeQuantity(t voice.ProductType, v float64) float64 {
	if v < 0 {
		return 0
	}
	if t == voice.Tub {
		return math.Round(v*4) / 4
	}
	return math.Round(v)
}
