// Package boost implements the optional "AI boost" secondary
// interpretation pass: when the deterministic parser is unsure, the raw
// transcript and the available flavor list are sent to an LLM that returns
// structured entries as JSON.
//
// Boost is strictly best-effort. Network failures and unparseable
// responses are caught inside [Interpreter.Parse] callers' fallback logic —
// the confirmation engine always falls back to the already-computed primary
// result rather than surfacing a boost error to the operator.
package boost

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/LBKdotdev/the-scoop/internal/catalog"
	"github.com/LBKdotdev/the-scoop/internal/observe"
	"github.com/LBKdotdev/the-scoop/internal/voice"
	"github.com/LBKdotdev/the-scoop/pkg/provider/llm"
)

const (
	defaultTemperature = 0.1
	defaultMaxTokens   = 1024

	// requestTimeout bounds one boost round-trip. The operator is standing
	// at the freezer waiting; a slow answer is as bad as no answer.
	requestTimeout = 10 * time.Second
)

const systemPrompt = "You are a JSON-only response bot. Always respond with valid JSON only, no other text."

const promptTemplate = `You are a voice command parser for an ice cream inventory system.

Available flavors: %s

Product types: tub, pint, quart

User said: "%s"

Parse this into structured inventory entries. Detect:
1. Flavor names (match to available flavors, use fuzzy matching)
2. Product type (tub/pint/quart)
3. Quantity (numbers, including "a" = 1, "two" = 2, etc.)
4. Action: "add" if they say "another", "found", "add", "plus"; otherwise "set"

Handle:
- Multiple items in one utterance
- Conversational fillers (oh, um, wait)
- Compound entries like "tub of vanilla and chocolate" = 2 entries

Respond ONLY with valid JSON in this exact format:
{
  "entries": [
    {"flavor": "Vanilla", "type": "tub", "quantity": 1, "action": "set", "confidence": 0.95},
    {"flavor": "Chocolate", "type": "tub", "quantity": 1, "action": "set", "confidence": 0.95}
  ]
}

If you can't parse it, return: {"entries": []}`

// rawEntry is the JSON entry shape the model is asked to produce.
type rawEntry struct {
	Flavor     string  `json:"flavor"`
	Type       string  `json:"type"`
	Quantity   float64 `json:"quantity"`
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
}

type rawResponse struct {
	Entries []rawEntry `json:"entries"`
}

// Option is a functional option for [New].
type Option func(*Interpreter)

// WithTemperature overrides the sampling temperature. Default: 0.1.
func WithTemperature(temp float64) Option {
	return func(i *Interpreter) { i.temperature = temp }
}

// WithMetrics sets the metrics instance. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(i *Interpreter) { i.metrics = m }
}

// Interpreter sends transcripts to an [llm.Provider] and maps the model's
// entries back onto the catalog. Safe for concurrent use.
type Interpreter struct {
	llm         llm.Provider
	temperature float64
	metrics     *observe.Metrics
}

// New returns an Interpreter backed by the given provider.
func New(provider llm.Provider, opts ...Option) *Interpreter {
	i := &Interpreter{
		llm:         provider,
		temperature: defaultTemperature,
		metrics:     observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Parse asks the model to interpret transcript against the catalog
// snapshot. Entries whose flavor name fails catalog resolution, or whose
// product type is unrecognised, are discarded; an all-discarded response
// yields Success=false, not an error.
//
// Errors are returned for transport failures and unparseable responses so
// the caller can fall back to its primary result.
func (i *Interpreter) Parse(ctx context.Context, transcript string, flavors []catalog.Flavor) (voice.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		i.metrics.BoostDuration.Record(ctx, time.Since(start).Seconds())
	}()

	req := llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Temperature:  i.temperature,
		MaxTokens:    defaultMaxTokens,
		Messages: []llm.Message{{
			Role:    "user",
			Content: fmt.Sprintf(promptTemplate, strings.Join(catalog.Names(flavors), ", "), transcript),
		}},
	}

	resp, err := i.llm.Complete(ctx, req)
	if err != nil {
		i.metrics.RecordBoostRequest(ctx, i.llm.Name(), "error")
		i.metrics.RecordBoostError(ctx, i.llm.Name())
		return voice.Result{RawTranscript: transcript}, fmt.Errorf("boost: complete: %w", err)
	}

	var raw rawResponse
	if err := json.Unmarshal([]byte(stripMarkdownFences(resp.Content)), &raw); err != nil {
		i.metrics.RecordBoostRequest(ctx, i.llm.Name(), "error")
		i.metrics.RecordBoostError(ctx, i.llm.Name())
		return voice.Result{RawTranscript: transcript}, fmt.Errorf("boost: parse response: %w", err)
	}
	i.metrics.RecordBoostRequest(ctx, i.llm.Name(), "ok")

	var entries []voice.Entry
	for _, e := range raw.Entries {
		matched := voice.MatchFlavor(e.Flavor, flavors)
		if matched == nil {
			continue
		}
		productType := voice.ProductType(strings.ToLower(e.Type))
		if !productType.IsValid() {
			continue
		}
		action := voice.ActionSet
		if strings.ToLower(e.Action) == string(voice.ActionAdd) {
			action = voice.ActionAdd
		}
		confidence := e.Confidence
		if confidence <= 0 || confidence > 1 {
			confidence = 0.8
		}
		entries = append(entries, voice.Entry{
			FlavorID:   matched.ID,
			FlavorName: matched.Name,
			Type:       productType,
			Quantity:   e.Quantity,
			Action:     action,
			Confidence: confidence,
		})
	}

	return voice.NewResult(entries, transcript), nil
}

// stripMarkdownFences removes a ```json … ``` or ``` … ``` wrapper that
// models sometimes emit despite the JSON-only instruction.
func stripMarkdownFences(content string) string {
	s := strings.TrimSpace(content)
	if strings.Contains(s, "```json") {
		if after, found := cutBetween(s, "```json", "```"); found {
			return after
		}
	}
	if strings.Contains(s, "```") {
		if after, found := cutBetween(s, "```", "```"); found {
			return after
		}
	}
	return s
}

// cutBetween returns the trimmed text between the first occurrence of open
// and the following close marker.
func cutBetween(s, open, close string) (string, bool) {
	_, rest, ok := strings.Cut(s, open)
	if !ok {
		return "", false
	}
	inner, _, ok := strings.Cut(rest, close)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(inner), true
}
