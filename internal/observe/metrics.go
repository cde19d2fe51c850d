// Package observe provides application-wide observability primitives for
// the Scoop server: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Scoop metrics.
const meterName = "github.com/LBKdotdev/the-scoop"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// ParseDuration tracks voice transcript parse latency.
	ParseDuration metric.Float64Histogram

	// BoostDuration tracks the LLM secondary interpretation round-trip.
	BoostDuration metric.Float64Histogram

	// --- Counters ---

	// ParseOutcomes counts parse results by route. Use with attribute:
	//   attribute.String("route", ...) — "auto", "confirm", "boosted",
	//   "fallback", "rejected", "command"
	ParseOutcomes metric.Int64Counter

	// BoostRequests counts boost API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	BoostRequests metric.Int64Counter

	// AppliedEntries counts inventory entries applied through voice. Use with
	// attributes:
	//   attribute.String("product_type", ...), attribute.String("action", ...)
	AppliedEntries metric.Int64Counter

	// UndoOperations counts undo requests. Use with attribute:
	//   attribute.String("status", ...) — "undone" or "empty"
	UndoOperations metric.Int64Counter

	// --- Error counters ---

	// BoostErrors counts boost failures by provider.
	BoostErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live voice-entry sessions.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Parsing
// is sub-millisecond; the boost round-trip can take several seconds.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ParseDuration, err = m.Float64Histogram("scoop.parse.duration",
		metric.WithDescription("Latency of voice transcript parsing."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.BoostDuration, err = m.Float64Histogram("scoop.boost.duration",
		metric.WithDescription("Latency of LLM secondary interpretation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ParseOutcomes, err = m.Int64Counter("scoop.parse.outcomes",
		metric.WithDescription("Total parse outcomes by route."),
	); err != nil {
		return nil, err
	}
	if met.BoostRequests, err = m.Int64Counter("scoop.boost.requests",
		metric.WithDescription("Total boost API requests by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.AppliedEntries, err = m.Int64Counter("scoop.applied.entries",
		metric.WithDescription("Total inventory entries applied through voice, by product type and action."),
	); err != nil {
		return nil, err
	}
	if met.UndoOperations, err = m.Int64Counter("scoop.undo.operations",
		metric.WithDescription("Total undo requests by status."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.BoostErrors, err = m.Int64Counter("scoop.boost.errors",
		metric.WithDescription("Total boost failures by provider."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("scoop.active_sessions",
		metric.WithDescription("Number of live voice-entry sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("scoop.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordParseOutcome records one parse outcome by route.
func (m *Metrics) RecordParseOutcome(ctx context.Context, route string) {
	m.ParseOutcomes.Add(ctx, 1,
		metric.WithAttributes(attribute.String("route", route)),
	)
}

// RecordBoostRequest records a boost request with its status.
func (m *Metrics) RecordBoostRequest(ctx context.Context, provider, status string) {
	m.BoostRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

// RecordBoostError records a boost failure.
func (m *Metrics) RecordBoostError(ctx context.Context, provider string) {
	m.BoostErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("provider", provider)),
	)
}

// RecordAppliedEntry records one applied inventory entry.
func (m *Metrics) RecordAppliedEntry(ctx context.Context, productType, action string) {
	m.AppliedEntries.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("product_type", productType),
			attribute.String("action", action),
		),
	)
}

// RecordUndo records one undo request.
func (m *Metrics) RecordUndo(ctx context.Context, status string) {
	m.UndoOperations.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}
