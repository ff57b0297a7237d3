// Package observe provides application-wide observability primitives:
// OpenTelemetry metrics, tracing, and HTTP middleware that ties them
// together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
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

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/vaani-labs/vaani"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// VerifyDuration tracks voice verification latency (encode excluded).
	VerifyDuration metric.Float64Histogram

	// STTDuration tracks speech-to-text transcription latency.
	STTDuration metric.Float64Histogram

	// NLUDuration tracks intent classification + tagging latency.
	NLUDuration metric.Float64Histogram

	// DispatchDuration tracks ledger dispatch latency.
	DispatchDuration metric.Float64Histogram

	// --- Distributions ---

	// VerificationScores records the cosine similarity of every computed
	// verification. Use with attribute:
	//   attribute.String("reason", ...)
	VerificationScores metric.Float64Histogram

	// --- Counters ---

	// Enrollments counts completed enrollments.
	Enrollments metric.Int64Counter

	// Verifications counts verification decisions. Use with attributes:
	//   attribute.String("reason", ...), attribute.Bool("verified", ...)
	Verifications metric.Int64Counter

	// DialogTurns counts dialog advances. Use with attribute:
	//   attribute.String("outcome", ...)
	DialogTurns metric.Int64Counter

	// DecodeErrors counts slot decode failures (malformed tags, length
	// mismatches).
	DecodeErrors metric.Int64Counter

	// ProviderRequests counts external provider calls. Use with attributes:
	//   attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider failures. Use with attribute:
	//   attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveConversations tracks conversations holding dialog state.
	ActiveConversations metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// the sub-second decision path plus slower model-server calls.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// scoreBuckets spans the cosine similarity range with finer resolution near
// typical thresholds.
var scoreBuckets = []float64{
	-1, -0.5, 0, 0.25, 0.5, 0.6, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1,
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the process-wide [Metrics] instance built from the
// global OTel meter provider. The first call constructs it; construction
// errors fall back to no-op instruments.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		m, err := NewMetrics(otel.GetMeterProvider())
		if err != nil {
			m = &Metrics{}
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

// NewMetrics constructs all metric instruments against mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)

	m := &Metrics{}
	var err error

	if m.VerifyDuration, err = meter.Float64Histogram(
		"vaani.verify.duration",
		metric.WithDescription("Voice verification latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if m.STTDuration, err = meter.Float64Histogram(
		"vaani.stt.duration",
		metric.WithDescription("Speech-to-text latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if m.NLUDuration, err = meter.Float64Histogram(
		"vaani.nlu.duration",
		metric.WithDescription("Intent classification and tagging latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if m.DispatchDuration, err = meter.Float64Histogram(
		"vaani.dispatch.duration",
		metric.WithDescription("Ledger dispatch latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if m.VerificationScores, err = meter.Float64Histogram(
		"vaani.verify.score",
		metric.WithDescription("Cosine similarity of verification probes"),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}

	if m.Enrollments, err = meter.Int64Counter(
		"vaani.enrollments",
		metric.WithDescription("Completed voice enrollments"),
	); err != nil {
		return nil, err
	}

	if m.Verifications, err = meter.Int64Counter(
		"vaani.verifications",
		metric.WithDescription("Verification decisions by reason"),
	); err != nil {
		return nil, err
	}

	if m.DialogTurns, err = meter.Int64Counter(
		"vaani.dialog.turns",
		metric.WithDescription("Dialog advances by outcome"),
	); err != nil {
		return nil, err
	}

	if m.DecodeErrors, err = meter.Int64Counter(
		"vaani.decode.errors",
		metric.WithDescription("Slot decode failures"),
	); err != nil {
		return nil, err
	}

	if m.ProviderRequests, err = meter.Int64Counter(
		"vaani.provider.requests",
		metric.WithDescription("External provider calls by kind and status"),
	); err != nil {
		return nil, err
	}

	if m.ProviderErrors, err = meter.Int64Counter(
		"vaani.provider.errors",
		metric.WithDescription("External provider failures by kind"),
	); err != nil {
		return nil, err
	}

	if m.ActiveConversations, err = meter.Int64UpDownCounter(
		"vaani.conversations.active",
		metric.WithDescription("Conversations currently holding dialog state"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"vaani.http.request.duration",
		metric.WithDescription("HTTP request processing time in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordProviderCall increments the request counter and, on error, the error
// counter for the given provider kind. Nil-safe on instruments so a
// zero-value Metrics acts as a no-op.
func (m *Metrics) RecordProviderCall(ctx context.Context, kind string, err error) {
	if m.ProviderRequests == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind), attribute.String("status", status)))
	if err != nil && m.ProviderErrors != nil {
		m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}
