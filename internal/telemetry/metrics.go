// Package telemetry holds the OpenTelemetry instruments used by the research pipeline.
// Without a configured provider the global otel API is a no-op, so instruments
// are always safe to call.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies this module's tracer and meter.
const InstrumentationName = "github.com/custodia-labs/sercha-research"

// Metrics holds the pipeline instruments.
type Metrics struct {
	RetrievalFallbacks metric.Int64Counter
	ParseFailures      metric.Int64Counter
	SynthesisFailures  metric.Int64Counter
	UngroundedCites    metric.Int64Counter
	StageDuration      metric.Float64Histogram
}

// NewMetrics creates the pipeline instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	fallbacks, err := meter.Int64Counter(
		"research.retrieval.fallbacks",
		metric.WithDescription("Retrievals that used the leading-chunks fallback"),
	)
	if err != nil {
		return nil, err
	}

	parseFailures, err := meter.Int64Counter(
		"research.ingest.parse_failures",
		metric.WithDescription("Sources that failed to parse"),
	)
	if err != nil {
		return nil, err
	}

	synthesisFailures, err := meter.Int64Counter(
		"research.synthesis.failures",
		metric.WithDescription("Synthesis requests that failed or returned an invalid report"),
	)
	if err != nil {
		return nil, err
	}

	ungrounded, err := meter.Int64Counter(
		"research.grounding.ungrounded",
		metric.WithDescription("Citations whose text was not found in the evidence set"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"research.stage.duration",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RetrievalFallbacks: fallbacks,
		ParseFailures:      parseFailures,
		SynthesisFailures:  synthesisFailures,
		UngroundedCites:    ungrounded,
		StageDuration:      stageDuration,
	}, nil
}

// Default returns instruments on the global meter provider,
// falling back to no-op instruments if creation fails.
func Default() *Metrics {
	m, err := NewMetrics(otel.Meter(InstrumentationName))
	if err != nil {
		m, _ = NewMetrics(noop.NewMeterProvider().Meter(InstrumentationName))
	}
	return m
}

// Tracer returns the module tracer from the global tracer provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// RecordFallback counts a retrieval fallback.
func (m *Metrics) RecordFallback(ctx context.Context, reason string) {
	m.RetrievalFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordParseFailure counts a source that failed to parse.
func (m *Metrics) RecordParseFailure(ctx context.Context, sourceType string) {
	m.ParseFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("source.type", sourceType)))
}

// RecordSynthesisFailure counts a failed synthesis.
func (m *Metrics) RecordSynthesisFailure(ctx context.Context, stage string) {
	m.SynthesisFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordUngrounded counts citations that failed verification.
func (m *Metrics) RecordUngrounded(ctx context.Context, n int, mode string) {
	if n == 0 {
		return
	}
	m.UngroundedCites.Add(ctx, int64(n), metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordStage records how long a pipeline stage took.
func (m *Metrics) RecordStage(ctx context.Context, stage string, seconds float64) {
	m.StageDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("stage", stage)))
}
