// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"mentor-match-workers/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability bundles the OTel meter and tracer used by the matching
// engine and the workers. A nil *Observability is valid and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer

	jobCounter   otelmetric.Int64Counter
	jobDuration  otelmetric.Float64Histogram
	rankCounter  otelmetric.Int64Counter
	rankDuration otelmetric.Float64Histogram
	rankResults  otelmetric.Int64Histogram
}

// New exports metrics through the Prometheus registry served on /metrics.
func New(serviceName string, log logger.Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Error("failed to create prometheus exporter", map[string]interface{}{"error": err.Error()})
		return &Observability{tracer: noop.NewTracerProvider().Tracer(serviceName)}
	}
	obs := NewWithReader(serviceName, exporter)
	otel.SetMeterProvider(obs.meterProvider)
	otel.SetTracerProvider(obs.tracerProvider)
	return obs
}

// NewWithReader wires a custom metric reader and span processors. Tests pass
// a ManualReader and a span recorder.
func NewWithReader(serviceName string, reader metric.Reader, traceOpts ...sdktrace.TracerProviderOption) *Observability {
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	provider := metric.NewMeterProvider(metric.WithReader(reader), metric.WithResource(res))
	tp := sdktrace.NewTracerProvider(append([]sdktrace.TracerProviderOption{sdktrace.WithResource(res)}, traceOpts...)...)

	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	rankCounter, _ := meter.Int64Counter(
		"matching.rank.requests",
		otelmetric.WithDescription("Number of ranking requests"),
	)

	rankDuration, _ := meter.Float64Histogram(
		"matching.rank.duration",
		otelmetric.WithDescription("Ranking duration"),
		otelmetric.WithUnit("ms"),
	)

	rankResults, _ := meter.Int64Histogram(
		"matching.rank.results",
		otelmetric.WithDescription("Number of mentors returned per ranking"),
	)

	return &Observability{
		meterProvider:  provider,
		tracerProvider: tp,
		meter:          meter,
		tracer:         tp.Tracer(serviceName),
		jobCounter:     jobCounter,
		jobDuration:    jobDuration,
		rankCounter:    rankCounter,
		rankDuration:   rankDuration,
		rankResults:    rankResults,
	}
}

func (o *Observability) Tracer() trace.Tracer {
	if o == nil || o.tracer == nil {
		return noop.NewTracerProvider().Tracer("")
	}
	return o.tracer
}

func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o != nil && o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o != nil && o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

// RecordRanking records one finished ranking call.
func (o *Observability) RecordRanking(ctx context.Context, backend, outcome string, results int, duration time.Duration) {
	if o == nil || o.rankCounter == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("outcome", outcome),
	)
	o.rankCounter.Add(ctx, 1, attrs)
	o.rankDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	o.rankResults.Record(ctx, int64(results), attrs)
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		o.tracerProvider.Shutdown(ctx)
	}
}
