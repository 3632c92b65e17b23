// Package telemetry wires OpenTelemetry metrics (exported through Prometheus)
// and an SDK tracer provider for turn spans.
package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"card-assistant/internal/common/logger"
)

type Telemetry struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	turnCounter    otelmetric.Int64Counter
	turnDuration   otelmetric.Float64Histogram
}

type options struct {
	registerer prometheus.Registerer
	spanExport sdktrace.SpanExporter
	logger     logger.Logger
}

type Option func(*options)

// WithRegisterer registers the Prometheus exporter somewhere other than the default registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithSpanExporter attaches a span exporter to the tracer provider.
func WithSpanExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) { o.spanExport = exp }
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds the providers. Failure to create the exporter degrades to a
// Telemetry that only traces; it never fails the caller.
func New(serviceName string, opts ...Option) *Telemetry {
	o := &options{logger: logger.NewNoOpLogger()}
	for _, opt := range opts {
		opt(o)
	}

	tpOpts := []sdktrace.TracerProviderOption{}
	if o.spanExport != nil {
		tpOpts = append(tpOpts, sdktrace.WithSyncer(o.spanExport))
	}
	tracerProvider := sdktrace.NewTracerProvider(tpOpts...)
	t := &Telemetry{
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
	}

	var promOpts []otelprom.Option
	if o.registerer != nil {
		promOpts = append(promOpts, otelprom.WithRegisterer(o.registerer))
	}
	exporter, err := otelprom.New(promOpts...)
	if err != nil {
		o.logger.Warn("failed to create prometheus exporter", map[string]interface{}{
			"error": err.Error(),
		})
		return t
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	turnCounter, _ := meter.Int64Counter(
		"turns.processed",
		otelmetric.WithDescription("Number of conversation turns processed"),
	)
	turnDuration, _ := meter.Float64Histogram(
		"turns.duration",
		otelmetric.WithDescription("Turn processing duration"),
		otelmetric.WithUnit("ms"),
	)

	t.meterProvider = provider
	t.turnCounter = turnCounter
	t.turnDuration = turnDuration
	return t
}

// Tracer returns the turn tracer; a nil Telemetry yields a no-op tracer.
func (t *Telemetry) Tracer() trace.Tracer {
	if t == nil || t.tracer == nil {
		return noop.NewTracerProvider().Tracer("")
	}
	return t.tracer
}

// StartTurn opens the span covering one turn.
func (t *Telemetry) StartTurn(ctx context.Context, intent, clientID string) (context.Context, trace.Span) {
	return t.Tracer().Start(ctx, "agent.handle_turn",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("intent", intent),
			attribute.String("client_id", clientID),
		),
	)
}

// EndTurn annotates span with the conversation ids and outcome and ends it.
func EndTurn(span trace.Span, traceID, spanID, outcome string, err error) {
	span.SetAttributes(
		attribute.String("conversation.trace_id", traceID),
		attribute.String("conversation.span_id", spanID),
		attribute.String("outcome", outcome),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	span.End()
}

func (t *Telemetry) RecordTurn(ctx context.Context, intent, outcome string, duration time.Duration) {
	if t == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("intent", intent),
		attribute.String("outcome", outcome),
	)
	if t.turnCounter != nil {
		t.turnCounter.Add(ctx, 1, attrs)
	}
	if t.turnDuration != nil {
		t.turnDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	if t.meterProvider != nil {
		errs = append(errs, t.meterProvider.Shutdown(ctx))
	}
	if t.tracerProvider != nil {
		errs = append(errs, t.tracerProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
