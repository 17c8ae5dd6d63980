// Package otelretry instruments a retry.Template with OpenTelemetry
// traces and metrics: a span per execution, counters of attempts,
// failures and exhausted executions, and a counter of back-off waits
// (via WrapBackOff), in the style
// used throughout the wider instrumentation for client libraries this
// module was built alongside.
package otelretry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/relaypoint/retry"
)

const (
	instrumentationName    = "github.com/relaypoint/retry/otelretry"
	instrumentationVersion = "0.1.0"
)

// Config controls which signals the Listener emits and what static
// attributes are attached to them.
type Config struct {
	EnableTracing bool
	EnableMetrics bool
	Attributes    []attribute.KeyValue
}

// DefaultConfig enables both tracing and metrics with no extra
// attributes.
func DefaultConfig() *Config {
	return &Config{EnableTracing: true, EnableMetrics: true}
}

// instruments holds the OpenTelemetry metric instruments used by
// Listener, initialized once per NewListener call.
type instruments struct {
	attempts metric.Int64Counter
	failures metric.Int64Counter
	exhausts metric.Int64Counter
	backoffs metric.Int64Counter
}

func initInstruments(meter metric.Meter) *instruments {
	var err error
	in := &instruments{}

	in.attempts, err = meter.Int64Counter(
		"retry.attempts",
		metric.WithDescription("Number of retryable operation attempts"),
	)
	if err != nil {
		otel.Handle(err)
	}

	in.failures, err = meter.Int64Counter(
		"retry.failures",
		metric.WithDescription("Number of failed attempts"),
	)
	if err != nil {
		otel.Handle(err)
	}

	in.exhausts, err = meter.Int64Counter(
		"retry.exhausted",
		metric.WithDescription("Number of executions that exhausted their retry policy"),
	)
	if err != nil {
		otel.Handle(err)
	}

	in.backoffs, err = meter.Int64Counter(
		"retry.backoffs",
		metric.WithDescription("Number of back-off waits performed between attempts"),
	)
	if err != nil {
		otel.Handle(err)
	}

	return in
}

// Listener implements retry.Listener, recording a span covering the
// whole execution and counters for attempts, failures, exhaustion, and
// back-off waits. Construct one per Template (it is not itself attached
// to any particular execution); Open starts the span, Close ends it.
type Listener struct {
	cfg         *Config
	tracer      trace.Tracer
	instruments *instruments

	// spans maps a live RetryContext to its in-progress span. A
	// RetryContext is only ever driven by one goroutine at a time, but
	// several may be in flight concurrently across different Template
	// calls, hence the map rather than a single field.
	spans spanMap
}

// NewListener builds a Listener from cfg, falling back to
// DefaultConfig() when cfg is nil.
func NewListener(cfg *Config) *Listener {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Listener{
		cfg:         cfg,
		tracer:      otel.Tracer(instrumentationName, trace.WithInstrumentationVersion(instrumentationVersion)),
		instruments: initInstruments(otel.Meter(instrumentationName, metric.WithInstrumentationVersion(instrumentationVersion))),
		spans:       newSpanMap(),
	}
}

// Open implements retry.Listener.
func (l *Listener) Open(rc *retry.RetryContext) bool {
	if l.cfg.EnableTracing {
		_, span := l.tracer.Start(context.Background(), "retry.execute", trace.WithAttributes(l.cfg.Attributes...))
		l.spans.store(rc, span)
	}
	return true
}

// OnError implements retry.Listener.
func (l *Listener) OnError(rc *retry.RetryContext, err error) {
	if l.cfg.EnableMetrics && l.instruments.attempts != nil {
		l.instruments.attempts.Add(context.Background(), 1, metric.WithAttributes(l.cfg.Attributes...))
		l.instruments.failures.Add(context.Background(), 1, metric.WithAttributes(l.cfg.Attributes...))
	}
	if span, ok := l.spans.load(rc); ok {
		span.AddEvent("attempt failed", trace.WithAttributes(
			attribute.Int("retry.count", rc.RetryCount()),
			attribute.String("error", err.Error()),
		))
	}
}

// OnSuccess implements retry.Listener.
func (l *Listener) OnSuccess(rc *retry.RetryContext) {
	if l.cfg.EnableMetrics && l.instruments.attempts != nil {
		l.instruments.attempts.Add(context.Background(), 1, metric.WithAttributes(l.cfg.Attributes...))
	}
	if span, ok := l.spans.load(rc); ok {
		span.SetStatus(codes.Ok, "")
	}
}

// Close implements retry.Listener.
func (l *Listener) Close(rc *retry.RetryContext, finalErr error) {
	if finalErr != nil && l.cfg.EnableMetrics && l.instruments.exhausts != nil {
		l.instruments.exhausts.Add(context.Background(), 1, metric.WithAttributes(l.cfg.Attributes...))
	}
	span, ok := l.spans.load(rc)
	if !ok {
		return
	}
	if finalErr != nil {
		span.SetStatus(codes.Error, finalErr.Error())
		span.RecordError(finalErr)
	}
	span.End()
	l.spans.delete(rc)
}

// RecordBackOff lets a retry.BackOffPolicy wrapper (see WrapBackOff)
// report a performed wait to the metrics pipeline.
func (l *Listener) RecordBackOff(ctx context.Context) {
	if l.cfg.EnableMetrics && l.instruments.backoffs != nil {
		l.instruments.backoffs.Add(ctx, 1, metric.WithAttributes(l.cfg.Attributes...))
	}
}
