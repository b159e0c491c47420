package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "yatube"

// Tracer starts every span the blog records. InitTracing replaces it.
var Tracer trace.Tracer = otel.Tracer(serviceName)

// TracingConfig mirrors the TRACING_* settings.
type TracingConfig struct {
	Enabled      bool
	Exporter     string // "stdout" or "otlp"
	OTLPEndpoint string
	SamplerRatio float64
	Environment  string
	Version      string
}

// InitTracing installs a tracer provider and W3C propagation. With tracing
// disabled it leaves the no-op global provider in place. The returned
// function flushes pending spans.
func InitTracing(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		Tracer = otel.Tracer(serviceName)
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", cfg.Exporter, err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(cfg.Version),
		attribute.String("environment", cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.SamplerRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	Tracer = tp.Tracer(serviceName)
	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	if cfg.Exporter == "otlp" {
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
	}
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}

// newSampler keeps the caller's decision for child spans and samples new
// traces at ratio, clamped to [0, 1].
func newSampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.AlwaysSample()
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// StartService opens an internal span named "<service>.<method>".
func StartService(ctx context.Context, service, method string) (context.Context, trace.Span) {
	return Tracer.Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("service.name", service),
			attribute.String("service.method", method),
		),
	)
}

// StartQuery opens a span around a repository query on table.
func StartQuery(ctx context.Context, operation, table string) (context.Context, trace.Span) {
	return Tracer.Start(ctx, "repository."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("db.operation", operation),
			attribute.String("db.table", table),
		),
	)
}

// StartCache opens a client span for a page cache call.
func StartCache(ctx context.Context, backend, operation string) (context.Context, trace.Span) {
	return Tracer.Start(ctx, "cache."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cache.backend", backend),
			attribute.String("cache.operation", operation),
		),
	)
}

// EndSpan records err (if any) and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
