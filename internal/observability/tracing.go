package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for askhub spans.
const TracerName = "github.com/askhub/hub"

// Tracer returns the askhub tracer from the global provider. With tracing disabled it is a no-op tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// StartSpan starts an internal span named name on the askhub tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan marks span as failed when err is non-nil, then ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

// newSpanExporter builds the exporter named by OTEL_TRACES_EXPORTER. ok is false for an unknown name.
// The OTLP exporter reads OTEL_EXPORTER_OTLP_ENDPOINT itself.
func newSpanExporter(ctx context.Context, name string) (exp sdktrace.SpanExporter, ok bool, err error) {
	switch name {
	case "otlp":
		exp, err = otlptracehttp.New(ctx)
	case "stdout":
		exp, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, false, nil
	}

	if err != nil {
		return nil, true, fmt.Errorf("create %s trace exporter: %w", name, err)
	}

	return exp, true, nil
}
