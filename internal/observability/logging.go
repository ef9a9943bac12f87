package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// ParseLevel maps LOG_LEVEL (debug, info, warn, error) to a slog level. Unknown values are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a text logger at level whose records carry trace and request IDs from the context.
func NewLogger(w io.Writer, level string) *slog.Logger {
	inner := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})

	return slog.New(NewTraceContextHandler(inner))
}

type requestIDKey struct{}

// RequestIDKey is the context key under which middleware.RequestID stores the X-Request-ID value.
var RequestIDKey = &requestIDKey{}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestIDFromContext returns the request ID stored by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)

	return id
}

// TraceContextHandler decorates every record with the request_id, trace_id and span_id found in its context.
type TraceContextHandler struct {
	slog.Handler
}

// NewTraceContextHandler wraps inner.
func NewTraceContextHandler(inner slog.Handler) *TraceContextHandler {
	return &TraceContextHandler{Handler: inner}
}

// Handle appends the context attributes and forwards r.
func (h *TraceContextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(contextAttrs(ctx)...)

	if err := h.Handler.Handle(ctx, r); err != nil {
		return fmt.Errorf("log handler: %w", err)
	}

	return nil
}

// WithAttrs keeps the decoration on derived loggers.
func (h *TraceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewTraceContextHandler(h.Handler.WithAttrs(attrs))
}

// WithGroup keeps the decoration on derived loggers.
func (h *TraceContextHandler) WithGroup(name string) slog.Handler {
	return NewTraceContextHandler(h.Handler.WithGroup(name))
}

func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr

	if id := RequestIDFromContext(ctx); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	return attrs
}
