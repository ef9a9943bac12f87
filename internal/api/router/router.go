// Package router assembles the HTTP routes and middleware chain of the askhub API.
package router

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/askhub/hub/internal/api/handlers"
	"github.com/askhub/hub/internal/api/middleware"
)

const healthPath = "/health"

// Params holds the handlers and middleware settings. Ingest, Query, Chunks and Health are required.
type Params struct {
	Ingest *handlers.IngestHandler
	Query  *handlers.QueryHandler
	Chunks *handlers.ChunksHandler
	Health *handlers.HealthHandler
	// Metrics serves GET /metrics when the Prometheus exporter is enabled.
	Metrics http.Handler

	Logger              *slog.Logger
	CORSAllowedOrigins  []string
	MaxRequestBodyBytes int64
	BodyTooLarge        middleware.RequestBodyTooLargeRecorder
	CORSRejected        middleware.CORSRejectedRecorder

	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// New returns the root handler.
// Chain: RequestID -> otelhttp -> Logging -> CORS -> MaxBody -> mux, so access logs carry request and trace ids.
func New(p Params) http.Handler {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+healthPath, p.Health.Check)
	mux.HandleFunc("POST /v1/ingest", p.Ingest.Ingest)
	mux.HandleFunc("POST /v1/query", p.Query.Query)
	mux.HandleFunc("GET /v1/chunks", p.Chunks.List)

	if p.Metrics != nil {
		mux.Handle("GET /metrics", p.Metrics)
	}

	otelOpts := []otelhttp.Option{
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != healthPath
		}),
	}
	if p.MeterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(p.MeterProvider))
	}

	if p.TracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(p.TracerProvider))
	}

	var handler http.Handler = mux
	handler = middleware.MaxBody(p.MaxRequestBodyBytes, p.BodyTooLarge)(handler)
	handler = middleware.CORS(p.CORSAllowedOrigins, p.CORSRejected)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = otelhttp.NewHandler(handler, "askhub-api", otelOpts...)

	return middleware.RequestID(handler)
}
