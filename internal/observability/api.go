package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// APIMetrics records requests the HTTP middleware turns away before they reach a handler.
type APIMetrics interface {
	RecordRequestBodyTooLarge(ctx context.Context)
	RecordCORSRejected(ctx context.Context)
}

type apiMetrics struct {
	bodyTooLarge metric.Int64Counter
	corsRejected metric.Int64Counter
}

// NewAPIMetrics creates APIMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewAPIMetrics(meter metric.Meter) (APIMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	bodyTooLarge, err := meter.Int64Counter(
		MetricNameRequestBodyTooLarge,
		metric.WithDescription("Requests answered with 413 because the body exceeded MAX_REQUEST_BODY_BYTES."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create request body too large counter: %w", err)
	}

	corsRejected, err := meter.Int64Counter(
		MetricNameCORSRejected,
		metric.WithDescription("Cross-origin requests whose Origin is not in CORS_ALLOWED_ORIGINS."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cors rejected counter: %w", err)
	}

	return &apiMetrics{bodyTooLarge: bodyTooLarge, corsRejected: corsRejected}, nil
}

func (a *apiMetrics) RecordRequestBodyTooLarge(ctx context.Context) {
	a.bodyTooLarge.Add(ctx, 1)
}

func (a *apiMetrics) RecordCORSRejected(ctx context.Context) {
	a.corsRejected.Add(ctx, 1)
}
