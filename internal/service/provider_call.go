package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/askhub/hub/internal/huberrors"
	"github.com/askhub/hub/internal/observability"
)

// Generator produces an answer for a prompt. Providers return "" when the model produced no text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// providerCaller runs one model provider call with the optional timeout, timing metric and error wrapping
// shared by the ingest and query pipelines.
type providerCaller struct {
	provider string
	timeout  time.Duration
	metrics  observability.RAGMetrics
	logger   *slog.Logger
}

// call runs fn and wraps any failure as a ProviderError. There are no retries.
func (p providerCaller) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)

	if p.metrics != nil {
		p.metrics.RecordProviderCall(ctx, op, time.Since(start), err)
	}

	if err != nil {
		p.logger.ErrorContext(ctx, "model provider call failed",
			"provider", p.provider, "op", op, "duration", time.Since(start), "error", err)

		return huberrors.NewProviderError(p.provider, op, err)
	}

	return nil
}
