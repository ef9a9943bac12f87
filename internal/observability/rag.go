package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RAGMetrics records ingestion and query pipeline metrics.
// Methods accept ctx for future exemplar support.
type RAGMetrics interface {
	RecordQuery(ctx context.Context, branch string)
	RecordIngestedChunks(ctx context.Context, count int)
	RecordEmptyEmbeddings(ctx context.Context, count int)
	RecordProviderCall(ctx context.Context, op string, duration time.Duration, err error)
	RecordFallbackAnswer(ctx context.Context)
}

// ragMetrics implements RAGMetrics.
type ragMetrics struct {
	queries          metric.Int64Counter
	ingestedChunks   metric.Int64Counter
	emptyEmbeddings  metric.Int64Counter
	providerErrors   metric.Int64Counter
	providerDuration metric.Float64Histogram
	fallbackAnswers  metric.Int64Counter
}

// NewRAGMetrics creates RAGMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewRAGMetrics(meter metric.Meter) (RAGMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	queries, err := meter.Int64Counter(
		MetricNameQueries,
		metric.WithDescription("Total questions answered, by branch (greeting, question)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create queries counter: %w", err)
	}

	ingestedChunks, err := meter.Int64Counter(
		MetricNameIngestedChunks,
		metric.WithDescription("Total chunk records stored by ingestion"),
	)
	if err != nil {
		return nil, fmt.Errorf("create ingested chunks counter: %w", err)
	}

	emptyEmbeddings, err := meter.Int64Counter(
		MetricNameEmptyEmbeddings,
		metric.WithDescription("Chunks stored without an embedding because the provider returned none for them"),
	)
	if err != nil {
		return nil, fmt.Errorf("create empty embeddings counter: %w", err)
	}

	providerErrors, err := meter.Int64Counter(
		MetricNameProviderErrors,
		metric.WithDescription("Total failed model provider calls, by operation"),
	)
	if err != nil {
		return nil, fmt.Errorf("create provider errors counter: %w", err)
	}

	providerDuration, err := meter.Float64Histogram(
		MetricNameProviderDuration,
		metric.WithDescription("Model provider call duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create provider duration histogram: %w", err)
	}

	fallbackAnswers, err := meter.Int64Counter(
		MetricNameFallbackAnswers,
		metric.WithDescription("Answers replaced by the fallback text because the generator returned nothing"),
	)
	if err != nil {
		return nil, fmt.Errorf("create fallback answers counter: %w", err)
	}

	return &ragMetrics{
		queries:          queries,
		ingestedChunks:   ingestedChunks,
		emptyEmbeddings:  emptyEmbeddings,
		providerErrors:   providerErrors,
		providerDuration: providerDuration,
		fallbackAnswers:  fallbackAnswers,
	}, nil
}

func (r *ragMetrics) RecordQuery(ctx context.Context, branch string) {
	branch = NormalizeReason(branch, AllowedBranches)
	r.queries.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrBranch, branch)))
}

func (r *ragMetrics) RecordIngestedChunks(ctx context.Context, count int) {
	r.ingestedChunks.Add(ctx, int64(count))
}

func (r *ragMetrics) RecordEmptyEmbeddings(ctx context.Context, count int) {
	if count <= 0 {
		return
	}

	r.emptyEmbeddings.Add(ctx, int64(count))
}

func (r *ragMetrics) RecordProviderCall(ctx context.Context, op string, duration time.Duration, err error) {
	op = NormalizeReason(op, AllowedProviderOps)

	r.providerDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrOp, op),
		attribute.String(AttrStatus, StatusFromError(err)),
	))

	if err != nil {
		r.providerErrors.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOp, op)))
	}
}

func (r *ragMetrics) RecordFallbackAnswer(ctx context.Context) {
	r.fallbackAnswers.Add(ctx, 1)
}
