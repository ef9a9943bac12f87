package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/askhub/hub/internal/models"
)

// TopK is the number of candidates a query is answered from.
const TopK = 5

// DimensionPolicy controls how stored embeddings whose length differs from the query vector are scored.
type DimensionPolicy string

const (
	// DimensionPolicyPrefix compares the shared prefix of both vectors.
	DimensionPolicyPrefix DimensionPolicy = "prefix"
	// DimensionPolicyStrict scores a non-empty embedding of a different length as 0.
	DimensionPolicyStrict DimensionPolicy = "strict"
)

// ErrUnknownDimensionPolicy is returned by ParseDimensionPolicy for unsupported values.
var ErrUnknownDimensionPolicy = errors.New("unknown embedding dimension policy")

// ParseDimensionPolicy parses a policy name; empty means DimensionPolicyPrefix.
func ParseDimensionPolicy(s string) (DimensionPolicy, error) {
	switch DimensionPolicy(s) {
	case "", DimensionPolicyPrefix:
		return DimensionPolicyPrefix, nil
	case DimensionPolicyStrict:
		return DimensionPolicyStrict, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDimensionPolicy, s)
	}
}

// Ranker returns the k stored chunks most similar to a query vector.
// An approximate index can replace LinearRanker behind this interface.
type Ranker interface {
	Rank(ctx context.Context, query []float32, k int) ([]models.ScoredCandidate, error)
}

// ChunkLister provides every stored chunk in insertion order.
type ChunkLister interface {
	ListAll(ctx context.Context) ([]models.ChunkRecord, error)
}

// LinearRanker scores every stored record on each query (exact scan, O(N·D)).
type LinearRanker struct {
	store  ChunkLister
	policy DimensionPolicy
	logger *slog.Logger
	tracer trace.Tracer
}

// LinearRankerOption configures a LinearRanker.
type LinearRankerOption func(*LinearRanker)

// WithDimensionPolicy sets how mismatched embedding lengths are scored.
func WithDimensionPolicy(policy DimensionPolicy) LinearRankerOption {
	return func(r *LinearRanker) {
		r.policy = policy
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) LinearRankerOption {
	return func(r *LinearRanker) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewLinearRanker creates a ranker that scans store on every call.
func NewLinearRanker(store ChunkLister, opts ...LinearRankerOption) *LinearRanker {
	r := &LinearRanker{
		store:  store,
		policy: DimensionPolicyPrefix,
		logger: slog.Default(),
		tracer: otel.Tracer("github.com/askhub/hub/internal/ranking"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Rank lists all records, scores each against query and returns the top k in descending score order.
func (r *LinearRanker) Rank(ctx context.Context, query []float32, k int) ([]models.ScoredCandidate, error) {
	ctx, span := r.tracer.Start(ctx, "rank")
	defer span.End()

	records, err := r.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}

	scored := make([]models.ScoredCandidate, len(records))
	mismatched := 0

	for i := range records {
		score, ok := r.score(query, records[i].Embedding)
		if !ok {
			mismatched++
		}

		scored[i] = models.ScoredCandidate{ChunkRecord: records[i], Score: score}
	}

	if mismatched > 0 {
		r.logger.DebugContext(ctx, "rank: embeddings with mismatched dimensions scored 0",
			"count", mismatched, "query_dimensions", len(query))
	}

	top := SelectTop(scored, k)

	span.SetAttributes(
		attribute.Int("rank.records", len(records)),
		attribute.Int("rank.returned", len(top)),
	)

	return top, nil
}

// score applies the dimension policy; ok is false when strict mode zeroed a mismatched vector.
func (r *LinearRanker) score(query, embedding []float32) (float64, bool) {
	if r.policy == DimensionPolicyStrict && len(embedding) > 0 && len(embedding) != len(query) {
		return 0, false
	}

	return Cosine(query, embedding), true
}

// SelectTop sorts candidates by descending score, keeping the original order among equal scores,
// and returns the first k. The input slice is reordered in place. k <= 0 yields an empty result.
func SelectTop(candidates []models.ScoredCandidate, k int) []models.ScoredCandidate {
	if k <= 0 {
		return []models.ScoredCandidate{}
	}

	slices.SortStableFunc(candidates, func(a, b models.ScoredCandidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	return candidates[:min(k, len(candidates))]
}
