package embeddings

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited delays calls to the wrapped Gateway so that at most rps provider requests start per second.
// A batch counts as one request. It never retries.
type RateLimited struct {
	next    Gateway
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a token bucket of rps tokens per second and a burst of 1.
func NewRateLimited(next Gateway, rps float64) *RateLimited {
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// EmbedOne waits for a token, then delegates.
func (r *RateLimited) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit: %w", err)
	}

	return r.next.EmbedOne(ctx, text)
}

// EmbedMany waits for a token, then delegates.
func (r *RateLimited) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit: %w", err)
	}

	return r.next.EmbedMany(ctx, texts)
}

var _ Gateway = (*RateLimited)(nil)
