package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CacheMetrics records lookups against the in-process loader caches. The cache label is bounded by
// AllowedCacheNames.
type CacheMetrics interface {
	// RecordLookup counts one lookup as a hit or a miss.
	RecordLookup(ctx context.Context, cacheName string, hit bool)
	// RecordLoadError counts a miss whose loader failed. Failed loads are never cached.
	RecordLoadError(ctx context.Context, cacheName string)
}

type cacheMetrics struct {
	hits       metric.Int64Counter
	misses     metric.Int64Counter
	loadErrors metric.Int64Counter
}

// NewCacheMetrics creates CacheMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewCacheMetrics(meter metric.Meter) (CacheMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	m := &cacheMetrics{}

	counters := []struct {
		name string
		desc string
		dst  *metric.Int64Counter
	}{
		{MetricNameCacheHits, "Cache lookups answered without calling the loader.", &m.hits},
		{MetricNameCacheMisses, "Cache lookups that called the loader (the embedding provider for query_embedding).", &m.misses},
		{MetricNameCacheLoadErrors, "Cache misses whose loader returned an error.", &m.loadErrors},
	}

	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("1"))
		if err != nil {
			return nil, fmt.Errorf("create %s counter: %w", c.name, err)
		}

		*c.dst = counter
	}

	return m, nil
}

func (c *cacheMetrics) RecordLookup(ctx context.Context, cacheName string, hit bool) {
	opt := metric.WithAttributes(attribute.String(AttrCache, NormalizeCacheName(cacheName)))

	if hit {
		c.hits.Add(ctx, 1, opt)

		return
	}

	c.misses.Add(ctx, 1, opt)
}

func (c *cacheMetrics) RecordLoadError(ctx context.Context, cacheName string) {
	c.loadErrors.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrCache, NormalizeCacheName(cacheName))))
}

// RegisterCacheEntries exports the current entry count of a cache as a gauge, read from entries at
// collection time. A nil meter registers nothing.
func RegisterCacheEntries(meter metric.Meter, cacheName string, entries func() int) error {
	if meter == nil {
		return nil
	}

	attrs := metric.WithAttributes(attribute.String(AttrCache, NormalizeCacheName(cacheName)))

	_, err := meter.Int64ObservableGauge(MetricNameCacheEntries,
		metric.WithDescription("Entries held by the cache, including expired ones not yet evicted."),
		metric.WithUnit("1"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(entries()), attrs)

			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("create %s gauge: %w", MetricNameCacheEntries, err)
	}

	return nil
}
