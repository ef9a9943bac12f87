package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// MeterScope is the instrumentation scope of every askhub instrument.
const MeterScope = "github.com/askhub/hub/internal/observability"

// Metrics holds all askhub metric collectors. When metrics are disabled the struct itself is nil.
// Components accept the interface fields and already handle nil.
type Metrics struct {
	RAG   RAGMetrics
	Cache CacheMetrics
	API   APIMetrics
}

// NewMetrics creates RAGMetrics, CacheMetrics and APIMetrics from the given meter.
// Returns (nil, nil) when meter is nil (metrics disabled).
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	rag, err := NewRAGMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("rag metrics: %w", err)
	}

	cache, err := NewCacheMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("cache metrics: %w", err)
	}

	api, err := NewAPIMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("api metrics: %w", err)
	}

	return &Metrics{
		RAG:   rag,
		Cache: cache,
		API:   api,
	}, nil
}
