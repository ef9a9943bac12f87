// Package tests runs the askhub API end to end through the real handler stack.
package tests

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/askhub/hub/internal/api/handlers"
	"github.com/askhub/hub/internal/api/router"
	"github.com/askhub/hub/internal/classifier"
	"github.com/askhub/hub/internal/embeddings"
	"github.com/askhub/hub/internal/observability"
	"github.com/askhub/hub/internal/ranking"
	"github.com/askhub/hub/internal/repository"
	"github.com/askhub/hub/internal/service"
	"github.com/askhub/hub/pkg/cache"
)

const greetingAnswer = "Hello! Ask me anything about your documents."

// scriptedGenerator answers greetings with greetingAnswer and questions with the text of the top-ranked
// context block, or "" when the context is empty.
type scriptedGenerator struct {
	mu      sync.Mutex
	prompts []string
	err     error
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	if g.err != nil {
		return "", g.err
	}

	if !strings.Contains(prompt, "\nQuestion: ") {
		return greetingAnswer, nil
	}

	lines := strings.Split(prompt, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "[#1 |") && i+1 < len(lines) {
			return lines[i+1], nil
		}
	}

	return "", nil
}

type testStack struct {
	server    *httptest.Server
	store     repository.ChunkStore
	generator *scriptedGenerator
	metrics   http.Handler
}

type stackOptions struct {
	store       repository.ChunkStore
	gateway     embeddings.Gateway
	noGateway   bool
	noGenerator bool
	generator   *scriptedGenerator
	meter       *sdkmetric.MeterProvider
	metrics     http.Handler
}

// setupTestServer wires the production handler stack around the given store, the mock embedding gateway
// and a scripted generator.
func setupTestServer(t *testing.T, opts stackOptions) *testStack {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := opts.store
	if store == nil {
		store = repository.NewMemoryChunksRepository()
	}

	var gateway embeddings.Gateway = embeddings.NewMock()
	if opts.gateway != nil {
		gateway = opts.gateway
	}

	if opts.noGateway {
		gateway = nil
	}

	generator := opts.generator
	if generator == nil {
		generator = &scriptedGenerator{}
	}

	var gen service.Generator = generator
	if opts.noGenerator {
		gen = nil
	}

	var (
		ragMetrics   observability.RAGMetrics
		cacheMetrics observability.CacheMetrics
		apiMetrics   observability.APIMetrics
	)

	if opts.meter != nil {
		metrics, err := observability.NewMetrics(opts.meter.Meter(observability.MeterScope))
		require.NoError(t, err)

		ragMetrics, cacheMetrics, apiMetrics = metrics.RAG, metrics.Cache, metrics.API
	}

	queryCache, err := cache.NewLoaderCache[string, []float32](100, 0, func(s string) string { return s })
	require.NoError(t, err)

	ingest := service.NewIngestService(service.IngestServiceParams{
		Gateway:       gateway,
		ProviderName:  "mock",
		Store:         store,
		ChunkMaxChars: 800,
		Metrics:       ragMetrics,
		Logger:        logger,
	})

	query := service.NewQueryService(service.QueryServiceParams{
		Gateway:            gateway,
		EmbeddingProvider:  "mock",
		Generator:          gen,
		GenerationProvider: "scripted",
		Ranker:             ranking.NewLinearRanker(store, ranking.WithLogger(logger)),
		Classifier:         classifier.New(nil, 0),
		QueryCache:         queryCache,
		Metrics:            ragMetrics,
		CacheMetrics:       cacheMetrics,
		Logger:             logger,
	})

	params := router.Params{
		Ingest:              handlers.NewIngestHandler(ingest),
		Query:               handlers.NewQueryHandler(query),
		Chunks:              handlers.NewChunksHandler(service.NewChunksService(store)),
		Health:              handlers.NewHealthHandler(),
		Metrics:             opts.metrics,
		Logger:              logger,
		CORSAllowedOrigins:  []string{"*"},
		MaxRequestBodyBytes: 1 << 20,
	}
	if apiMetrics != nil {
		params.BodyTooLarge = apiMetrics
		params.CORSRejected = apiMetrics
	}

	if opts.meter != nil {
		params.MeterProvider = opts.meter
	}

	server := httptest.NewServer(router.New(params))
	t.Cleanup(server.Close)

	return &testStack{server: server, store: store, generator: generator, metrics: opts.metrics}
}
