package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/askhub/hub/internal/api/handlers"
	"github.com/askhub/hub/internal/api/router"
	"github.com/askhub/hub/internal/classifier"
	"github.com/askhub/hub/internal/config"
	"github.com/askhub/hub/internal/observability"
	"github.com/askhub/hub/internal/ranking"
	"github.com/askhub/hub/internal/repository"
	"github.com/askhub/hub/internal/service"
	"github.com/askhub/hub/pkg/cache"
	"github.com/askhub/hub/pkg/database"
)

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg            *config.Config
	server         *http.Server
	closeStore     func() error
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
}

var errUnsupportedStore = errors.New("unsupported store backend")

// openStore opens the configured chunk store. The returned close function is never nil.
func openStore(ctx context.Context, cfg *config.Config) (repository.ChunkStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreBackend {
	case config.StoreMemory:
		slog.Warn("using in-memory chunk store; chunks are lost on restart")

		return repository.NewMemoryChunksRepository(), noop, nil
	case config.StorePostgres:
		if err := repository.EnsureChunksSchema(ctx, cfg.DatabaseURL); err != nil {
			return nil, noop, err
		}

		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.WithAfterConnect(pgxvec.RegisterTypes))
		if err != nil {
			return nil, noop, fmt.Errorf("connect to database: %w", err)
		}

		return repository.NewChunksRepository(pool), func() error {
			pool.Close()

			return nil
		}, nil
	case config.StoreSQLite:
		repo, err := repository.OpenSQLiteChunksRepository(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite store: %w", err)
		}

		slog.Info("using sqlite chunk store", "path", cfg.SQLitePath)

		return repo, repo.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: %s", errUnsupportedStore, cfg.StoreBackend)
	}
}

// setupObservability creates the meter and tracer providers that are enabled in cfg and installs them globally.
// metricsHandler is non-nil only for the Prometheus exporter.
func setupObservability(ctx context.Context, cfg *config.Config) (
	meterProvider *sdkmetric.MeterProvider,
	metricsHandler http.Handler,
	metrics *observability.Metrics,
	tracerProvider *sdktrace.TracerProvider,
	err error,
) {
	if cfg.OtelMetricsExporter == "" {
		slog.Warn("metrics not enabled (OTEL_METRICS_EXPORTER empty or unset)")
	} else {
		meterProvider, metricsHandler, err = observability.NewMeterProvider(ctx, cfg)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("create meter provider: %w", err)
		}
	}

	if meterProvider != nil {
		otel.SetMeterProvider(meterProvider)

		metrics, err = observability.NewMetrics(meterProvider.Meter(observability.MeterScope))
		if err != nil {
			discardObservability(nil, meterProvider)

			return nil, nil, nil, nil, fmt.Errorf("create metrics: %w", err)
		}
	}

	if cfg.OtelTracesExporter == "" {
		slog.Warn("tracing not enabled (OTEL_TRACES_EXPORTER empty or unset)")
	} else {
		tracerProvider, err = observability.NewTracerProvider(ctx, cfg)
		if err != nil {
			discardObservability(nil, meterProvider)

			return nil, nil, nil, nil, fmt.Errorf("create tracer provider: %w", err)
		}
	}

	if tracerProvider != nil {
		otel.SetTracerProvider(tracerProvider)
	}

	return meterProvider, metricsHandler, metrics, tracerProvider, nil
}

// NewApp builds and wires all components. It does not start the HTTP server; call Run for that.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	meterProvider, metricsHandler, metrics, tracerProvider, err := setupObservability(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cleanup := func() {
		discardObservability(tracerProvider, meterProvider)
	}

	var (
		ragMetrics   observability.RAGMetrics
		cacheMetrics observability.CacheMetrics
		apiMetrics   observability.APIMetrics
	)
	if metrics != nil {
		ragMetrics = metrics.RAG
		cacheMetrics = metrics.Cache
		apiMetrics = metrics.API
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		cleanup()

		return nil, err
	}

	gateway, err := newEmbeddingGateway(ctx, cfg)
	if err != nil {
		_ = closeStore()

		cleanup()

		return nil, err
	}

	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		_ = closeStore()

		cleanup()

		return nil, err
	}

	policy, err := ranking.ParseDimensionPolicy(cfg.EmbeddingDimensionPolicy)
	if err != nil {
		_ = closeStore()

		cleanup()

		return nil, fmt.Errorf("parse dimension policy: %w", err)
	}

	var queryCache *cache.LoaderCache[string, []float32]
	if cfg.QueryCacheSize > 0 {
		queryCache, err = cache.NewLoaderCache[string, []float32](cfg.QueryCacheSize, cfg.QueryCacheTTL,
			func(s string) string { return s })
		if err != nil {
			_ = closeStore()

			cleanup()

			return nil, fmt.Errorf("create query cache: %w", err)
		}

		if meterProvider != nil {
			err = observability.RegisterCacheEntries(meterProvider.Meter(observability.MeterScope),
				observability.CacheQueryEmbedding, queryCache.Len)
			if err != nil {
				_ = closeStore()

				cleanup()

				return nil, fmt.Errorf("register query cache gauge: %w", err)
			}
		}
	}

	ingestService := service.NewIngestService(service.IngestServiceParams{
		Gateway:         gateway,
		ProviderName:    cfg.EmbeddingProvider,
		Store:           store,
		ChunkMaxChars:   cfg.ChunkMaxChars,
		ProviderTimeout: cfg.ProviderTimeout,
		Metrics:         ragMetrics,
		Logger:          logger,
	})

	queryService := service.NewQueryService(service.QueryServiceParams{
		Gateway:            gateway,
		EmbeddingProvider:  cfg.EmbeddingProvider,
		Generator:          generator,
		GenerationProvider: cfg.GenerationProvider,
		Ranker:             ranking.NewLinearRanker(store, ranking.WithDimensionPolicy(policy), ranking.WithLogger(logger)),
		Classifier:         classifier.New(cfg.GreetingPhrases, cfg.GreetingMaxWords),
		QueryCache:         queryCache,
		ProviderTimeout:    cfg.ProviderTimeout,
		Metrics:            ragMetrics,
		CacheMetrics:       cacheMetrics,
		Logger:             logger,
	})

	params := router.Params{
		Ingest:              handlers.NewIngestHandler(ingestService),
		Query:               handlers.NewQueryHandler(queryService),
		Chunks:              handlers.NewChunksHandler(service.NewChunksService(store)),
		Health:              handlers.NewHealthHandler(),
		Metrics:             metricsHandler,
		Logger:              logger,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	}
	if apiMetrics != nil {
		params.BodyTooLarge = apiMetrics
		params.CORSRejected = apiMetrics
	}

	if meterProvider != nil {
		params.MeterProvider = meterProvider
	}

	if tracerProvider != nil {
		params.TracerProvider = tracerProvider
	}

	return &App{
		cfg:            cfg,
		server:         newHTTPServer(cfg, router.New(params)),
		closeStore:     closeStore,
		meterProvider:  meterProvider,
		tracerProvider: tracerProvider,
	}, nil
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	const (
		readTimeout = 15 * time.Second
		idleTimeout = 60 * time.Second
	)

	// No write timeout: generation latency is bounded by PROVIDER_TIMEOUT instead.
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled (e.g. signal) or the server fails.
// Caller should then call Shutdown.
func (a *App) Run(ctx context.Context) error {
	runErr := make(chan error, 1)

	go func() {
		slog.Info("Starting server", "port", a.cfg.Port, "store", a.cfg.StoreBackend)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr <- fmt.Errorf("server: %w", err)
		}
	}()

	select {
	case err := <-runErr:
		return err
	case <-ctx.Done():
		return nil
	}
}

// shutdownObservability shuts down tracer and meter providers. Logs secondary errors, returns the first.
func shutdownObservability(ctx context.Context, tracer *sdktrace.TracerProvider, meter *sdkmetric.MeterProvider) error {
	var first error

	if err := observability.ShutdownTracerProvider(ctx, tracer); err != nil {
		first = err
	}

	if err := observability.ShutdownMeterProvider(ctx, meter); err != nil {
		if first == nil {
			first = err
		} else {
			slog.Error("shutdown meter provider", "error", err)
		}
	}

	return first
}

// discardObservability releases providers after a failed startup.
func discardObservability(tracer *sdktrace.TracerProvider, meter *sdkmetric.MeterProvider) {
	if err := shutdownObservability(context.Background(), tracer, meter); err != nil {
		slog.Error("shutdown observability after startup error", "error", err)
	}
}

// Shutdown stops the server, then closes the store and flushes telemetry. Call after Run returns.
func (a *App) Shutdown(ctx context.Context) (err error) {
	defer func() {
		obsErr := shutdownObservability(ctx, a.tracerProvider, a.meterProvider)
		if err == nil {
			err = obsErr
		} else if obsErr != nil {
			slog.Error("shutdown observability", "error", obsErr)
		}
	}()

	if err = a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if closeErr := a.closeStore(); closeErr != nil {
			slog.Error("close store during server shutdown", "error", closeErr)
		}

		return fmt.Errorf("server shutdown: %w", err)
	}

	if err = a.closeStore(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}

	return nil
}
