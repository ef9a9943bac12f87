package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/askhub/hub/internal/anthropic"
	"github.com/askhub/hub/internal/compat"
	"github.com/askhub/hub/internal/config"
	"github.com/askhub/hub/internal/embeddings"
	"github.com/askhub/hub/internal/googleai"
	"github.com/askhub/hub/internal/openai"
	"github.com/askhub/hub/internal/service"
)

var errUnsupportedProvider = errors.New("unsupported provider")

// providerHTTPClient is shared by every provider SDK so outgoing calls carry trace context and client spans.
func providerHTTPClient() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}

// newEmbeddingGateway builds the configured embedding gateway. It returns nil when EMBEDDING_PROVIDER is unset;
// ingestion and questions then answer with a configuration error.
func newEmbeddingGateway(ctx context.Context, cfg *config.Config) (embeddings.Gateway, error) {
	var gateway embeddings.Gateway

	httpClient := providerHTTPClient()

	switch cfg.EmbeddingProvider {
	case "":
		slog.Warn("embeddings disabled (EMBEDDING_PROVIDER empty or unset)")

		return nil, nil //nolint:nilnil // disabled is not an error
	case config.ProviderOpenAI:
		gateway = openai.NewClient(cfg.EmbeddingProviderAPIKey,
			openai.WithEmbeddingModel(cfg.EmbeddingModel),
			openai.WithDimensions(cfg.EmbeddingDimensions),
			openai.WithBaseURL(cfg.EmbeddingBaseURL),
			openai.WithHTTPClient(httpClient),
		)
	case config.ProviderGoogle:
		client, err := googleai.NewClient(ctx, cfg.EmbeddingProviderAPIKey,
			googleai.WithEmbeddingModel(cfg.EmbeddingModel),
			googleai.WithDimensions(cfg.EmbeddingDimensions),
			googleai.WithBaseURL(cfg.EmbeddingBaseURL),
			googleai.WithHTTPClient(httpClient),
		)
		if err != nil {
			return nil, fmt.Errorf("create google embedding client: %w", err)
		}

		gateway = client
	case config.ProviderCompat:
		gateway = compat.NewClient(cfg.EmbeddingProviderAPIKey,
			compat.WithBaseURL(cfg.EmbeddingBaseURL),
			compat.WithEmbeddingModel(cfg.EmbeddingModel),
			compat.WithHTTPClient(httpClient),
		)
	case config.ProviderMock:
		gateway = embeddings.NewMock()
	default:
		return nil, fmt.Errorf("%w: embedding %q", errUnsupportedProvider, cfg.EmbeddingProvider)
	}

	if cfg.EmbeddingRateLimit > 0 {
		gateway = embeddings.NewRateLimited(gateway, cfg.EmbeddingRateLimit)
	}

	slog.Info("embeddings enabled", "provider", cfg.EmbeddingProvider, "model", cfg.EmbeddingModel,
		"dimensions", cfg.EmbeddingDimensions, "rate_limit", cfg.EmbeddingRateLimit)

	return gateway, nil
}

// newGenerator builds the configured generation client, or nil when GENERATION_PROVIDER is unset.
func newGenerator(ctx context.Context, cfg *config.Config) (service.Generator, error) {
	var generator service.Generator

	httpClient := providerHTTPClient()

	switch cfg.GenerationProvider {
	case "":
		slog.Warn("generation disabled (GENERATION_PROVIDER empty or unset)")

		return nil, nil //nolint:nilnil // disabled is not an error
	case config.ProviderOpenAI:
		generator = openai.NewClient(cfg.GenerationProviderAPIKey,
			openai.WithChatModel(cfg.GenerationModel),
			openai.WithHTTPClient(httpClient),
			openai.WithBaseURL(cfg.GenerationBaseURL),
		)
	case config.ProviderGoogle:
		client, err := googleai.NewClient(ctx, cfg.GenerationProviderAPIKey,
			googleai.WithChatModel(cfg.GenerationModel),
			googleai.WithHTTPClient(httpClient),
			googleai.WithBaseURL(cfg.GenerationBaseURL),
		)
		if err != nil {
			return nil, fmt.Errorf("create google generation client: %w", err)
		}

		generator = client
	case config.ProviderAnthropic:
		generator = anthropic.NewClient(cfg.GenerationProviderAPIKey,
			anthropic.WithModel(cfg.GenerationModel),
			anthropic.WithHTTPClient(httpClient),
			anthropic.WithBaseURL(cfg.GenerationBaseURL),
		)
	case config.ProviderCompat:
		generator = compat.NewClient(cfg.GenerationProviderAPIKey,
			compat.WithBaseURL(cfg.GenerationBaseURL),
			compat.WithChatModel(cfg.GenerationModel),
			compat.WithHTTPClient(httpClient),
		)
	default:
		return nil, fmt.Errorf("%w: generation %q", errUnsupportedProvider, cfg.GenerationProvider)
	}

	slog.Info("generation enabled", "provider", cfg.GenerationProvider, "model", cfg.GenerationModel)

	return generator, nil
}
