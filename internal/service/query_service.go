package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/askhub/hub/internal/classifier"
	"github.com/askhub/hub/internal/embeddings"
	"github.com/askhub/hub/internal/huberrors"
	"github.com/askhub/hub/internal/models"
	"github.com/askhub/hub/internal/observability"
	"github.com/askhub/hub/internal/prompt"
	"github.com/askhub/hub/internal/ranking"
	"github.com/askhub/hub/pkg/cache"
)

// QueryService answers messages: greetings go straight to the generator, questions are answered from
// the top ranked chunks.
type QueryService struct {
	gateway      embeddings.Gateway
	generator    Generator
	ranker       ranking.Ranker
	classifier   *classifier.Classifier
	queryCache   *cache.LoaderCache[string, []float32]
	embedCaller  providerCaller
	genCaller    providerCaller
	metrics      observability.RAGMetrics
	cacheMetrics observability.CacheMetrics
	logger       *slog.Logger
}

// QueryServiceParams configures QueryService. Gateway and Generator may be nil (the branches that need
// them answer with a ConfigurationError). QueryCache, Metrics and CacheMetrics may be nil.
type QueryServiceParams struct {
	Gateway            embeddings.Gateway
	EmbeddingProvider  string
	Generator          Generator
	GenerationProvider string
	Ranker             ranking.Ranker
	Classifier         *classifier.Classifier
	QueryCache         *cache.LoaderCache[string, []float32]
	ProviderTimeout    time.Duration
	Metrics            observability.RAGMetrics
	CacheMetrics       observability.CacheMetrics
	Logger             *slog.Logger
}

// NewQueryService creates a QueryService.
func NewQueryService(p QueryServiceParams) *QueryService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cls := p.Classifier
	if cls == nil {
		cls = classifier.New(nil, 0)
	}

	return &QueryService{
		gateway:    p.Gateway,
		generator:  p.Generator,
		ranker:     p.Ranker,
		classifier: cls,
		queryCache: p.QueryCache,
		embedCaller: providerCaller{
			provider: p.EmbeddingProvider,
			timeout:  p.ProviderTimeout,
			metrics:  p.Metrics,
			logger:   logger,
		},
		genCaller: providerCaller{
			provider: p.GenerationProvider,
			timeout:  p.ProviderTimeout,
			metrics:  p.Metrics,
			logger:   logger,
		},
		metrics:      p.Metrics,
		cacheMetrics: p.CacheMetrics,
		logger:       logger,
	}
}

// Answer classifies req.Message and answers it. The generator is called exactly once; an empty answer is
// replaced by prompt.FallbackAnswer.
func (s *QueryService) Answer(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	ctx, span := observability.StartSpan(ctx, "query")

	resp, err := s.answer(ctx, req)
	if resp != nil {
		span.SetAttributes(attribute.Int("query.top_chunks", len(resp.TopChunks)))
	}

	observability.EndSpan(span, err)

	return resp, err
}

func (s *QueryService) answer(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	if req == nil || strings.TrimSpace(req.Message) == "" {
		return nil, huberrors.NewValidationError("message", "message is required and must not be blank")
	}

	message := strings.TrimSpace(req.Message)

	if s.classifier.Classify(message) == classifier.KindGreeting {
		return s.answerGreeting(ctx, message)
	}

	return s.answerQuestion(ctx, message)
}

func (s *QueryService) answerGreeting(ctx context.Context, message string) (*models.QueryResponse, error) {
	if s.generator == nil {
		return nil, huberrors.NewConfigurationError("generation provider", "generation provider is not configured")
	}

	if s.metrics != nil {
		s.metrics.RecordQuery(ctx, observability.BranchGreeting)
	}

	answer, err := s.generate(ctx, prompt.GreetingPrompt(message))
	if err != nil {
		return nil, err
	}

	return &models.QueryResponse{Answer: answer, TopChunks: []models.TopChunk{}}, nil
}

func (s *QueryService) answerQuestion(ctx context.Context, question string) (*models.QueryResponse, error) {
	if s.gateway == nil {
		return nil, huberrors.NewConfigurationError("embedding provider", "embedding provider is not configured")
	}

	if s.generator == nil {
		return nil, huberrors.NewConfigurationError("generation provider", "generation provider is not configured")
	}

	if s.metrics != nil {
		s.metrics.RecordQuery(ctx, observability.BranchQuestion)
	}

	queryVector, err := s.embedQuery(ctx, question)
	if err != nil {
		return nil, err
	}

	top, err := s.ranker.Rank(ctx, queryVector, ranking.TopK)
	if err != nil {
		s.logger.ErrorContext(ctx, "query: rank chunks failed", "error", err)

		return nil, fmt.Errorf("rank chunks: %w", err)
	}

	answer, err := s.generate(ctx, prompt.RAGPrompt(question, prompt.BuildContext(top)))
	if err != nil {
		return nil, err
	}

	topChunks := make([]models.TopChunk, 0, len(top))
	for i := range top {
		topChunks = append(topChunks, models.TopChunk{
			ID:         top[i].ID,
			SourceType: top[i].SourceType,
			SourceName: top[i].SourceName,
			Score:      top[i].Score,
		})
	}

	s.logger.DebugContext(ctx, "answered question", "top_chunks", len(topChunks))

	return &models.QueryResponse{Answer: answer, TopChunks: topChunks}, nil
}

// errEmptyQueryEmbedding marks a provider reply with no vector. It keeps the reply out of the query cache.
var errEmptyQueryEmbedding = errors.New("empty query embedding")

// embedQuery embeds the question, through the query cache when one is configured.
// An empty vector is returned to the caller but never cached.
func (s *QueryService) embedQuery(ctx context.Context, question string) ([]float32, error) {
	if s.queryCache == nil {
		return s.embedOne(ctx, question)
	}

	vec, hit, err := s.queryCache.GetWithStats(ctx, question, s.embedCacheable)
	empty := errors.Is(err, errEmptyQueryEmbedding)
	loadFailed := errors.Is(err, huberrors.ErrProvider)

	if s.cacheMetrics != nil {
		s.cacheMetrics.RecordLookup(ctx, observability.CacheQueryEmbedding, hit)

		if loadFailed {
			s.cacheMetrics.RecordLoadError(ctx, observability.CacheQueryEmbedding)
		}
	}

	if empty {
		s.logger.WarnContext(ctx, "query: provider returned an empty embedding, not caching it")

		return []float32{}, nil
	}

	if err != nil && !loadFailed {
		// This caller's context ended while another caller's load was still running.
		err = huberrors.NewProviderError(s.embedCaller.provider, observability.OpEmbedOne, err)
	}

	if err != nil {
		return nil, err //nolint:wrapcheck // a ProviderError
	}

	return vec, nil
}

func (s *QueryService) embedCacheable(ctx context.Context, question string) ([]float32, error) {
	vec, err := s.embedOne(ctx, question)
	if err != nil {
		return nil, err
	}

	if len(vec) == 0 {
		return nil, errEmptyQueryEmbedding
	}

	return vec, nil
}

func (s *QueryService) embedOne(ctx context.Context, question string) ([]float32, error) {
	var vec []float32

	err := s.embedCaller.call(ctx, observability.OpEmbedOne, func(ctx context.Context) error {
		var embedErr error

		vec, embedErr = s.gateway.EmbedOne(ctx, question)

		return embedErr
	})

	return vec, err
}

func (s *QueryService) generate(ctx context.Context, p string) (string, error) {
	var answer string

	err := s.genCaller.call(ctx, observability.OpGenerate, func(ctx context.Context) error {
		var genErr error

		answer, genErr = s.generator.Generate(ctx, p)

		return genErr
	})
	if err != nil {
		return "", err
	}

	if prompt.IsEmptyAnswer(answer) {
		s.logger.WarnContext(ctx, "generator returned an empty answer, using fallback")

		if s.metrics != nil {
			s.metrics.RecordFallbackAnswer(ctx)
		}

		return prompt.FallbackAnswer, nil
	}

	return answer, nil
}
