package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/askhub/hub/internal/chunker"
	"github.com/askhub/hub/internal/embeddings"
	"github.com/askhub/hub/internal/huberrors"
	"github.com/askhub/hub/internal/models"
	"github.com/askhub/hub/internal/observability"
)

// ChunkWriter stores a batch of chunk records.
type ChunkWriter interface {
	InsertMany(ctx context.Context, records []models.ChunkRecord) error
}

// IngestService splits text into chunks, embeds them in one batch and stores the records.
type IngestService struct {
	gateway  embeddings.Gateway
	store    ChunkWriter
	maxChars int
	caller   providerCaller
	metrics  observability.RAGMetrics
	logger   *slog.Logger
	now      func() time.Time

	mu            sync.Mutex
	lastCreatedAt time.Time
}

// IngestServiceParams configures IngestService. Gateway may be nil (ingestion answers with a
// ConfigurationError). Metrics may be nil.
type IngestServiceParams struct {
	Gateway         embeddings.Gateway
	ProviderName    string
	Store           ChunkWriter
	ChunkMaxChars   int
	ProviderTimeout time.Duration
	Metrics         observability.RAGMetrics
	Logger          *slog.Logger
	// Now is the clock used for CreatedAt (default time.Now).
	Now func() time.Time
}

// NewIngestService creates an IngestService.
func NewIngestService(p IngestServiceParams) *IngestService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := p.Now
	if now == nil {
		now = time.Now
	}

	return &IngestService{
		gateway:  p.Gateway,
		store:    p.Store,
		maxChars: p.ChunkMaxChars,
		caller: providerCaller{
			provider: p.ProviderName,
			timeout:  p.ProviderTimeout,
			metrics:  p.Metrics,
			logger:   logger,
		},
		metrics: p.Metrics,
		logger:  logger,
		now:     now,
	}
}

// Ingest chunks req.Text, embeds every chunk in one provider call and stores the records atomically.
// Chunks the provider returned no vector for are stored with an empty embedding.
func (s *IngestService) Ingest(ctx context.Context, req *models.IngestRequest) (*models.IngestResponse, error) {
	ctx, span := observability.StartSpan(ctx, "ingest")

	resp, err := s.ingest(ctx, req)
	if resp != nil {
		span.SetAttributes(attribute.Int("ingest.chunks", resp.Chunks))
	}

	observability.EndSpan(span, err)

	return resp, err
}

func (s *IngestService) ingest(ctx context.Context, req *models.IngestRequest) (*models.IngestResponse, error) {
	if req == nil || strings.TrimSpace(req.Text) == "" {
		return nil, huberrors.NewValidationError("text", "text is required and must not be blank")
	}

	sourceType := strings.TrimSpace(req.SourceType)
	if sourceType == "" {
		sourceType = models.DefaultSourceType
	}

	sourceName := strings.TrimSpace(req.SourceName)
	if sourceName == "" {
		sourceName = models.DefaultSourceName
	}

	if s.gateway == nil {
		return nil, huberrors.NewConfigurationError("embedding provider", "embedding provider is not configured")
	}

	chunks := chunker.Split(req.Text, s.maxChars)

	var vectors [][]float32

	err := s.caller.call(ctx, observability.OpEmbedMany, func(ctx context.Context) error {
		var embedErr error

		vectors, embedErr = s.gateway.EmbedMany(ctx, chunks)

		return embedErr
	})
	if err != nil {
		return nil, err
	}

	vectors = embeddings.Align(len(chunks), func(i int) []float32 {
		if i < len(vectors) {
			return vectors[i]
		}

		return nil
	})

	createdAt := s.nextCreatedAt()
	records := make([]models.ChunkRecord, len(chunks))
	empty := 0

	for i, text := range chunks {
		id, idErr := uuid.NewV7()
		if idErr != nil {
			return nil, fmt.Errorf("generate chunk id: %w", idErr)
		}

		if len(vectors[i]) == 0 {
			empty++
		}

		records[i] = models.ChunkRecord{
			ID:         id,
			Text:       text,
			Embedding:  vectors[i],
			SourceType: sourceType,
			SourceName: sourceName,
			CreatedAt:  createdAt,
		}
	}

	if empty > 0 {
		s.logger.WarnContext(ctx, "ingest: provider returned no embedding for some chunks",
			"empty", empty, "chunks", len(chunks), "source_name", sourceName)
	}

	if err := s.store.InsertMany(ctx, records); err != nil {
		s.logger.ErrorContext(ctx, "ingest: insert chunks failed", "error", err, "chunks", len(records))

		return nil, fmt.Errorf("insert chunks: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordIngestedChunks(ctx, len(records))
		s.metrics.RecordEmptyEmbeddings(ctx, empty)
	}

	s.logger.InfoContext(ctx, "ingested text",
		"chunks", len(records), "source_type", sourceType, "source_name", sourceName)

	return &models.IngestResponse{Chunks: len(records)}, nil
}

// nextCreatedAt returns the batch timestamp, never earlier than the previous batch's.
func (s *IngestService) nextCreatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC()
	if ts.Before(s.lastCreatedAt) {
		ts = s.lastCreatedAt
	}

	s.lastCreatedAt = ts

	return ts
}
