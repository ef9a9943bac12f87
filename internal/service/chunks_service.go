package service

import (
	"context"
	"fmt"

	"github.com/askhub/hub/internal/models"
)

// ChunkReader provides paged, filtered reads of stored chunks.
type ChunkReader interface {
	List(ctx context.Context, filters *models.ListChunksFilters) ([]models.ChunkRecord, error)
	Count(ctx context.Context, filters *models.ListChunksFilters) (int64, error)
}

// ChunksService handles read-only inspection of stored chunks.
type ChunksService struct {
	repo ChunkReader
}

// NewChunksService creates a new chunks service.
func NewChunksService(repo ChunkReader) *ChunksService {
	return &ChunksService{repo: repo}
}

// ListChunks returns a page of chunk summaries (no vectors) and the total matching count.
func (s *ChunksService) ListChunks(ctx context.Context, filters *models.ListChunksFilters) (*models.ListChunksResponse, error) {
	if filters == nil {
		filters = &models.ListChunksFilters{}
	}

	if filters.Limit <= 0 {
		filters.Limit = 100 // Default limit
	}

	if filters.Limit > 1000 {
		filters.Limit = 1000 // Max limit
	}

	if filters.Offset < 0 {
		filters.Offset = 0
	}

	records, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}

	total, err := s.repo.Count(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}

	data := make([]models.ChunkSummary, len(records))
	for i := range records {
		data[i] = records[i].Summary()
	}

	return &models.ListChunksResponse{
		Data:   data,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}, nil
}
