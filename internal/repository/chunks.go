package repository

import (
	"context"

	"github.com/askhub/hub/internal/models"
)

// ChunkStore persists chunk records. Implementations keep insertion order: ListAll returns the oldest
// batch first and chunk order inside a batch.
type ChunkStore interface {
	InsertMany(ctx context.Context, records []models.ChunkRecord) error
	ListAll(ctx context.Context) ([]models.ChunkRecord, error)
	List(ctx context.Context, filters *models.ListChunksFilters) ([]models.ChunkRecord, error)
	Count(ctx context.Context, filters *models.ListChunksFilters) (int64, error)
}

// matchesFilters reports whether record passes the non-paging filters.
func matchesFilters(record *models.ChunkRecord, filters *models.ListChunksFilters) bool {
	if filters == nil {
		return true
	}

	if filters.SourceType != nil && record.SourceType != *filters.SourceType {
		return false
	}

	return true
}
