package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/askhub/hub/internal/models"
)

// MemoryChunksRepository keeps chunk records in an append-only slice. Data lives only as long as the process
// and is not shared between instances.
type MemoryChunksRepository struct {
	mu      sync.RWMutex
	records []models.ChunkRecord
}

// NewMemoryChunksRepository creates an empty in-memory store.
func NewMemoryChunksRepository() *MemoryChunksRepository {
	return &MemoryChunksRepository{}
}

// InsertMany appends records as one batch.
func (r *MemoryChunksRepository) InsertMany(ctx context.Context, records []models.ChunkRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := make([]models.ChunkRecord, len(records))
	for i := range records {
		batch[i] = records[i]
		batch[i].Embedding = slices.Clone(records[i].Embedding)
	}

	r.mu.Lock()
	r.records = append(r.records, batch...)
	r.mu.Unlock()

	return nil
}

// ListAll returns a snapshot of every record in insertion order.
func (r *MemoryChunksRepository) ListAll(ctx context.Context) ([]models.ChunkRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.records), nil
}

// List returns the records matching filters in insertion order, paged by limit and offset.
func (r *MemoryChunksRepository) List(ctx context.Context, filters *models.ListChunksFilters) ([]models.ChunkRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	offset, limit := 0, 0
	if filters != nil {
		offset, limit = filters.Offset, filters.Limit
	}

	records := []models.ChunkRecord{}
	skipped := 0

	for i := range r.records {
		if !matchesFilters(&r.records[i], filters) {
			continue
		}

		if skipped < offset {
			skipped++

			continue
		}

		if limit > 0 && len(records) >= limit {
			break
		}

		records = append(records, r.records[i])
	}

	return records, nil
}

// Count returns the number of records matching filters, ignoring paging.
func (r *MemoryChunksRepository) Count(ctx context.Context, filters *models.ListChunksFilters) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64

	for i := range r.records {
		if matchesFilters(&r.records[i], filters) {
			count++
		}
	}

	return count, nil
}

var _ ChunkStore = (*MemoryChunksRepository)(nil)
