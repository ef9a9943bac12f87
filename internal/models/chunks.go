package models

import (
	"time"

	"github.com/google/uuid"
)

// Source types accepted in practice. SourceType is an open set; these are the values clients send.
const (
	SourceTypeDoc   = "doc"
	SourceTypeImage = "image"
	SourceTypeAudio = "audio"

	DefaultSourceType = SourceTypeDoc
	DefaultSourceName = "unknown"
)

// ChunkRecord is the atomic retrievable unit: one chunk of ingested text plus its embedding.
// Records are created in bulk by one ingestion call and never updated in place.
type ChunkRecord struct {
	ID         uuid.UUID `json:"id"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding,omitempty"` // empty when embedding that chunk failed
	SourceType string    `json:"sourceType"`          //nolint:tagliatelle // API contract
	SourceName string    `json:"sourceName"`          //nolint:tagliatelle // API contract
	CreatedAt  time.Time `json:"createdAt"`           //nolint:tagliatelle // API contract
}

// ScoredCandidate is a ChunkRecord scored against one query vector. Query-scoped, never persisted.
type ScoredCandidate struct {
	ChunkRecord

	Score float64 `json:"score"`
}

// ChunkSummary is the inspection view of a stored chunk (no vector, only its dimensionality).
type ChunkSummary struct {
	ID         uuid.UUID `json:"id"`
	Text       string    `json:"text"`
	SourceType string    `json:"sourceType"` //nolint:tagliatelle // API contract
	SourceName string    `json:"sourceName"` //nolint:tagliatelle // API contract
	Dimensions int       `json:"dimensions"`
	CreatedAt  time.Time `json:"createdAt"` //nolint:tagliatelle // API contract
}

// Summary returns the inspection view of the record.
func (r ChunkRecord) Summary() ChunkSummary {
	return ChunkSummary{
		ID:         r.ID,
		Text:       r.Text,
		SourceType: r.SourceType,
		SourceName: r.SourceName,
		Dimensions: len(r.Embedding),
		CreatedAt:  r.CreatedAt,
	}
}

// ListChunksFilters represents filters for listing stored chunks.
type ListChunksFilters struct {
	SourceType *string `form:"sourceType" validate:"omitempty,no_null_bytes,max=32"`
	Limit      int     `form:"limit" validate:"omitempty,min=1,max=1000"`
	Offset     int     `form:"offset" validate:"omitempty,min=0"`
}

// ListChunksResponse represents the response for listing stored chunks.
type ListChunksResponse struct {
	Data   []ChunkSummary `json:"data"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}
