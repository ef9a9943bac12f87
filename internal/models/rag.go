package models

import "github.com/google/uuid"

// IngestRequest is the body for POST /v1/ingest.
type IngestRequest struct {
	Text       string `json:"text" validate:"required,not_blank,no_null_bytes"`
	SourceType string `json:"sourceType,omitempty" validate:"omitempty,no_null_bytes,max=32"`  //nolint:tagliatelle // API contract
	SourceName string `json:"sourceName,omitempty" validate:"omitempty,no_null_bytes,max=512"` //nolint:tagliatelle // API contract
}

// IngestResponse is the response for a successful ingestion.
type IngestResponse struct {
	Chunks int `json:"chunks"`
}

// QueryRequest is the body for POST /v1/query.
type QueryRequest struct {
	Message string `json:"message" validate:"required,not_blank,no_null_bytes"`
}

// TopChunk identifies one chunk used to answer a query.
type TopChunk struct {
	ID         uuid.UUID `json:"id"`
	SourceType string    `json:"sourceType"` //nolint:tagliatelle // API contract
	SourceName string    `json:"sourceName"` //nolint:tagliatelle // API contract
	Score      float64   `json:"score"`
}

// QueryResponse is the response for POST /v1/query. TopChunks is empty (never null) for greetings.
type QueryResponse struct {
	Answer    string     `json:"answer"`
	TopChunks []TopChunk `json:"topChunks"` //nolint:tagliatelle // API contract
}
