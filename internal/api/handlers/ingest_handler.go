package handlers

import (
	"context"
	"net/http"

	"github.com/askhub/hub/internal/api/response"
	"github.com/askhub/hub/internal/api/validation"
	"github.com/askhub/hub/internal/models"
)

// IngestService defines the interface for ingestion business logic.
type IngestService interface {
	Ingest(ctx context.Context, req *models.IngestRequest) (*models.IngestResponse, error)
}

// IngestHandler handles text ingestion requests.
type IngestHandler struct {
	service IngestService
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(service IngestService) *IngestHandler {
	return &IngestHandler{service: service}
}

// Ingest handles POST /v1/ingest
// @Summary Ingest text
// @Description Split text into chunks, embed them and store the records
// @Tags Ingestion
// @Accept json
// @Produce json
// @Param request body IngestRequest true "Text to ingest"
// @Success 201 {object} IngestResponse
// @Failure 400 {object} ProblemDetails
// @Failure 413 {object} ProblemDetails
// @Failure 502 {object} ProblemDetails "Embedding provider failed"
// @Failure 503 {object} ProblemDetails "Embedding provider not configured"
// @Router /v1/ingest [post]
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req models.IngestRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")
		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	result, err := h.service.Ingest(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, result)
}
