package handlers

import (
	"context"
	"net/http"

	"github.com/askhub/hub/internal/api/response"
	"github.com/askhub/hub/internal/api/validation"
	"github.com/askhub/hub/internal/models"
)

// ChunksService defines the interface for chunk inspection.
type ChunksService interface {
	ListChunks(ctx context.Context, filters *models.ListChunksFilters) (*models.ListChunksResponse, error)
}

// ChunksHandler handles read-only chunk inspection requests.
type ChunksHandler struct {
	service ChunksService
}

// NewChunksHandler creates a new chunks handler.
func NewChunksHandler(service ChunksService) *ChunksHandler {
	return &ChunksHandler{service: service}
}

// List handles GET /v1/chunks
// @Summary List stored chunks
// @Description List stored chunks oldest first, without embeddings
// @Tags Chunks
// @Produce json
// @Param sourceType query string false "Filter by source type"
// @Param limit query int false "Number of results to return (max 1000)"
// @Param offset query int false "Number of results to skip"
// @Success 200 {object} ListChunksResponse
// @Failure 400 {object} ProblemDetails
// @Router /v1/chunks [get]
func (h *ChunksHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := &models.ListChunksFilters{}
	if err := validation.DecodeQueryParams(r, filters); err != nil {
		response.RespondBadRequest(w, "Invalid query parameters")
		return
	}

	if err := validation.ValidateStruct(filters); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	result, err := h.service.ListChunks(r.Context(), filters)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
