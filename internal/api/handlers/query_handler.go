package handlers

import (
	"context"
	"net/http"

	"github.com/askhub/hub/internal/api/response"
	"github.com/askhub/hub/internal/api/validation"
	"github.com/askhub/hub/internal/models"
)

// QueryService defines the interface for answering messages.
type QueryService interface {
	Answer(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error)
}

// QueryHandler handles question answering requests.
type QueryHandler struct {
	service QueryService
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(service QueryService) *QueryHandler {
	return &QueryHandler{service: service}
}

// Query handles POST /v1/query
// @Summary Ask a question
// @Description Greetings are answered directly; questions are answered from the most similar stored chunks
// @Tags Query
// @Accept json
// @Produce json
// @Param request body QueryRequest true "Message"
// @Success 200 {object} QueryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 502 {object} ProblemDetails "Model provider failed"
// @Failure 503 {object} ProblemDetails "Model provider not configured"
// @Router /v1/query [post]
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")
		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	result, err := h.service.Answer(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
