package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/askhub/hub/internal/api/response"
	"github.com/askhub/hub/internal/huberrors"
)

// providerFailedDetail is the only provider failure detail clients see; the cause is logged.
const providerFailedDetail = "upstream model provider failed"

// respondServiceError maps service errors to Problem Details: validation 400, missing configuration 503,
// provider failure 502, anything else 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, huberrors.ErrValidation):
		response.RespondBadRequest(w, err.Error())
	case errors.Is(err, huberrors.ErrConfiguration):
		response.RespondServiceUnavailable(w, err.Error())
	case errors.Is(err, huberrors.ErrProvider):
		response.RespondBadGateway(w, providerFailedDetail)
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		response.RespondInternalServerError(w, "An unexpected error occurred")
	}
}
