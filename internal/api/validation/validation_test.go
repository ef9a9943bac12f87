package validation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askhub/hub/internal/api/response"
	"github.com/askhub/hub/internal/models"
)

func TestValidateStruct_IngestRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     models.IngestRequest
		wantErr string
	}{
		{name: "valid", req: models.IngestRequest{Text: "The sky is blue."}},
		{name: "valid with source", req: models.IngestRequest{Text: "x", SourceType: "audio", SourceName: "memo.m4a"}},
		{name: "missing text", req: models.IngestRequest{}, wantErr: "text is required"},
		{name: "blank text", req: models.IngestRequest{Text: "  \n "}, wantErr: "text must not be blank"},
		{name: "null byte", req: models.IngestRequest{Text: "a\x00b"}, wantErr: "text must not contain NULL bytes"},
		{
			name:    "source type too long",
			req:     models.IngestRequest{Text: "x", SourceType: strings.Repeat("a", 33)},
			wantErr: "sourceType must be at most 32",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateStruct_QueryRequest(t *testing.T) {
	require.NoError(t, ValidateStruct(&models.QueryRequest{Message: "hi"}))

	err := ValidateStruct(&models.QueryRequest{Message: "   "})
	require.Error(t, err)

	details := GetValidationErrorDetails(err)
	require.Len(t, details, 1)
	assert.Equal(t, "message", details[0].Location)
	assert.Equal(t, "message must not be blank", details[0].Message)
}

func TestRespondValidationError(t *testing.T) {
	err := ValidateStruct(&models.IngestRequest{})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	RespondValidationError(rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var problem response.ProblemDetails
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
	assert.Equal(t, "Validation Error", problem.Title)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "text", problem.Errors[0].Location)
}

func TestDecodeQueryParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/chunks?limit=20&offset=40&sourceType=audio", nil)

	var filters models.ListChunksFilters
	require.NoError(t, DecodeQueryParams(r, &filters))
	assert.Equal(t, 20, filters.Limit)
	assert.Equal(t, 40, filters.Offset)
	require.NotNil(t, filters.SourceType)
	assert.Equal(t, "audio", *filters.SourceType)
	require.NoError(t, ValidateStruct(&filters))

	bad := httptest.NewRequest(http.MethodGet, "/v1/chunks?limit=abc", nil)
	assert.Error(t, DecodeQueryParams(bad, &models.ListChunksFilters{}))

	tooMany := models.ListChunksFilters{Limit: 5000}
	assert.Error(t, ValidateStruct(&tooMany))
}

func TestDecodeJSON(t *testing.T) {
	var req models.QueryRequest

	r := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"message":"hi","extra":1}`))
	require.NoError(t, DecodeJSON(r, &req))
	assert.Equal(t, "hi", req.Message)

	r = httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"message":`))
	require.Error(t, DecodeJSON(r, &req))

	r = httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"message":"a"}{"message":"b"}`))
	require.Error(t, DecodeJSON(r, &req))
}
