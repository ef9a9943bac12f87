package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askhub/hub/internal/api/response"
	"github.com/askhub/hub/internal/observability"
)

func TestRequestID(t *testing.T) {
	var seen string

	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = observability.RequestIDFromContext(r.Context())
	}))

	t.Run("propagates client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "client-id-1")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "client-id-1", seen)
		assert.Equal(t, "client-id-1", rec.Header().Get("X-Request-ID"))
	})

	t.Run("replaces unusable client id", func(t *testing.T) {
		for _, bad := range []string{"has space", "tab\tinside", strings.Repeat("x", maxRequestIDLen+1)} {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("X-Request-ID", bad)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.NotEqual(t, bad, seen)
			_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
			assert.NoError(t, err, bad)
		}
	})

	t.Run("generates uuid v7", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		id, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
		require.NoError(t, err)
		assert.EqualValues(t, 7, id.Version())
		assert.Equal(t, id.String(), seen)
	})
}

type countingRecorder struct{ calls, corsRejected int }

func (c *countingRecorder) RecordRequestBodyTooLarge(context.Context) { c.calls++ }

func (c *countingRecorder) RecordCORSRejected(context.Context) { c.corsRejected++ }

func decodingHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			response.RespondBadRequest(w, "Invalid request body")
			return
		}

		response.RespondJSON(w, http.StatusOK, body)
	})
}

func TestMaxBody(t *testing.T) {
	t.Run("body over limit returns 413", func(t *testing.T) {
		recorder := &countingRecorder{}
		handler := MaxBody(16, recorder)(decodingHandler())

		body := `{"text":"` + strings.Repeat("a", 64) + `"}`
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ingest", strings.NewReader(body)))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		assert.Equal(t, 1, recorder.calls)
	})

	t.Run("body under limit passes", func(t *testing.T) {
		recorder := &countingRecorder{}
		handler := MaxBody(1024, recorder)(decodingHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"message":"hi"}`)))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"hi"}`, rec.Body.String())
		assert.Zero(t, recorder.calls)
	})

	t.Run("nil recorder and disabled limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		MaxBody(4, nil)(decodingHandler()).ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"message":"hello"}`)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

		rec = httptest.NewRecorder()
		MaxBody(0, nil)(decodingHandler()).ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"message":"hello"}`)))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		_, _ = io.WriteString(w, "ok")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/query", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	out := buf.String()
	assert.Contains(t, out, "level=INFO msg=\"http request\" method=POST path=/v1/query status=200")
	assert.Contains(t, out, "level=WARN msg=\"http request\" method=GET path=/missing status=404")
	assert.NotContains(t, out, "path=/health")
}

func TestStatusToClass(t *testing.T) {
	assert.Equal(t, "2xx", statusToClass(201))
	assert.Equal(t, "3xx", statusToClass(304))
	assert.Equal(t, "4xx", statusToClass(413))
	assert.Equal(t, "5xx", statusToClass(502))
	assert.Equal(t, "1xx", statusToClass(101))
	assert.Equal(t, "unknown", statusToClass(0))
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	t.Run("wildcard", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/query", nil)
		req.Header.Set("Origin", "https://app.example.com")

		rec := httptest.NewRecorder()
		CORS([]string{"*"}, nil)(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight for allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/v1/ingest", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")

		rec := httptest.NewRecorder()
		CORS([]string{"https://app.example.com"}, nil)(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, corsAllowMethods, rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Contains(t, rec.Header().Values("Vary"), "Origin")
	})

	t.Run("disallowed origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/query", nil)
		req.Header.Set("Origin", "https://evil.example.com")

		recorder := &countingRecorder{}
		rec := httptest.NewRecorder()
		CORS([]string{"https://app.example.com"}, recorder)(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, 1, recorder.corsRejected)
	})

	t.Run("disallowed preflight is answered without headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/v1/ingest", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")

		recorder := &countingRecorder{}
		rec := httptest.NewRecorder()
		CORS([]string{"https://app.example.com"}, recorder)(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, 1, recorder.corsRejected)
	})

	t.Run("no origin passes through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CORS([]string{"*"}, nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/query", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
