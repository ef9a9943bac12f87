package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClientWithOptions(ClientOptions{BaseURL: server.URL + "/v1/", RetryMax: 2})
	c.httpClient.RetryWaitMin = time.Millisecond
	c.httpClient.RetryWaitMax = 5 * time.Millisecond

	return c
}

func writeProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type": "about:blank", "title": http.StatusText(status), "status": status, "detail": detail,
	})
}

func TestNewClientWithOptions_Defaults(t *testing.T) {
	c := NewClientWithOptions(ClientOptions{})
	assert.Equal(t, defaultBaseURL, c.baseURL)
	assert.Equal(t, defaultRetryMax, c.httpClient.RetryMax)
	assert.Equal(t, defaultTimeout, c.httpClient.HTTPClient.Timeout)

	c = NewClientWithOptions(ClientOptions{BaseURL: "http://askhub:9000/v1", RetryMax: -1})
	assert.Equal(t, "http://askhub:9000", c.baseURL)
	assert.Equal(t, 0, c.httpClient.RetryMax)
}

func TestClient_Ingest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/ingest", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "The sky is blue.", body["text"])
		assert.Equal(t, "doc", body["sourceType"])
		assert.Equal(t, "notes.txt", body["sourceName"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"chunks":1}`))
	})

	resp, err := c.Ingest(context.Background(), IngestRequest{Text: "The sky is blue.", SourceType: "doc", SourceName: "notes.txt"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Chunks)
}

func TestClient_Query(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/query", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "what color is the sky", body["message"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"Blue.","topChunks":[
			{"id":"0190d5a4-0000-7000-8000-000000000001","sourceType":"doc","sourceName":"sky.txt","score":0.91}]}`))
	})

	resp, err := c.Query(context.Background(), "what color is the sky")
	require.NoError(t, err)
	assert.Equal(t, "Blue.", resp.Answer)
	require.Len(t, resp.TopChunks, 1)
	assert.Equal(t, "sky.txt", resp.TopChunks[0].SourceName)
	assert.InDelta(t, 0.91, resp.TopChunks[0].Score, 1e-9)
}

func TestClient_ListChunks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/chunks", r.URL.Path)
		assert.Equal(t, "audio", r.URL.Query().Get("sourceType"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Empty(t, r.URL.Query().Get("offset"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"0190d5a4-0000-7000-8000-000000000002","text":"hello",
			"sourceType":"audio","sourceName":"call.mp3","dimensions":8,"createdAt":"2026-01-02T03:04:05Z"}],
			"total":1,"limit":10,"offset":0}`))
	})

	resp, err := c.ListChunks(context.Background(), ListChunksOptions{SourceType: "audio", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 8, resp.Data[0].Dimensions)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), resp.Data[0].CreatedAt)
}

func TestClient_Errors(t *testing.T) {
	t.Run("problem details are decoded", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeProblem(w, http.StatusBadRequest, "message is required and must not be blank")
		})

		_, err := c.Query(context.Background(), " ")
		require.Error(t, err)
		assert.True(t, IsStatus(err, http.StatusBadRequest))

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "message is required and must not be blank", apiErr.Detail)
		assert.Contains(t, err.Error(), "400")
	})

	t.Run("plain text body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "nope", http.StatusNotFound)
		})

		err := c.Health(context.Background())
		require.Error(t, err)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		assert.Equal(t, "nope", apiErr.Detail)
	})

	t.Run("502 is retried", func(t *testing.T) {
		var calls atomic.Int32

		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				writeProblem(w, http.StatusBadGateway, "upstream model provider failed")
				return
			}

			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"chunks":2}`))
		})

		resp, err := c.Ingest(context.Background(), IngestRequest{Text: "abc"})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Chunks)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("500 is not retried", func(t *testing.T) {
		var calls atomic.Int32

		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			writeProblem(w, http.StatusInternalServerError, "An unexpected error occurred")
		})

		_, err := c.Ingest(context.Background(), IngestRequest{Text: "abc"})
		assert.True(t, IsStatus(err, http.StatusInternalServerError))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("retries exhausted returns the last response", func(t *testing.T) {
		var calls atomic.Int32

		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			writeProblem(w, http.StatusBadGateway, "upstream model provider failed")
		})

		_, err := c.Query(context.Background(), "what")
		assert.True(t, IsStatus(err, http.StatusBadGateway))
		assert.Equal(t, int32(3), calls.Load())
	})
}

func TestClient_Health(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte("OK"))
	})

	assert.NoError(t, c.Health(context.Background()))
}
