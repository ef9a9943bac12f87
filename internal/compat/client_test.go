package compat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient("test-key", WithBaseURL(srv.URL+"/v1"), WithEmbeddingModel("embed-test"), WithChatModel("chat-test"))
}

func writeJSON(t *testing.T, w http.ResponseWriter, body any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestClient_EmbedMany(t *testing.T) {
	t.Run("results are aligned by index", func(t *testing.T) {
		var got embeddingRequest

		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/embeddings", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			writeJSON(t, w, map[string]any{
				"object": "list",
				"model":  "embed-test",
				"data": []map[string]any{
					{"object": "embedding", "index": 2, "embedding": []float32{0.3}},
					{"object": "embedding", "index": 0, "embedding": []float32{0.1, 0.2}},
				},
			})
		})

		out, err := client.EmbedMany(context.Background(), []string{"a", "b", "c"})
		require.NoError(t, err)

		assert.Equal(t, []string{"a", "b", "c"}, got.Input)
		assert.Equal(t, "embed-test", got.Model)
		require.Len(t, out, 3)
		assert.Equal(t, []float32{0.1, 0.2}, out[0])
		assert.Empty(t, out[1])
		assert.Equal(t, []float32{0.3}, out[2])
	})

	t.Run("server error is returned", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
		})

		out, err := client.EmbedMany(context.Background(), []string{"a"})
		require.Error(t, err)
		assert.Nil(t, out)
	})

	t.Run("empty input makes no request", func(t *testing.T) {
		client := newTestServer(t, func(_ http.ResponseWriter, _ *http.Request) {
			t.Error("unexpected request")
		})

		out, err := client.EmbedMany(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestClient_EmbedOne(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"object": "list",
			"data":   []map[string]any{{"object": "embedding", "index": 0, "embedding": []float32{1, 0}}},
		})
	})

	v, err := client.EmbedOne(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, v)

	_, err = client.EmbedOne(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestClient_Generate(t *testing.T) {
	t.Run("first choice", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)

			var req struct {
				Model    string `json:"model"`
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "chat-test", req.Model)

			if assert.Len(t, req.Messages, 1) {
				assert.Equal(t, "user", req.Messages[0].Role)
				assert.Equal(t, "the prompt", req.Messages[0].Content)
			}

			writeJSON(t, w, map[string]any{
				"id":     "cmpl-1",
				"object": "chat.completion",
				"model":  "chat-test",
				"choices": []map[string]any{
					{"index": 0, "message": map[string]any{"role": "assistant", "content": "The sky is blue."}, "finish_reason": "stop"},
					{"index": 1, "message": map[string]any{"role": "assistant", "content": "ignored"}, "finish_reason": "stop"},
				},
			})
		})

		answer, err := client.Generate(context.Background(), "the prompt")
		require.NoError(t, err)
		assert.Equal(t, "The sky is blue.", answer)
	})

	t.Run("no choices yields empty answer", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, map[string]any{"id": "cmpl-2", "object": "chat.completion", "choices": []any{}})
		})

		answer, err := client.Generate(context.Background(), "p")
		require.NoError(t, err)
		assert.Empty(t, answer)
	})
}
