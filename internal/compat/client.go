// Package compat talks to any server exposing the OpenAI REST API (Ollama, LM Studio, vLLM, LocalAI)
// through the community go-openai client, for both embeddings and chat completions.
package compat

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/askhub/hub/internal/embeddings"
)

// Defaults target a local Ollama instance.
const (
	DefaultBaseURL        = "http://localhost:11434/v1"
	DefaultEmbeddingModel = "nomic-embed-text"
	DefaultChatModel      = "llama3.2"
)

// ErrEmptyInput is returned by EmbedOne for blank text.
var ErrEmptyInput = errors.New("compat: input text is empty")

// Client implements embeddings.Gateway and the answer generator against an OpenAI-compatible base URL.
type Client struct {
	api            *openai.Client
	embeddingModel string
	chatModel      string
}

type settings struct {
	baseURL        string
	embeddingModel string
	chatModel      string
	httpClient     *http.Client
}

// ClientOption configures the Client.
type ClientOption func(*settings)

// WithBaseURL sets the API root, e.g. http://localhost:1234/v1. Empty keeps DefaultBaseURL.
func WithBaseURL(baseURL string) ClientOption {
	return func(s *settings) {
		if baseURL != "" {
			s.baseURL = baseURL
		}
	}
}

// WithEmbeddingModel sets the embedding model. Empty keeps DefaultEmbeddingModel.
func WithEmbeddingModel(model string) ClientOption {
	return func(s *settings) {
		if model != "" {
			s.embeddingModel = model
		}
	}
}

// WithChatModel sets the chat model. Empty keeps DefaultChatModel.
func WithChatModel(model string) ClientOption {
	return func(s *settings) {
		if model != "" {
			s.chatModel = model
		}
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(s *settings) {
		s.httpClient = c
	}
}

// NewClient creates a client. Local servers usually ignore apiKey; it may be empty.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	s := settings{
		baseURL:        DefaultBaseURL,
		embeddingModel: DefaultEmbeddingModel,
		chatModel:      DefaultChatModel,
	}

	for _, opt := range opts {
		opt(&s)
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = s.baseURL

	if s.httpClient != nil {
		cfg.HTTPClient = s.httpClient
	}

	return &Client{
		api:            openai.NewClientWithConfig(cfg),
		embeddingModel: s.embeddingModel,
		chatModel:      s.chatModel,
	}
}

// EmbedOne returns the embedding for text.
func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	out, err := c.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return out[0], nil
}

// EmbedMany sends all texts in one request. Results are placed by their reported index.
func (c *Client) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("compat embeddings: %w", err)
	}

	byIndex := make(map[int][]float32, len(resp.Data))
	for _, d := range resp.Data {
		byIndex[d.Index] = d.Embedding
	}

	return embeddings.Align(len(texts), func(i int) []float32 { return byIndex[i] }), nil
}

// Generate sends prompt as a single user message and returns the first choice, or "" when there is none.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("compat chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}

var _ embeddings.Gateway = (*Client)(nil)
