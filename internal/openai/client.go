// Package openai provides a thin wrapper around the official OpenAI Go SDK for embeddings and chat completions.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/askhub/hub/internal/embeddings"
)

// ErrEmptyInput is returned when EmbedOne is called with blank text.
var ErrEmptyInput = errors.New("openai: input text is empty")

const (
	defaultEmbeddingModel = "text-embedding-3-small"
	defaultChatModel      = "gpt-4o-mini"
)

// Client calls the OpenAI embeddings and chat completions APIs via the official SDK.
// The SDK's automatic retries are disabled; a failed call fails the request.
type Client struct {
	sdk            openaisdk.Client
	embeddingModel string
	chatModel      string
	dimensions     int
}

type settings struct {
	client      Client
	requestOpts []option.RequestOption
}

// ClientOption configures the Client.
type ClientOption func(*settings)

// WithEmbeddingModel sets the embedding model. Empty keeps text-embedding-3-small.
func WithEmbeddingModel(model string) ClientOption {
	return func(s *settings) {
		if model != "" {
			s.client.embeddingModel = model
		}
	}
}

// WithChatModel sets the chat model. Empty keeps gpt-4o-mini.
func WithChatModel(model string) ClientOption {
	return func(s *settings) {
		if model != "" {
			s.client.chatModel = model
		}
	}
}

// WithDimensions requests shortened embeddings. 0 uses the model's native size.
func WithDimensions(dim int) ClientOption {
	return func(s *settings) {
		s.client.dimensions = dim
	}
}

// WithBaseURL points the client at another API root (proxies, Azure-style gateways, tests).
func WithBaseURL(baseURL string) ClientOption {
	return func(s *settings) {
		if baseURL != "" {
			s.requestOpts = append(s.requestOpts, option.WithBaseURL(baseURL))
		}
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(s *settings) {
		s.requestOpts = append(s.requestOpts, option.WithHTTPClient(c))
	}
}

// NewClient creates an OpenAI client using the official SDK.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	s := settings{
		client: Client{
			embeddingModel: defaultEmbeddingModel,
			chatModel:      defaultChatModel,
		},
		requestOpts: []option.RequestOption{
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(0),
		},
	}

	for _, opt := range opts {
		opt(&s)
	}

	client := s.client
	client.sdk = openaisdk.NewClient(s.requestOpts...)

	return &client
}

// EmbedOne returns the embedding vector for text.
func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	out, err := c.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return out[0], nil
}

// EmbedMany embeds all texts in one request. Results are placed by their reported index;
// anything missing becomes an empty vector.
func (c *Client) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	params := openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model: openaisdk.EmbeddingModel(c.embeddingModel),
	}
	if c.dimensions > 0 {
		params.Dimensions = param.NewOpt(int64(c.dimensions))
	}

	resp, err := c.sdk.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai embedding: %w", err)
	}

	byIndex := make(map[int64][]float64, len(resp.Data))
	for _, d := range resp.Data {
		byIndex[d.Index] = d.Embedding
	}

	return embeddings.Align(len(texts), func(i int) []float32 {
		return toFloat32(byIndex[int64(i)])
	}), nil
}

// Generate sends prompt as a single user message and returns the first choice, or "" when there is none.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.sdk.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(c.chatModel),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}

func toFloat32(v []float64) []float32 {
	if len(v) == 0 {
		return nil
	}

	out := make([]float32, len(v))
	for i := range v {
		out[i] = float32(v[i])
	}

	return out
}

var _ embeddings.Gateway = (*Client)(nil)
