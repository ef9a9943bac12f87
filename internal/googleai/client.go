// Package googleai provides a thin wrapper around the Google Gen AI SDK (Gemini API) for embeddings and generation.
package googleai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/askhub/hub/internal/embeddings"
)

var (
	// ErrEmptyInput is returned when EmbedOne is called with blank text.
	ErrEmptyInput = errors.New("googleai: input text is empty")
	// ErrInvalidDims is returned when the requested dimensions do not fit the API's int32 field.
	ErrInvalidDims = errors.New("googleai: embedding dimensions out of range")
)

const (
	defaultEmbeddingModel = "gemini-embedding-001"
	defaultChatModel      = "gemini-2.5-flash"
)

// Client calls the Gemini embeddings and generation APIs via the Google Gen AI SDK.
type Client struct {
	client         *genai.Client
	embeddingModel string
	chatModel      string
	dimensions     int
}

type settings struct {
	embeddingModel string
	chatModel      string
	dimensions     int
	baseURL        string
	httpClient     *http.Client
}

// ClientOption configures the Client.
type ClientOption func(*settings)

// WithEmbeddingModel sets the embedding model name. Empty uses gemini-embedding-001.
func WithEmbeddingModel(model string) ClientOption {
	return func(s *settings) {
		if model != "" {
			s.embeddingModel = model
		}
	}
}

// WithChatModel sets the generation model name. Empty uses gemini-2.5-flash.
func WithChatModel(model string) ClientOption {
	return func(s *settings) {
		if model != "" {
			s.chatModel = model
		}
	}
}

// WithDimensions requests a reduced output dimensionality. 0 uses the model default.
func WithDimensions(dim int) ClientOption {
	return func(s *settings) {
		s.dimensions = dim
	}
}

// WithBaseURL overrides the Gemini API endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(s *settings) {
		s.baseURL = baseURL
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(s *settings) {
		s.httpClient = c
	}
}

// NewClient creates a Gemini client.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	s := settings{
		embeddingModel: defaultEmbeddingModel,
		chatModel:      defaultChatModel,
	}

	for _, opt := range opts {
		opt(&s)
	}

	if s.dimensions < 0 || s.dimensions > math.MaxInt32 {
		return nil, ErrInvalidDims
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  s.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: s.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("googleai client: %w", err)
	}

	return &Client{
		client:         genaiClient,
		embeddingModel: s.embeddingModel,
		chatModel:      s.chatModel,
		dimensions:     s.dimensions,
	}, nil
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

// EmbedMany embeds all texts in one EmbedContent call. The API answers in input order;
// missing or empty items become empty vectors.
func (c *Client) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	var cfg *genai.EmbedContentConfig
	if c.dimensions > 0 {
		//nolint:gosec // G115: bounded by math.MaxInt32 in NewClient
		dim := int32(c.dimensions)
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &dim}
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding: %w", err)
	}

	return alignEmbeddings(len(texts), resp), nil
}

// Generate returns the text of the first candidate, or "" when the response has none.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.chatModel, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	return firstCandidateText(resp), nil
}

func alignEmbeddings(n int, resp *genai.EmbedContentResponse) [][]float32 {
	return embeddings.Align(n, func(i int) []float32 {
		if resp == nil || i >= len(resp.Embeddings) || resp.Embeddings[i] == nil {
			return nil
		}

		return resp.Embeddings[i].Values
	})
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	content := resp.Candidates[0].Content
	if content == nil {
		return ""
	}

	var sb strings.Builder

	for _, part := range content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}

	return sb.String()
}

var _ embeddings.Gateway = (*Client)(nil)
