// Package anthropic generates answers with Claude models through the Anthropic Go SDK.
package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 1024
)

// Client implements the answer generator with the Messages API. Anthropic has no embeddings endpoint,
// so it is only selectable as a generation provider.
type Client struct {
	sdk       anthropicsdk.Client
	model     string
	maxTokens int64
}

type settings struct {
	model       string
	maxTokens   int64
	requestOpts []option.RequestOption
}

// ClientOption configures the Client.
type ClientOption func(*settings)

// WithModel sets the model. Empty keeps the default.
func WithModel(model string) ClientOption {
	return func(s *settings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithMaxTokens caps the answer length.
func WithMaxTokens(n int64) ClientOption {
	return func(s *settings) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithBaseURL overrides the API endpoint.
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

// NewClient creates a Messages API client with SDK retries disabled.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	s := settings{
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
		requestOpts: []option.RequestOption{
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(0),
		},
	}

	for _, opt := range opts {
		opt(&s)
	}

	return &Client{
		sdk:       anthropicsdk.NewClient(s.requestOpts...),
		model:     s.model,
		maxTokens: s.maxTokens,
	}
}

// Generate sends prompt as one user message and returns the concatenated text blocks of the reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.sdk.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var sb strings.Builder

	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return sb.String(), nil
}
