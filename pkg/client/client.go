// Package client is a Go client for the askhub HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultBaseURL  = "http://localhost:8080"
	defaultRetryMax = 2
	defaultTimeout  = 2 * time.Minute
)

// ClientOptions configures the askhub API client.
type ClientOptions struct {
	// BaseURL is the server root (default: "http://localhost:8080"). A trailing /v1 is stripped.
	BaseURL string
	// RetryMax is the maximum number of retries for transport errors, 429, 502 and 504 (default: 2).
	// Negative disables retries.
	RetryMax int
	// Timeout is the HTTP client timeout per attempt (default: 2 minutes).
	Timeout time.Duration
}

// Client is the askhub API client.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

// NewClient creates a client for baseURL with default settings.
func NewClient(baseURL string) *Client {
	return NewClientWithOptions(ClientOptions{BaseURL: baseURL})
}

// NewClientWithOptions creates a client with custom options.
func NewClientWithOptions(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}

	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/v1")

	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}

	switch {
	case opts.RetryMax == 0:
		opts.RetryMax = defaultRetryMax
	case opts.RetryMax < 0:
		opts.RetryMax = 0
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.CheckRetry = retryPolicy
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: retryClient,
	}
}

// retryPolicy retries transport failures and responses that mean nothing was stored:
// 429, 502 (provider failed before insert) and 504. 500 and 503 are returned as is.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusGatewayTimeout:
		return true, nil
	default:
		return false, nil
	}
}

// APIError is a non-2xx response. Title and Detail come from the Problem Details body when present.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
	Errors     []FieldError
}

// FieldError is one field-level validation failure.
type FieldError struct {
	Location string `json:"location"`
	Message  string `json:"message"`
	Value    any    `json:"value,omitempty"`
}

func (e *APIError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("askhub: %d %s: %s", e.StatusCode, e.Title, e.Detail)
	case e.Title != "":
		return fmt.Sprintf("askhub: %d %s", e.StatusCode, e.Title)
	default:
		return fmt.Sprintf("askhub: unexpected status %d", e.StatusCode)
	}
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError

	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// IngestRequest is the body for POST /v1/ingest.
type IngestRequest struct {
	Text       string `json:"text"`
	SourceType string `json:"sourceType,omitempty"` //nolint:tagliatelle // API contract
	SourceName string `json:"sourceName,omitempty"` //nolint:tagliatelle // API contract
}

// IngestResponse reports how many chunks were stored.
type IngestResponse struct {
	Chunks int `json:"chunks"`
}

// TopChunk identifies one chunk used to answer a query.
type TopChunk struct {
	ID         uuid.UUID `json:"id"`
	SourceType string    `json:"sourceType"` //nolint:tagliatelle // API contract
	SourceName string    `json:"sourceName"` //nolint:tagliatelle // API contract
	Score      float64   `json:"score"`
}

// QueryResponse is the answer to a message. TopChunks is empty for greetings.
type QueryResponse struct {
	Answer    string     `json:"answer"`
	TopChunks []TopChunk `json:"topChunks"` //nolint:tagliatelle // API contract
}

// Chunk is a stored chunk without its embedding.
type Chunk struct {
	ID         uuid.UUID `json:"id"`
	Text       string    `json:"text"`
	SourceType string    `json:"sourceType"` //nolint:tagliatelle // API contract
	SourceName string    `json:"sourceName"` //nolint:tagliatelle // API contract
	Dimensions int       `json:"dimensions"`
	CreatedAt  time.Time `json:"createdAt"` //nolint:tagliatelle // API contract
}

// ListChunksOptions filters GET /v1/chunks. Zero values use the server defaults.
type ListChunksOptions struct {
	SourceType string
	Limit      int
	Offset     int
}

// ListChunksResponse is one page of stored chunks.
type ListChunksResponse struct {
	Data   []Chunk `json:"data"`
	Total  int64   `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// Ingest chunks, embeds and stores text.
func (c *Client) Ingest(ctx context.Context, req IngestRequest) (*IngestResponse, error) {
	var out IngestResponse
	if err := c.do(ctx, http.MethodPost, "/v1/ingest", req, http.StatusCreated, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// Query asks a question (or greets) and returns the generated answer.
func (c *Client) Query(ctx context.Context, message string) (*QueryResponse, error) {
	body := struct {
		Message string `json:"message"`
	}{Message: message}

	var out QueryResponse
	if err := c.do(ctx, http.MethodPost, "/v1/query", body, http.StatusOK, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ListChunks returns one page of stored chunks, oldest first.
func (c *Client) ListChunks(ctx context.Context, opts ListChunksOptions) (*ListChunksResponse, error) {
	params := url.Values{}
	if opts.SourceType != "" {
		params.Set("sourceType", opts.SourceType)
	}

	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}

	path := "/v1/chunks"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var out ListChunksResponse
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// Health returns nil when GET /health answers 200.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, http.StatusOK, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in any, wantStatus int, out any) error {
	var body io.Reader

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}

		body = bytes.NewReader(payload)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != wantStatus {
		return decodeAPIError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var problem struct {
		Title  string       `json:"title"`
		Detail string       `json:"detail"`
		Errors []FieldError `json:"errors"`
	}
	if err := json.Unmarshal(body, &problem); err == nil {
		apiErr.Title = problem.Title
		apiErr.Detail = problem.Detail
		apiErr.Errors = problem.Errors
	} else {
		apiErr.Detail = strings.TrimSpace(string(body))
	}

	return apiErr
}
