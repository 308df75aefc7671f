package linkup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/ternarybob/arbor"
)

const (
	// DefaultBaseURL is the Linkup API endpoint.
	DefaultBaseURL = "https://api.linkup.so/v1"

	// DefaultTimeout for HTTP requests. Deep searches can take a while.
	DefaultTimeout = 60 * time.Second

	// DefaultRateInterval spaces requests to stay within plan limits.
	DefaultRateInterval = 200 * time.Millisecond
)

// Client is a Linkup API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the minimum interval between requests.
func WithRateLimit(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// NewClient creates a Linkup API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(DefaultRateInterval), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Search runs a search with outputType "searchResults" and returns the
// raw result list.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	req.OutputType = OutputSearchResults
	if req.Depth == "" {
		req.Depth = DepthStandard
	}

	var resp SearchResponse
	if err := c.post(ctx, "/search", req, &resp); err != nil {
		return nil, err
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("query", req.Query).
			Int("results", len(resp.Results)).
			Msg("Linkup search completed")
	}

	return &resp, nil
}

// SearchSourcedAnswer runs a search with outputType "sourcedAnswer",
// returning a synthesized answer plus its source citations.
func (c *Client) SearchSourcedAnswer(ctx context.Context, req SearchRequest) (*SourcedAnswerResponse, error) {
	req.OutputType = OutputSourcedAnswer
	if req.Depth == "" {
		req.Depth = DepthStandard
	}

	var resp SourcedAnswerResponse
	if err := c.post(ctx, "/search", req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
