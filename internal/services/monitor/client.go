package monitor

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
	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/models"
)

const (
	// DefaultBaseURL is the Quotient monitoring API endpoint.
	DefaultBaseURL = "https://api.quotientai.co/api/v1"

	// DefaultTimeout for individual HTTP requests.
	DefaultTimeout = 30 * time.Second

	// DefaultRateInterval spaces requests to stay within plan limits.
	DefaultRateInterval = 100 * time.Millisecond

	// DefaultPollInterval is the wait between detection fetches.
	DefaultPollInterval = 5 * time.Second

	// DefaultPollTimeout is the ceiling for one detection to complete.
	// Observed pipeline latency tops out around five minutes.
	DefaultPollTimeout = 300 * time.Second
)

// Client submits log records to the monitoring API and polls for their
// detections. It implements the MonitorService interface.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter

	appName      string
	environment  string
	detections   []string
	sampleRate   float64
	pollInterval time.Duration
	tags         map[string]string
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

// WithApp sets the application name and environment reported with every log.
func WithApp(name, environment string) ClientOption {
	return func(c *Client) {
		c.appName = name
		c.environment = environment
	}
}

// WithDetections sets the detection types requested for every log.
func WithDetections(detections []string, sampleRate float64) ClientOption {
	return func(c *Client) {
		c.detections = detections
		c.sampleRate = sampleRate
	}
}

// WithPollInterval sets the wait between detection fetches.
func WithPollInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.pollInterval = interval
	}
}

// WithTags sets tags attached to every submitted log, merged with
// per-record tags.
func WithTags(tags map[string]string) ClientOption {
	return func(c *Client) {
		c.tags = tags
	}
}

// NewClient creates a monitoring API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:      rate.NewLimiter(rate.Every(DefaultRateInterval), 1),
		appName:      "verax",
		environment:  "dev",
		detections:   []string{"hallucination", "document_relevancy"},
		sampleRate:   1.0,
		pollInterval: DefaultPollInterval,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewClientFromConfig builds a client from the monitor configuration.
func NewClientFromConfig(config *common.Config, logger arbor.ILogger) (*Client, error) {
	if config.Monitor.APIKey == "" {
		return nil, fmt.Errorf("monitoring API key is required (set QUOTIENT_API_KEY or monitor.api_key in config)")
	}

	opts := []ClientOption{
		WithLogger(logger),
		WithApp(config.Monitor.App, config.MonitorEnvironment()),
		WithDetections(config.Monitor.Detections, config.Monitor.SampleRate),
		WithPollInterval(common.DurationOr(config.Monitor.PollInterval, DefaultPollInterval)),
	}
	if config.Monitor.BaseURL != "" {
		opts = append(opts, WithBaseURL(config.Monitor.BaseURL))
	}
	if config.Monitor.RateLimit != "" {
		opts = append(opts, WithRateLimit(common.DurationOr(config.Monitor.RateLimit, DefaultRateInterval)))
	}
	if requestTimeout := common.DurationOr(config.Monitor.RequestTimeout, 0); requestTimeout > 0 {
		opts = append(opts, WithHTTPClient(&http.Client{Timeout: requestTimeout}))
	}
	if len(config.Monitor.Tags) > 0 {
		opts = append(opts, WithTags(config.Monitor.Tags))
	}

	return NewClient(config.Monitor.APIKey, opts...), nil
}

// Submit sends one log record for detection and returns the server-assigned
// log ID. It never waits for the detection itself.
func (c *Client) Submit(ctx context.Context, record *models.LogRecord) (string, error) {
	req := LogRequest{
		AppName:             c.appName,
		Environment:         c.environment,
		UserQuery:           record.Query,
		ModelOutput:         record.Answer,
		Documents:           convertDocuments(record.Documents),
		Tags:                c.mergeTags(record.Tags),
		Detections:          c.detections,
		DetectionSampleRate: c.sampleRate,
	}

	var resp LogResponse
	if err := c.post(ctx, "/logs", req, &resp); err != nil {
		return "", err
	}
	if resp.LogID == "" {
		return "", fmt.Errorf("monitoring API returned an empty log_id")
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("log_id", resp.LogID).
			Int("documents", len(record.Documents)).
			Msg("Log record submitted")
	}

	return resp.LogID, nil
}

// GetDetection fetches the current detection state for a log ID. A 404
// means the detection pipeline has not produced anything yet.
func (c *Client) GetDetection(ctx context.Context, logID string) (*models.Detection, error) {
	var resp DetectionResponse
	if err := c.get(ctx, "/logs/"+logID+"/detections", &resp); err != nil {
		return nil, err
	}
	return convertDetection(logID, &resp), nil
}

// Poll blocks until the detection for logID completes, the timeout
// elapses, or the context is cancelled. A timeout yields *PollTimeoutError
// and never a partial detection. Cancellation yields the context error.
func (c *Client) Poll(ctx context.Context, logID string, timeout time.Duration) (*models.Detection, error) {
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	deadline := time.Now().Add(timeout)

	for {
		detection, err := c.GetDetection(ctx, logID)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == http.StatusNotFound {
				// Not ready yet, keep waiting.
				detection = nil
			} else {
				return nil, err
			}
		}

		if detection != nil && detection.Status.Terminal() {
			if c.logger != nil {
				c.logger.Debug().
					Str("log_id", logID).
					Bool("has_hallucination", detection.HasHallucination).
					Int("documents", len(detection.Documents)).
					Msg("Detection completed")
			}
			return detection, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, &PollTimeoutError{LogID: logID, Timeout: timeout}
		}

		wait := c.pollInterval
		if wait > remaining {
			wait = remaining
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) mergeTags(recordTags map[string]string) map[string]string {
	if len(c.tags) == 0 {
		return recordTags
	}
	merged := make(map[string]string, len(c.tags)+len(recordTags))
	for k, v := range c.tags {
		merged[k] = v
	}
	for k, v := range recordTags {
		merged[k] = v
	}
	return merged
}

func convertDocuments(docs []models.Document) []LogDocument {
	out := make([]LogDocument, len(docs))
	for i, doc := range docs {
		out[i] = LogDocument{
			PageContent: doc.Content,
			Metadata: map[string]string{
				"title":  doc.Title,
				"url":    doc.URL,
				"source": doc.Provider,
			},
		}
	}
	return out
}

func convertDetection(logID string, resp *DetectionResponse) *models.Detection {
	detection := &models.Detection{
		LogID:            logID,
		Status:           models.DetectionStatus(resp.Status),
		HasHallucination: resp.HasHallucination,
		CompletedAt:      resp.CompletedAt,
		FetchedAt:        time.Now(),
	}
	for _, doc := range resp.LogDocuments {
		detection.Documents = append(detection.Documents, models.DocumentRelevancy{
			Content:    doc.Content,
			URL:        doc.URL,
			IsRelevant: doc.IsRelevant,
		})
	}
	return detection
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

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
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

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)

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
