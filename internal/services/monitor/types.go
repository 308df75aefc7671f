package monitor

import (
	"fmt"
	"time"
)

// LogRequest is the body for POST /logs. One request per answered query.
type LogRequest struct {
	AppName             string            `json:"app_name"`
	Environment         string            `json:"environment"`
	UserQuery           string            `json:"user_query"`
	ModelOutput         string            `json:"model_output"`
	Documents           []LogDocument     `json:"documents"`
	Tags                map[string]string `json:"tags,omitempty"`
	Detections          []string          `json:"detections"`
	DetectionSampleRate float64           `json:"detection_sample_rate"`
}

// LogDocument is one retrieved context document as submitted for analysis.
type LogDocument struct {
	PageContent string            `json:"page_content"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// LogResponse is the response for POST /logs.
type LogResponse struct {
	LogID string `json:"log_id"`
}

// DetectionResponse is the body of GET /logs/{id}/detections. Absent or
// non-terminal until the remote detection pipeline finishes.
type DetectionResponse struct {
	LogID            string              `json:"log_id"`
	Status           string              `json:"status"`
	HasHallucination bool                `json:"has_hallucination"`
	LogDocuments     []DetectionDocument `json:"log_documents"`
	CompletedAt      *time.Time          `json:"completed_at,omitempty"`
}

// DetectionDocument is the per-document relevance verdict in a detection.
type DetectionDocument struct {
	Content    string `json:"content"`
	URL        string `json:"url,omitempty"`
	IsRelevant bool   `json:"is_relevant"`
}

// APIError represents an error response from the monitoring API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("monitor api error: %d %s (endpoint: %s)", e.StatusCode, e.Message, e.Endpoint)
}

// PollTimeoutError reports that a detection did not complete within the
// poll window. It never carries partial detection data; callers drop the
// record from aggregates instead of treating it as a result.
type PollTimeoutError struct {
	LogID   string
	Timeout time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("detection for log %s not ready after %s", e.LogID, e.Timeout)
}
