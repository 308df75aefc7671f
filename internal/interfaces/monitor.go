package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/verax/internal/models"
)

// MonitorService is the client for the hallucination detection API.
//
// Submission and polling are deliberately separate: Submit returns as soon
// as the API accepts the record, and detections are fetched later, usually
// in parallel for a whole batch.
type MonitorService interface {
	// Submit sends one log record for analysis and returns the log ID the
	// API assigned. It never waits for detection to finish.
	Submit(ctx context.Context, record *models.LogRecord) (string, error)

	// Poll fetches the detection for a log ID, retrying on an interval until
	// the detection completes or the timeout elapses. On timeout it returns
	// a *PollTimeoutError (see services/monitor); it never returns a partial
	// detection.
	Poll(ctx context.Context, logID string, timeout time.Duration) (*models.Detection, error)
}
