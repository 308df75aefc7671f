package interfaces

import (
	"context"

	"github.com/ternarybob/verax/internal/models"
)

// RunStorage - interface for batch run persistence
type RunStorage interface {
	SaveRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error)
	DeleteRun(ctx context.Context, id string) error
}

// RecordStorage - interface for submitted log record persistence
type RecordStorage interface {
	SaveRecord(ctx context.Context, record *models.LogRecord) error
	GetRecord(ctx context.Context, id string) (*models.LogRecord, error)
	GetRecordByLogID(ctx context.Context, logID string) (*models.LogRecord, error)
	GetRecordsByRun(ctx context.Context, runID string) ([]*models.LogRecord, error)

	// GetPollableRecords returns records in the run that were submitted but
	// whose detections were never fetched (submitted or timed out earlier)
	GetPollableRecords(ctx context.Context, runID string) ([]*models.LogRecord, error)

	CountByStatus(ctx context.Context, runID string, status models.RecordStatus) (int, error)
	DeleteRecordsByRun(ctx context.Context, runID string) error
}

// DetectionStorage - interface for fetched detection persistence
type DetectionStorage interface {
	SaveDetection(ctx context.Context, detection *models.Detection) error
	GetDetection(ctx context.Context, logID string) (*models.Detection, error)
	GetDetectionsByRun(ctx context.Context, runID string) ([]*models.Detection, error)
	DeleteDetectionsByRun(ctx context.Context, runID string) error
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	RunStorage() RunStorage
	RecordStorage() RecordStorage
	DetectionStorage() DetectionStorage
	Close() error
}
