package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verax/internal/interfaces"
	"github.com/ternarybob/verax/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// DetectionStorage implements the DetectionStorage interface for Badger.
// Detections are keyed by the log ID the monitor API assigned.
type DetectionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDetectionStorage creates a new DetectionStorage instance
func NewDetectionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.DetectionStorage {
	return &DetectionStorage{
		db:     db,
		logger: logger,
	}
}

func (s *DetectionStorage) SaveDetection(ctx context.Context, detection *models.Detection) error {
	if detection.LogID == "" {
		return fmt.Errorf("detection log ID is required")
	}

	if err := s.db.Store().Upsert(detection.LogID, detection); err != nil {
		return fmt.Errorf("failed to save detection: %w", err)
	}
	return nil
}

func (s *DetectionStorage) GetDetection(ctx context.Context, logID string) (*models.Detection, error) {
	var detection models.Detection
	if err := s.db.Store().Get(logID, &detection); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("detection not found: %s", logID)
		}
		return nil, fmt.Errorf("failed to get detection: %w", err)
	}
	return &detection, nil
}

func (s *DetectionStorage) GetDetectionsByRun(ctx context.Context, runID string) ([]*models.Detection, error) {
	var detections []models.Detection
	if err := s.db.Store().Find(&detections, badgerhold.Where("RunID").Eq(runID)); err != nil {
		return nil, fmt.Errorf("failed to get detections by run: %w", err)
	}

	result := make([]*models.Detection, len(detections))
	for i := range detections {
		result[i] = &detections[i]
	}
	return result, nil
}

func (s *DetectionStorage) DeleteDetectionsByRun(ctx context.Context, runID string) error {
	if err := s.db.Store().DeleteMatching(&models.Detection{}, badgerhold.Where("RunID").Eq(runID)); err != nil {
		return fmt.Errorf("failed to delete detections by run: %w", err)
	}
	return nil
}
