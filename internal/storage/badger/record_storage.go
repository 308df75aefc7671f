package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verax/internal/interfaces"
	"github.com/ternarybob/verax/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// RecordStorage implements the RecordStorage interface for Badger
type RecordStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRecordStorage creates a new RecordStorage instance
func NewRecordStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RecordStorage {
	return &RecordStorage{
		db:     db,
		logger: logger,
	}
}

func (s *RecordStorage) SaveRecord(ctx context.Context, record *models.LogRecord) error {
	if record.ID == "" {
		return fmt.Errorf("record ID is required")
	}

	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

func (s *RecordStorage) GetRecord(ctx context.Context, id string) (*models.LogRecord, error) {
	var record models.LogRecord
	if err := s.db.Store().Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("record not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &record, nil
}

func (s *RecordStorage) GetRecordByLogID(ctx context.Context, logID string) (*models.LogRecord, error) {
	if logID == "" {
		return nil, fmt.Errorf("log ID is required")
	}

	var records []models.LogRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("LogID").Eq(logID).Limit(1)); err != nil {
		return nil, fmt.Errorf("failed to get record by log ID: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("record not found for log ID: %s", logID)
	}
	return &records[0], nil
}

func (s *RecordStorage) GetRecordsByRun(ctx context.Context, runID string) ([]*models.LogRecord, error) {
	var records []models.LogRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("RunID").Eq(runID).SortBy("Index")); err != nil {
		return nil, fmt.Errorf("failed to get records by run: %w", err)
	}

	result := make([]*models.LogRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

func (s *RecordStorage) GetPollableRecords(ctx context.Context, runID string) ([]*models.LogRecord, error) {
	var records []models.LogRecord
	query := badgerhold.Where("RunID").Eq(runID).
		And("Status").In(models.RecordStatusSubmitted, models.RecordStatusTimeout).
		SortBy("Index")
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to get pollable records: %w", err)
	}

	// Records without a log ID never made it to the API and cannot be polled.
	result := make([]*models.LogRecord, 0, len(records))
	for i := range records {
		if records[i].Submitted() {
			result = append(result, &records[i])
		}
	}
	return result, nil
}

func (s *RecordStorage) CountByStatus(ctx context.Context, runID string, status models.RecordStatus) (int, error) {
	count, err := s.db.Store().Count(&models.LogRecord{}, badgerhold.Where("RunID").Eq(runID).And("Status").Eq(status))
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return int(count), nil
}

func (s *RecordStorage) DeleteRecordsByRun(ctx context.Context, runID string) error {
	if err := s.db.Store().DeleteMatching(&models.LogRecord{}, badgerhold.Where("RunID").Eq(runID)); err != nil {
		return fmt.Errorf("failed to delete records by run: %w", err)
	}
	return nil
}
