package models

import (
	"time"
)

// RecordStatus tracks a log record through the submit/poll lifecycle.
type RecordStatus string

const (
	// RecordStatusPending means the record exists but was not yet submitted
	RecordStatusPending RecordStatus = "pending"
	// RecordStatusSubmitted means the monitoring API accepted the record
	RecordStatusSubmitted RecordStatus = "submitted"
	// RecordStatusCompleted means the detection result was fetched
	RecordStatusCompleted RecordStatus = "completed"
	// RecordStatusTimeout means polling hit its deadline before completion
	RecordStatusTimeout RecordStatus = "timeout"
	// RecordStatusFailed means retrieval, generation, or submission failed
	RecordStatusFailed RecordStatus = "failed"
)

// LogRecord is one (query, answer, documents) triple submitted to the
// monitoring API, persisted locally so interrupted runs can resume polling.
type LogRecord struct {
	// Identity
	ID    string `json:"id"`                        // rec_{uuid}
	RunID string `json:"run_id" badgerhold:"index"` // Batch run this record belongs to
	LogID string `json:"log_id" badgerhold:"index"` // ID assigned by the monitoring API on submit
	Index int    `json:"index"`                     // Position within the run

	// Payload
	Query     string            `json:"query"`
	Answer    string            `json:"answer"`
	Documents []Document        `json:"documents"`
	Tags      map[string]string `json:"tags,omitempty"`

	// Lifecycle
	Status RecordStatus `json:"status" badgerhold:"index"`
	Error  string       `json:"error,omitempty"` // Failure reason when Status is failed

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Submitted reports whether the record reached the monitoring API.
func (r *LogRecord) Submitted() bool {
	return r.LogID != ""
}

// NeedsPoll reports whether a detection result is still outstanding.
func (r *LogRecord) NeedsPoll() bool {
	return r.Submitted() && (r.Status == RecordStatusSubmitted || r.Status == RecordStatusTimeout)
}
