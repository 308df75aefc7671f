package models

import (
	"time"
)

// DetectionStatus is the monitoring API's processing state for a log record.
type DetectionStatus string

const (
	// DetectionStatusPending means detection has not started yet
	DetectionStatusPending DetectionStatus = "pending"
	// DetectionStatusRunning means detection is in progress
	DetectionStatusRunning DetectionStatus = "running"
	// DetectionStatusCompleted means detection results are available
	DetectionStatusCompleted DetectionStatus = "completed"
)

// Terminal reports whether polling can stop for this status.
func (s DetectionStatus) Terminal() bool {
	return s == DetectionStatusCompleted
}

// DocumentRelevancy is the per-document relevance verdict inside a detection.
type DocumentRelevancy struct {
	Content    string `json:"content"`
	URL        string `json:"url,omitempty"`
	IsRelevant bool   `json:"is_relevant"`
}

// Detection is a completed analysis for one submitted log record.
type Detection struct {
	LogID            string              `json:"log_id" badgerhold:"index"`
	RunID            string              `json:"run_id" badgerhold:"index"`
	Status           DetectionStatus     `json:"status"`
	HasHallucination bool                `json:"has_hallucination"`
	Documents        []DocumentRelevancy `json:"log_documents"`
	CompletedAt      *time.Time          `json:"completed_at,omitempty"`
	FetchedAt        time.Time           `json:"fetched_at"`
}

// RelevantCount returns how many analyzed documents were marked relevant.
func (d *Detection) RelevantCount() int {
	count := 0
	for _, doc := range d.Documents {
		if doc.IsRelevant {
			count++
		}
	}
	return count
}

// RelevanceRatio returns relevant/total for this detection. The second
// return is false when the detection analyzed no documents, in which case
// the detection contributes nothing to averages.
func (d *Detection) RelevanceRatio() (float64, bool) {
	if len(d.Documents) == 0 {
		return 0, false
	}
	return float64(d.RelevantCount()) / float64(len(d.Documents)), true
}
