package models

import (
	"time"
)

// RunStatus tracks a batch run's lifecycle.
type RunStatus string

const (
	// RunStatusRunning means the run is submitting or polling
	RunStatusRunning RunStatus = "running"
	// RunStatusCompleted means every record reached a terminal state
	RunStatusCompleted RunStatus = "completed"
	// RunStatusCancelled means the run was aborted; submitted records persist
	RunStatusCancelled RunStatus = "cancelled"
)

// Run is one batch execution over a question set.
type Run struct {
	ID        string    `json:"id"` // run_{uuid}
	Status    RunStatus `json:"status" badgerhold:"index"`
	Provider  string    `json:"provider"` // Search provider used for retrieval
	Model     string    `json:"model"`    // Generation model used for answers
	Questions int       `json:"questions"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// QuestionResult is the per-question outcome included in a run report.
type QuestionResult struct {
	Index  int    `json:"index"`
	Query  string `json:"query"`
	Answer string `json:"answer,omitempty"`

	RecordID string       `json:"record_id,omitempty"`
	LogID    string       `json:"log_id,omitempty"`
	Status   RecordStatus `json:"status"`
	Error    string       `json:"error,omitempty"`

	// Detection outcomes; nil until the detection completes
	Hallucinated   *bool    `json:"hallucinated,omitempty"`
	RelevanceRatio *float64 `json:"relevance_ratio,omitempty"`
	DocumentCount  int      `json:"document_count"`
}

// RunReport is the aggregated outcome of a run. Rate fields are nil when
// undefined, i.e. when no valid detections back them.
type RunReport struct {
	RunID    string `json:"run_id"`
	Provider string `json:"provider"`
	Model    string `json:"model"`

	Total        int `json:"total"`
	Submitted    int `json:"submitted"`
	SubmitFailed int `json:"submit_failed"`
	Completed    int `json:"completed"`
	TimedOut     int `json:"timed_out"`

	HallucinationRate *float64 `json:"hallucination_rate,omitempty"`
	Hallucinated      int      `json:"hallucinated"`
	AvgRelevance      *float64 `json:"avg_relevance,omitempty"`

	Results     []QuestionResult `json:"results"`
	GeneratedAt time.Time        `json:"generated_at"`
	Elapsed     time.Duration    `json:"elapsed"`
}
