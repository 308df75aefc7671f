package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/interfaces"
	"github.com/ternarybob/verax/internal/models"
	"github.com/ternarybob/verax/internal/services/monitor"
	"github.com/ternarybob/verax/internal/services/report"
)

const defaultPollConcurrency = 50

// Runner executes a batch of questions through the retrieve → generate →
// submit → poll pipeline. Per-question failures are recorded and the batch
// continues; nothing short of cancellation aborts a run.
type Runner struct {
	config    *common.Config
	storage   interfaces.StorageManager
	retrieval interfaces.RetrievalService
	generator interfaces.GeneratorService
	agent     interfaces.AgentService
	monitor   interfaces.MonitorService
	logger    arbor.ILogger
}

// NewRunner creates a pipeline runner. The agent may be nil when the
// tool-calling answer path is disabled.
func NewRunner(
	config *common.Config,
	storage interfaces.StorageManager,
	retrieval interfaces.RetrievalService,
	generator interfaces.GeneratorService,
	agent interfaces.AgentService,
	monitorClient interfaces.MonitorService,
	logger arbor.ILogger,
) *Runner {
	return &Runner{
		config:    config,
		storage:   storage,
		retrieval: retrieval,
		generator: generator,
		agent:     agent,
		monitor:   monitorClient,
		logger:    logger,
	}
}

// Run executes the full pipeline over the source's questions and returns the
// aggregated report. Cancellation between questions aborts the batch;
// already-submitted records stay in the run store so their detections can be
// fetched later with Resume.
func (r *Runner) Run(ctx context.Context, source interfaces.QuestionSource) (*models.RunReport, error) {
	questions, err := source.Questions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions to run")
	}

	run := &models.Run{
		ID:        common.NewRunID(),
		Status:    models.RunStatusRunning,
		Provider:  r.retrieval.Provider(),
		Model:     r.generator.Model(),
		Questions: len(questions),
		StartedAt: time.Now(),
	}
	r.saveRun(ctx, run)

	r.logger.Info().
		Str("run_id", run.ID).
		Str("provider", run.Provider).
		Str("model", run.Model).
		Int("questions", len(questions)).
		Bool("agent", r.agentEnabled()).
		Msg("Starting run")

	records := make([]*models.LogRecord, 0, len(questions))
	for i, question := range questions {
		select {
		case <-ctx.Done():
			r.finishRun(run, models.RunStatusCancelled)
			return nil, fmt.Errorf("run %s cancelled after %d of %d questions: %w",
				run.ID, len(records), len(questions), ctx.Err())
		default:
		}

		records = append(records, r.processQuestion(ctx, run, i+1, question.Text))
	}

	detections := r.pollDetections(ctx, run, records)

	status := models.RunStatusCompleted
	if ctx.Err() != nil {
		status = models.RunStatusCancelled
	}
	r.finishRun(run, status)

	return report.BuildReport(run, derefRecords(records), detections), nil
}

// Resume fetches outstanding detections for a stored run and rebuilds its
// report. Records already completed contribute their stored detections.
func (r *Runner) Resume(ctx context.Context, runID string) (*models.RunReport, error) {
	run, err := r.storage.RunStorage().GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	records, err := r.storage.RecordStorage().GetRecordsByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("run %s has no records", runID)
	}

	detections := make(map[string]*models.Detection)
	stored, err := r.storage.DetectionStorage().GetDetectionsByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	for _, detection := range stored {
		detections[detection.LogID] = detection
	}

	for logID, detection := range r.pollDetections(ctx, run, records) {
		detections[logID] = detection
	}

	status := models.RunStatusCompleted
	if ctx.Err() != nil {
		status = models.RunStatusCancelled
	}
	r.finishRun(run, status)

	return report.BuildReport(run, derefRecords(records), detections), nil
}

// processQuestion runs one question through answer generation and
// submission. Failures are captured on the record, never returned.
func (r *Runner) processQuestion(ctx context.Context, run *models.Run, index int, query string) *models.LogRecord {
	now := time.Now()
	record := &models.LogRecord{
		ID:     common.NewRecordID(),
		RunID:  run.ID,
		Index:  index,
		Query:  query,
		Status: models.RecordStatusPending,
		Tags: map[string]string{
			"run_id":   run.ID,
			"provider": run.Provider,
			"model":    run.Model,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	answer, docs, err := r.answer(ctx, query)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Int("index", index).
			Str("query", query).
			Msg("Question failed, continuing batch")
		record.Status = models.RecordStatusFailed
		record.Error = err.Error()
		r.saveRecord(ctx, record)
		return record
	}
	record.Answer = answer
	record.Documents = docs

	logID, err := r.monitor.Submit(ctx, record)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Int("index", index).
			Msg("Submission failed, continuing batch")
		record.Status = models.RecordStatusFailed
		record.Error = fmt.Sprintf("submission failed: %v", err)
		r.saveRecord(ctx, record)
		return record
	}

	submitted := time.Now()
	record.LogID = logID
	record.Status = models.RecordStatusSubmitted
	record.SubmittedAt = &submitted
	record.UpdatedAt = submitted
	r.saveRecord(ctx, record)

	r.logger.Debug().
		Int("index", index).
		Str("log_id", logID).
		Int("documents", len(docs)).
		Msg("Question submitted")

	return record
}

// answer produces the answer and its supporting documents, through either
// the tool-calling agent or single-shot retrieve-then-generate.
func (r *Runner) answer(ctx context.Context, query string) (string, []models.Document, error) {
	if r.agentEnabled() {
		result, err := r.agent.Run(ctx, query)
		if err != nil {
			return "", nil, fmt.Errorf("agent failed: %w", err)
		}
		return result.Answer, result.Documents, nil
	}

	docs, err := r.retrieval.Search(ctx, query, interfaces.SearchOptions{
		MaxResults: r.config.Retrieval.MaxResults,
	})
	if err != nil {
		return "", nil, fmt.Errorf("retrieval failed: %w", err)
	}

	answer, err := r.generator.Answer(ctx, query, docs)
	if err != nil {
		return "", nil, fmt.Errorf("generation failed: %w", err)
	}
	return answer, docs, nil
}

// pollDetections fetches detections for every record still needing one,
// with bounded concurrency under a shared batch deadline. Completed
// detections are persisted and returned keyed by log ID.
func (r *Runner) pollDetections(ctx context.Context, run *models.Run, records []*models.LogRecord) map[string]*models.Detection {
	var pollable []*models.LogRecord
	for _, record := range records {
		if record.NeedsPoll() {
			pollable = append(pollable, record)
		}
	}
	if len(pollable) == 0 {
		return map[string]*models.Detection{}
	}

	timeout := common.DurationOr(r.config.Monitor.PollTimeout, monitor.DefaultPollTimeout)
	batchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	concurrency := r.config.Pipeline.PollConcurrency
	if concurrency <= 0 {
		concurrency = defaultPollConcurrency
	}

	r.logger.Info().
		Str("run_id", run.ID).
		Int("records", len(pollable)).
		Int("concurrency", concurrency).
		Dur("timeout", timeout).
		Msg("Polling for detections")

	results := make([]*models.Detection, len(pollable))

	var wg sync.WaitGroup

	// Semaphore for concurrency control
	sem := make(chan struct{}, concurrency)

	for i, record := range pollable {
		wg.Add(1)
		go func(idx int, rec *models.LogRecord) {
			defer wg.Done()

			sem <- struct{}{}        // Acquire
			defer func() { <-sem }() // Release

			results[idx] = r.pollRecord(batchCtx, run, rec, timeout)
		}(i, record)
	}

	wg.Wait()

	detections := make(map[string]*models.Detection, len(pollable))
	for _, detection := range results {
		if detection != nil {
			detections[detection.LogID] = detection
		}
	}
	return detections
}

// pollRecord polls one record and updates its stored state. Returns the
// detection on completion, nil otherwise.
func (r *Runner) pollRecord(ctx context.Context, run *models.Run, record *models.LogRecord, timeout time.Duration) *models.Detection {
	detection, err := r.monitor.Poll(ctx, record.LogID, timeout)
	if err != nil {
		var timeoutErr *monitor.PollTimeoutError
		switch {
		case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
			r.logger.Warn().
				Str("log_id", record.LogID).
				Dur("timeout", timeout).
				Msg("Detection poll timed out")
			record.Status = models.RecordStatusTimeout
			record.Error = err.Error()
		case errors.Is(err, context.Canceled):
			// Aborted; the record stays submitted and can be resumed later.
			r.logger.Debug().Str("log_id", record.LogID).Msg("Detection poll cancelled")
		default:
			r.logger.Warn().
				Err(err).
				Str("log_id", record.LogID).
				Msg("Detection poll failed")
			record.Error = err.Error()
		}
		record.UpdatedAt = time.Now()
		r.saveRecord(ctx, record)
		return nil
	}

	detection.RunID = run.ID
	if err := r.storage.DetectionStorage().SaveDetection(ctx, detection); err != nil {
		r.logger.Warn().Err(err).Str("log_id", record.LogID).Msg("Failed to persist detection")
	}

	record.Status = models.RecordStatusCompleted
	record.Error = ""
	record.UpdatedAt = time.Now()
	r.saveRecord(ctx, record)

	return detection
}

func (r *Runner) agentEnabled() bool {
	return r.agent != nil && r.config.Agent.Enabled
}

func (r *Runner) finishRun(run *models.Run, status models.RunStatus) {
	now := time.Now()
	run.Status = status
	run.FinishedAt = &now
	r.saveRun(context.Background(), run)
}

// saveRun and saveRecord log persistence failures instead of surfacing
// them; losing local state should not abort work against the remote APIs.
func (r *Runner) saveRun(ctx context.Context, run *models.Run) {
	if err := r.storage.RunStorage().SaveRun(ctx, run); err != nil {
		r.logger.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to persist run")
	}
}

func (r *Runner) saveRecord(ctx context.Context, record *models.LogRecord) {
	if err := r.storage.RecordStorage().SaveRecord(ctx, record); err != nil {
		r.logger.Warn().Err(err).Str("record_id", record.ID).Msg("Failed to persist record")
	}
}

func derefRecords(records []*models.LogRecord) []models.LogRecord {
	out := make([]models.LogRecord, len(records))
	for i, record := range records {
		out[i] = *record
	}
	return out
}
