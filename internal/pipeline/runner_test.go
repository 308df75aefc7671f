package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/interfaces"
	"github.com/ternarybob/verax/internal/models"
	"github.com/ternarybob/verax/internal/services/monitor"
	"github.com/ternarybob/verax/internal/services/questions"
	"github.com/ternarybob/verax/internal/storage/badger"
)

type stubRetrieval struct {
	mu      sync.Mutex
	docs    []models.Document
	failOn  map[string]error
	queries []string
}

func (s *stubRetrieval) Search(ctx context.Context, query string, opts interfaces.SearchOptions) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if err, ok := s.failOn[query]; ok {
		return nil, err
	}
	return s.docs, nil
}

func (s *stubRetrieval) Provider() string { return "stub-search" }

type stubGenerator struct {
	answer string
	failOn map[string]error
	calls  int
}

func (s *stubGenerator) Answer(ctx context.Context, question string, docs []models.Document) (string, error) {
	s.calls++
	if err, ok := s.failOn[question]; ok {
		return "", err
	}
	return s.answer, nil
}

func (s *stubGenerator) Model() string { return "stub-model" }

type stubAgent struct {
	result *interfaces.AgentResult
	err    error
	calls  int
}

func (s *stubAgent) Run(ctx context.Context, question string) (*interfaces.AgentResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

// stubMonitor assigns log IDs from record indexes so tests can address
// individual questions deterministically.
type stubMonitor struct {
	mu           sync.Mutex
	submitted    []models.LogRecord
	submitErr    map[int]error
	pollErr      map[string]error
	hallucinated map[string]bool
	onSubmit     func(record *models.LogRecord)
}

func (m *stubMonitor) Submit(ctx context.Context, record *models.LogRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.onSubmit != nil {
		m.onSubmit(record)
	}
	if err, ok := m.submitErr[record.Index]; ok {
		return "", err
	}
	m.submitted = append(m.submitted, *record)
	return fmt.Sprintf("log_%d", record.Index), nil
}

func (m *stubMonitor) Poll(ctx context.Context, logID string, timeout time.Duration) (*models.Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.pollErr[logID]; ok {
		return nil, err
	}
	return &models.Detection{
		LogID:            logID,
		Status:           models.DetectionStatusCompleted,
		HasHallucination: m.hallucinated[logID],
		Documents: []models.DocumentRelevancy{
			{Content: "supporting evidence", URL: "https://example.com/1", IsRelevant: true},
			{Content: "unrelated page", URL: "https://example.com/2", IsRelevant: false},
		},
		FetchedAt: time.Now(),
	}, nil
}

type testEnv struct {
	runner    *Runner
	config    *common.Config
	storage   interfaces.StorageManager
	retrieval *stubRetrieval
	generator *stubGenerator
	agent     *stubAgent
	monitor   *stubMonitor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	config := common.NewDefaultConfig()
	config.Storage.Badger.Path = filepath.Join(t.TempDir(), "badger")
	config.Monitor.PollTimeout = "5s"

	manager, err := badger.NewManager(common.GetLogger(), &config.Storage.Badger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = manager.Close()
	})

	env := &testEnv{
		config:  config,
		storage: manager,
		retrieval: &stubRetrieval{
			docs: []models.Document{
				{ID: "doc_1", Provider: "stub-search", Title: "First", URL: "https://example.com/1", Content: "first result"},
				{ID: "doc_2", Provider: "stub-search", Title: "Second", URL: "https://example.com/2", Content: "second result"},
			},
		},
		generator: &stubGenerator{answer: "a grounded answer"},
		agent:     &stubAgent{},
		monitor:   &stubMonitor{},
	}
	env.runner = NewRunner(config, manager, env.retrieval, env.generator, env.agent, env.monitor, common.GetLogger())
	return env
}

func threeQuestions() interfaces.QuestionSource {
	return questions.NewStaticSource(
		"What changed in EU AI regulation this year?",
		"Who leads the current F1 championship?",
		"How did grain exports shift last quarter?",
	)
}

func TestRunnerRunHappyPath(t *testing.T) {
	env := newTestEnv(t)
	env.monitor.hallucinated = map[string]bool{"log_2": true}
	ctx := context.Background()

	runReport, err := env.runner.Run(ctx, threeQuestions())
	require.NoError(t, err)

	assert.Equal(t, 3, runReport.Total)
	assert.Equal(t, 3, runReport.Submitted)
	assert.Equal(t, 0, runReport.SubmitFailed)
	assert.Equal(t, 3, runReport.Completed)
	assert.Equal(t, 0, runReport.TimedOut)
	assert.Equal(t, 1, runReport.Hallucinated)
	require.NotNil(t, runReport.HallucinationRate)
	assert.InDelta(t, 1.0/3.0, *runReport.HallucinationRate, 0.001)
	require.NotNil(t, runReport.AvgRelevance)
	assert.InDelta(t, 0.5, *runReport.AvgRelevance, 0.001)

	// Exactly one submit per question, each with a unique log ID.
	require.Len(t, env.monitor.submitted, 3)
	seen := make(map[string]bool)
	for _, result := range runReport.Results {
		require.NotEmpty(t, result.LogID)
		assert.False(t, seen[result.LogID], "log ID %s assigned twice", result.LogID)
		seen[result.LogID] = true
	}

	// The submission carried the generated answer, documents, and run tags.
	first := env.monitor.submitted[0]
	assert.Equal(t, "a grounded answer", first.Answer)
	assert.Len(t, first.Documents, 2)
	assert.Equal(t, runReport.RunID, first.Tags["run_id"])
	assert.Equal(t, "stub-search", first.Tags["provider"])
	assert.Equal(t, "stub-model", first.Tags["model"])

	// Run and records persisted in their terminal states.
	run, err := env.storage.RunStorage().GetRun(ctx, runReport.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	require.NotNil(t, run.FinishedAt)

	records, err := env.storage.RecordStorage().GetRecordsByRun(ctx, runReport.RunID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, record := range records {
		assert.Equal(t, models.RecordStatusCompleted, record.Status)
	}

	detections, err := env.storage.DetectionStorage().GetDetectionsByRun(ctx, runReport.RunID)
	require.NoError(t, err)
	assert.Len(t, detections, 3)
}

func TestRunnerRunContinuesAfterFailures(t *testing.T) {
	env := newTestEnv(t)
	env.retrieval.failOn = map[string]error{
		"Who leads the current F1 championship?": fmt.Errorf("search provider returned status 500"),
	}
	env.monitor.submitErr = map[int]error{3: fmt.Errorf("monitoring API unavailable")}

	runReport, err := env.runner.Run(context.Background(), threeQuestions())
	require.NoError(t, err)

	assert.Equal(t, 3, runReport.Total)
	assert.Equal(t, 1, runReport.Submitted)
	assert.Equal(t, 2, runReport.SubmitFailed)
	assert.Equal(t, 1, runReport.Completed)

	require.Len(t, runReport.Results, 3)
	assert.Contains(t, runReport.Results[1].Error, "retrieval failed")
	assert.Contains(t, runReport.Results[2].Error, "submission failed")

	// Failed questions shrink the denominator instead of counting as clean.
	require.NotNil(t, runReport.HallucinationRate)
	assert.InDelta(t, 0.0, *runReport.HallucinationRate, 0.001)
	assert.Len(t, env.monitor.submitted, 1)
}

func TestRunnerRunPollTimeoutShrinksDenominator(t *testing.T) {
	env := newTestEnv(t)
	env.monitor.pollErr = map[string]error{
		"log_2": &monitor.PollTimeoutError{LogID: "log_2", Timeout: time.Second},
	}
	env.monitor.hallucinated = map[string]bool{"log_1": true}
	ctx := context.Background()

	runReport, err := env.runner.Run(ctx, threeQuestions())
	require.NoError(t, err)

	assert.Equal(t, 3, runReport.Submitted)
	assert.Equal(t, 2, runReport.Completed)
	assert.Equal(t, 1, runReport.TimedOut)
	require.NotNil(t, runReport.HallucinationRate)
	assert.InDelta(t, 0.5, *runReport.HallucinationRate, 0.001)

	records, err := env.storage.RecordStorage().GetRecordsByRun(ctx, runReport.RunID)
	require.NoError(t, err)
	var timedOut *models.LogRecord
	for _, record := range records {
		if record.LogID == "log_2" {
			timedOut = record
		}
	}
	require.NotNil(t, timedOut)
	assert.Equal(t, models.RecordStatusTimeout, timedOut.Status)
}

func TestRunnerRunAgentMode(t *testing.T) {
	env := newTestEnv(t)
	env.config.Agent.Enabled = true
	env.agent.result = &interfaces.AgentResult{
		Answer: "an agent answer",
		Documents: []models.Document{
			{ID: "doc_9", Provider: "fetch", Title: "A fetched page", URL: "https://example.com/page", Content: "page text"},
		},
		Turns:     2,
		ToolCalls: 1,
	}

	runReport, err := env.runner.Run(context.Background(), questions.NewStaticSource("What are the latest fusion milestones?"))
	require.NoError(t, err)

	assert.Equal(t, 1, env.agent.calls)
	assert.Empty(t, env.retrieval.queries, "agent mode must not call retrieval directly")
	assert.Equal(t, 0, env.generator.calls)

	require.Len(t, env.monitor.submitted, 1)
	assert.Equal(t, "an agent answer", env.monitor.submitted[0].Answer)
	require.Len(t, env.monitor.submitted[0].Documents, 1)
	assert.Equal(t, "https://example.com/page", env.monitor.submitted[0].Documents[0].URL)
	assert.Equal(t, 1, runReport.Completed)
}

func TestRunnerRunCancelledBetweenQuestions(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.monitor.onSubmit = func(record *models.LogRecord) {
		if record.Index == 1 {
			cancel()
		}
	}

	_, err := env.runner.Run(ctx, threeQuestions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled after 1 of 3")

	// The submitted record survives for a later detections resume.
	runs, err := env.storage.RunStorage().ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusCancelled, runs[0].Status)

	records, err := env.storage.RecordStorage().GetRecordsByRun(context.Background(), runs[0].ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.RecordStatusSubmitted, records[0].Status)
	assert.Equal(t, "log_1", records[0].LogID)
}

func TestRunnerRunEmptySource(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.runner.Run(context.Background(), questions.NewStaticSource())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no questions")
}

func TestRunnerResume(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A cancelled run: one record already completed, one still waiting on
	// its detection, one that never made it to the API.
	run := &models.Run{
		ID:        "run_resume",
		Status:    models.RunStatusCancelled,
		Provider:  "stub-search",
		Model:     "stub-model",
		Questions: 3,
		StartedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, env.storage.RunStorage().SaveRun(ctx, run))

	seed := []*models.LogRecord{
		{ID: "rec_a", RunID: run.ID, LogID: "log_a", Index: 1, Query: "q1", Answer: "a1", Status: models.RecordStatusCompleted, CreatedAt: time.Now()},
		{ID: "rec_b", RunID: run.ID, LogID: "log_b", Index: 2, Query: "q2", Answer: "a2", Status: models.RecordStatusSubmitted, CreatedAt: time.Now()},
		{ID: "rec_c", RunID: run.ID, Index: 3, Query: "q3", Status: models.RecordStatusFailed, Error: "retrieval failed: boom", CreatedAt: time.Now()},
	}
	for _, record := range seed {
		require.NoError(t, env.storage.RecordStorage().SaveRecord(ctx, record))
	}
	require.NoError(t, env.storage.DetectionStorage().SaveDetection(ctx, &models.Detection{
		LogID:            "log_a",
		RunID:            run.ID,
		Status:           models.DetectionStatusCompleted,
		HasHallucination: true,
		Documents:        []models.DocumentRelevancy{{Content: "d", IsRelevant: true}},
		FetchedAt:        time.Now(),
	}))

	runReport, err := env.runner.Resume(ctx, "run_resume")
	require.NoError(t, err)

	assert.Equal(t, 3, runReport.Total)
	assert.Equal(t, 2, runReport.Submitted)
	assert.Equal(t, 1, runReport.SubmitFailed)
	assert.Equal(t, 2, runReport.Completed)
	require.NotNil(t, runReport.HallucinationRate)
	assert.InDelta(t, 0.5, *runReport.HallucinationRate, 0.001)

	// Only the outstanding record was polled.
	record, err := env.storage.RecordStorage().GetRecord(ctx, "rec_b")
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusCompleted, record.Status)

	updated, err := env.storage.RunStorage().GetRun(ctx, "run_resume")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, updated.Status)
}

func TestRunnerResumeUnknownRun(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.runner.Resume(context.Background(), "run_missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
