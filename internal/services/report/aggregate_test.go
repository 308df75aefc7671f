package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/verax/internal/models"
)

func completedDetection(logID string, hallucinated bool, relevancy ...bool) models.Detection {
	docs := make([]models.DocumentRelevancy, 0, len(relevancy))
	for _, relevant := range relevancy {
		docs = append(docs, models.DocumentRelevancy{
			Content:    "doc content",
			URL:        "https://example.com/" + logID,
			IsRelevant: relevant,
		})
	}
	return models.Detection{
		LogID:            logID,
		Status:           models.DetectionStatusCompleted,
		HasHallucination: hallucinated,
		Documents:        docs,
	}
}

func TestHallucinationRate(t *testing.T) {
	detections := []models.Detection{
		completedDetection("log_1", true, true),
		completedDetection("log_2", false, true),
		{LogID: "log_3", Status: models.DetectionStatusPending},
		{LogID: "log_4", Status: models.DetectionStatusRunning},
	}

	rate, err := HallucinationRate(detections)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, rate, 0.001)
}

func TestHallucinationRateNoCompleted(t *testing.T) {
	detections := []models.Detection{
		{LogID: "log_1", Status: models.DetectionStatusPending},
	}

	_, err := HallucinationRate(detections)
	assert.ErrorIs(t, err, ErrNoDetections)

	_, err = HallucinationRate(nil)
	assert.ErrorIs(t, err, ErrNoDetections)
}

func TestAvgRelevance(t *testing.T) {
	// Ratios 0.5 and 1.0; the zero-document and pending detections are skipped.
	detections := []models.Detection{
		completedDetection("log_1", false, true, false),
		completedDetection("log_2", false, true),
		completedDetection("log_3", false),
		{LogID: "log_4", Status: models.DetectionStatusPending},
	}

	avg, err := AvgRelevance(detections)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, avg, 0.001)
}

func TestAvgRelevanceNoDocuments(t *testing.T) {
	detections := []models.Detection{
		completedDetection("log_1", false),
	}

	_, err := AvgRelevance(detections)
	assert.ErrorIs(t, err, ErrNoDetections)
}

func TestBuildReport(t *testing.T) {
	started := time.Now().Add(-90 * time.Second)
	finished := started.Add(90 * time.Second)
	run := &models.Run{
		ID:         "run_test",
		Status:     models.RunStatusCompleted,
		Provider:   "tavily",
		Model:      "gpt-4o-mini",
		Questions:  4,
		StartedAt:  started,
		FinishedAt: &finished,
	}

	records := []models.LogRecord{
		{
			ID:     "rec_1",
			RunID:  run.ID,
			LogID:  "log_1",
			Index:  1,
			Query:  "What changed in EU AI regulation this year?",
			Answer: "The AI Act entered its enforcement phase.",
			Status: models.RecordStatusCompleted,
			Documents: []models.Document{
				{ID: "doc_1", URL: "https://example.com/a"},
				{ID: "doc_2", URL: "https://example.com/b"},
			},
		},
		{
			ID:     "rec_2",
			RunID:  run.ID,
			LogID:  "log_2",
			Index:  2,
			Query:  "Who won the most recent Ballon d'Or?",
			Answer: "An answer.",
			Status: models.RecordStatusSubmitted,
		},
		{
			ID:     "rec_3",
			RunID:  run.ID,
			Index:  3,
			Query:  "How did semiconductor exports shift last quarter?",
			Status: models.RecordStatusFailed,
			Error:  "llm generation failed: rate limited",
		},
		{
			ID:     "rec_4",
			RunID:  run.ID,
			LogID:  "log_4",
			Index:  4,
			Query:  "What are the latest fusion energy milestones?",
			Answer: "Another answer.",
			Status: models.RecordStatusTimeout,
			Error:  "polling timed out after 300s",
		},
	}

	det1 := completedDetection("log_1", true, true, false)
	det2 := models.Detection{LogID: "log_2", Status: models.DetectionStatusPending}
	detections := map[string]*models.Detection{
		"log_1": &det1,
		"log_2": &det2,
	}

	report := BuildReport(run, records, detections)

	assert.Equal(t, "run_test", report.RunID)
	assert.Equal(t, "tavily", report.Provider)
	assert.Equal(t, "gpt-4o-mini", report.Model)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 3, report.Submitted)
	assert.Equal(t, 1, report.SubmitFailed)
	assert.Equal(t, 1, report.TimedOut)
	assert.Equal(t, 1, report.Completed)
	assert.Equal(t, 1, report.Hallucinated)
	assert.Equal(t, 90*time.Second, report.Elapsed)

	require.NotNil(t, report.HallucinationRate)
	assert.InDelta(t, 1.0, *report.HallucinationRate, 0.001)
	require.NotNil(t, report.AvgRelevance)
	assert.InDelta(t, 0.5, *report.AvgRelevance, 0.001)

	require.Len(t, report.Results, 4)

	first := report.Results[0]
	assert.Equal(t, 1, first.Index)
	assert.Equal(t, "rec_1", first.RecordID)
	assert.Equal(t, 2, first.DocumentCount)
	require.NotNil(t, first.Hallucinated)
	assert.True(t, *first.Hallucinated)
	require.NotNil(t, first.RelevanceRatio)
	assert.InDelta(t, 0.5, *first.RelevanceRatio, 0.001)

	second := report.Results[1]
	assert.Nil(t, second.Hallucinated)
	assert.Nil(t, second.RelevanceRatio)

	third := report.Results[2]
	assert.Equal(t, models.RecordStatusFailed, third.Status)
	assert.NotEmpty(t, third.Error)
	assert.Empty(t, third.LogID)

	fourth := report.Results[3]
	assert.Equal(t, models.RecordStatusTimeout, fourth.Status)
	assert.Nil(t, fourth.Hallucinated)
}

func TestBuildReportNoDetections(t *testing.T) {
	run := &models.Run{
		ID:        "run_empty",
		Status:    models.RunStatusCompleted,
		Provider:  "exa",
		Model:     "claude-sonnet-4-5",
		Questions: 1,
		StartedAt: time.Now(),
	}
	records := []models.LogRecord{
		{ID: "rec_1", RunID: run.ID, Index: 1, Query: "q", Status: models.RecordStatusFailed, Error: "boom"},
	}

	report := BuildReport(run, records, map[string]*models.Detection{})

	assert.Nil(t, report.HallucinationRate)
	assert.Nil(t, report.AvgRelevance)
	assert.Equal(t, 0, report.Submitted)
	assert.Equal(t, 1, report.SubmitFailed)
	assert.Zero(t, report.Elapsed)
}
