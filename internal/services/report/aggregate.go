package report

import (
	"errors"
	"time"

	"github.com/ternarybob/verax/internal/models"
)

// ErrNoDetections means no completed detections back a metric, so the rate
// is undefined rather than zero.
var ErrNoDetections = errors.New("no completed detections")

// HallucinationRate returns hallucinated/valid over completed detections.
// Pending, timed out, or failed records are not valid detections and never
// count toward the denominator.
func HallucinationRate(detections []models.Detection) (float64, error) {
	valid := 0
	hallucinated := 0
	for _, d := range detections {
		if d.Status != models.DetectionStatusCompleted {
			continue
		}
		valid++
		if d.HasHallucination {
			hallucinated++
		}
	}
	if valid == 0 {
		return 0, ErrNoDetections
	}
	return float64(hallucinated) / float64(valid), nil
}

// AvgRelevance returns the mean of per-detection relevant/total ratios.
// Detections that analyzed no documents are skipped entirely rather than
// dragging the mean down with zeros.
func AvgRelevance(detections []models.Detection) (float64, error) {
	sum := 0.0
	count := 0
	for _, d := range detections {
		if d.Status != models.DetectionStatusCompleted {
			continue
		}
		ratio, ok := d.RelevanceRatio()
		if !ok {
			continue
		}
		sum += ratio
		count++
	}
	if count == 0 {
		return 0, ErrNoDetections
	}
	return sum / float64(count), nil
}

// BuildReport assembles the aggregated report for a run from its records
// and the detections fetched for them, keyed by log ID.
func BuildReport(run *models.Run, records []models.LogRecord, detections map[string]*models.Detection) *models.RunReport {
	report := &models.RunReport{
		RunID:       run.ID,
		Provider:    run.Provider,
		Model:       run.Model,
		Total:       len(records),
		GeneratedAt: time.Now(),
	}
	if run.FinishedAt != nil {
		report.Elapsed = run.FinishedAt.Sub(run.StartedAt)
	}

	completed := make([]models.Detection, 0, len(records))

	for _, rec := range records {
		result := models.QuestionResult{
			Index:         rec.Index,
			Query:         rec.Query,
			Answer:        rec.Answer,
			RecordID:      rec.ID,
			LogID:         rec.LogID,
			Status:        rec.Status,
			Error:         rec.Error,
			DocumentCount: len(rec.Documents),
		}

		if rec.Submitted() {
			report.Submitted++
		} else if rec.Status == models.RecordStatusFailed {
			report.SubmitFailed++
		}
		if rec.Status == models.RecordStatusTimeout {
			report.TimedOut++
		}

		if det, ok := detections[rec.LogID]; ok && rec.Submitted() && det.Status == models.DetectionStatusCompleted {
			report.Completed++
			hallucinated := det.HasHallucination
			result.Hallucinated = &hallucinated
			if hallucinated {
				report.Hallucinated++
			}
			if ratio, ratioOK := det.RelevanceRatio(); ratioOK {
				result.RelevanceRatio = &ratio
			}
			completed = append(completed, *det)
		}

		report.Results = append(report.Results, result)
	}

	if rate, err := HallucinationRate(completed); err == nil {
		report.HallucinationRate = &rate
	}
	if avg, err := AvgRelevance(completed); err == nil {
		report.AvgRelevance = &avg
	}

	return report
}
