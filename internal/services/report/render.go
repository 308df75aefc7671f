package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/verax/internal/models"
)

// RenderSummary renders the short console summary printed after a run.
func RenderSummary(report *models.RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s  provider=%s model=%s\n", report.RunID, report.Provider, report.Model)
	fmt.Fprintf(&b, "Questions: %d  submitted: %d  completed: %d  timeouts: %d  failures: %d\n",
		report.Total, report.Submitted, report.Completed, report.TimedOut, report.SubmitFailed)
	fmt.Fprintf(&b, "Hallucination rate: %s\n", formatRate(report.HallucinationRate, report.Hallucinated, report.Completed))
	fmt.Fprintf(&b, "Avg document relevance: %s\n", formatPercent(report.AvgRelevance))
	return b.String()
}

// RenderMarkdown renders the full run report as a markdown document.
func RenderMarkdown(report *models.RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Run Report %s\n\n", report.RunID)
	fmt.Fprintf(&b, "- Provider: %s\n", report.Provider)
	fmt.Fprintf(&b, "- Model: %s\n", report.Model)
	fmt.Fprintf(&b, "- Generated: %s\n", report.GeneratedAt.Format(time.RFC3339))
	if report.Elapsed > 0 {
		fmt.Fprintf(&b, "- Elapsed: %s\n", report.Elapsed.Round(time.Second))
	}

	b.WriteString("\n## Summary\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|---|---|\n")
	fmt.Fprintf(&b, "| Questions | %d |\n", report.Total)
	fmt.Fprintf(&b, "| Submitted | %d |\n", report.Submitted)
	fmt.Fprintf(&b, "| Submit failures | %d |\n", report.SubmitFailed)
	fmt.Fprintf(&b, "| Detections completed | %d |\n", report.Completed)
	fmt.Fprintf(&b, "| Poll timeouts | %d |\n", report.TimedOut)
	fmt.Fprintf(&b, "| Hallucination rate | %s |\n", formatRate(report.HallucinationRate, report.Hallucinated, report.Completed))
	fmt.Fprintf(&b, "| Avg document relevance | %s |\n", formatPercent(report.AvgRelevance))

	b.WriteString("\n## Questions\n\n")
	b.WriteString("| # | Status | Hallucinated | Relevance | Documents | Question |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, result := range report.Results {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %d | %s |\n",
			result.Index,
			result.Status,
			formatVerdict(result.Hallucinated),
			formatRatio(result.RelevanceRatio),
			result.DocumentCount,
			tableCell(result.Query, 120),
		)
	}

	var failures []models.QuestionResult
	for _, result := range report.Results {
		if result.Error != "" {
			failures = append(failures, result)
		}
	}
	if len(failures) > 0 {
		b.WriteString("\n## Failures\n\n")
		for _, result := range failures {
			fmt.Fprintf(&b, "- Q%d (%s): %s\n", result.Index, result.Status, result.Error)
		}
	}

	return b.String()
}

func formatPercent(v *float64) string {
	if v == nil {
		return "undefined"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

func formatRate(v *float64, num, den int) string {
	if v == nil {
		return "undefined"
	}
	return fmt.Sprintf("%.1f%% (%d/%d)", *v*100, num, den)
}

func formatVerdict(v *bool) string {
	if v == nil {
		return "-"
	}
	if *v {
		return "yes"
	}
	return "no"
}

func formatRatio(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

// tableCell makes text safe for a markdown table cell.
func tableCell(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	if len(s) > maxLen {
		s = s[:maxLen-3] + "..."
	}
	return s
}
