package main

import (
	"fmt"
	"strings"

	"github.com/ternarybob/verax/internal/models"
)

// formatAskResult formats a single-question pipeline result as markdown
func formatAskResult(question string, runReport *models.RunReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", question))

	if len(runReport.Results) == 0 {
		sb.WriteString("No result produced.\n")
		return sb.String()
	}

	result := runReport.Results[0]

	if result.Answer != "" {
		sb.WriteString("### Answer\n\n")
		sb.WriteString(result.Answer)
		sb.WriteString("\n\n")
	}

	sb.WriteString("### Detection\n\n")
	sb.WriteString(fmt.Sprintf("**Status:** %s\n", result.Status))
	if result.Error != "" {
		sb.WriteString(fmt.Sprintf("**Error:** %s\n", result.Error))
	}
	if result.LogID != "" {
		sb.WriteString(fmt.Sprintf("**Log ID:** %s\n", result.LogID))
	}
	if result.Hallucinated != nil {
		if *result.Hallucinated {
			sb.WriteString("**Hallucination:** detected\n")
		} else {
			sb.WriteString("**Hallucination:** none detected\n")
		}
	}
	if result.RelevanceRatio != nil {
		sb.WriteString(fmt.Sprintf("**Document relevance:** %.2f (%d documents)\n",
			*result.RelevanceRatio, result.DocumentCount))
	} else if result.DocumentCount > 0 {
		sb.WriteString(fmt.Sprintf("**Documents:** %d\n", result.DocumentCount))
	}

	sb.WriteString(fmt.Sprintf("\nRun ID: %s\n", runReport.RunID))
	return sb.String()
}
