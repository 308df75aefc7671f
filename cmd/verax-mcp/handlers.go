package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verax/internal/app"
	"github.com/ternarybob/verax/internal/models"
	"github.com/ternarybob/verax/internal/services/questions"
	"github.com/ternarybob/verax/internal/services/report"
)

// handleAskQuestion implements the ask_question tool
func handleAskQuestion(application *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Parse question parameter (required)
		question, err := request.RequireString("question")
		if err != nil || question == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: question parameter is required"),
				},
			}, nil
		}

		// Run the single question through the full pipeline, detection included
		runReport, err := application.Runner.Run(ctx, questions.NewStaticSource(question))
		if err != nil {
			logger.Error().Err(err).Msg("Pipeline run failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Pipeline error: %v", err)),
				},
			}, nil
		}

		markdown := formatAskResult(question, runReport)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(markdown),
			},
		}, nil
	}
}

// handleGetDetection implements the get_detection tool
func handleGetDetection(application *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Parse run_id parameter (required)
		runID, err := request.RequireString("run_id")
		if err != nil || runID == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: run_id parameter is required"),
				},
			}, nil
		}

		// Read-only lookup over stored state; outstanding detections are
		// not polled here (use the detections CLI command for that)
		run, err := application.StorageManager.RunStorage().GetRun(ctx, runID)
		if err != nil {
			logger.Error().Err(err).Str("run_id", runID).Msg("GetRun failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Run not found: %v", err)),
				},
			}, nil
		}

		records, err := application.StorageManager.RecordStorage().GetRecordsByRun(ctx, runID)
		if err != nil {
			logger.Error().Err(err).Str("run_id", runID).Msg("GetRecordsByRun failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Record lookup error: %v", err)),
				},
			}, nil
		}

		detections, err := application.StorageManager.DetectionStorage().GetDetectionsByRun(ctx, runID)
		if err != nil {
			logger.Error().Err(err).Str("run_id", runID).Msg("GetDetectionsByRun failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Detection lookup error: %v", err)),
				},
			}, nil
		}

		recordList := make([]models.LogRecord, len(records))
		for i, rec := range records {
			recordList[i] = *rec
		}
		detectionMap := make(map[string]*models.Detection, len(detections))
		for _, d := range detections {
			detectionMap[d.LogID] = d
		}

		runReport := report.BuildReport(run, recordList, detectionMap)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(report.RenderMarkdown(runReport)),
			},
		}, nil
	}
}
