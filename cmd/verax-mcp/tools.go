package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createAskQuestionTool returns the ask_question tool definition
func createAskQuestionTool() mcp.Tool {
	return mcp.NewTool("ask_question",
		mcp.WithDescription("Answer a question through the retrieval pipeline and run hallucination detection on the answer"),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Natural-language question to answer"),
		),
	)
}

// createGetDetectionTool returns the get_detection tool definition
func createGetDetectionTool() mcp.Tool {
	return mcp.NewTool("get_detection",
		mcp.WithDescription("Retrieve the stored detection report for a previous run"),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run ID (format: run_{uuid})"),
		),
	)
}
