package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/verax/internal/app"
	"github.com/ternarybob/verax/internal/common"
)

func main() {
	// Crash protection: panics on the main goroutine produce a crash file
	common.InstallCrashHandler("")
	defer common.RecoverWithCrashFile()

	// Load configuration
	configPath := os.Getenv("VERAX_CONFIG")
	if configPath == "" {
		if _, err := os.Stat("verax.toml"); err == nil {
			configPath = "verax.toml"
		}
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logging to avoid cluttering MCP stdio (console only, warn level)
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	// Initialize pipeline and storage
	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"verax",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Register pipeline tools
	mcpServer.AddTool(createAskQuestionTool(), handleAskQuestion(application, logger))
	mcpServer.AddTool(createGetDetectionTool(), handleGetDetection(application, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
