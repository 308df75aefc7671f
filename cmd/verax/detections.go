package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ternarybob/verax/internal/app"
)

var detectionsCmd = &cobra.Command{
	Use:   "detections [run-id]",
	Short: "Poll outstanding detections for a stored run",
	Long: `Resumes polling for a previous run: fetches detections for records that
were submitted but never completed, merges them with stored results, and
prints the updated run report.`,
	Args: cobra.ExactArgs(1),
	Run:  runDetections,
}

func runDetections(cmd *cobra.Command, args []string) {
	runID := args[0]

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		logger.Warn().Msg("Interrupt signal received, cancelling poll")
		cancel()
	}()

	logger.Info().Str("run_id", runID).Msg("Resuming detection polling")

	runReport, err := application.Runner.Resume(ctx, runID)
	if err != nil {
		logger.Fatal().Err(err).Str("run_id", runID).Msg("Resume failed")
	}

	printReport(application, runReport)
}
