package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ternarybob/verax/internal/app"
	"github.com/ternarybob/verax/internal/interfaces"
	"github.com/ternarybob/verax/internal/models"
	"github.com/ternarybob/verax/internal/services/questions"
	"github.com/ternarybob/verax/internal/services/report"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured question set through the pipeline",
	Long: `Loads the benchmark question set, answers each question through retrieval
and generation, submits every answer for hallucination detection, polls the
verdicts, and prints the aggregated run report.`,
	Run: runBatch,
}

var (
	runQuestionsFile string
	runLimit         int
	runShuffle       bool
)

func init() {
	runCmd.Flags().StringVar(&runQuestionsFile, "questions", "", "Questions file in JSONL format (overrides config)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "Maximum questions to run, 0 runs all (overrides config)")
	runCmd.Flags().BoolVar(&runShuffle, "shuffle", false, "Shuffle questions before applying the limit")
}

func runBatch(cmd *cobra.Command, args []string) {
	file := config.Questions.File
	if runQuestionsFile != "" {
		file = runQuestionsFile
	}
	limit := config.Questions.Limit
	if cmd.Flags().Changed("limit") {
		limit = runLimit
	}
	shuffle := config.Questions.Shuffle || runShuffle

	source := questions.NewFileSource(file, shuffle, limit, logger)
	executeRun(source)
}

// executeRun answers a question source through the pipeline, writes the
// configured report files, and prints the summary. Shared by run and ask.
func executeRun(source interfaces.QuestionSource) {
	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	// Cancel the run on interrupt; submitted records stay resumable
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		logger.Warn().Msg("Interrupt signal received, cancelling run")
		cancel()
	}()

	runReport, err := application.Runner.Run(ctx, source)
	if err != nil {
		logger.Fatal().Err(err).Msg("Run failed")
	}

	printReport(application, runReport)
}

// printReport writes report files and prints the run summary to stdout.
func printReport(application *app.App, runReport *models.RunReport) {
	paths, err := application.ReportService.Write(runReport)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to write report files")
	}

	fmt.Println()
	fmt.Print(report.RenderSummary(runReport))
	for _, path := range paths {
		fmt.Printf("Report written to %s\n", path)
	}
}
