package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ternarybob/verax/internal/app"
	"github.com/ternarybob/verax/internal/models"
	"github.com/ternarybob/verax/internal/services/questions"
	"github.com/ternarybob/verax/internal/services/scheduler"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the question batch on a cron schedule",
	Long: `Starts a scheduler that runs the configured question set on a cron
schedule for continuous monitoring. Overlapping runs are skipped; each
completed run writes its report files. Stop with Ctrl+C.`,
	Run: runWatch,
}

var (
	watchSchedule string
	watchNow      bool
)

func init() {
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "Cron schedule (overrides config)")
	watchCmd.Flags().BoolVar(&watchNow, "now", false, "Trigger a run immediately after starting")
}

func runWatch(cmd *cobra.Command, args []string) {
	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	source := questions.NewFileSource(
		config.Questions.File,
		config.Questions.Shuffle,
		config.Questions.Limit,
		logger,
	)

	sched := scheduler.NewService(config, application.Runner, source, logger)
	sched.SetReportHandler(func(runReport *models.RunReport) {
		printReport(application, runReport)
	})

	if err := sched.Start(watchSchedule); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	if watchNow {
		if err := sched.TriggerNow(); err != nil {
			logger.Error().Err(err).Msg("Failed to trigger immediate run")
		}
	}

	status := sched.Status()
	fmt.Printf("Watching on schedule %q", status.Schedule)
	if status.NextRun != nil {
		fmt.Printf(", next run %s", status.NextRun.Format("2006-01-02 15:04:05"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Interrupt signal received")
	fmt.Println("\nStopping watch...")

	if err := sched.Stop(); err != nil {
		logger.Error().Err(err).Msg("Scheduler stop failed")
	}

	fmt.Println("Watch stopped")
}
