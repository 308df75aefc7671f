package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/verax/internal/common"
)

var (
	// Command-line flags
	configFiles []string // Multiple --config flags supported

	// Global state shared by subcommands
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "verax",
	Short: "Hallucination monitoring for retrieval-augmented question answering",
	Long: `Verax answers benchmark questions through a search-and-generate pipeline,
submits every answer to the Quotient monitoring API for hallucination
detection, and aggregates the verdicts into run reports.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Version printing must work without a config file
		if cmd.Name() == "version" {
			return
		}
		initConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&configFiles, "config", "c", nil,
		"Configuration file path (can be specified multiple times, later files override earlier ones)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(detectionsCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig runs the startup sequence shared by every command (REQUIRED ORDER):
// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
// 2. Initialize logger with final configuration
// 3. Print banner
func initConfig() {
	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("verax.toml"); err == nil {
			configFiles = append(configFiles, "verax.toml")
		} else if _, err := os.Stat("deployments/local/verax.toml"); err == nil {
			// Fallback for users running from the project root
			configFiles = append(configFiles, "deployments/local/verax.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		// Use temporary logger for startup errors
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Strs("config_files", configFiles).
		Str("environment", config.Environment).
		Str("retrieval_provider", config.Retrieval.Provider).
		Str("log_level", config.Logging.Level).
		Msg("Application configuration loaded")
}

func main() {
	// Crash protection: panics on the main goroutine produce a crash file
	common.InstallCrashHandler("")
	defer common.RecoverWithCrashFile()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
