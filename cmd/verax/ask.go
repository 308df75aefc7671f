package main

import (
	"github.com/spf13/cobra"

	"github.com/ternarybob/verax/internal/services/questions"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question through the pipeline",
	Long: `Answers one question through the same retrieval, generation, and detection
pipeline as a batch run, then prints the verdict. The question is stored as
a single-question run.`,
	Args: cobra.ExactArgs(1),
	Run:  runAsk,
}

func runAsk(cmd *cobra.Command, args []string) {
	question := args[0]

	logger.Info().Str("question", question).Msg("Answering single question")

	executeRun(questions.NewStaticSource(question))
}
