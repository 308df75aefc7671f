package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/verax/internal/services/llm"
	"github.com/ternarybob/verax/internal/services/questions"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Manage the benchmark question set",
}

var questionsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new benchmark questions with the configured LLM",
	Long: `Samples the guideline axes into a meta-prompt and asks the configured LLM
provider for new benchmark questions, appending them to the questions file.`,
	Run: runQuestionsGenerate,
}

var (
	questionsCount  int
	questionsOutput string
)

func init() {
	questionsGenerateCmd.Flags().IntVarP(&questionsCount, "count", "n", 10, "Number of questions to generate")
	questionsGenerateCmd.Flags().StringVarP(&questionsOutput, "output", "o", "", "Output JSONL file (default: configured questions file)")

	questionsCmd.AddCommand(questionsGenerateCmd)
}

func runQuestionsGenerate(cmd *cobra.Command, args []string) {
	output := questionsOutput
	if output == "" {
		output = config.Questions.File
	}

	// Generation only needs the LLM factory, not storage or the monitor
	factory := llm.NewProviderFactory(config, logger)
	defer factory.Close()

	generator, err := questions.NewGenerator(factory, config, "", logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create question generator")
	}

	logger.Info().
		Int("count", questionsCount).
		Str("output", output).
		Msg("Generating questions")

	generated, err := generator.Generate(context.Background(), questionsCount)
	if err != nil {
		logger.Fatal().Err(err).Msg("Question generation failed")
	}

	if err := questions.AppendQuestions(output, generated); err != nil {
		logger.Fatal().Err(err).Str("path", output).Msg("Failed to write questions file")
	}

	fmt.Printf("Generated %d questions -> %s\n", len(generated), output)
	for i, q := range generated {
		fmt.Printf("%3d. %s\n", i+1, q.Text)
	}
}
