package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/interfaces"
	"github.com/ternarybob/verax/internal/models"
)

// answerSystemPrompt constrains the model to the retrieved context so that
// unsupported claims show up as hallucinations downstream.
const answerSystemPrompt = `You are a research assistant. Answer the user's question using only the provided context documents. Ground every claim in the documents rather than prior knowledge. If the documents do not contain enough information to answer fully, say so explicitly instead of guessing.`

// Generator produces grounded answers from retrieved documents. It
// implements the GeneratorService interface on top of the provider factory.
type Generator struct {
	factory *ProviderFactory
	config  *common.Config
	model   string
	logger  arbor.ILogger
}

// NewGenerator creates an answer generator. An empty model uses the default
// provider's configured model.
func NewGenerator(factory *ProviderFactory, config *common.Config, model string, logger arbor.ILogger) *Generator {
	return &Generator{
		factory: factory,
		config:  config,
		model:   model,
		logger:  logger,
	}
}

// Model returns the model string answers are generated with. Empty means
// the configured default.
func (g *Generator) Model() string {
	if g.model != "" {
		return g.model
	}
	provider := g.factory.DetectProvider("")
	return g.factory.GetDefaultModel(provider)
}

// Answer generates an answer to the question with the documents as the only
// permitted context.
func (g *Generator) Answer(ctx context.Context, question string, docs []models.Document) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("question cannot be empty")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, g.timeout())
	defer cancel()

	startTime := time.Now()
	g.logger.Debug().
		Int("document_count", len(docs)).
		Str("model", g.Model()).
		Msg("Generating answer")

	req := &ContentRequest{
		Messages: []interfaces.Message{
			{Role: "user", Content: buildAnswerPrompt(question, docs)},
		},
		Model:             g.model,
		SystemInstruction: answerSystemPrompt,
	}

	resp, err := g.factory.GenerateContent(timeoutCtx, req)
	if err != nil {
		g.logger.Error().
			Err(err).
			Str("model", g.Model()).
			Msg("Answer generation failed")
		return "", fmt.Errorf("answer generation failed: %w", err)
	}

	g.logger.Debug().
		Int("answer_length", len(resp.Text)).
		Dur("duration", time.Since(startTime)).
		Msg("Answer generated")

	return resp.Text, nil
}

// timeout resolves the operation timeout for the active provider.
func (g *Generator) timeout() time.Duration {
	provider := g.factory.DetectProvider(g.model)
	var raw string
	switch provider {
	case ProviderClaude:
		raw = g.config.Claude.Timeout
	case ProviderGemini:
		raw = g.config.Gemini.Timeout
	case ProviderOpenAI:
		raw = g.config.OpenAI.Timeout
	case ProviderGroq:
		raw = g.config.Groq.Timeout
	}
	return common.DurationOr(raw, 2*time.Minute)
}

// buildAnswerPrompt renders the question plus a numbered context block.
func buildAnswerPrompt(question string, docs []models.Document) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nContext documents:\n")

	if len(docs) == 0 {
		b.WriteString("(none)\n")
	}
	for i, doc := range docs {
		fmt.Fprintf(&b, "\n[%d] %s\nURL: %s\n%s\n", i+1, doc.Title, doc.URL, doc.Content)
	}

	b.WriteString("\nAnswer the question based on the context documents above.")
	return b.String()
}
