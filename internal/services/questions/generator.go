package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/interfaces"
	"github.com/ternarybob/verax/internal/models"
	"github.com/ternarybob/verax/internal/services/llm"
)

// ContentGenerator is the slice of the LLM factory the generator needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, request *llm.ContentRequest) (*llm.ContentResponse, error)
}

// Generator produces benchmark questions by sampling guideline axes into a
// meta-prompt and asking the configured LLM provider for a strict-JSON batch.
type Generator struct {
	generator ContentGenerator
	config    *common.Config
	axes      []Axis
	model     string
	logger    arbor.ILogger
}

// NewGenerator creates a question generator. An empty model uses the
// configured default provider's default model.
func NewGenerator(generator ContentGenerator, config *common.Config, model string, logger arbor.ILogger) (*Generator, error) {
	axes, err := LoadAxes(config.Questions.AxesFile)
	if err != nil {
		return nil, err
	}

	return &Generator{
		generator: generator,
		config:    config,
		axes:      axes,
		model:     model,
		logger:    logger,
	}, nil
}

// Generate returns n new questions, requesting them in batches so each batch
// gets its own sampled guidelines.
func (g *Generator) Generate(ctx context.Context, n int) ([]models.Question, error) {
	if n <= 0 {
		return nil, fmt.Errorf("question count must be positive")
	}

	batchSize := g.config.Questions.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	questions := make([]models.Question, 0, n)
	for len(questions) < n {
		batch := batchSize
		if remaining := n - len(questions); remaining < batch {
			batch = remaining
		}

		texts, err := g.generateBatch(ctx, batch)
		if err != nil {
			return nil, err
		}

		for _, text := range texts {
			if len(questions) >= n {
				break
			}
			questions = append(questions, models.Question{Text: text})
		}
	}

	return questions, nil
}

func (g *Generator) generateBatch(ctx context.Context, n int) ([]string, error) {
	prompt := buildMetaPrompt(sampleGuidelines(g.axes), n)

	response, err := g.generator.GenerateContent(ctx, &llm.ContentRequest{
		Messages: []interfaces.Message{
			{Role: "user", Content: prompt},
		},
		Model: g.model,
	})
	if err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}

	texts, err := parseQuestions(response.Text)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("model returned no questions")
	}

	g.logger.Debug().
		Int("requested", n).
		Int("returned", len(texts)).
		Msg("Question batch generated")

	return texts, nil
}

func buildMetaPrompt(guidelines []string, n int) string {
	var b strings.Builder
	b.WriteString("You are generating questions designed to exercise a research assistant that answers using web search. To guide the structure of each question, use the following guidelines:\n\n")
	for _, line := range guidelines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, `
Craft %d natural-language questions a user might ask. The questions must:
- be specific and realistic
- be clearly tied to the guidelines above but never restate them directly (assume the character they describe)
- be from 20 to 60 words long
- be diverse from one another
- be self-contained, requiring no additional context

Respond with a JSON object of the form {"questions": ["..."]} and nothing else.`, n)
	return b.String()
}

var jsonObjectPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")

// parseQuestions extracts the question list from a model response. The
// response must be a JSON object, optionally wrapped in a fenced code block.
func parseQuestions(response string) ([]string, error) {
	payload := strings.TrimSpace(response)
	if matches := jsonObjectPattern.FindStringSubmatch(payload); len(matches) > 1 {
		payload = matches[1]
	}

	var parsed struct {
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse generated questions: %w", err)
	}

	texts := make([]string, 0, len(parsed.Questions))
	for _, q := range parsed.Questions {
		// Embedded newlines would break the JSONL questions file.
		q = strings.Join(strings.Fields(q), " ")
		if q == "" {
			continue
		}
		texts = append(texts, q)
	}
	return texts, nil
}
