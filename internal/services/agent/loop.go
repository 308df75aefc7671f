package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/interfaces"
	"github.com/ternarybob/verax/internal/models"
	"github.com/ternarybob/verax/internal/services/llm"
)

const agentSystemPromptBase = `You are a research assistant that answers questions using web search.

Work in steps. On each turn, either call a tool to gather information or give
your final answer. Use web_search to find sources and fetch_page to read a
page in full when the search snippets are not enough. Ground every claim in
the documents you retrieved; if the retrieved material cannot answer the
question, say so in your final answer.

To call a tool, respond with a JSON object in this format:

` + "```json" + `
{
  "tool_use": {
    "id": "unique_id",
    "name": "tool_name",
    "arguments": {"arg": "value"}
  }
}
` + "```" + `

Call at most one tool per turn. When you have enough information, respond
with your final answer as plain text without any JSON block.`

// ContentGenerator is the slice of the LLM factory the agent needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, request *llm.ContentRequest) (*llm.ContentResponse, error)
}

// Service runs a bounded tool-calling conversation loop to answer a
// question. The model either emits a fenced-JSON tool call, which is
// executed and fed back into the conversation, or a plain-text final answer.
type Service struct {
	generator ContentGenerator
	retrieval interfaces.RetrievalService
	fetch     interfaces.FetchService
	config    *common.Config
	model     string
	logger    arbor.ILogger
}

// NewService creates an agent service. An empty model uses the configured
// default provider's default model.
func NewService(
	generator ContentGenerator,
	retrieval interfaces.RetrievalService,
	fetch interfaces.FetchService,
	config *common.Config,
	model string,
	logger arbor.ILogger,
) *Service {
	return &Service{
		generator: generator,
		retrieval: retrieval,
		fetch:     fetch,
		config:    config,
		model:     model,
		logger:    logger,
	}
}

// Run executes the conversation loop for one question.
func (s *Service) Run(ctx context.Context, question string) (*interfaces.AgentResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question must not be empty")
	}

	startTime := time.Now()

	timeout := common.DurationOr(s.config.Agent.Timeout, 5*time.Minute)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	maxTurns := s.config.Agent.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 10
	}
	maxToolCalls := s.config.Agent.MaxToolCalls
	if maxToolCalls <= 0 {
		maxToolCalls = 15
	}

	systemPrompt := agentSystemPromptBase + "\n\n" + formatToolsForPrompt(availableTools())

	messages := []interfaces.Message{
		{Role: "user", Content: question},
	}

	var documents []models.Document
	toolCalls := 0

	s.logger.Debug().
		Str("question", question).
		Int("max_turns", maxTurns).
		Int("max_tool_calls", maxToolCalls).
		Msg("Starting agent loop")

	for turn := 1; turn <= maxTurns; turn++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("agent timed out after %v: %w", time.Since(startTime), ctx.Err())
		default:
		}

		response, err := s.generator.GenerateContent(ctx, &llm.ContentRequest{
			Messages:          messages,
			Model:             s.model,
			SystemInstruction: systemPrompt,
		})
		if err != nil {
			return nil, fmt.Errorf("model call failed on turn %d: %w", turn, err)
		}

		toolUse := parseToolUse(response.Text)
		if toolUse == nil {
			result := &interfaces.AgentResult{
				Answer:    strings.TrimSpace(response.Text),
				Documents: models.DedupeDocumentsByURL(documents),
				Turns:     turn,
				ToolCalls: toolCalls,
			}

			s.logger.Debug().
				Int("turns", result.Turns).
				Int("tool_calls", result.ToolCalls).
				Int("documents", len(result.Documents)).
				Dur("duration", time.Since(startTime)).
				Msg("Agent loop complete")

			return result, nil
		}

		if toolCalls >= maxToolCalls {
			return nil, fmt.Errorf("exceeded maximum tool calls (%d)", maxToolCalls)
		}
		toolCalls++

		toolResponse := s.executeTool(ctx, toolUse)
		documents = append(documents, toolResponse.Documents...)

		messages = append(messages,
			interfaces.Message{Role: "assistant", Content: response.Text},
			interfaces.Message{Role: "user", Content: formatToolResult(toolUse, toolResponse)},
		)
	}

	return nil, fmt.Errorf("agent did not produce an answer within %d turns", maxTurns)
}

var toolUsePattern = regexp.MustCompile("(?s)```json\\s*(\\{.*?\"tool_use\".*?\\})\\s*```")

// parseToolUse extracts a tool call from a model response. A response
// without a parseable tool call is a final answer.
func parseToolUse(response string) *ToolUse {
	matches := toolUsePattern.FindStringSubmatch(response)
	if len(matches) < 2 {
		return nil
	}

	var wrapper struct {
		ToolUse *ToolUse `json:"tool_use"`
	}
	if err := json.Unmarshal([]byte(matches[1]), &wrapper); err != nil {
		return nil
	}
	if wrapper.ToolUse == nil || wrapper.ToolUse.Name == "" {
		return nil
	}
	return wrapper.ToolUse
}

func formatToolResult(toolUse *ToolUse, response *ToolResponse) string {
	if response.IsError {
		return fmt.Sprintf("Tool '%s' error:\n\n%s", toolUse.Name, response.Content)
	}
	return fmt.Sprintf("Tool '%s' returned:\n\n%s", toolUse.Name, response.Content)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
