package interfaces

import (
	"context"

	"github.com/ternarybob/verax/internal/models"
)

// Message represents a single message in a model conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// GeneratorService produces a grounded answer from a question and its
// retrieved context documents.
type GeneratorService interface {
	// Answer generates an answer to the question using the documents as the
	// only permitted context
	Answer(ctx context.Context, question string, docs []models.Document) (string, error)

	// Model returns the model string answers are generated with
	Model() string
}

// AgentResult is the outcome of a tool-calling answer loop.
type AgentResult struct {
	// Answer is the model's final answer text
	Answer string

	// Documents gathered by tool calls during the loop, in call order
	Documents []models.Document

	// Turns is the number of model invocations used
	Turns int

	// ToolCalls is the number of tool executions used
	ToolCalls int
}

// AgentService answers a question by letting the model drive searches and
// page fetches inside an explicitly bounded loop.
type AgentService interface {
	// Run executes the loop for one question
	Run(ctx context.Context, question string) (*AgentResult, error)
}
