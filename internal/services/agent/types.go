package agent

import "github.com/ternarybob/verax/internal/models"

// ToolUse is a tool invocation parsed from a model response.
type ToolUse struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ToolResponse is the outcome of one tool execution. Documents carries the
// context documents the tool gathered so they can be attached to the
// monitoring submission.
type ToolResponse struct {
	ToolUseID string
	Content   string
	Documents []models.Document
	IsError   bool
}

// ToolArgument describes one named argument of a tool.
type ToolArgument struct {
	Name        string
	Description string
}

// Tool describes a capability the agent can invoke.
type Tool struct {
	Name        string
	Description string
	Arguments   []ToolArgument
}
