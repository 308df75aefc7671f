package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/verax/internal/interfaces"
	"github.com/ternarybob/verax/internal/models"
)

const (
	toolWebSearch = "web_search"
	toolFetchPage = "fetch_page"

	// Caps on tool output fed back into the conversation. The full documents
	// are kept separately for the monitoring submission.
	maxSearchSnippetChars = 2000
	maxFetchContentChars  = 8000
)

func availableTools() []Tool {
	return []Tool{
		{
			Name:        toolWebSearch,
			Description: "Search the web and return relevant documents with titles, URLs, and content snippets.",
			Arguments: []ToolArgument{
				{Name: "query", Description: "The search query"},
			},
		},
		{
			Name:        toolFetchPage,
			Description: "Fetch a single web page and return its main content as markdown. Use this to read a page found by web_search in full.",
			Arguments: []ToolArgument{
				{Name: "url", Description: "Absolute URL of the page to fetch"},
			},
		},
	}
}

// formatToolsForPrompt formats the tool list for the agent system prompt.
func formatToolsForPrompt(tools []Tool) string {
	var b strings.Builder
	b.WriteString("# Available Tools\n\n")
	for _, tool := range tools {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", tool.Name, tool.Description)
		if len(tool.Arguments) > 0 {
			b.WriteString("Arguments:\n")
			for _, arg := range tool.Arguments {
				fmt.Fprintf(&b, "- %s: %s\n", arg.Name, arg.Description)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// executeTool runs a tool call and never returns an error: failures become
// error responses the model can react to on the next turn.
func (s *Service) executeTool(ctx context.Context, toolUse *ToolUse) *ToolResponse {
	startTime := time.Now()

	s.logger.Debug().
		Str("tool", toolUse.Name).
		Msg("Executing tool")

	var (
		content string
		docs    []models.Document
		err     error
	)
	switch toolUse.Name {
	case toolWebSearch:
		content, docs, err = s.runWebSearch(ctx, toolUse)
	case toolFetchPage:
		content, docs, err = s.runFetchPage(ctx, toolUse)
	default:
		err = fmt.Errorf("unknown tool %q", toolUse.Name)
	}

	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("tool", toolUse.Name).
			Dur("duration", time.Since(startTime)).
			Msg("Tool execution failed")

		return &ToolResponse{
			ToolUseID: toolUse.ID,
			Content:   err.Error(),
			IsError:   true,
		}
	}

	s.logger.Debug().
		Str("tool", toolUse.Name).
		Int("documents", len(docs)).
		Int("content_length", len(content)).
		Dur("duration", time.Since(startTime)).
		Msg("Tool execution complete")

	return &ToolResponse{
		ToolUseID: toolUse.ID,
		Content:   content,
		Documents: docs,
	}
}

func (s *Service) runWebSearch(ctx context.Context, toolUse *ToolUse) (string, []models.Document, error) {
	query := strings.TrimSpace(stringArg(toolUse.Arguments, "query"))
	if query == "" {
		return "", nil, fmt.Errorf("web_search requires a query argument")
	}

	docs, err := s.retrieval.Search(ctx, query, interfaces.SearchOptions{})
	if err != nil {
		return "", nil, err
	}
	if len(docs) == 0 {
		return "No results found.", nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results:\n", len(docs))
	for i, doc := range docs {
		fmt.Fprintf(&b, "\n[%d] %s\nURL: %s\n%s\n", i+1, doc.Title, doc.URL, truncate(doc.Content, maxSearchSnippetChars))
	}
	return b.String(), docs, nil
}

func (s *Service) runFetchPage(ctx context.Context, toolUse *ToolUse) (string, []models.Document, error) {
	pageURL := strings.TrimSpace(stringArg(toolUse.Arguments, "url"))
	if pageURL == "" {
		return "", nil, fmt.Errorf("fetch_page requires a url argument")
	}

	doc, err := s.fetch.FetchPage(ctx, pageURL)
	if err != nil {
		return "", nil, err
	}

	content := fmt.Sprintf("%s\nURL: %s\n\n%s", doc.Title, doc.URL, truncate(doc.Content, maxFetchContentChars))
	return content, []models.Document{*doc}, nil
}

func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
