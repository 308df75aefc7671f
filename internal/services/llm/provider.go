package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/interfaces"
	"google.golang.org/genai"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
	// ProviderOpenAI uses OpenAI API
	ProviderOpenAI ProviderType = "openai"
	// ProviderGroq uses Groq's OpenAI-compatible API
	ProviderGroq ProviderType = "groq"
)

// ContentRequest represents a provider-agnostic content generation request
type ContentRequest struct {
	Messages          []interfaces.Message
	Model             string
	Temperature       float32
	MaxTokens         int
	SystemInstruction string
}

// ContentResponse represents a provider-agnostic content generation response
type ContentResponse struct {
	Text     string
	Provider ProviderType
	Model    string
}

// Provider defines the interface for AI content generation
type Provider interface {
	GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error)
	Close() error
}

// ProviderFactory creates and manages AI provider clients. Clients are
// created lazily on first use and cached for the factory's lifetime.
type ProviderFactory struct {
	config *common.Config
	logger arbor.ILogger

	geminiClient *genai.Client
	claudeClient anthropic.Client
	claudeAPIKey string
	openaiClient openai.Client
	openaiAPIKey string
	groqClient   openai.Client
	groqAPIKey   string
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(config *common.Config, logger arbor.ILogger) *ProviderFactory {
	return &ProviderFactory{
		config: config,
		logger: logger,
	}
}

// DetectProvider determines the provider type from a model string.
// Model strings can be:
//   - "claude-haiku-3-5-20241022" -> Claude
//   - "anthropic/claude-haiku-3-5-20241022" -> Claude (with prefix)
//   - "gemini-2.5-flash" -> Gemini
//   - "gpt-4.1-mini" -> OpenAI
//   - "groq/llama-3.3-70b-versatile" -> Groq (with prefix)
//   - "llama-3.3-70b-versatile" -> Groq
//   - Empty string -> uses default provider from config
func (f *ProviderFactory) DetectProvider(model string) ProviderType {
	if model == "" {
		return ProviderType(f.config.LLM.DefaultProvider)
	}

	model = strings.ToLower(model)

	// Check for explicit provider prefix
	if strings.HasPrefix(model, "claude/") || strings.HasPrefix(model, "anthropic/") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini/") || strings.HasPrefix(model, "google/") {
		return ProviderGemini
	}
	if strings.HasPrefix(model, "openai/") {
		return ProviderOpenAI
	}
	if strings.HasPrefix(model, "groq/") {
		return ProviderGroq
	}

	// Check for model name patterns
	if strings.HasPrefix(model, "claude-") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini-") {
		return ProviderGemini
	}
	if strings.HasPrefix(model, "gpt-") {
		return ProviderOpenAI
	}
	if strings.HasPrefix(model, "llama-") {
		return ProviderGroq
	}

	// Default to configured provider
	return ProviderType(f.config.LLM.DefaultProvider)
}

// NormalizeModel removes provider prefix from model name if present
func (f *ProviderFactory) NormalizeModel(model string) string {
	prefixes := []string{"claude/", "anthropic/", "gemini/", "google/", "openai/", "groq/"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// GetDefaultModel returns the default model for a provider
func (f *ProviderFactory) GetDefaultModel(provider ProviderType) string {
	switch provider {
	case ProviderClaude:
		return f.config.Claude.Model
	case ProviderGemini:
		return f.config.Gemini.Model
	case ProviderOpenAI:
		return f.config.OpenAI.Model
	case ProviderGroq:
		return f.config.Groq.Model
	default:
		return f.config.Gemini.Model
	}
}

// GenerateContent generates content using the appropriate provider based on model
func (f *ProviderFactory) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	provider := f.DetectProvider(request.Model)
	model := f.NormalizeModel(request.Model)
	if model == "" {
		model = f.GetDefaultModel(provider)
	}

	f.logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Int("message_count", len(request.Messages)).
		Msg("Generating content with provider")

	switch provider {
	case ProviderClaude:
		return f.generateWithClaude(ctx, request, model)
	case ProviderGemini:
		return f.generateWithGemini(ctx, request, model)
	case ProviderOpenAI:
		return f.generateWithOpenAI(ctx, request, model, ProviderOpenAI)
	case ProviderGroq:
		return f.generateWithOpenAI(ctx, request, model, ProviderGroq)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// Close closes all provider clients
func (f *ProviderFactory) Close() error {
	f.geminiClient = nil
	f.claudeClient = anthropic.Client{}
	f.claudeAPIKey = ""
	f.openaiClient = openai.Client{}
	f.openaiAPIKey = ""
	f.groqClient = openai.Client{}
	f.groqAPIKey = ""
	return nil
}
