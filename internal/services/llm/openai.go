package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/ternarybob/verax/internal/interfaces"
)

// convertMessagesToOpenAI converts []interfaces.Message to the OpenAI chat
// message union format. Unlike Claude, system messages ride in the same
// array.
func convertMessagesToOpenAI(messages []interfaces.Message, systemInstruction string) ([]openai.ChatCompletionMessageParamUnion, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("messages cannot be empty")
	}

	hasUserMessage := false
	for _, msg := range messages {
		if msg.Role == "user" {
			hasUserMessage = true
			break
		}
	}
	if !hasUserMessage {
		return nil, fmt.Errorf("at least one message must have role 'user'")
	}

	oaiMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if systemInstruction != "" {
		oaiMessages = append(oaiMessages, openai.SystemMessage(systemInstruction))
	}

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			// An explicit system instruction wins over embedded system messages
			if systemInstruction == "" {
				oaiMessages = append(oaiMessages, openai.SystemMessage(msg.Content))
				systemInstruction = msg.Content
			}
		case "assistant":
			oaiMessages = append(oaiMessages, openai.AssistantMessage(msg.Content))
		default:
			oaiMessages = append(oaiMessages, openai.UserMessage(msg.Content))
		}
	}

	return oaiMessages, nil
}

// GetOpenAIClient returns an OpenAI client, creating one if necessary
func (f *ProviderFactory) GetOpenAIClient(ctx context.Context) (openai.Client, error) {
	if f.openaiAPIKey != "" {
		return f.openaiClient, nil
	}

	apiKey := f.config.OpenAI.APIKey
	if apiKey == "" {
		return openai.Client{}, fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY or openai.api_key in config)")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	f.openaiClient = client
	f.openaiAPIKey = apiKey
	return client, nil
}

// GetGroqClient returns a Groq client, creating one if necessary. Groq
// exposes an OpenAI-compatible API, so this reuses the OpenAI SDK pointed
// at the Groq endpoint.
func (f *ProviderFactory) GetGroqClient(ctx context.Context) (openai.Client, error) {
	if f.groqAPIKey != "" {
		return f.groqClient, nil
	}

	apiKey := f.config.Groq.APIKey
	if apiKey == "" {
		return openai.Client{}, fmt.Errorf("Groq API key is required (set GROQ_API_KEY or groq.api_key in config)")
	}

	baseURL := f.config.Groq.BaseURL
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)

	f.groqClient = client
	f.groqAPIKey = apiKey
	return client, nil
}

// generateWithOpenAI generates content using the OpenAI API or any
// OpenAI-compatible endpoint (Groq).
func (f *ProviderFactory) generateWithOpenAI(ctx context.Context, request *ContentRequest, model string, provider ProviderType) (*ContentResponse, error) {
	var client openai.Client
	var err error
	if provider == ProviderGroq {
		client, err = f.GetGroqClient(ctx)
	} else {
		client, err = f.GetOpenAIClient(ctx)
	}
	if err != nil {
		return nil, err
	}

	oaiMessages, err := convertMessagesToOpenAI(request.Messages, request.SystemInstruction)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages: %w", err)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: oaiMessages,
	}

	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		if provider == ProviderGroq {
			maxTokens = f.config.Groq.MaxTokens
		} else {
			maxTokens = f.config.OpenAI.MaxTokens
		}
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	temp := request.Temperature
	if temp <= 0 {
		if provider == ProviderGroq {
			temp = f.config.Groq.Temperature
		} else {
			temp = f.config.OpenAI.Temperature
		}
	}
	if temp > 0 {
		params.Temperature = openai.Float(float64(temp))
	}

	// Make API call with retry
	var resp *openai.ChatCompletion
	var apiErr error
	retryConfig := NewDefaultRetryConfig()

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		resp, apiErr = client.Chat.Completions.New(ctx, params)
		if apiErr == nil {
			break
		}

		if attempt == retryConfig.MaxRetries {
			break
		}

		backoff := time.Duration(attempt+1) * 2 * time.Second
		if IsRateLimitError(apiErr) {
			backoff = retryConfig.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		}

		f.logger.Warn().
			Str("provider", string(provider)).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying chat completion API call")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return nil, fmt.Errorf("%s API call failed after %d retries: %w", provider, retryConfig.MaxRetries, apiErr)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from %s API", provider)
	}

	responseText := resp.Choices[0].Message.Content
	if responseText == "" {
		return nil, fmt.Errorf("empty text in %s response", provider)
	}

	return &ContentResponse{
		Text:     responseText,
		Provider: provider,
		Model:    model,
	}, nil
}
