package llm

import (
	"errors"
	"testing"
	"time"
)

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429 status", errors.New("Error 429: too many requests"), true},
		{"resource exhausted", errors.New("Status: RESOURCE_EXHAUSTED"), true},
		{"quota message", errors.New("quota exceeded for metric"), true},
		{"openai rate limit", errors.New("rate_limit_exceeded: tokens per min"), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimitError(tt.err); got != tt.want {
				t.Errorf("IsRateLimitError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want time.Duration
	}{
		{"nil", nil, 0},
		{
			"gemini please retry",
			errors.New("Error 429, Message: ... Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"),
			time.Duration(45.387061394 * float64(time.Second)),
		},
		{
			"retryDelay field",
			errors.New("retryDelay: 30s"),
			30 * time.Second,
		},
		{"no delay", errors.New("429 too many requests"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractRetryDelay(tt.err)
			// Allow sub-millisecond float conversion slack.
			if diff := got - tt.want; diff < -time.Millisecond || diff > time.Millisecond {
				t.Errorf("ExtractRetryDelay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	config := NewDefaultRetryConfig()

	// First attempt uses the initial backoff.
	if got := config.CalculateBackoff(0, 0); got != config.InitialBackoff {
		t.Errorf("attempt 0 backoff = %v, want %v", got, config.InitialBackoff)
	}

	// API-provided delay plus buffer beats the initial backoff.
	if got := config.CalculateBackoff(0, 30*time.Second); got != 35*time.Second {
		t.Errorf("api delay backoff = %v, want 35s", got)
	}

	// Backoff grows with attempts but never exceeds the cap.
	prev := time.Duration(0)
	for attempt := 0; attempt < 10; attempt++ {
		got := config.CalculateBackoff(attempt, 0)
		if got < prev {
			t.Errorf("backoff shrank at attempt %d: %v < %v", attempt, got, prev)
		}
		if got > config.MaxBackoff {
			t.Errorf("backoff %v exceeds cap %v", got, config.MaxBackoff)
		}
		prev = got
	}
}
