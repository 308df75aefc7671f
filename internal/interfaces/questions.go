package interfaces

import (
	"context"

	"github.com/ternarybob/verax/internal/models"
)

// QuestionSource yields the questions a run executes, in order.
type QuestionSource interface {
	// Questions returns the full question list. Malformed entries are
	// skipped by implementations, never returned as errors.
	Questions(ctx context.Context) ([]models.Question, error)
}

// QuestionGenerator produces new benchmark questions via an LLM.
type QuestionGenerator interface {
	// Generate returns n new questions
	Generate(ctx context.Context, n int) ([]models.Question, error)
}
