package interfaces

import (
	"context"

	"github.com/ternarybob/verax/internal/models"
)

// SearchOptions configures a context retrieval call
type SearchOptions struct {
	// MaxResults caps the number of documents returned (default from config)
	MaxResults int
}

// RetrievalService retrieves context documents for a query from a hosted
// search provider. Implementations normalize the provider's response shape
// into models.Document so the rest of the pipeline never sees provider
// payloads. A degraded provider response (missing URLs, empty snippets)
// yields documents with sentinel fields, not an error.
type RetrievalService interface {
	// Search returns context documents for the query in provider order
	Search(ctx context.Context, query string, opts SearchOptions) ([]models.Document, error)

	// Provider returns the provider name this service is bound to
	Provider() string
}
