package interfaces

import (
	"context"

	"github.com/ternarybob/verax/internal/models"
)

// FetchService reads a single web page and converts it to a markdown
// document. Static HTML only; it is the backing for the agent's fetch_page
// tool, not a crawler.
type FetchService interface {
	FetchPage(ctx context.Context, url string) (*models.Document, error)
}
