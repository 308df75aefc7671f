package retrieval

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/interfaces"
	"github.com/ternarybob/verax/internal/models"
	"github.com/ternarybob/verax/internal/providers/firecrawl"
)

// FirecrawlService adapts the Firecrawl search API to the RetrievalService interface.
type FirecrawlService struct {
	client *firecrawl.Client
	config *common.Config
	logger arbor.ILogger
}

// NewFirecrawlService creates a retrieval service backed by Firecrawl.
func NewFirecrawlService(client *firecrawl.Client, config *common.Config, logger arbor.ILogger) *FirecrawlService {
	return &FirecrawlService{
		client: client,
		config: config,
		logger: logger,
	}
}

// Provider returns the provider name.
func (s *FirecrawlService) Provider() string {
	return "firecrawl"
}

// Search runs a Firecrawl search and normalizes the hits into documents.
// When scraping is enabled each hit carries the full page as markdown,
// otherwise just the search snippet.
func (s *FirecrawlService) Search(ctx context.Context, query string, opts interfaces.SearchOptions) ([]models.Document, error) {
	limit := opts.MaxResults
	if limit <= 0 {
		limit = s.config.Retrieval.MaxResults
	}

	req := firecrawl.SearchRequest{
		Query: query,
		Limit: limit,
	}
	if s.config.Firecrawl.ScrapeContent {
		req.ScrapeOptions = &firecrawl.ScrapeOptions{Formats: []string{"markdown"}}
	}

	resp, err := s.client.Search(ctx, req)
	if err != nil {
		return nil, &ProviderError{Provider: "firecrawl", Query: query, Err: err}
	}

	docs := make([]models.Document, 0, len(resp.Data))
	for _, result := range resp.Data {
		docs = append(docs, s.convertResult(result))
	}

	s.logger.Debug().
		Str("query", query).
		Int("documents", len(docs)).
		Msg("Firecrawl retrieval completed")

	return docs, nil
}

func (s *FirecrawlService) convertResult(result firecrawl.Result) models.Document {
	content := result.Description
	if result.Markdown != "" {
		content = result.Markdown
	}
	if content == "" {
		content = result.Title
	}

	doc := models.Document{
		ID:          common.NewDocumentID(),
		Provider:    "firecrawl",
		Title:       result.Title,
		Content:     content,
		URL:         result.URL,
		RetrievedAt: time.Now(),
	}
	if doc.Title == "" {
		doc.Title = models.NoTitle
	}
	if doc.URL == "" {
		doc.URL = models.NoURL
	}

	return doc
}
