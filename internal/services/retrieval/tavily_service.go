package retrieval

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/interfaces"
	"github.com/ternarybob/verax/internal/models"
	"github.com/ternarybob/verax/internal/providers/tavily"
)

// TavilyService adapts the Tavily search API to the RetrievalService interface.
type TavilyService struct {
	client *tavily.Client
	config *common.Config
	logger arbor.ILogger
}

// NewTavilyService creates a retrieval service backed by Tavily.
func NewTavilyService(client *tavily.Client, config *common.Config, logger arbor.ILogger) *TavilyService {
	return &TavilyService{
		client: client,
		config: config,
		logger: logger,
	}
}

// Provider returns the provider name.
func (s *TavilyService) Provider() string {
	return "tavily"
}

// Search runs a Tavily search and normalizes the hits into documents.
func (s *TavilyService) Search(ctx context.Context, query string, opts interfaces.SearchOptions) ([]models.Document, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.config.Retrieval.MaxResults
	}

	req := tavily.SearchRequest{
		Query:             query,
		SearchDepth:       s.config.Tavily.SearchDepth,
		MaxResults:        maxResults,
		IncludeRawContent: s.config.Tavily.IncludeRawContent,
	}

	resp, err := s.client.Search(ctx, req)
	if err != nil {
		return nil, &ProviderError{Provider: "tavily", Query: query, Err: err}
	}

	docs := make([]models.Document, 0, len(resp.Results))
	for _, result := range resp.Results {
		docs = append(docs, s.convertResult(result))
	}

	s.logger.Debug().
		Str("query", query).
		Int("documents", len(docs)).
		Msg("Tavily retrieval completed")

	return docs, nil
}

func (s *TavilyService) convertResult(result tavily.Result) models.Document {
	// Raw page content beats the search snippet when available.
	content := result.Content
	if result.RawContent != "" {
		content = result.RawContent
	}
	if content == "" {
		content = result.Title
	}

	doc := models.Document{
		ID:          common.NewDocumentID(),
		Provider:    "tavily",
		Title:       result.Title,
		Content:     content,
		URL:         result.URL,
		Score:       result.Score,
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
