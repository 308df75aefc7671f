package retrieval

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/interfaces"
	"github.com/ternarybob/verax/internal/models"
	"github.com/ternarybob/verax/internal/providers/linkup"
)

// LinkupService adapts the Linkup search API to the RetrievalService interface.
type LinkupService struct {
	client *linkup.Client
	config *common.Config
	logger arbor.ILogger
}

// NewLinkupService creates a retrieval service backed by Linkup.
func NewLinkupService(client *linkup.Client, config *common.Config, logger arbor.ILogger) *LinkupService {
	return &LinkupService{
		client: client,
		config: config,
		logger: logger,
	}
}

// Provider returns the provider name.
func (s *LinkupService) Provider() string {
	return "linkup"
}

// Search runs a Linkup search and normalizes text hits into documents.
// Image results are dropped. The API has no result-count parameter, so
// the limit is applied after the fact.
func (s *LinkupService) Search(ctx context.Context, query string, opts interfaces.SearchOptions) ([]models.Document, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.config.Retrieval.MaxResults
	}

	req := linkup.SearchRequest{
		Query: query,
		Depth: s.config.Linkup.Depth,
	}

	if s.config.Linkup.OutputType == linkup.OutputSourcedAnswer {
		return s.searchSourced(ctx, query, req, maxResults)
	}

	resp, err := s.client.Search(ctx, req)
	if err != nil {
		return nil, &ProviderError{Provider: "linkup", Query: query, Err: err}
	}

	docs := make([]models.Document, 0, len(resp.Results))
	for _, result := range resp.Results {
		if result.Type != "" && result.Type != "text" {
			continue
		}
		if len(docs) >= maxResults {
			break
		}
		docs = append(docs, s.convertResult(result))
	}

	s.logger.Debug().
		Str("query", query).
		Int("documents", len(docs)).
		Msg("Linkup retrieval completed")

	return docs, nil
}

// searchSourced uses the sourcedAnswer output type and turns the source
// citations into documents. Linkup's synthesized answer is discarded: the
// pipeline generates its own answer so detection measures our model, not
// Linkup's.
func (s *LinkupService) searchSourced(ctx context.Context, query string, req linkup.SearchRequest, maxResults int) ([]models.Document, error) {
	resp, err := s.client.SearchSourcedAnswer(ctx, req)
	if err != nil {
		return nil, &ProviderError{Provider: "linkup", Query: query, Err: err}
	}

	docs := make([]models.Document, 0, len(resp.Sources))
	for _, source := range resp.Sources {
		if len(docs) >= maxResults {
			break
		}
		content := source.Snippet
		if content == "" {
			content = source.Name
		}
		doc := models.Document{
			ID:          common.NewDocumentID(),
			Provider:    "linkup",
			Title:       source.Name,
			Content:     content,
			URL:         source.URL,
			RetrievedAt: time.Now(),
		}
		if doc.Title == "" {
			doc.Title = models.NoTitle
		}
		if doc.URL == "" {
			doc.URL = models.NoURL
		}
		docs = append(docs, doc)
	}

	s.logger.Debug().
		Str("query", query).
		Int("documents", len(docs)).
		Msg("Linkup sourced retrieval completed")

	return docs, nil
}

func (s *LinkupService) convertResult(result linkup.Result) models.Document {
	content := result.Content
	if content == "" {
		content = result.Name
	}

	doc := models.Document{
		ID:          common.NewDocumentID(),
		Provider:    "linkup",
		Title:       result.Name,
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
