package retrieval

import (
	"context"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/interfaces"
	"github.com/ternarybob/verax/internal/models"
	"github.com/ternarybob/verax/internal/providers/exa"
)

// ExaService adapts the Exa search API to the RetrievalService interface.
type ExaService struct {
	client *exa.Client
	config *common.Config
	logger arbor.ILogger
}

// NewExaService creates a retrieval service backed by Exa.
func NewExaService(client *exa.Client, config *common.Config, logger arbor.ILogger) *ExaService {
	return &ExaService{
		client: client,
		config: config,
		logger: logger,
	}
}

// Provider returns the provider name.
func (s *ExaService) Provider() string {
	return "exa"
}

// Search runs an Exa neural search and normalizes the hits into documents.
func (s *ExaService) Search(ctx context.Context, query string, opts interfaces.SearchOptions) ([]models.Document, error) {
	numResults := opts.MaxResults
	if numResults <= 0 {
		numResults = s.config.Retrieval.MaxResults
	}

	req := exa.SearchRequest{
		Query:      query,
		NumResults: numResults,
		Type:       "auto",
		Contents: &exa.ContentsRequest{
			Text:       true,
			Highlights: s.config.Exa.Highlights,
		},
	}

	resp, err := s.client.Search(ctx, req)
	if err != nil {
		return nil, &ProviderError{Provider: "exa", Query: query, Err: err}
	}

	docs := make([]models.Document, 0, len(resp.Results))
	for _, result := range resp.Results {
		docs = append(docs, s.convertResult(result))
	}

	s.logger.Debug().
		Str("query", query).
		Int("documents", len(docs)).
		Msg("Exa retrieval completed")

	return docs, nil
}

func (s *ExaService) convertResult(result exa.Result) models.Document {
	content := result.Text
	if content == "" && len(result.Highlights) > 0 {
		content = strings.Join(result.Highlights, "\n")
	}
	if content == "" {
		content = result.Title
	}

	doc := models.Document{
		ID:          common.NewDocumentID(),
		Provider:    "exa",
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

	if result.PublishedDate != "" || result.Author != "" {
		doc.Metadata = map[string]string{}
		if result.PublishedDate != "" {
			doc.Metadata["published_date"] = result.PublishedDate
		}
		if result.Author != "" {
			doc.Metadata["author"] = result.Author
		}
	}

	return doc
}
