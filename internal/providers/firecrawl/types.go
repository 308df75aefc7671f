package firecrawl

import "fmt"

// SearchRequest is the body for POST /search.
type SearchRequest struct {
	Query         string         `json:"query"`
	Limit         int            `json:"limit,omitempty"`
	ScrapeOptions *ScrapeOptions `json:"scrapeOptions,omitempty"`
}

// ScrapeOptions asks the API to scrape each hit and return it in the
// given formats, e.g. "markdown".
type ScrapeOptions struct {
	Formats []string `json:"formats"`
}

// SearchResponse is the response for POST /search.
type SearchResponse struct {
	Success bool     `json:"success"`
	Data    []Result `json:"data"`
	Warning string   `json:"warning,omitempty"`
}

// Result is a single search hit. Markdown is only populated when the
// request included scrape options.
type Result struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Markdown    string `json:"markdown,omitempty"`
}

// ScrapeRequest is the body for POST /scrape.
type ScrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats,omitempty"`
	OnlyMainContent bool     `json:"onlyMainContent,omitempty"`
}

// ScrapeResponse is the response for POST /scrape.
type ScrapeResponse struct {
	Success bool       `json:"success"`
	Data    ScrapeData `json:"data"`
}

// ScrapeData holds scraped page content and metadata.
type ScrapeData struct {
	Markdown string         `json:"markdown"`
	Metadata ScrapeMetadata `json:"metadata"`
}

// ScrapeMetadata describes the scraped page.
type ScrapeMetadata struct {
	Title      string `json:"title"`
	SourceURL  string `json:"sourceURL"`
	StatusCode int    `json:"statusCode"`
}

// APIError represents an error response from the Firecrawl API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("firecrawl api error: %d %s (endpoint: %s)", e.StatusCode, e.Message, e.Endpoint)
}
