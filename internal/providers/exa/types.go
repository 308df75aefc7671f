// Package exa provides a client for the Exa neural search API.
// This package centralizes all Exa API interactions for the application.
package exa

import (
	"fmt"
)

// SearchRequest is the body for POST /search.
type SearchRequest struct {
	Query      string           `json:"query"`
	NumResults int              `json:"numResults,omitempty"`
	Type       string           `json:"type,omitempty"` // "auto", "neural", "keyword"
	Contents   *ContentsRequest `json:"contents,omitempty"`
}

// ContentsRequest asks Exa to return page contents with each result.
type ContentsRequest struct {
	Text       bool `json:"text,omitempty"`
	Highlights bool `json:"highlights,omitempty"`
}

// SearchResponse is the body returned by POST /search.
type SearchResponse struct {
	RequestID string   `json:"requestId"`
	Results   []Result `json:"results"`
}

// Result is a single Exa search hit. Text and Highlights are only present
// when contents were requested.
type Result struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	PublishedDate   string    `json:"publishedDate,omitempty"`
	Author          string    `json:"author,omitempty"`
	Score           float64   `json:"score,omitempty"`
	Text            string    `json:"text,omitempty"`
	Highlights      []string  `json:"highlights,omitempty"`
	HighlightScores []float64 `json:"highlightScores,omitempty"`
}

// APIError represents an error from the Exa API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exa API error: %s (status %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}
