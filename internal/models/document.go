package models

import (
	"time"
)

// Sentinel values used when a search provider omits a field. Submitted
// documents always carry a URL and title so downstream relevancy checks
// have something to attribute.
const (
	NoURL   = "No URL"
	NoTitle = "No title"
)

// Document represents a normalized context document from any search provider
// or page fetch. Content is markdown or plain text depending on what the
// provider returned.
type Document struct {
	// Identity
	ID       string `json:"id"`       // doc_{uuid}
	Provider string `json:"provider"` // exa, tavily, linkup, firecrawl, fetch

	// Content
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`

	// Provider-assigned relevance score, when available
	Score float64 `json:"score,omitempty"`

	// Provider-specific extras (published date, author, content type)
	Metadata map[string]string `json:"metadata,omitempty"`

	RetrievedAt time.Time `json:"retrieved_at"`
}

// HasContent reports whether the document carries any usable text.
func (d *Document) HasContent() bool {
	return d.Content != ""
}

// DedupeDocumentsByURL returns documents with later duplicates of the same
// URL removed, preserving order. Documents with the NoURL sentinel are never
// treated as duplicates of each other.
func DedupeDocumentsByURL(docs []Document) []Document {
	seen := make(map[string]bool, len(docs))
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if doc.URL != "" && doc.URL != NoURL {
			if seen[doc.URL] {
				continue
			}
			seen[doc.URL] = true
		}
		out = append(out, doc)
	}
	return out
}
