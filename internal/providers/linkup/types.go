package linkup

import "fmt"

// Output types accepted by the search endpoint.
const (
	OutputSearchResults = "searchResults"
	OutputSourcedAnswer = "sourcedAnswer"
)

// Search depths accepted by the search endpoint.
const (
	DepthStandard = "standard"
	DepthDeep     = "deep"
)

// SearchRequest is the body for POST /search.
type SearchRequest struct {
	Query      string `json:"q"`
	Depth      string `json:"depth"`
	OutputType string `json:"outputType"`
}

// SearchResponse is the response for outputType "searchResults".
type SearchResponse struct {
	Results []Result `json:"results"`
}

// Result is a single entry of a searchResults response. Type is "text"
// for page snippets and "image" for image hits.
type Result struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// SourcedAnswerResponse is the response for outputType "sourcedAnswer".
type SourcedAnswerResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Source is a citation backing a sourced answer.
type Source struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// APIError represents an error response from the Linkup API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("linkup api error: %d %s (endpoint: %s)", e.StatusCode, e.Message, e.Endpoint)
}
