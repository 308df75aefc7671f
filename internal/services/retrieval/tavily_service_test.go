package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/interfaces"
	"github.com/ternarybob/verax/internal/models"
	"github.com/ternarybob/verax/internal/providers/tavily"
)

func TestTavilyServiceSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tavily.SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.MaxResults != 5 {
			t.Errorf("max_results = %d, want default 5", req.MaxResults)
		}

		json.NewEncoder(w).Encode(tavily.SearchResponse{
			Query: req.Query,
			Results: []tavily.Result{
				{Title: "Full Page", URL: "https://example.com/full", Content: "snippet", RawContent: "the whole page body", Score: 0.9},
				{Title: "Snippet Only", URL: "https://example.com/snip", Content: "just a snippet", Score: 0.7},
				{Content: "orphan content"},
			},
		})
	}))
	defer server.Close()

	client := tavily.NewClient("test-key", tavily.WithBaseURL(server.URL))
	service := NewTavilyService(client, common.NewDefaultConfig(), common.GetLogger())

	docs, err := service.Search(context.Background(), "acme earnings", interfaces.SearchOptions{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(docs) != 3 {
		t.Fatalf("documents = %d, want 3", len(docs))
	}
	if docs[0].Content != "the whole page body" {
		t.Errorf("raw content should win over snippet, got %q", docs[0].Content)
	}
	if docs[1].Content != "just a snippet" {
		t.Errorf("content = %q", docs[1].Content)
	}
	if docs[2].Title != models.NoTitle || docs[2].URL != models.NoURL {
		t.Errorf("orphan result should get sentinels, got title=%q url=%q", docs[2].Title, docs[2].URL)
	}
}
