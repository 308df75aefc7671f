package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/interfaces"
	"github.com/ternarybob/verax/internal/models"
	"github.com/ternarybob/verax/internal/providers/exa"
)

func TestExaServiceSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req exa.SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.NumResults != 3 {
			t.Errorf("numResults = %d, want 3", req.NumResults)
		}

		json.NewEncoder(w).Encode(exa.SearchResponse{
			RequestID: "req-1",
			Results: []exa.Result{
				{
					ID:            "r1",
					Title:         "Quarterly Report",
					URL:           "https://example.com/report",
					Text:          "Revenue grew 12% year over year.",
					Score:         0.91,
					PublishedDate: "2025-01-15",
					Author:        "Finance Desk",
				},
				{
					// No title, no URL, content only via highlights.
					ID:         "r2",
					Highlights: []string{"margin expansion", "guidance raised"},
				},
				{
					// Title only: content falls back to it.
					ID:    "r3",
					Title: "Guidance Note",
					URL:   "https://example.com/guidance",
				},
			},
		})
	}))
	defer server.Close()

	client := exa.NewClient("test-key", exa.WithBaseURL(server.URL))
	service := NewExaService(client, common.NewDefaultConfig(), common.GetLogger())

	docs, err := service.Search(context.Background(), "acme earnings", interfaces.SearchOptions{MaxResults: 3})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if service.Provider() != "exa" {
		t.Errorf("Provider() = %q, want exa", service.Provider())
	}
	if len(docs) != 3 {
		t.Fatalf("documents = %d, want 3", len(docs))
	}

	first := docs[0]
	if first.Title != "Quarterly Report" {
		t.Errorf("title = %q", first.Title)
	}
	if first.URL != "https://example.com/report" {
		t.Errorf("url = %q", first.URL)
	}
	if first.Content != "Revenue grew 12% year over year." {
		t.Errorf("content = %q", first.Content)
	}
	if first.Metadata["published_date"] != "2025-01-15" {
		t.Errorf("metadata published_date = %q", first.Metadata["published_date"])
	}

	second := docs[1]
	if second.Title != models.NoTitle {
		t.Errorf("missing title should map to sentinel, got %q", second.Title)
	}
	if second.URL != models.NoURL {
		t.Errorf("missing url should map to sentinel, got %q", second.URL)
	}
	if second.Content != "margin expansion\nguidance raised" {
		t.Errorf("highlight fallback content = %q", second.Content)
	}

	third := docs[2]
	if third.Content != "Guidance Note" {
		t.Errorf("title fallback content = %q", third.Content)
	}
}

func TestExaServiceSearchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid key"}`))
	}))
	defer server.Close()

	client := exa.NewClient("bad-key", exa.WithBaseURL(server.URL))
	service := NewExaService(client, common.NewDefaultConfig(), common.GetLogger())

	_, err := service.Search(context.Background(), "acme earnings", interfaces.SearchOptions{})

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected *ProviderError, got %T: %v", err, err)
	}
	if provErr.Provider != "exa" {
		t.Errorf("Provider = %q", provErr.Provider)
	}
	if provErr.Query != "acme earnings" {
		t.Errorf("Query = %q", provErr.Query)
	}

	var apiErr *exa.APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("underlying *exa.APIError should be reachable through the wrapper")
	}
}
