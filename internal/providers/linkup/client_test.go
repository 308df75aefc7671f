package linkup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q, want /search", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer lk-test" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}

		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.OutputType != OutputSearchResults {
			t.Errorf("outputType = %q, want %q", req.OutputType, OutputSearchResults)
		}
		if req.Depth != DepthStandard {
			t.Errorf("depth = %q, want default standard", req.Depth)
		}

		json.NewEncoder(w).Encode(SearchResponse{
			Results: []Result{
				{Type: "text", Name: "Page One", URL: "https://example.com/1", Content: "first snippet"},
				{Type: "image", Name: "Chart", URL: "https://example.com/chart.png"},
			},
		})
	}))
	defer server.Close()

	client := NewClient("lk-test", WithBaseURL(server.URL))

	resp, err := client.Search(context.Background(), SearchRequest{Query: "test query"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(resp.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(resp.Results))
	}
	if resp.Results[0].Name != "Page One" {
		t.Errorf("name = %q", resp.Results[0].Name)
	}
	if resp.Results[1].Type != "image" {
		t.Errorf("type = %q, want image", resp.Results[1].Type)
	}
}

func TestClientSearchSourcedAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.OutputType != OutputSourcedAnswer {
			t.Errorf("outputType = %q, want %q", req.OutputType, OutputSourcedAnswer)
		}

		json.NewEncoder(w).Encode(SourcedAnswerResponse{
			Answer: "The answer.",
			Sources: []Source{
				{Name: "Source A", URL: "https://example.com/a", Snippet: "supporting text"},
			},
		})
	}))
	defer server.Close()

	client := NewClient("lk-test", WithBaseURL(server.URL))

	resp, err := client.SearchSourcedAnswer(context.Background(), SearchRequest{Query: "test query"})
	if err != nil {
		t.Fatalf("SearchSourcedAnswer failed: %v", err)
	}

	if resp.Answer != "The answer." {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 1 {
		t.Fatalf("sources = %d, want 1", len(resp.Sources))
	}
}

func TestClientSearchAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer server.Close()

	client := NewClient("bad-key", WithBaseURL(server.URL))

	_, err := client.Search(context.Background(), SearchRequest{Query: "q"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", apiErr.StatusCode)
	}
	if apiErr.Endpoint != "/search" {
		t.Errorf("Endpoint = %q, want /search", apiErr.Endpoint)
	}
}
