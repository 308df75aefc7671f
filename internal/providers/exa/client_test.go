package exa

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
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/search" {
			t.Errorf("path = %s, want /search", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q, want %q", got, "test-key")
		}

		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Query != "capital of France" {
			t.Errorf("query = %q, want %q", req.Query, "capital of France")
		}
		if req.NumResults != 3 {
			t.Errorf("numResults = %d, want 3", req.NumResults)
		}
		if req.Contents == nil || !req.Contents.Text {
			t.Error("contents.text should be requested")
		}

		json.NewEncoder(w).Encode(SearchResponse{
			RequestID: "req-1",
			Results: []Result{
				{ID: "r1", Title: "Paris", URL: "https://example.com/paris", Text: "Paris is the capital of France.", Score: 0.91},
				{ID: "r2", Title: "France", Text: "France overview."},
			},
		})
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	resp, err := client.Search(context.Background(), SearchRequest{
		Query:      "capital of France",
		NumResults: 3,
		Contents:   &ContentsRequest{Text: true, Highlights: true},
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(resp.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(resp.Results))
	}
	if resp.Results[0].URL != "https://example.com/paris" {
		t.Errorf("first result URL = %q", resp.Results[0].URL)
	}
	// Second result deliberately has no URL; the client passes shapes through untouched
	if resp.Results[1].URL != "" {
		t.Errorf("second result URL = %q, want empty", resp.Results[1].URL)
	}
}

func TestClientSearchAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer server.Close()

	client := NewClient("bad-key", WithBaseURL(server.URL))

	_, err := client.Search(context.Background(), SearchRequest{Query: "anything"})
	if err == nil {
		t.Fatal("expected error for 401 response")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
	}
	if apiErr.Endpoint != "/search" {
		t.Errorf("Endpoint = %q, want /search", apiErr.Endpoint)
	}
}
