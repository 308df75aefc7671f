package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ternarybob/verax/internal/models"
)

func testRecord() *models.LogRecord {
	return &models.LogRecord{
		ID:     "rec_1",
		Query:  "How did revenue develop?",
		Answer: "Revenue grew 12% according to the quarterly report.",
		Documents: []models.Document{
			{Title: "Quarterly Report", URL: "https://example.com/q3", Content: "Revenue grew 12%.", Provider: "exa"},
			{Title: models.NoTitle, URL: models.NoURL, Content: "orphan snippet", Provider: "exa"},
		},
		Tags: map[string]string{"run_id": "run_1"},
	}
}

func TestClientSubmit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/logs" {
			t.Errorf("path = %q, want /logs", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer qk-test" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}

		var req LogRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.AppName != "verax" {
			t.Errorf("app_name = %q", req.AppName)
		}
		if req.UserQuery != "How did revenue develop?" {
			t.Errorf("user_query = %q", req.UserQuery)
		}
		if len(req.Documents) != 2 {
			t.Fatalf("documents = %d, want 2", len(req.Documents))
		}
		if req.Documents[0].PageContent != "Revenue grew 12%." {
			t.Errorf("page_content = %q", req.Documents[0].PageContent)
		}
		if req.Documents[1].Metadata["url"] != models.NoURL {
			t.Errorf("sentinel url should be submitted as-is, got %q", req.Documents[1].Metadata["url"])
		}
		if req.Tags["run_id"] != "run_1" || req.Tags["team"] != "research" {
			t.Errorf("tags not merged: %v", req.Tags)
		}
		if len(req.Detections) != 2 || req.DetectionSampleRate != 1.0 {
			t.Errorf("detections = %v rate = %v", req.Detections, req.DetectionSampleRate)
		}

		json.NewEncoder(w).Encode(LogResponse{LogID: "log-abc"})
	}))
	defer server.Close()

	client := NewClient("qk-test",
		WithBaseURL(server.URL),
		WithTags(map[string]string{"team": "research"}),
	)

	logID, err := client.Submit(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if logID != "log-abc" {
		t.Errorf("logID = %q", logID)
	}
}

func TestClientSubmitEmptyLogID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(LogResponse{})
	}))
	defer server.Close()

	client := NewClient("qk-test", WithBaseURL(server.URL))

	if _, err := client.Submit(context.Background(), testRecord()); err == nil {
		t.Fatal("expected error for empty log_id")
	}
}

func TestClientSubmitAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"invalid key"}`))
	}))
	defer server.Close()

	client := NewClient("bad-key", WithBaseURL(server.URL))

	_, err := client.Submit(context.Background(), testRecord())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
	}
}

func TestClientPollCompletes(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/logs/log-abc/detections" {
			t.Errorf("path = %q", r.URL.Path)
		}

		// Not found, then pending, then completed.
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusNotFound)
		case 2:
			json.NewEncoder(w).Encode(DetectionResponse{Status: "pending"})
		default:
			json.NewEncoder(w).Encode(DetectionResponse{
				Status:           "completed",
				HasHallucination: true,
				LogDocuments: []DetectionDocument{
					{Content: "Revenue grew 12%.", URL: "https://example.com/q3", IsRelevant: true},
					{Content: "orphan snippet", IsRelevant: false},
				},
			})
		}
	}))
	defer server.Close()

	client := NewClient("qk-test",
		WithBaseURL(server.URL),
		WithPollInterval(10*time.Millisecond),
		WithRateLimit(time.Millisecond),
	)

	detection, err := client.Poll(context.Background(), "log-abc", 5*time.Second)
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}

	if !detection.HasHallucination {
		t.Error("expected hallucination flag")
	}
	if detection.RelevantCount() != 1 {
		t.Errorf("relevant = %d, want 1", detection.RelevantCount())
	}
	if ratio, ok := detection.RelevanceRatio(); !ok || ratio != 0.5 {
		t.Errorf("ratio = %v ok = %v, want 0.5 true", ratio, ok)
	}
	if calls.Load() < 3 {
		t.Errorf("calls = %d, want at least 3", calls.Load())
	}
}

func TestClientPollTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(DetectionResponse{Status: "running"})
	}))
	defer server.Close()

	client := NewClient("qk-test",
		WithBaseURL(server.URL),
		WithPollInterval(10*time.Millisecond),
		WithRateLimit(time.Millisecond),
	)

	_, err := client.Poll(context.Background(), "log-abc", 50*time.Millisecond)

	var timeoutErr *PollTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected *PollTimeoutError, got %T: %v", err, err)
	}
	if timeoutErr.LogID != "log-abc" {
		t.Errorf("LogID = %q", timeoutErr.LogID)
	}
}

func TestClientPollCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(DetectionResponse{Status: "pending"})
	}))
	defer server.Close()

	client := NewClient("qk-test",
		WithBaseURL(server.URL),
		WithPollInterval(time.Second),
		WithRateLimit(time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.Poll(ctx, "log-abc", time.Minute)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	var timeoutErr *PollTimeoutError
	if errors.As(err, &timeoutErr) {
		t.Fatal("cancellation must not look like a poll timeout")
	}
}

func TestClientPollServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("qk-test",
		WithBaseURL(server.URL),
		WithPollInterval(10*time.Millisecond),
		WithRateLimit(time.Millisecond),
	)

	_, err := client.Poll(context.Background(), "log-abc", time.Second)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError for server failure, got %T: %v", err, err)
	}
}
