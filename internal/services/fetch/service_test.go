package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/models"
	"github.com/ternarybob/verax/internal/providers/firecrawl"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>The Go Memory Model</title></head>
<body>
<nav><a href="/">Home</a> <a href="/docs">Docs</a></nav>
<main>
<h1>The Go Memory Model</h1>
<p>The memory model specifies the conditions under which reads of a variable
observe writes to the same variable in a different goroutine.</p>
<script>trackPageView();</script>
</main>
<footer>Copyright notice</footer>
</body>
</html>`

const plainPage = `<!DOCTYPE html>
<html>
<head></head>
<body>
<nav>Site navigation</nav>
<div class="sidebar-promo">Subscribe now</div>
<p>Interest rates held steady in the March meeting.</p>
<footer>Footer links</footer>
</body>
</html>`

func TestServiceFetchPage(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(articlePage))
	}))
	defer server.Close()

	config := common.NewDefaultConfig()
	service := NewService(config, common.GetLogger())

	doc, err := service.FetchPage(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	if gotUserAgent != config.Fetch.UserAgent {
		t.Errorf("user agent = %q, want %q", gotUserAgent, config.Fetch.UserAgent)
	}
	if doc.Provider != "fetch" {
		t.Errorf("provider = %q, want fetch", doc.Provider)
	}
	if doc.Title != "The Go Memory Model" {
		t.Errorf("title = %q", doc.Title)
	}
	if doc.URL != server.URL {
		t.Errorf("url = %q, want %q", doc.URL, server.URL)
	}
	if !strings.Contains(doc.Content, "reads of a variable") {
		t.Errorf("content missing article text: %q", doc.Content)
	}
	if strings.Contains(doc.Content, "Home") {
		t.Errorf("content should not include navigation: %q", doc.Content)
	}
	if strings.Contains(doc.Content, "Copyright") {
		t.Errorf("content should not include footer: %q", doc.Content)
	}
	if strings.Contains(doc.Content, "trackPageView") {
		t.Errorf("content should not include script text: %q", doc.Content)
	}
	if doc.RetrievedAt.IsZero() {
		t.Error("retrievedAt should be set")
	}
}

func TestServiceFetchPageWithoutMainElement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(plainPage))
	}))
	defer server.Close()

	service := NewService(common.NewDefaultConfig(), common.GetLogger())

	doc, err := service.FetchPage(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	if doc.Title != models.NoTitle {
		t.Errorf("title = %q, want sentinel", doc.Title)
	}
	if !strings.Contains(doc.Content, "Interest rates held steady") {
		t.Errorf("content missing body text: %q", doc.Content)
	}
	if strings.Contains(doc.Content, "Site navigation") {
		t.Errorf("content should not include navigation: %q", doc.Content)
	}
	if strings.Contains(doc.Content, "Subscribe now") {
		t.Errorf("content should not include promo block: %q", doc.Content)
	}
}

func TestServiceFetchPageHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	service := NewService(common.NewDefaultConfig(), common.GetLogger())

	_, err := service.FetchPage(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error should name the status: %v", err)
	}
}

func TestServiceFetchPageUnsupportedContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer": 42}`))
	}))
	defer server.Close()

	service := NewService(common.NewDefaultConfig(), common.GetLogger())

	_, err := service.FetchPage(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for JSON response")
	}
	if !strings.Contains(err.Error(), "content type") {
		t.Errorf("error should name the content type: %v", err)
	}
}

func TestServiceFetchPageFirecrawlEngine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scrape" {
			t.Errorf("path = %q, want /scrape", r.URL.Path)
		}
		var req firecrawl.ScrapeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if !req.OnlyMainContent {
			t.Error("onlyMainContent should follow the fetch config")
		}

		json.NewEncoder(w).Encode(firecrawl.ScrapeResponse{
			Success: true,
			Data: firecrawl.ScrapeData{
				Markdown: "# The Go Memory Model\n\nReads observe writes.",
				Metadata: firecrawl.ScrapeMetadata{Title: "The Go Memory Model", SourceURL: req.URL},
			},
		})
	}))
	defer server.Close()

	config := common.NewDefaultConfig()
	config.Fetch.Engine = "firecrawl"
	config.Firecrawl.APIKey = "fc-test"
	config.Firecrawl.BaseURL = server.URL

	service := NewService(config, common.GetLogger())

	doc, err := service.FetchPage(context.Background(), "https://example.com/memmodel")
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	if doc.Title != "The Go Memory Model" {
		t.Errorf("title = %q", doc.Title)
	}
	if doc.URL != "https://example.com/memmodel" {
		t.Errorf("url = %q", doc.URL)
	}
	if !strings.Contains(doc.Content, "Reads observe writes.") {
		t.Errorf("content = %q", doc.Content)
	}
}

func TestServiceFetchPageFirecrawlEngineWithoutKey(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Fetch.Engine = "firecrawl"

	service := NewService(config, common.GetLogger())

	_, err := service.FetchPage(context.Background(), "https://example.com")
	if err == nil {
		t.Fatal("expected error when the firecrawl engine has no API key")
	}
	if !strings.Contains(err.Error(), "FIRECRAWL_API_KEY") {
		t.Errorf("error should name the missing key: %v", err)
	}
}

func TestCleanWhitespace(t *testing.T) {
	in := "A  heading\t\twith   gaps\n\n\n\n\nNext paragraph\n"
	want := "A heading with gaps\n\nNext paragraph"
	if got := cleanWhitespace(in); got != want {
		t.Errorf("cleanWhitespace = %q, want %q", got, want)
	}
}
