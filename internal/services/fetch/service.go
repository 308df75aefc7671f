package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/models"
	"github.com/ternarybob/verax/internal/providers/firecrawl"
)

const defaultMaxBodySize = 10 * 1024 * 1024

// Service fetches a single page and converts it to a markdown document. It
// backs the agent's fetch_page tool. The default engine fetches directly
// and does not follow links or execute JavaScript; the firecrawl engine
// delegates to the scrape API, which renders pages before conversion.
type Service struct {
	config     *common.Config
	logger     arbor.ILogger
	httpClient *http.Client
	firecrawl  *firecrawl.Client
}

// NewService creates a page fetch service.
func NewService(config *common.Config, logger arbor.ILogger) *Service {
	timeout := common.DurationOr(config.Fetch.RequestTimeout, 30*time.Second)

	s := &Service{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}

	if config.Fetch.Engine == "firecrawl" && config.Firecrawl.APIKey != "" {
		opts := []firecrawl.ClientOption{firecrawl.WithLogger(logger)}
		if config.Firecrawl.BaseURL != "" {
			opts = append(opts, firecrawl.WithBaseURL(config.Firecrawl.BaseURL))
		}
		s.firecrawl = firecrawl.NewClient(config.Firecrawl.APIKey, opts...)
	}

	return s
}

// FetchPage retrieves the page at the given URL and returns its main content
// as a markdown document.
func (s *Service) FetchPage(ctx context.Context, pageURL string) (*models.Document, error) {
	if s.config.Fetch.Engine == "firecrawl" {
		return s.fetchWithFirecrawl(ctx, pageURL)
	}
	return s.fetchDirect(ctx, pageURL)
}

func (s *Service) fetchDirect(ctx context.Context, pageURL string) (*models.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", s.config.Fetch.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s returned status %d", pageURL, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
		return nil, fmt.Errorf("fetch %s returned unsupported content type %q", pageURL, contentType)
	}

	maxBody := int64(s.config.Fetch.MaxBodySize)
	if maxBody <= 0 {
		maxBody = defaultMaxBodySize
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}

	// Title comes from <head> before the DOM is narrowed to main content.
	title := strings.TrimSpace(doc.Find("title").First().Text())

	content, err := s.extractContent(doc).Html()
	if err != nil {
		return nil, fmt.Errorf("failed to extract content from %s: %w", pageURL, err)
	}

	// Base URL so relative links survive the conversion
	converter := md.NewConverter(pageURL, true, nil)
	markdown, err := converter.ConvertString(content)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s to markdown: %w", pageURL, err)
	}
	markdown = cleanWhitespace(markdown)

	s.logger.Debug().
		Str("url", pageURL).
		Int("chars", len(markdown)).
		Msg("Page fetched")

	result := &models.Document{
		ID:          common.NewDocumentID(),
		Provider:    "fetch",
		Title:       title,
		Content:     markdown,
		URL:         pageURL,
		RetrievedAt: time.Now(),
	}
	if result.Title == "" {
		result.Title = models.NoTitle
	}
	return result, nil
}

// fetchWithFirecrawl delegates the fetch to the Firecrawl scrape API.
func (s *Service) fetchWithFirecrawl(ctx context.Context, pageURL string) (*models.Document, error) {
	if s.firecrawl == nil {
		return nil, fmt.Errorf("fetch engine firecrawl selected but no API key configured (set FIRECRAWL_API_KEY)")
	}

	resp, err := s.firecrawl.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:             pageURL,
		Formats:         []string{"markdown"},
		OnlyMainContent: s.config.Fetch.OnlyMainContent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scrape %s: %w", pageURL, err)
	}

	markdown := cleanWhitespace(resp.Data.Markdown)
	if markdown == "" {
		return nil, fmt.Errorf("scrape of %s returned no content", pageURL)
	}

	s.logger.Debug().
		Str("url", pageURL).
		Int("chars", len(markdown)).
		Msg("Page scraped")

	result := &models.Document{
		ID:          common.NewDocumentID(),
		Provider:    "fetch",
		Title:       strings.TrimSpace(resp.Data.Metadata.Title),
		Content:     markdown,
		URL:         pageURL,
		RetrievedAt: time.Now(),
	}
	if result.Title == "" {
		result.Title = models.NoTitle
	}
	return result, nil
}

// extractContent narrows the DOM to the main content container when one
// exists, then strips boilerplate elements.
func (s *Service) extractContent(doc *goquery.Document) *goquery.Selection {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		body = doc.Selection
	}

	if s.config.Fetch.OnlyMainContent {
		mainContent := body.Find("main, article, [role=main]").First()
		if mainContent.Length() > 0 {
			body = mainContent
		}
	}

	body.Find("script, style, noscript").Remove()
	body.Find("nav, header, footer, aside").Remove()
	body.Find("[class*=ad], [id*=ad], [class*=promo]").Remove()

	return body
}

var (
	spaceRegex   = regexp.MustCompile(`[ \t]+`)
	newlineRegex = regexp.MustCompile(`\n{3,}`)
)

func cleanWhitespace(text string) string {
	text = spaceRegex.ReplaceAllString(text, " ")
	text = newlineRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
