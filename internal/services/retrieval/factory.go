package retrieval

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/interfaces"
	"github.com/ternarybob/verax/internal/providers/exa"
	"github.com/ternarybob/verax/internal/providers/firecrawl"
	"github.com/ternarybob/verax/internal/providers/linkup"
	"github.com/ternarybob/verax/internal/providers/tavily"
)

// NewRetrievalService creates a retrieval service for the configured
// provider. Supported providers:
//   - "exa": Exa neural search with full text and highlights
//   - "tavily": Tavily search with optional raw page content
//   - "linkup": Linkup standard or deep search
//   - "firecrawl": Firecrawl search with optional page scraping
//
// An unknown provider name or a missing API key is a configuration
// error, not something to fall back from.
func NewRetrievalService(config *common.Config, logger arbor.ILogger) (interfaces.RetrievalService, error) {
	provider := strings.ToLower(strings.TrimSpace(config.Retrieval.Provider))

	switch provider {
	case "exa":
		if config.Exa.APIKey == "" {
			return nil, fmt.Errorf("retrieval provider exa selected but no API key configured (set EXA_API_KEY)")
		}
		opts := []exa.ClientOption{exa.WithLogger(logger)}
		if config.Exa.BaseURL != "" {
			opts = append(opts, exa.WithBaseURL(config.Exa.BaseURL))
		}
		if config.Exa.RateLimit != "" {
			opts = append(opts, exa.WithRateLimit(common.DurationOr(config.Exa.RateLimit, exa.DefaultRateInterval)))
		}
		logger.Info().Str("provider", "exa").Msg("Initializing retrieval service")
		return NewExaService(exa.NewClient(config.Exa.APIKey, opts...), config, logger), nil

	case "tavily":
		if config.Tavily.APIKey == "" {
			return nil, fmt.Errorf("retrieval provider tavily selected but no API key configured (set TAVILY_API_KEY)")
		}
		opts := []tavily.ClientOption{tavily.WithLogger(logger)}
		if config.Tavily.BaseURL != "" {
			opts = append(opts, tavily.WithBaseURL(config.Tavily.BaseURL))
		}
		if config.Tavily.RateLimit != "" {
			opts = append(opts, tavily.WithRateLimit(common.DurationOr(config.Tavily.RateLimit, tavily.DefaultRateInterval)))
		}
		logger.Info().Str("provider", "tavily").Msg("Initializing retrieval service")
		return NewTavilyService(tavily.NewClient(config.Tavily.APIKey, opts...), config, logger), nil

	case "linkup":
		if config.Linkup.APIKey == "" {
			return nil, fmt.Errorf("retrieval provider linkup selected but no API key configured (set LINKUP_API_KEY)")
		}
		opts := []linkup.ClientOption{linkup.WithLogger(logger)}
		if config.Linkup.BaseURL != "" {
			opts = append(opts, linkup.WithBaseURL(config.Linkup.BaseURL))
		}
		if config.Linkup.RateLimit != "" {
			opts = append(opts, linkup.WithRateLimit(common.DurationOr(config.Linkup.RateLimit, linkup.DefaultRateInterval)))
		}
		logger.Info().Str("provider", "linkup").Msg("Initializing retrieval service")
		return NewLinkupService(linkup.NewClient(config.Linkup.APIKey, opts...), config, logger), nil

	case "firecrawl":
		if config.Firecrawl.APIKey == "" {
			return nil, fmt.Errorf("retrieval provider firecrawl selected but no API key configured (set FIRECRAWL_API_KEY)")
		}
		opts := []firecrawl.ClientOption{firecrawl.WithLogger(logger)}
		if config.Firecrawl.BaseURL != "" {
			opts = append(opts, firecrawl.WithBaseURL(config.Firecrawl.BaseURL))
		}
		if config.Firecrawl.RateLimit != "" {
			opts = append(opts, firecrawl.WithRateLimit(common.DurationOr(config.Firecrawl.RateLimit, firecrawl.DefaultRateInterval)))
		}
		logger.Info().Str("provider", "firecrawl").Msg("Initializing retrieval service")
		return NewFirecrawlService(firecrawl.NewClient(config.Firecrawl.APIKey, opts...), config, logger), nil

	default:
		return nil, fmt.Errorf("unknown retrieval provider: %q (supported: exa, tavily, linkup, firecrawl)", config.Retrieval.Provider)
	}
}
