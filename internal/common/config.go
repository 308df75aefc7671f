package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production" - tags every monitoring submission
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	Retrieval   RetrievalConfig `toml:"retrieval"`
	Exa         ExaConfig       `toml:"exa"`
	Tavily      TavilyConfig    `toml:"tavily"`
	Linkup      LinkupConfig    `toml:"linkup"`
	Firecrawl   FirecrawlConfig `toml:"firecrawl"`
	LLM         LLMConfig       `toml:"llm"`
	Claude      ClaudeConfig    `toml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini"`
	OpenAI      OpenAIConfig    `toml:"openai"`
	Groq        GroqConfig      `toml:"groq"`
	Agent       AgentConfig     `toml:"agent"`
	Fetch       FetchConfig     `toml:"fetch"`
	Monitor     MonitorConfig   `toml:"monitor"`
	Pipeline    PipelineConfig  `toml:"pipeline"`
	Questions   QuestionsConfig `toml:"questions"`
	Watch       WatchConfig     `toml:"watch"`
	Report      ReportConfig    `toml:"report"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// RetrievalConfig selects and bounds the search provider used for context retrieval
type RetrievalConfig struct {
	Provider   string `toml:"provider" validate:"oneof=exa tavily linkup firecrawl"`
	MaxResults int    `toml:"max_results" validate:"min=1,max=50"` // Documents requested per query
	Timeout    string `toml:"timeout"`                             // Per-search timeout as duration string
}

// ExaConfig contains Exa search API configuration
type ExaConfig struct {
	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url"`
	RateLimit  string `toml:"rate_limit"` // Minimum interval between requests (default: "200ms")
	Highlights bool   `toml:"highlights"` // Request highlight snippets alongside full text
}

// TavilyConfig contains Tavily search API configuration
type TavilyConfig struct {
	APIKey            string `toml:"api_key"`
	BaseURL           string `toml:"base_url"`
	SearchDepth       string `toml:"search_depth" validate:"omitempty,oneof=basic advanced"`
	IncludeRawContent bool   `toml:"include_raw_content"`
	RateLimit         string `toml:"rate_limit"`
}

// LinkupConfig contains Linkup search API configuration
type LinkupConfig struct {
	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url"`
	Depth      string `toml:"depth" validate:"omitempty,oneof=standard deep"`
	OutputType string `toml:"output_type" validate:"omitempty,oneof=searchResults sourcedAnswer"`
	RateLimit  string `toml:"rate_limit"`
}

// FirecrawlConfig contains Firecrawl search API configuration
type FirecrawlConfig struct {
	APIKey        string `toml:"api_key"`
	BaseURL       string `toml:"base_url"`
	ScrapeContent bool   `toml:"scrape_content"` // Scrape full markdown for each result
	RateLimit     string `toml:"rate_limit"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderOpenAI uses OpenAI API
	LLMProviderOpenAI LLMProvider = "openai"
	// LLMProviderGroq uses Groq's OpenAI-compatible API
	LLMProviderGroq LLMProvider = "groq"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=claude gemini openai groq"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`    // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"` // Rate limit duration string (default: "1s")
	Temperature float32 `toml:"temperature"`
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	RateLimit   string  `toml:"rate_limit"` // Default "4s" (15 RPM free tier)
	Temperature float32 `toml:"temperature"`
}

// OpenAIConfig contains OpenAI API configuration
type OpenAIConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	RateLimit   string  `toml:"rate_limit"`
	Temperature float32 `toml:"temperature"`
}

// GroqConfig contains Groq API configuration (OpenAI-compatible endpoint)
type GroqConfig struct {
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	RateLimit   string  `toml:"rate_limit"`
	Temperature float32 `toml:"temperature"`
}

// AgentConfig bounds the tool-calling answer loop
type AgentConfig struct {
	Enabled      bool   `toml:"enabled"`        // Use the tool-calling agent instead of single-shot generation
	MaxTurns     int    `toml:"max_turns"`      // Maximum model invocations per question (default: 10)
	MaxToolCalls int    `toml:"max_tool_calls"` // Maximum tool executions per question (default: 15)
	Timeout      string `toml:"timeout"`        // Overall agent timeout as duration string (default: "5m")
}

// FetchConfig controls the fetch_page agent tool
type FetchConfig struct {
	Engine          string `toml:"engine" validate:"omitempty,oneof=http firecrawl"` // "http" fetches directly, "firecrawl" uses the scrape API
	UserAgent       string `toml:"user_agent"`
	RequestTimeout  string `toml:"request_timeout"`
	MaxBodySize     int    `toml:"max_body_size"`     // Maximum response body size in bytes
	OnlyMainContent bool   `toml:"only_main_content"` // Strip nav/script/footer noise before conversion
}

// MonitorConfig contains the hallucination detection API configuration
type MonitorConfig struct {
	APIKey         string            `toml:"api_key"`
	BaseURL        string            `toml:"base_url"`
	App            string            `toml:"app"`         // Application name attached to every log record
	Environment    string            `toml:"environment"` // Overrides top-level environment for submissions when set
	Detections     []string          `toml:"detections"`  // Detection types to request (default: hallucination, document_relevancy)
	SampleRate     float64           `toml:"sample_rate" validate:"gte=0,lte=1"`
	PollInterval   string            `toml:"poll_interval"`   // Interval between detection polls (default: "5s")
	PollTimeout    string            `toml:"poll_timeout"`    // Per-record polling ceiling (default: "300s")
	RequestTimeout string            `toml:"request_timeout"` // Single HTTP request timeout
	RateLimit      string            `toml:"rate_limit"`
	Tags           map[string]string `toml:"tags"` // Merged into every submission's tags
}

// PipelineConfig controls batch execution
type PipelineConfig struct {
	PollConcurrency int `toml:"poll_concurrency" validate:"min=1"` // Parallel detection polls (default: 50)
}

// QuestionsConfig controls question sourcing and generation
type QuestionsConfig struct {
	File      string `toml:"file"`       // Line-delimited JSON questions file
	Shuffle   bool   `toml:"shuffle"`    // Shuffle questions before a run
	Limit     int    `toml:"limit"`      // Max questions per run (0 = all)
	AxesFile  string `toml:"axes_file"`  // Optional YAML overriding the built-in generation axes
	BatchSize int    `toml:"batch_size"` // Questions requested per generation call (default: 10)
}

// WatchConfig contains scheduled-run configuration
type WatchConfig struct {
	Schedule string `toml:"schedule"` // Cron schedule for repeated batch runs
}

// ReportConfig controls run report output
type ReportConfig struct {
	Dir     string   `toml:"dir"`     // Output directory for run reports
	Formats []string `toml:"formats"` // "markdown", "pdf"
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in verax.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Retrieval: RetrievalConfig{
			Provider:   "exa",
			MaxResults: 5,
			Timeout:    "30s",
		},
		Exa: ExaConfig{
			BaseURL:    "https://api.exa.ai",
			RateLimit:  "200ms",
			Highlights: true,
		},
		Tavily: TavilyConfig{
			BaseURL:           "https://api.tavily.com",
			SearchDepth:       "basic",
			IncludeRawContent: false,
			RateLimit:         "200ms",
		},
		Linkup: LinkupConfig{
			BaseURL:    "https://api.linkup.so/v1",
			Depth:      "standard",
			OutputType: "searchResults",
			RateLimit:  "200ms",
		},
		Firecrawl: FirecrawlConfig{
			BaseURL:       "https://api.firecrawl.dev/v1",
			ScrapeContent: false,
			RateLimit:     "500ms",
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderOpenAI,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   2048,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.2,
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-2.5-flash",
			Timeout:     "2m",
			RateLimit:   "4s", // Free tier is 15 RPM
			Temperature: 0.2,
		},
		OpenAI: OpenAIConfig{
			APIKey:      "",
			Model:       "gpt-4.1-mini",
			MaxTokens:   2048,
			Timeout:     "2m",
			RateLimit:   "200ms",
			Temperature: 0.2,
		},
		Groq: GroqConfig{
			APIKey:      "",
			BaseURL:     "https://api.groq.com/openai/v1",
			Model:       "llama-3.3-70b-versatile",
			MaxTokens:   2048,
			Timeout:     "2m",
			RateLimit:   "500ms",
			Temperature: 0.2,
		},
		Agent: AgentConfig{
			Enabled:      false, // Single-shot generation by default
			MaxTurns:     10,
			MaxToolCalls: 15,
			Timeout:      "5m",
		},
		Fetch: FetchConfig{
			Engine:          "http",
			UserAgent:       "verax/" + Version,
			RequestTimeout:  "30s",
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			OnlyMainContent: true,
		},
		Monitor: MonitorConfig{
			APIKey:         "", // User must provide API key (VERAX_MONITOR_API_KEY or config)
			BaseURL:        "https://api.quotientai.co/api/v1",
			App:            "verax",
			Environment:    "",
			Detections:     []string{"hallucination", "document_relevancy"},
			SampleRate:     1.0,
			PollInterval:   "5s",
			PollTimeout:    "300s",
			RequestTimeout: "30s",
			RateLimit:      "100ms",
			Tags:           map[string]string{},
		},
		Pipeline: PipelineConfig{
			PollConcurrency: 50,
		},
		Questions: QuestionsConfig{
			File:      "./questions.jsonl",
			Shuffle:   false,
			Limit:     0,
			AxesFile:  "",
			BatchSize: 10,
		},
		Watch: WatchConfig{
			Schedule: "0 */6 * * *", // Every 6 hours
		},
		Report: ReportConfig{
			Dir:     "./reports",
			Formats: []string{"markdown"},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI. Later files override earlier
// files. Example: LoadFromFiles("base.toml", "local.toml") - local.toml
// settings take precedence over base.toml
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration using go-playground/validator tags
// plus the duration and schedule fields the tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	durations := map[string]string{
		"retrieval.timeout":       c.Retrieval.Timeout,
		"agent.timeout":           c.Agent.Timeout,
		"fetch.request_timeout":   c.Fetch.RequestTimeout,
		"monitor.poll_interval":   c.Monitor.PollInterval,
		"monitor.poll_timeout":    c.Monitor.PollTimeout,
		"monitor.request_timeout": c.Monitor.RequestTimeout,
	}
	for name, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid configuration: %s %q: %w", name, value, err)
		}
	}

	if c.Watch.Schedule != "" {
		if err := ValidateWatchSchedule(c.Watch.Schedule); err != nil {
			return fmt.Errorf("invalid configuration: watch.schedule: %w", err)
		}
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: VERAX_ENV, fallback: GO_ENV)
	if env := os.Getenv("VERAX_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Logging configuration
	if level := os.Getenv("VERAX_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("VERAX_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("VERAX_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("VERAX_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Retrieval configuration
	if provider := os.Getenv("VERAX_RETRIEVAL_PROVIDER"); provider != "" {
		config.Retrieval.Provider = provider
	}
	if maxResults := os.Getenv("VERAX_RETRIEVAL_MAX_RESULTS"); maxResults != "" {
		if mr, err := strconv.Atoi(maxResults); err == nil {
			config.Retrieval.MaxResults = mr
		}
	}
	if timeout := os.Getenv("VERAX_RETRIEVAL_TIMEOUT"); timeout != "" {
		config.Retrieval.Timeout = timeout
	}

	// Search provider keys. The VERAX_ prefixed variable wins; the provider's
	// standard variable is the fallback.
	config.Exa.APIKey = resolveEnv(config.Exa.APIKey, "VERAX_EXA_API_KEY", "EXA_API_KEY")
	config.Tavily.APIKey = resolveEnv(config.Tavily.APIKey, "VERAX_TAVILY_API_KEY", "TAVILY_API_KEY")
	config.Linkup.APIKey = resolveEnv(config.Linkup.APIKey, "VERAX_LINKUP_API_KEY", "LINKUP_API_KEY")
	config.Firecrawl.APIKey = resolveEnv(config.Firecrawl.APIKey, "VERAX_FIRECRAWL_API_KEY", "FIRECRAWL_API_KEY")

	// LLM provider configuration
	if provider := os.Getenv("VERAX_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	config.Claude.APIKey = resolveEnv(config.Claude.APIKey, "VERAX_CLAUDE_API_KEY", "ANTHROPIC_API_KEY")
	if model := os.Getenv("VERAX_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	config.Gemini.APIKey = resolveEnv(config.Gemini.APIKey, "VERAX_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	if model := os.Getenv("VERAX_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	config.OpenAI.APIKey = resolveEnv(config.OpenAI.APIKey, "VERAX_OPENAI_API_KEY", "OPENAI_API_KEY")
	if model := os.Getenv("VERAX_OPENAI_MODEL"); model != "" {
		config.OpenAI.Model = model
	}

	config.Groq.APIKey = resolveEnv(config.Groq.APIKey, "VERAX_GROQ_API_KEY", "GROQ_API_KEY")
	if model := os.Getenv("VERAX_GROQ_MODEL"); model != "" {
		config.Groq.Model = model
	}

	// Agent configuration
	if enabled := os.Getenv("VERAX_AGENT_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Agent.Enabled = e
		}
	}
	if maxTurns := os.Getenv("VERAX_AGENT_MAX_TURNS"); maxTurns != "" {
		if mt, err := strconv.Atoi(maxTurns); err == nil {
			config.Agent.MaxTurns = mt
		}
	}
	if maxToolCalls := os.Getenv("VERAX_AGENT_MAX_TOOL_CALLS"); maxToolCalls != "" {
		if mtc, err := strconv.Atoi(maxToolCalls); err == nil {
			config.Agent.MaxToolCalls = mtc
		}
	}

	// Fetch configuration
	if engine := os.Getenv("VERAX_FETCH_ENGINE"); engine != "" {
		config.Fetch.Engine = engine
	}
	if userAgent := os.Getenv("VERAX_FETCH_USER_AGENT"); userAgent != "" {
		config.Fetch.UserAgent = userAgent
	}
	if requestTimeout := os.Getenv("VERAX_FETCH_REQUEST_TIMEOUT"); requestTimeout != "" {
		config.Fetch.RequestTimeout = requestTimeout
	}
	if maxBodySize := os.Getenv("VERAX_FETCH_MAX_BODY_SIZE"); maxBodySize != "" {
		if mbs, err := strconv.Atoi(maxBodySize); err == nil {
			config.Fetch.MaxBodySize = mbs
		}
	}

	// Monitor configuration
	config.Monitor.APIKey = resolveEnv(config.Monitor.APIKey, "VERAX_MONITOR_API_KEY", "QUOTIENT_API_KEY")
	if baseURL := os.Getenv("VERAX_MONITOR_BASE_URL"); baseURL != "" {
		config.Monitor.BaseURL = baseURL
	}
	if app := os.Getenv("VERAX_MONITOR_APP"); app != "" {
		config.Monitor.App = app
	}
	if environment := os.Getenv("VERAX_MONITOR_ENVIRONMENT"); environment != "" {
		config.Monitor.Environment = environment
	}
	if sampleRate := os.Getenv("VERAX_MONITOR_SAMPLE_RATE"); sampleRate != "" {
		if sr, err := strconv.ParseFloat(sampleRate, 64); err == nil {
			config.Monitor.SampleRate = sr
		}
	}
	if pollInterval := os.Getenv("VERAX_MONITOR_POLL_INTERVAL"); pollInterval != "" {
		config.Monitor.PollInterval = pollInterval
	}
	if pollTimeout := os.Getenv("VERAX_MONITOR_POLL_TIMEOUT"); pollTimeout != "" {
		config.Monitor.PollTimeout = pollTimeout
	}

	// Pipeline configuration
	if pollConcurrency := os.Getenv("VERAX_PIPELINE_POLL_CONCURRENCY"); pollConcurrency != "" {
		if pc, err := strconv.Atoi(pollConcurrency); err == nil {
			config.Pipeline.PollConcurrency = pc
		}
	}

	// Questions configuration
	if file := os.Getenv("VERAX_QUESTIONS_FILE"); file != "" {
		config.Questions.File = file
	}
	if axesFile := os.Getenv("VERAX_QUESTIONS_AXES_FILE"); axesFile != "" {
		config.Questions.AxesFile = axesFile
	}

	// Watch configuration
	if schedule := os.Getenv("VERAX_WATCH_SCHEDULE"); schedule != "" {
		config.Watch.Schedule = schedule
	}

	// Report configuration
	if dir := os.Getenv("VERAX_REPORT_DIR"); dir != "" {
		config.Report.Dir = dir
	}
}

// resolveEnv returns the first non-empty value among the named environment
// variables, falling back to the current config value.
func resolveEnv(current string, names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return current
}

// ValidateWatchSchedule validates a cron schedule expression and ensures
// a minimum 5-minute interval so repeated runs cannot stack up.
func ValidateWatchSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]

	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	if strings.HasPrefix(minuteField, "*/") {
		intervalStr := strings.TrimPrefix(minuteField, "*/")
		interval, err := strconv.Atoi(intervalStr)
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// MonitorEnvironment returns the environment tag attached to monitoring
// submissions: the monitor-specific override when set, the top-level
// environment otherwise.
func (c *Config) MonitorEnvironment() string {
	if c.Monitor.Environment != "" {
		return c.Monitor.Environment
	}
	return c.Environment
}

// DurationOr parses a duration string, returning the fallback when the
// string is empty or invalid.
func DurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
