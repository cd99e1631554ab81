package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen       string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout      time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
		BaseURL      string        `yaml:"base_url" json:"base_url" jsonschema:"default=http://localhost:8080,description=Public base URL used in generated feeds"`
		PageSize     int           `yaml:"page_size" json:"page_size" jsonschema:"default=30,minimum=1,description=Default number of posts per page"`
		IngestSecret string        `yaml:"ingest_secret" json:"ingest_secret" jsonschema:"description=Shared bearer secret for trigger and admin endpoints"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:enggist.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Feed FeedConfig `yaml:"feed" json:"feed" jsonschema:"description=Feed fetching configuration"`

	LLM LLMConfig `yaml:"llm" json:"llm" jsonschema:"description=LLM configuration for post summarization"`

	Summarize SummarizeConfig `yaml:"summarize" json:"summarize" jsonschema:"description=Summarization batch configuration"`

	Extraction ExtractionConfig `yaml:"extraction" json:"extraction" jsonschema:"description=Content extraction configuration"`

	Schedule struct {
		Enabled           bool          `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Run ingestion and summarization in-process"`
		IngestInterval    time.Duration `yaml:"ingest_interval" json:"ingest_interval" jsonschema:"default=24h,description=Interval between ingestion runs"`
		SummarizeInterval time.Duration `yaml:"summarize_interval" json:"summarize_interval" jsonschema:"default=24h,description=Interval between summarization runs"`
	} `yaml:"schedule" json:"schedule" jsonschema:"description=Built-in scheduler configuration"`

	Trigger struct {
		URL     string        `yaml:"url" json:"url" jsonschema:"default=http://localhost:8080,description=Base URL of the server to trigger"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10m,description=Trigger request timeout"`
	} `yaml:"trigger" json:"trigger" jsonschema:"description=Remote trigger client configuration"`
}

// FeedConfig holds feed fetching settings
type FeedConfig struct {
	Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=Feed fetch timeout"`
	MaxItems    int           `yaml:"max_items" json:"max_items" jsonschema:"default=50,minimum=1,description=Maximum items taken from one feed"`
	UserAgent   string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Enggist/1.0 (RSS Reader),description=User agent for feed requests"`
	InsecureTLS *bool         `yaml:"insecure_tls" json:"insecure_tls" jsonschema:"default=true,description=Accept feeds served with invalid certificates"`
	MaxWorkers  int           `yaml:"max_workers" json:"max_workers" jsonschema:"default=1,minimum=1,description=Number of sources fetched concurrently"`
}

// LLMConfig holds LLM configuration for summarization
type LLMConfig struct {
	Endpoint      string        `yaml:"endpoint" json:"endpoint" jsonschema:"default=https://api.openai.com/v1,description=OpenAI-compatible API endpoint"`
	APIKey        string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	Model         string        `yaml:"model" json:"model" jsonschema:"default=gpt-4o-mini,description=Model name"`
	Temperature   *float64      `yaml:"temperature" json:"temperature" jsonschema:"default=0.3,description=Temperature for response generation"`
	MaxTokens     int           `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=1000,description=Maximum tokens in response"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=60s,description=Request timeout"`
	MaxInputChars int           `yaml:"max_input_chars" json:"max_input_chars" jsonschema:"default=8000,description=Maximum post body characters sent to the model"`
	RetryDelay    time.Duration `yaml:"retry_delay" json:"retry_delay" jsonschema:"default=1s,description=Delay before the single retry of a failed call"`
}

// SummarizeConfig holds summarization batch settings
type SummarizeConfig struct {
	MaxPosts      int           `yaml:"max_posts" json:"max_posts" jsonschema:"default=15,minimum=1,description=Maximum posts summarized per run"`
	BatchSize     int           `yaml:"batch_size" json:"batch_size" jsonschema:"default=3,minimum=1,description=Posts summarized concurrently"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10m,description=Overall run timeout"`
	Disabled      bool          `yaml:"disabled" json:"disabled" jsonschema:"default=false,description=Kill switch for summarization"`
	WarnThreshold int           `yaml:"warn_threshold" json:"warn_threshold" jsonschema:"default=15,description=Warn when one run summarizes more posts than this"`
}

// ExtractionConfig holds content extraction settings
type ExtractionConfig struct {
	Enabled          bool          `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Fetch full article text for thin posts before summarizing"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Extraction timeout per article"`
	MinContentLength int           `yaml:"min_content_length" json:"min_content_length" jsonschema:"default=500,description=Posts with shorter content are extracted"`
	UserAgent        string        `yaml:"user_agent" json:"user_agent" jsonschema:"description=User agent for extraction requests"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds configuration from raw YAML, expanding environment variables and applying defaults
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		return nil, fmt.Errorf("verify config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	// server
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = "http://localhost:8080"
	}
	if cfg.Server.PageSize == 0 {
		cfg.Server.PageSize = 30
	}

	// database
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:enggist.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 3600
	}

	// feed
	if cfg.Feed.Timeout == 0 {
		cfg.Feed.Timeout = 10 * time.Second
	}
	if cfg.Feed.MaxItems == 0 {
		cfg.Feed.MaxItems = 50
	}
	if cfg.Feed.UserAgent == "" {
		cfg.Feed.UserAgent = "Enggist/1.0 (RSS Reader)"
	}
	if cfg.Feed.InsecureTLS == nil {
		insecure := true
		cfg.Feed.InsecureTLS = &insecure
	}
	if cfg.Feed.MaxWorkers == 0 {
		cfg.Feed.MaxWorkers = 1
	}

	// llm
	if cfg.LLM.Endpoint == "" {
		cfg.LLM.Endpoint = "https://api.openai.com/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.Temperature == nil {
		temperature := 0.3
		cfg.LLM.Temperature = &temperature
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1000
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.LLM.MaxInputChars == 0 {
		cfg.LLM.MaxInputChars = 8000
	}
	if cfg.LLM.RetryDelay == 0 {
		cfg.LLM.RetryDelay = time.Second
	}

	// summarize
	if cfg.Summarize.MaxPosts == 0 {
		cfg.Summarize.MaxPosts = 15
	}
	if cfg.Summarize.BatchSize == 0 {
		cfg.Summarize.BatchSize = 3
	}
	if cfg.Summarize.Timeout == 0 {
		cfg.Summarize.Timeout = 10 * time.Minute
	}
	if cfg.Summarize.WarnThreshold == 0 {
		cfg.Summarize.WarnThreshold = 15
	}

	// extraction
	if cfg.Extraction.Timeout == 0 {
		cfg.Extraction.Timeout = 30 * time.Second
	}
	if cfg.Extraction.MinContentLength == 0 {
		cfg.Extraction.MinContentLength = 500
	}

	// schedule
	if cfg.Schedule.IngestInterval == 0 {
		cfg.Schedule.IngestInterval = 24 * time.Hour
	}
	if cfg.Schedule.SummarizeInterval == 0 {
		cfg.Schedule.SummarizeInterval = 24 * time.Hour
	}

	// trigger
	if cfg.Trigger.URL == "" {
		cfg.Trigger.URL = "http://localhost:8080"
	}
	if cfg.Trigger.Timeout == 0 {
		cfg.Trigger.Timeout = 10 * time.Minute
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}
	if cfg.Server.PageSize < 1 {
		return fmt.Errorf("server.page_size must be at least 1")
	}

	if cfg.Feed.Timeout < time.Second {
		return fmt.Errorf("feed timeout must be at least 1 second")
	}
	if cfg.Feed.MaxItems < 1 {
		return fmt.Errorf("feed.max_items must be at least 1")
	}
	if cfg.Feed.MaxWorkers < 1 {
		return fmt.Errorf("feed.max_workers must be at least 1")
	}

	if *cfg.LLM.Temperature < 0 || *cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if cfg.LLM.MaxInputChars < 100 {
		return fmt.Errorf("llm.max_input_chars must be at least 100")
	}

	if cfg.Summarize.MaxPosts < 1 {
		return fmt.Errorf("summarize.max_posts must be at least 1")
	}
	if cfg.Summarize.BatchSize < 1 {
		return fmt.Errorf("summarize.batch_size must be at least 1")
	}

	if cfg.Extraction.Enabled {
		if cfg.Extraction.Timeout < time.Second {
			return fmt.Errorf("extraction timeout must be at least 1 second")
		}
		if cfg.Extraction.MinContentLength < 0 {
			return fmt.Errorf("extraction min_content_length must be non-negative")
		}
	}

	if cfg.Schedule.Enabled && (cfg.Schedule.IngestInterval < time.Minute || cfg.Schedule.SummarizeInterval < time.Minute) {
		return fmt.Errorf("schedule intervals must be at least 1 minute")
	}

	return nil
}

// Secrets returns non-empty secret values for log masking
func (c *Config) Secrets() []string {
	var res []string
	for _, s := range []string{c.Server.IngestSecret, c.LLM.APIKey} {
		if s != "" {
			res = append(res, s)
		}
	}
	return res
}
