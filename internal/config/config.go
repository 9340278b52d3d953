// Package config provides configuration management for the news graph worker and server.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoSources                = errors.New("at least one source is required")
	ErrUnknownSource            = errors.New("unknown source name")
	ErrDuplicateSource          = errors.New("duplicate source name")
	ErrSourceMissingBaseURL     = errors.New("base_url is required")
	ErrInvalidSourceLimit       = errors.New("limit must be between 1 and 100")
	ErrNoEnabledSources         = errors.New("at least one source must be enabled")
	ErrInvalidMaxAttempts       = errors.New("fetch.retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("fetch.retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("fetch.retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("fetch.timeout_sec must be at least 1")
	ErrInvalidCacheTTL          = errors.New("fetch.cache_ttl_sec must be non-negative")
	ErrInvalidBufferSize        = errors.New("fetch.buffer_size_kb must be at least 1")
	ErrInvalidBreaker           = errors.New("fetch.breaker.failure_ratio must be in (0, 1]")
	ErrInvalidMaxPhrases        = errors.New("graph.max_phrases_per_doc must be between 1 and 10")
	ErrMissingServerAddr        = errors.New("server.addr is required")
	ErrMissingOutputPath        = errors.New("output.base_path is required")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be 'json' or 'console'")
)

// KnownSources lists every source the crawler can fetch from.
var KnownSources = []string{"hackernews", "wikipedia", "arxiv", "googlenews", "huggingface"}

// Config represents the complete configuration.
type Config struct {
	Output  OutputConfig   `yaml:"output"`
	Logging LoggingConfig  `yaml:"logging"`
	Server  ServerConfig   `yaml:"server"`
	Sources []SourceConfig `yaml:"sources"`
	Fetch   FetchConfig    `yaml:"fetch"`
	Graph   GraphConfig    `yaml:"graph"`
}

// SourceConfig represents one document source.
type SourceConfig struct {
	Name             string `yaml:"name"`
	BaseURL          string `yaml:"base_url"`
	Query            string `yaml:"query"`
	Limit            int    `yaml:"limit"`
	Enabled          bool   `yaml:"enabled"`
	FetchArticleText bool   `yaml:"fetch_article_text"`
}

// FetchConfig controls outbound HTTP behavior.
type FetchConfig struct {
	UserAgent    string        `yaml:"user_agent"`
	Retry        RetryPolicy   `yaml:"retry"`
	Breaker      BreakerConfig `yaml:"breaker"`
	TimeoutSec   int           `yaml:"timeout_sec"`
	CacheTTLSec  int           `yaml:"cache_ttl_sec"`
	BufferSizeKb int           `yaml:"buffer_size_kb"`
}

// RetryPolicy defines retry behavior.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
}

// BreakerConfig configures the per-source circuit breakers.
type BreakerConfig struct {
	FailureRatio float64 `yaml:"failure_ratio"`
	MinRequests  uint32  `yaml:"min_requests"`
	MaxRequests  uint32  `yaml:"max_requests"`
	IntervalSec  int     `yaml:"interval_sec"`
	OpenSec      int     `yaml:"open_sec"`
}

// GraphConfig controls keyword extraction and graph building.
type GraphConfig struct {
	ExtraStopWords   []string `yaml:"extra_stop_words"`
	MaxPhrasesPerDoc int      `yaml:"max_phrases_per_doc"`
	IncludeArticles  bool     `yaml:"include_articles"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
}

// OutputConfig defines where the worker writes its artifacts.
type OutputConfig struct {
	BasePath string `yaml:"base_path"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a configuration that works without a file.
func DefaultConfig() *Config {
	return &Config{
		Sources: []SourceConfig{
			{Name: "hackernews", BaseURL: "https://hacker-news.firebaseio.com", Limit: 20, Enabled: true},
			{Name: "wikipedia", BaseURL: "https://en.wikipedia.org", Query: "Artificial Intelligence", Limit: 1, Enabled: true},
			{Name: "arxiv", BaseURL: "https://export.arxiv.org", Query: "artificial intelligence", Limit: 20, Enabled: true},
			{Name: "googlenews", BaseURL: "https://news.google.com", Query: "artificial intelligence", Limit: 20, Enabled: true},
			{Name: "huggingface", BaseURL: "https://huggingface.co", Query: "llm", Limit: 20, Enabled: true},
		},
		Fetch: FetchConfig{
			UserAgent:    "newsgraph/1.0 (+https://github.com/newsgraph)",
			TimeoutSec:   15,
			CacheTTLSec:  300,
			BufferSizeKb: 2048,
			Retry: RetryPolicy{
				MaxAttempts:       2,
				InitialDelayMs:    250,
				MaxDelayMs:        2000,
				BackoffMultiplier: 2.0,
			},
			Breaker: BreakerConfig{
				FailureRatio: 0.6,
				MinRequests:  3,
				MaxRequests:  1,
				IntervalSec:  60,
				OpenSec:      30,
			},
		},
		Graph: GraphConfig{
			MaxPhrasesPerDoc: 10,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeoutSec:  10,
			WriteTimeoutSec: 120,
		},
		Output: OutputConfig{
			BasePath: "./output",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of DefaultConfig.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	// A sources list in the file replaces the default list rather than merging into it.
	cfg.Sources = nil

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultConfig().Sources
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSources
	}

	seen := make(map[string]bool, len(c.Sources))
	enabledCount := 0

	for i, src := range c.Sources {
		if !slices.Contains(KnownSources, src.Name) {
			return fmt.Errorf("%w: source[%d] %q", ErrUnknownSource, i, src.Name)
		}

		if seen[src.Name] {
			return fmt.Errorf("%w: source[%d] %q", ErrDuplicateSource, i, src.Name)
		}

		seen[src.Name] = true

		if src.BaseURL == "" {
			return fmt.Errorf("%w: source[%d]", ErrSourceMissingBaseURL, i)
		}

		if src.Limit < 1 || src.Limit > 100 {
			return fmt.Errorf("%w: source[%d]", ErrInvalidSourceLimit, i)
		}

		if src.Enabled {
			enabledCount++
		}
	}

	if enabledCount == 0 {
		return ErrNoEnabledSources
	}

	if err := c.Fetch.validate(); err != nil {
		return err
	}

	if c.Graph.MaxPhrasesPerDoc < 1 || c.Graph.MaxPhrasesPerDoc > 10 {
		return ErrInvalidMaxPhrases
	}

	if c.Server.Addr == "" {
		return ErrMissingServerAddr
	}

	if c.Output.BasePath == "" {
		return ErrMissingOutputPath
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return ErrInvalidLogFormat
	}

	return nil
}

func (f *FetchConfig) validate() error {
	if f.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if f.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if f.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if f.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if f.CacheTTLSec < 0 {
		return ErrInvalidCacheTTL
	}

	if f.BufferSizeKb < 1 {
		return ErrInvalidBufferSize
	}

	if f.Breaker.FailureRatio <= 0 || f.Breaker.FailureRatio > 1 {
		return ErrInvalidBreaker
	}

	return nil
}

// GetEnabledSources returns only enabled sources.
func (c *Config) GetEnabledSources() []SourceConfig {
	var enabled []SourceConfig

	for _, src := range c.Sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}

	return enabled
}

// GetSource returns the configured source with the given name.
func (c *Config) GetSource(name string) (SourceConfig, bool) {
	for _, src := range c.Sources {
		if src.Name == name {
			return src, true
		}
	}

	return SourceConfig{}, false
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	if rp.MaxDelayMs > 0 && int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the per-request timeout.
func (f *FetchConfig) GetTimeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

// GetCacheTTL returns how long successful fetches are memoized.
func (f *FetchConfig) GetCacheTTL() time.Duration {
	return time.Duration(f.CacheTTLSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Sources: %d (%d enabled), MaxAttempts: %d, MaxPhrases: %d, Addr: %s}",
		len(c.Sources),
		len(c.GetEnabledSources()),
		c.Fetch.Retry.MaxAttempts,
		c.Graph.MaxPhrasesPerDoc,
		c.Server.Addr,
	)
}
