// Package config holds all bookmarkd process configuration: YAML file
// defaults layered with environment-variable overrides (names preserved
// from the existing deployment for compatibility).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full process configuration.
type Config struct {
	Workspace string `yaml:"workspace"`

	Store      StoreConfig      `yaml:"store"`
	Cache      CacheConfig      `yaml:"cache"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Scraper    ScraperConfig    `yaml:"scraper"`
	LLM        LLMConfig        `yaml:"llm"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Logging    LoggingConfig    `yaml:"logging"`
	Ingestion  IngestionConfig  `yaml:"ingestion"`
	Background BackgroundConfig `yaml:"background"`
}

// StoreConfig configures the persistence layer.
type StoreConfig struct {
	// DatabaseURL is a sqlite DSN, e.g. "file:data/bookmarkd.db".
	// Preserved under the DATABASE_URL env name for deployment parity
	// even though this implementation is sqlite-backed, not Postgres.
	DatabaseURL    string `yaml:"database_url"`
	EnableVecIndex bool   `yaml:"enable_vec_index"`
	MaxOrderedItems int   `yaml:"max_ordered_items"`
}

// CacheConfig configures the Redis-backed cache.
type CacheConfig struct {
	RedisURL string `yaml:"redis_url"`
	Disabled bool   `yaml:"disabled"`
}

// EmbeddingConfig configures the embedding engine.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // "ollama" or "genai"
	OllamaEndpoint string `yaml:"ollama_endpoint"`
	OllamaModel    string `yaml:"ollama_model"`
	GenAIAPIKey    string `yaml:"genai_api_key"`
	GenAIModel     string `yaml:"genai_model"`
	TaskType       string `yaml:"task_type"`
}

// ScraperConfig configures scraping strategy and anti-bot posture.
type ScraperConfig struct {
	StealthHosts       []string `yaml:"stealth_hosts"`
	RequestsPerHour    int      `yaml:"requests_per_hour"`
	MinDelaySeconds    int      `yaml:"min_delay_seconds"`
	MaxDelaySeconds    int      `yaml:"max_delay_seconds"`
	QualityFloor       int      `yaml:"quality_floor"`
	MaxExtractedChars  int      `yaml:"max_extracted_chars"`
	HeadlessBrowserBin string   `yaml:"headless_browser_bin"`
}

// LLMConfig configures the LLM client.
type LLMConfig struct {
	Provider       string `yaml:"provider"` // "genai"
	DefaultAPIKey  string `yaml:"default_api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// RateLimitConfig configures the APIKeyRegistry.
type RateLimitConfig struct {
	PerMinute       int    `yaml:"per_minute"`
	PerDay          int    `yaml:"per_day"`
	PerMonth        int    `yaml:"per_month"`
	EncryptionKey   string `yaml:"encryption_key"` // derived from SECRET_KEY
	KeysFile        string `yaml:"keys_file"`
}

// LoggingConfig configures the category logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories"`
}

// IngestionConfig configures the ingest/bulk-import pipeline.
type IngestionConfig struct {
	QualityFloor        int `yaml:"quality_floor"`
	BulkConcurrency     int `yaml:"bulk_concurrency"`
	ProgressEveryNItems int `yaml:"progress_every_n_items"`
}

// BackgroundConfig configures the background analysis worker.
type BackgroundConfig struct {
	Interval      time.Duration `yaml:"interval"`
	BatchSize     int           `yaml:"batch_size"`
	CooldownAfter time.Duration `yaml:"cooldown_after"`
}

// Default returns sensible defaults: quality floor 5, rate limits
// 15/1500/45000 per minute/day/month.
func Default() *Config {
	return &Config{
		Workspace: ".",
		Store: StoreConfig{
			DatabaseURL:     "file:data/bookmarkd.db",
			EnableVecIndex:  true,
			MaxOrderedItems: 100,
		},
		Cache: CacheConfig{
			RedisURL: "redis://localhost:6379/0",
		},
		Embedding: EmbeddingConfig{
			Provider:       "ollama",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			GenAIModel:     "gemini-embedding-001",
			TaskType:       "SEMANTIC_SIMILARITY",
		},
		Scraper: ScraperConfig{
			StealthHosts:      []string{"github.com", "leetcode.com", "medium.com", "dev.to"},
			RequestsPerHour:   30,
			MinDelaySeconds:   2,
			MaxDelaySeconds:   8,
			QualityFloor:      5,
			MaxExtractedChars: 100_000,
		},
		LLM: LLMConfig{
			Provider:       "genai",
			Model:          "gemini-2.5-flash",
			TimeoutSeconds: 30,
			MaxRetries:     3,
		},
		RateLimit: RateLimitConfig{
			PerMinute: 15,
			PerDay:    1500,
			PerMonth:  45000,
			KeysFile:  "data/api_keys.json",
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
		Ingestion: IngestionConfig{
			QualityFloor:        5,
			BulkConcurrency:     4,
			ProgressEveryNItems: 1,
		},
		Background: BackgroundConfig{
			Interval:      2 * time.Minute,
			BatchSize:     20,
			CooldownAfter: 30 * time.Minute,
		},
	}
}

// Load reads a YAML config file (if present) over the defaults, then
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	ApplyEnvOverrides(cfg)

	return cfg, nil
}
