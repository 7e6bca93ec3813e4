// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Firecrawl FirecrawlConfig `mapstructure:"firecrawl"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Search    SearchConfig    `mapstructure:"search"`
	DB        DBConfig        `mapstructure:"db"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// FirecrawlConfig holds credentials for the remote scraping service.
type FirecrawlConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// GeminiConfig holds credentials and the model preference order for the
// extraction stage. Candidates are tried most to least capable.
type GeminiConfig struct {
	APIKey          string   `mapstructure:"api_key"`
	ModelCandidates []string `mapstructure:"model_candidates"`
	TimeoutSeconds  int      `mapstructure:"timeout_seconds"`
}

// ScraperConfig selects the content fetcher implementation.
type ScraperConfig struct {
	Provider       string `mapstructure:"provider"` // firecrawl | direct
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// PipelineConfig governs the crawl-normalize-persist pipeline.
type PipelineConfig struct {
	MinContentChars   int `mapstructure:"min_content_chars"`
	MaxPromptChars    int `mapstructure:"max_prompt_chars"`
	BatchDelaySeconds int `mapstructure:"batch_delay_seconds"`
	BatchLimit        int `mapstructure:"batch_limit"`
}

// SearchConfig governs keyword search collection.
type SearchConfig struct {
	Region       string   `mapstructure:"region"`
	Limit        int      `mapstructure:"limit"`
	AllowedHosts []string `mapstructure:"allowed_hosts"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN             string `mapstructure:"dsn"`
	ContentTable    string `mapstructure:"content_table"`
	StoreTable      string `mapstructure:"store_table"`
	MaxConns        int32  `mapstructure:"max_conns"`
	MinConns        int32  `mapstructure:"min_conns"`
	LifetimeMinutes int    `mapstructure:"lifetime_minutes"`
}

// ArchiveConfig sets raw-markdown blob archival. Empty bucket disables it.
type ArchiveConfig struct {
	GCSBucket   string `mapstructure:"gcs_bucket"`
	Prefix      string `mapstructure:"prefix"`
	ContentType string `mapstructure:"content_type"`
}

// PubSubConfig holds metadata for ingest-event notifications. Empty topic
// disables publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CONTENTCRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 120)
	v.SetDefault("logging.development", true)
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev")
	v.SetDefault("firecrawl.timeout_seconds", 60)
	v.SetDefault("firecrawl.requests_per_second", 0.5)
	v.SetDefault("gemini.model_candidates", []string{
		"gemini-2.0-flash-exp",
		"gemini-1.5-flash",
		"gemini-1.5-flash-latest",
	})
	v.SetDefault("gemini.timeout_seconds", 60)
	v.SetDefault("scraper.provider", "firecrawl")
	v.SetDefault("scraper.user_agent", "content-crawler/0.1")
	v.SetDefault("scraper.timeout_seconds", 30)
	v.SetDefault("pipeline.min_content_chars", 50)
	v.SetDefault("pipeline.max_prompt_chars", 30000)
	v.SetDefault("pipeline.batch_delay_seconds", 2)
	v.SetDefault("pipeline.batch_limit", 40)
	v.SetDefault("search.region", "강릉")
	v.SetDefault("search.limit", 40)
	v.SetDefault("search.allowed_hosts", []string{"blog.naver.com", "*.blog.naver.com", "*.tistory.com"})
	v.SetDefault("db.content_table", "local_data")
	v.SetDefault("db.store_table", "stores")
	v.SetDefault("archive.prefix", "pages")
	v.SetDefault("archive.content_type", "text/markdown; charset=utf-8")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.Scraper.Provider {
	case "firecrawl":
		if c.Firecrawl.APIKey == "" {
			return fmt.Errorf("firecrawl.api_key must be set when scraper.provider is firecrawl")
		}
	case "direct":
	default:
		return fmt.Errorf("unknown scraper.provider %q", c.Scraper.Provider)
	}
	if len(c.Gemini.ModelCandidates) == 0 {
		return fmt.Errorf("gemini.model_candidates must not be empty")
	}
	if c.Pipeline.MinContentChars <= 0 {
		return fmt.Errorf("pipeline.min_content_chars must be > 0")
	}
	if c.Pipeline.MaxPromptChars <= 0 {
		return fmt.Errorf("pipeline.max_prompt_chars must be > 0")
	}
	if c.Pipeline.BatchDelaySeconds < 0 {
		return fmt.Errorf("pipeline.batch_delay_seconds must be >= 0")
	}
	return nil
}

// BatchDelay converts the configured inter-item delay into a duration.
func (c Config) BatchDelay() time.Duration {
	return time.Duration(c.Pipeline.BatchDelaySeconds) * time.Second
}

// ServerTimeout converts the HTTP handler timeout into a duration.
func (c Config) ServerTimeout() time.Duration {
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}
