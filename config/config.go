package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the PESTEL analysis service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Summarize SummarizeConfig `mapstructure:"summarize"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug             bool          `mapstructure:"debug"`
	LogLevel          string        `mapstructure:"log_level"`
	MaxProcessingTime time.Duration `mapstructure:"max_processing_time"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains LLM provider configurations
type LLMConfig struct {
	Providers map[string]LLMProvider `mapstructure:"providers"`
	Routing   LLMRoutingConfig       `mapstructure:"routing"`
}

// LLMProvider represents a single LLM provider configuration
type LLMProvider struct {
	Type       string              `mapstructure:"type"` // openai for now
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Models     map[string]LLMModel `mapstructure:"models"`
	MaxRetries int                 `mapstructure:"max_retries"`
	Timeout    time.Duration       `mapstructure:"timeout"`
	RPM        int                 `mapstructure:"rpm"` // requests per minute across all calls
}

// LLMModel represents a specific model configuration
type LLMModel struct {
	Name            string  `mapstructure:"name"`
	APIName         string  `mapstructure:"api_name"`
	MaxTokens       int     `mapstructure:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
	CostPer1K       float64 `mapstructure:"cost_per_1k_input"`
	CostPer1KOutput float64 `mapstructure:"cost_per_1k_output"`
}

// LLMRoutingConfig defines which model to use for each stage of a run
type LLMRoutingConfig struct {
	Query     string `mapstructure:"query"`     // search-query generation
	Report    string `mapstructure:"report"`    // per-dimension report generation
	Summarize string `mapstructure:"summarize"` // web content summarization (empty = identity)
	Synthesis string `mapstructure:"synthesis"` // final report synthesis
	Scoring   string `mapstructure:"scoring"`   // alignment/impact scoring
	Fallback  string `mapstructure:"fallback"`  // used when a stage model is unset
}

// Model resolves a stage model, falling back to Fallback.
func (r LLMRoutingConfig) Model(stage string) string {
	m := ""
	switch stage {
	case "query":
		m = r.Query
	case "report":
		m = r.Report
	case "summarize":
		m = r.Summarize
	case "synthesis":
		m = r.Synthesis
	case "scoring":
		m = r.Scoring
	}
	if m == "" {
		return r.Fallback
	}
	return m
}

// SummarizeConfig controls the web content summarization stage
type SummarizeConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	BatchSize int  `mapstructure:"batch_size"` // content items per summarization call
}

// SearchConfig contains web search (Tavily) settings
type SearchConfig struct {
	TavilyAPIKey     string        `mapstructure:"tavily_api_key"`
	BaseURL          string        `mapstructure:"base_url"`
	MaxResults       int           `mapstructure:"max_results"`
	ChunksPerSource  int           `mapstructure:"chunks_per_source"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinContentLength int           `mapstructure:"min_content_length"` // below this, refetch via readability
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
	Cache            CacheConfig   `mapstructure:"cache"`
}

func (s SearchConfig) Validate() error {
	if strings.TrimSpace(s.TavilyAPIKey) == "" {
		return fmt.Errorf("search.tavily_api_key is required")
	}
	return nil
}

// CacheConfig contains Redis settings for the search-result cache
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func (c CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("search.cache.host required when cache is enabled")
	}
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("search.cache.port required when cache is enabled")
	}
	return nil
}

// StorageConfig contains persistence settings
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
}

// PostgresConfig contains Postgres connection settings for the run history store
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Configured reports whether a Postgres store should be wired at all.
func (p PostgresConfig) Configured() bool {
	return strings.TrimSpace(p.URL) != "" || strings.TrimSpace(p.Host) != ""
}

// DSN builds a connection string from the configured fields.
func (p PostgresConfig) DSN() (string, error) {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL, nil
	}
	if strings.TrimSpace(p.Host) == "" || strings.TrimSpace(p.DBName) == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// SnapshotConfig controls debug snapshots of completed runs
type SnapshotConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	CostTracking bool `mapstructure:"cost_tracking"`
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.max_processing_time", "10m")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("search.base_url", "https://api.tavily.com")
	viper.SetDefault("search.max_results", 5)
	viper.SetDefault("search.chunks_per_source", 3)
	viper.SetDefault("search.timeout", "60s")
	viper.SetDefault("search.min_content_length", 500)
	viper.SetDefault("search.fetch_timeout", "30s")
	viper.SetDefault("search.cache.ttl", "1h")
	viper.SetDefault("summarize.enabled", true)
	viper.SetDefault("summarize.batch_size", 3)
	viper.SetDefault("storage.snapshot.enabled", true)
	viper.SetDefault("storage.snapshot.dir", "snapshots")
	viper.SetDefault("telemetry.enabled", true)
	viper.SetDefault("telemetry.cost_tracking", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("PESTEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // PESTEL_* environment variables override file values

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Search.Validate(); err != nil {
		panic(err)
	}
	if err := config.Search.Cache.Validate(); err != nil {
		panic(err)
	}
	return &config
}
