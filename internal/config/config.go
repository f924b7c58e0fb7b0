// Package config loads application configuration from config files and
// environment variables via Viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/iAnanich/scrapy-ntk/internal/logger"
)

// Default configuration values.
const (
	// DefaultPageSize is the default job listing page size.
	DefaultPageSize = 100
	// DefaultRequestTimeout is the default API request timeout.
	DefaultRequestTimeout = 30 * time.Second
	// DefaultServerAddress is the default status server bind address.
	DefaultServerAddress = ":8090"
	// DefaultWatchSchedule runs the fetch loop every 15 minutes.
	DefaultWatchSchedule = "*/15 * * * *"
	// DefaultMaxExcludeMatches stops a scan after this many consecutive
	// already-seen jobs.
	DefaultMaxExcludeMatches = 2
)

// ErrMissingAPIKey is returned when no cloud API key is configured.
var ErrMissingAPIKey = errors.New("shub.api_key is required (set SHUB_APIKEY)")

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// DatabaseConfig holds checkpoint database settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ShubConfig holds cloud job API settings.
type ShubConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	PageSize int           `mapstructure:"page_size"`
}

// TargetConfig names one spider listing to fetch from.
type TargetConfig struct {
	ProjectID int `mapstructure:"project_id"`
	SpiderID  int `mapstructure:"spider_id"`
}

// FetchConfig holds the scan limits and targets.
type FetchConfig struct {
	MaxFetchedJobs    int            `mapstructure:"max_fetched_jobs"`
	MaxExcludeMatches int            `mapstructure:"max_exclude_matches"`
	MaxTotalExcluded  int            `mapstructure:"max_total_excluded"`
	MaxReturnedJobs   int            `mapstructure:"max_returned_jobs"`
	Targets           []TargetConfig `mapstructure:"targets"`
}

// ServerConfig holds the status server settings.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// WatchConfig holds the scheduled fetch settings.
type WatchConfig struct {
	Schedule string `mapstructure:"schedule"`
}

// Config is the unified application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logger   logger.Config  `mapstructure:"logger"`
	Database DatabaseConfig `mapstructure:"database"`
	Shub     ShubConfig     `mapstructure:"shub"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Server   ServerConfig   `mapstructure:"server"`
	Watch    WatchConfig    `mapstructure:"watch"`
}

// Load builds the configuration from the already-initialized Viper state.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in values Viper had no source for.
func applyDefaults(cfg *Config) {
	if cfg.Shub.PageSize == 0 {
		cfg.Shub.PageSize = DefaultPageSize
	}
	if cfg.Shub.Timeout == 0 {
		cfg.Shub.Timeout = DefaultRequestTimeout
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = DefaultServerAddress
	}
	if cfg.Watch.Schedule == "" {
		cfg.Watch.Schedule = DefaultWatchSchedule
	}
}

// Validate checks settings that would only fail later and deeper.
func (c *Config) Validate() error {
	for i, target := range c.Fetch.Targets {
		if target.ProjectID <= 0 {
			return fmt.Errorf("fetch.targets[%d]: project_id must be positive, got %d",
				i, target.ProjectID)
		}
		if target.SpiderID <= 0 {
			return fmt.Errorf("fetch.targets[%d]: spider_id must be positive, got %d",
				i, target.SpiderID)
		}
	}
	for name, limit := range map[string]int{
		"fetch.max_fetched_jobs":    c.Fetch.MaxFetchedJobs,
		"fetch.max_exclude_matches": c.Fetch.MaxExcludeMatches,
		"fetch.max_total_excluded":  c.Fetch.MaxTotalExcluded,
		"fetch.max_returned_jobs":   c.Fetch.MaxReturnedJobs,
	} {
		if limit < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, limit)
		}
	}
	return nil
}

// RequireAPIKey fails unless an API key is configured. Commands that talk
// to the cloud API call this before connecting.
func (c *Config) RequireAPIKey() error {
	if c.Shub.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
