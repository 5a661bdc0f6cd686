// Package config loads process settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable name
const Prefix = "JEOPARDY"

// Short-category policies
const (
	PolicyReplace = "replace"
	PolicyFail    = "fail"
)

// Config holds all settings fixed at process start
type Config struct {
	Port                int           `envconfig:"PORT" default:"8082"`
	DBPath              string        `envconfig:"DB" default:"cluebank.db"`
	APIBaseURL          string        `envconfig:"API_URL" default:"https://jservice.io/api"`
	CategoryPoolSize    int           `envconfig:"CATEGORY_POOL_SIZE" default:"100"`
	FetchConcurrency    int           `envconfig:"FETCH_CONCURRENCY" default:"6"`
	BuildTimeout        time.Duration `envconfig:"BUILD_TIMEOUT" default:"45s"`
	HTTPTimeout         time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	CacheSize           int           `envconfig:"CACHE_SIZE" default:"256"`
	CacheTTL            time.Duration `envconfig:"CACHE_TTL" default:"168h"`
	ShortCategoryPolicy string        `envconfig:"SHORT_CATEGORY_POLICY" default:"replace"`
	LogLevel            string        `envconfig:"LOG_LEVEL" default:"info"`
	AdminPassword       string        `envconfig:"ADMIN_PASSWORD"`
	Mock                bool          `envconfig:"MOCK" default:"false"`
}

// Load reads the configuration from JEOPARDY_* environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("processing the config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges that envconfig cannot express
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.APIBaseURL == "" && !c.Mock {
		return fmt.Errorf("API base URL is required unless mock mode is enabled")
	}
	if c.CategoryPoolSize <= 0 {
		return fmt.Errorf("category pool size must be positive, got %d", c.CategoryPoolSize)
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("fetch concurrency must be positive, got %d", c.FetchConcurrency)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive, got %d", c.CacheSize)
	}
	if c.BuildTimeout <= 0 {
		return fmt.Errorf("build timeout must be positive, got %s", c.BuildTimeout)
	}
	switch c.ShortCategoryPolicy {
	case PolicyReplace, PolicyFail:
	default:
		return fmt.Errorf("unknown short category policy %q (want %q or %q)", c.ShortCategoryPolicy, PolicyReplace, PolicyFail)
	}
	return nil
}

// Usage prints the recognised environment variables
func Usage() error {
	var cfg Config
	return envconfig.Usage(Prefix, &cfg)
}
