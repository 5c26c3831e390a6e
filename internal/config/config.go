// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	HTTPAddr         string        `mapstructure:"HTTP_ADDR"`
	DBURL            string        `mapstructure:"DB_URL"`
	RedisURL         string        `mapstructure:"REDIS_URL"`
	GithubToken      string        `mapstructure:"GITHUB_TOKEN"`
	SearchCacheTTL   time.Duration `mapstructure:"SEARCH_CACHE_TTL"`
	FeaturedCacheTTL time.Duration `mapstructure:"FEATURED_CACHE_TTL"`
	StatsCacheTTL    time.Duration `mapstructure:"STATS_CACHE_TTL"`
}

// LoadConfig reads configuration from file and/or environment variables.
// GITHUB_TOKEN is optional: without it the GitHub client runs at
// unauthenticated rate limits. REDIS_URL is optional: without it the
// persistent cache tier is disabled.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("SEARCH_CACHE_TTL", "15m")
	viper.SetDefault("FEATURED_CACHE_TTL", "30m")
	viper.SetDefault("STATS_CACHE_TTL", "1h")

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range []string{
		"LOG_LEVEL", "HTTP_ADDR", "DB_URL", "REDIS_URL", "GITHUB_TOKEN",
		"SEARCH_CACHE_TTL", "FEATURED_CACHE_TTL", "STATS_CACHE_TTL",
	} {
		_ = viper.BindEnv(key)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.SearchCacheTTL <= 0 || cfg.FeaturedCacheTTL <= 0 || cfg.StatsCacheTTL <= 0 {
		return nil, errors.New("cache TTLs must be positive durations")
	}

	return &cfg, nil
}
