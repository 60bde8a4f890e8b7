// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
)

// DeepL API base URLs.
const (
	DeepLProURL  = "https://api.deepl.com"
	DeepLFreeURL = "https://api-free.deepl.com"
)

// freeKeySuffix marks DeepL API Free authentication keys.
const freeKeySuffix = ":fx"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"OCMS_DB_PATH" envDefault:"./data/ocms.db"`
	ServerHost string `env:"OCMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"OCMS_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"OCMS_ENV" envDefault:"development"`
	LogLevel   string `env:"OCMS_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL     string `env:"OCMS_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"OCMS_CACHE_PREFIX" envDefault:"ocms:"`   // Redis key prefix
	CacheTTL     int    `env:"OCMS_CACHE_TTL" envDefault:"3600"`       // Default cache TTL in seconds
	CacheMaxSize int    `env:"OCMS_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// DeepL configuration
	DeepLAuthKey    string `env:"OCMS_DEEPL_AUTH_KEY,required"`
	DeepLAPIURL     string `env:"OCMS_DEEPL_API_URL"`                     // Overrides the URL derived from the key
	DeepLTimeout    int    `env:"OCMS_DEEPL_TIMEOUT" envDefault:"30"`     // HTTP timeout in seconds
	DeepLRateLimit  int    `env:"OCMS_DEEPL_RATE_LIMIT" envDefault:"5"`   // Requests per second
	DeepLMaxRetries int    `env:"OCMS_DEEPL_MAX_RETRIES" envDefault:"3"` // Attempts for transient errors

	// Glossary sync configuration
	GlossarySyncSchedule string `env:"OCMS_GLOSSARY_SYNC_SCHEDULE"`               // Cron spec, empty disables
	GlossaryAutoSync     bool   `env:"OCMS_GLOSSARY_AUTO_SYNC" envDefault:"false"` // Sync on glossary page save
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// CacheDefaultTTL returns the configured cache TTL as a duration.
func (c Config) CacheDefaultTTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// DeepLBaseURL returns the DeepL API base URL. Free keys are routed to the
// free endpoint unless an explicit URL is configured.
func (c Config) DeepLBaseURL() string {
	if c.DeepLAPIURL != "" {
		return strings.TrimRight(c.DeepLAPIURL, "/")
	}
	if strings.HasSuffix(c.DeepLAuthKey, freeKeySuffix) {
		return DeepLFreeURL
	}
	return DeepLProURL
}

// DeepLRequestTimeout returns the DeepL HTTP timeout as a duration.
func (c Config) DeepLRequestTimeout() time.Duration {
	return time.Duration(c.DeepLTimeout) * time.Second
}

// GlossarySyncEnabled returns true if scheduled glossary sync is configured.
func (c Config) GlossarySyncEnabled() bool {
	return c.GlossarySyncSchedule != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if strings.TrimSpace(cfg.DeepLAuthKey) == "" {
		return nil, fmt.Errorf("OCMS_DEEPL_AUTH_KEY must not be blank")
	}

	if cfg.DeepLRateLimit <= 0 {
		return nil, fmt.Errorf("OCMS_DEEPL_RATE_LIMIT must be positive, got %d", cfg.DeepLRateLimit)
	}
	if cfg.DeepLTimeout <= 0 {
		return nil, fmt.Errorf("OCMS_DEEPL_TIMEOUT must be positive, got %d", cfg.DeepLTimeout)
	}
	if cfg.DeepLMaxRetries < 1 {
		cfg.DeepLMaxRetries = 1
	}

	if cfg.GlossarySyncSchedule != "" {
		if _, err := cron.ParseStandard(cfg.GlossarySyncSchedule); err != nil {
			return nil, fmt.Errorf("OCMS_GLOSSARY_SYNC_SCHEDULE %q is not a valid cron spec: %w",
				cfg.GlossarySyncSchedule, err)
		}
	}

	return cfg, nil
}
