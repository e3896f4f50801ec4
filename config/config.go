// File: /config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port       string `yaml:"port"`
	APIBaseURL string `yaml:"api_base_url"`

	// Browser origins allowed to call the API with credentials
	AllowedOrigins []string `yaml:"allowed_origins"`

	// Browser session cookie
	SessionSecret string `yaml:"session_secret"`
	SessionCookie string `yaml:"session_cookie"`
	SecureCookie  bool   `yaml:"secure_cookie"`

	LogLevel    string `yaml:"log_level"`
	Development bool   `yaml:"development"`

	FeedPageSize int `yaml:"feed_page_size"`

	// Backend client
	BackendTimeout time.Duration `yaml:"backend_timeout"`
	BackendRPS     float64       `yaml:"backend_rps"`
	BackendBurst   int           `yaml:"backend_burst"`

	// Inbound rate limiting, per client IP
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
	RateLimitBurst     int `yaml:"rate_limit_burst"`

	// Per-session view state
	WorkspaceIdleTTL time.Duration `yaml:"workspace_idle_ttl"`
	CleanupInterval  time.Duration `yaml:"cleanup_interval"`
}

func Default() *Config {
	return &Config{
		Port:               "3000",
		APIBaseURL:         "http://127.0.0.1:8080",
		AllowedOrigins:     []string{"http://localhost:3000"},
		SessionSecret:      "change-me",
		SessionCookie:      "session",
		LogLevel:           "info",
		FeedPageSize:       10,
		BackendTimeout:     10 * time.Second,
		BackendRPS:         20,
		BackendBurst:       40,
		RateLimitPerMinute: 120,
		RateLimitBurst:     30,
		WorkspaceIdleTTL:   30 * time.Minute,
		CleanupInterval:    5 * time.Minute,
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path and finally the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Port = getEnv("PORT", c.Port)
	c.APIBaseURL = getEnv("API_BASE_URL", c.APIBaseURL)
	c.AllowedOrigins = getEnvList("CORS_ORIGINS", c.AllowedOrigins)
	c.SessionSecret = getEnv("SESSION_SECRET", c.SessionSecret)
	c.SessionCookie = getEnv("SESSION_COOKIE", c.SessionCookie)
	c.SecureCookie = getEnvBool("SECURE_COOKIE", c.SecureCookie)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Development = getEnvBool("DEVELOPMENT", c.Development)
	c.FeedPageSize = getEnvInt("FEED_PAGE_SIZE", c.FeedPageSize)
	c.BackendTimeout = getEnvDuration("BACKEND_TIMEOUT", c.BackendTimeout)
	c.BackendRPS = getEnvFloat("BACKEND_RPS", c.BackendRPS)
	c.BackendBurst = getEnvInt("BACKEND_BURST", c.BackendBurst)
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", c.RateLimitBurst)
	c.WorkspaceIdleTTL = getEnvDuration("WORKSPACE_IDLE_TTL", c.WorkspaceIdleTTL)
	c.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", c.CleanupInterval)
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("session_secret is required")
	}
	if c.FeedPageSize < 1 || c.FeedPageSize > 50 {
		return fmt.Errorf("feed_page_size must be between 1 and 50, got %d", c.FeedPageSize)
	}
	if c.RateLimitPerMinute < 1 {
		return fmt.Errorf("rate_limit_per_minute must be positive")
	}
	if c.WorkspaceIdleTTL <= 0 {
		return fmt.Errorf("workspace_idle_ttl must be positive, got %s", c.WorkspaceIdleTTL)
	}
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("cleanup_interval must be positive, got %s", c.CleanupInterval)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
