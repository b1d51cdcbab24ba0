package ratelimit

import (
	"net/http"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        `mapstructure:"path"`   // Endpoint path pattern (supports prefix matching)
	Method string        `mapstructure:"method"` // HTTP method (GET, POST, etc.)
	Limit  int           `mapstructure:"limit"`  // Maximum requests per window
	Window time.Duration `mapstructure:"window"` // Time window
	Burst  int           `mapstructure:"burst"`  // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool             `mapstructure:"enabled"`
	DefaultLimit    int              `mapstructure:"default_limit"`
	DefaultWindow   time.Duration    `mapstructure:"default_window"`
	CleanupInterval time.Duration    `mapstructure:"cleanup_interval"`
	Whitelist       []string         `mapstructure:"whitelist"`
	Blacklist       []string         `mapstructure:"blacklist"`
	EndpointConfigs []EndpointConfig `mapstructure:"endpoints"`
}

// DefaultConfig returns the limits used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    300,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Scoring fans out one LLM call per job.
		{Path: "/jobs/score", Method: http.MethodPost, Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/jobs", Method: http.MethodGet, Limit: 60, Window: time.Minute, Burst: 10},
	}
}

// ipSet builds a lookup set from a list of addresses.
func ipSet(list []string) map[string]bool {
	result := make(map[string]bool, len(list))
	for _, ip := range list {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
