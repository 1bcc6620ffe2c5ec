package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the host process configuration.
type Config struct {
	Server        ServerConfig
	Files         []string
	Discovery     DiscoveryConfig
	Lifecycle     LifecycleConfig
	Observability ObservabilityConfig
}

// ServerConfig holds the built-in web server settings.
type ServerConfig struct {
	Enabled bool
	Listen  string
}

// DiscoveryConfig holds plugin discovery settings.
type DiscoveryConfig struct {
	// Patterns are manifest search patterns, {variable} placeholders
	// allowed.
	Patterns []string

	// Exclude lists discovery exclusions: manifest file basenames,
	// plugin names, or name@version.
	Exclude []string
}

// LifecycleConfig holds shutdown timing.
type LifecycleConfig struct {
	GracePeriod      time.Duration
	TerminateTimeout time.Duration
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	MetricsEnabled bool
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Enabled: getEnvBool("GANTRY_WEB_ENABLED", true),
			Listen:  getEnv("GANTRY_LISTEN", "127.0.0.1:8677"),
		},
		Files: getEnvList("GANTRY_CONFIG_FILES"),
		Discovery: DiscoveryConfig{
			Patterns: getEnvList("GANTRY_PLUGIN_PATTERNS"),
			Exclude:  getEnvList("GANTRY_PLUGIN_EXCLUDE"),
		},
		Lifecycle: LifecycleConfig{
			GracePeriod:      getEnvDuration("GANTRY_GRACE_PERIOD", 10*time.Second),
			TerminateTimeout: getEnvDuration("GANTRY_TERMINATE_TIMEOUT", 30*time.Second),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("GANTRY_LOG_LEVEL", "info"),
			LogFormat:      getEnv("GANTRY_LOG_FORMAT", "text"),
			MetricsEnabled: getEnvBool("GANTRY_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Server.Enabled && c.Server.Listen == "" {
		return fmt.Errorf("listen address is required when the web server is enabled")
	}
	if c.Lifecycle.GracePeriod <= 0 {
		return fmt.Errorf("grace period must be positive")
	}
	if c.Lifecycle.TerminateTimeout <= 0 {
		return fmt.Errorf("terminate timeout must be positive")
	}

	switch strings.ToLower(c.Observability.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Observability.LogFormat)
	}

	return nil
}

// getEnv returns an environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated environment variable, trimming
// whitespace and dropping empty entries.
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
