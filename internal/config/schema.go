package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config holds perceive configuration.
// Stored at: ~/.perceive/config.yaml
type Config struct {
	Providers map[string]ProviderCfg `mapstructure:"providers" yaml:"providers"`
	Defaults  DefaultsCfg            `mapstructure:"defaults" yaml:"defaults"`
	Server    ServerCfg              `mapstructure:"server" yaml:"server"`
	LogLevel  string                 `mapstructure:"log_level" yaml:"log_level"`
}

// ProviderCfg configures a vision provider.
type ProviderCfg struct {
	Type           string            `mapstructure:"type" yaml:"type"`         // "perceptron", "openai", "mock"
	BaseURL        string            `mapstructure:"base_url" yaml:"base_url"` // Empty for the provider's public API
	Model          string            `mapstructure:"model" yaml:"model"`
	APIKey         string            `mapstructure:"api_key" yaml:"api_key"` // API key (supports ${ENV_VAR} syntax)
	Headers        map[string]string `mapstructure:"headers" yaml:"headers,omitempty"`
	RateLimit      float64           `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
	MaxRetries     int               `mapstructure:"max_retries" yaml:"max_retries"`
	TimeoutSeconds int               `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Enabled        bool              `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default selections for requests.
type DefaultsCfg struct {
	Provider string `mapstructure:"provider" yaml:"provider"` // Provider used when none is named
	Model    string `mapstructure:"model" yaml:"model"`       // Overrides the provider's model when set
	Output   string `mapstructure:"output" yaml:"output"`     // CLI output format: yaml or json
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`

	// MetricsCapacity is how many recent vision calls /api/metrics keeps.
	MetricsCapacity int `mapstructure:"metrics_capacity" yaml:"metrics_capacity"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Providers: map[string]ProviderCfg{
			"perceptron": {
				Type:           "perceptron",
				BaseURL:        "https://api.perceptron.inc",
				Model:          "isaac-0.1",
				APIKey:         "${PERCEPTRON_API_KEY}",
				RateLimit:      10,
				MaxRetries:     3,
				TimeoutSeconds: 120,
				Enabled:        true,
			},
			"openai": {
				Type:           "openai",
				Model:          "gpt-4o-mini",
				APIKey:         "${OPENAI_API_KEY}",
				RateLimit:      8,
				MaxRetries:     3,
				TimeoutSeconds: 120,
				Enabled:        false,
			},
		},
		Defaults: DefaultsCfg{
			Provider: "perceptron",
			Output:   "yaml",
		},
		Server: ServerCfg{
			Host:            "127.0.0.1",
			Port:            "8080",
			MetricsCapacity: 1000,
		},
		LogLevel: "info",
	}
}

// GetProvider returns a provider config by name.
func (c *Config) GetProvider(name string) (ProviderCfg, bool) {
	cfg, ok := c.Providers[name]
	return cfg, ok
}

// EnabledProviders returns all enabled providers.
func (c *Config) EnabledProviders() map[string]ProviderCfg {
	result := make(map[string]ProviderCfg)
	for name, cfg := range c.Providers {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// SlogLevel parses LogLevel. Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLogLevel parses debug, info, warn or error.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Defaults.Output {
	case "", "yaml", "json":
	default:
		return fmt.Errorf("invalid defaults.output %q (want yaml or json)", c.Defaults.Output)
	}
	if c.Server.MetricsCapacity < 0 {
		return fmt.Errorf("server.metrics_capacity must not be negative")
	}
	for name, p := range c.Providers {
		switch p.Type {
		case "", "perceptron", "openai", "mock":
		default:
			return fmt.Errorf("provider %s: unknown type %q", name, p.Type)
		}
		if p.RateLimit < 0 {
			return fmt.Errorf("provider %s: rate_limit must not be negative", name)
		}
	}
	return nil
}
