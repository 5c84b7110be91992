// Package config handles configuration loading for conductor.
// It supports XDG config paths, project-level overrides, and environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for conductor.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Models    ModelsConfig    `mapstructure:"models"`
	Retry     RetryConfig     `mapstructure:"retry"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key. May reference ${ENV_VARS}.
	APIKey string `mapstructure:"api_key"`
	// UseBedrock routes requests through AWS Bedrock instead of the
	// direct API.
	UseBedrock bool `mapstructure:"use_bedrock"`
	// AWSRegion is the AWS region for Bedrock.
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile is the optional AWS profile for Bedrock credentials.
	AWSProfile string `mapstructure:"aws_profile"`
}

// SchedulerConfig holds admission-control settings.
type SchedulerConfig struct {
	// MaxConcurrentTasks bounds simultaneous in-progress tasks.
	MaxConcurrentTasks int `mapstructure:"max_concurrent_tasks"`
	// TickInterval is the fallback admission polling interval.
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// ModelsConfig holds model and provider resolution settings.
type ModelsConfig struct {
	// Default is the model used when an agent lists no preference.
	Default string `mapstructure:"default"`
	// DefaultProvider serves models with no known name prefix.
	DefaultProvider string `mapstructure:"default_provider"`
	// PreferOpenSource selects open-source preferred models first.
	PreferOpenSource bool `mapstructure:"prefer_open_source"`
}

// RetryConfig holds retry settings. Declared for hosts that wrap the
// orchestrator; the core itself performs no retries.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per task.
	MaxAttempts int `mapstructure:"max_attempts"`
	// Delay is the wait between attempts.
	Delay time.Duration `mapstructure:"delay"`
}

// Load loads configuration with the following precedence (highest first):
// environment variables, project config (.conductor.yaml in the current
// directory or a parent), user config (~/.config/conductor/config.yaml),
// built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("CONDUCTOR")
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("scheduler.max_concurrent_tasks", "CONDUCTOR_MAX_CONCURRENT_TASKS")
	v.BindEnv("models.prefer_open_source", "CONDUCTOR_PREFER_OPEN_SOURCE")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	return cfg, nil
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			MaxConcurrentTasks: 3,
			TickInterval:       100 * time.Millisecond,
		},
		Models: ModelsConfig{
			Default:         "claude-sonnet-4-20250514",
			DefaultProvider: "anthropic",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			Delay:       5 * time.Second,
		},
	}
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// setDefaults configures built-in default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.use_bedrock", false)

	v.SetDefault("scheduler.max_concurrent_tasks", 3)
	v.SetDefault("scheduler.tick_interval", "100ms")

	v.SetDefault("models.default", "claude-sonnet-4-20250514")
	v.SetDefault("models.default_provider", "anthropic")
	v.SetDefault("models.prefer_open_source", false)

	// Declared for hosts; the core performs no retries.
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.delay", "5s")
}

// getUserConfigDir returns the XDG config directory for conductor.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "conductor")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "conductor")
	}
	return filepath.Join(home, ".config", "conductor")
}

// findProjectConfig searches for .conductor.yaml in the current directory
// and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".conductor.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}
