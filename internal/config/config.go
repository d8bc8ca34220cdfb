// Package config handles configuration loading and management for
// fieldbrief. It supports XDG config paths, project-level overrides,
// and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for fieldbrief.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Summary   SummaryConfig   `mapstructure:"summary"`
	Retry     RetryConfig     `mapstructure:"retry"`
	TUI       TUIConfig       `mapstructure:"tui"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	// UseBedrock routes requests through AWS Bedrock instead of the
	// direct API.
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// SummaryConfig holds defaults for summary generation.
type SummaryConfig struct {
	// Model is the Claude model used for summaries.
	Model string `mapstructure:"model"`
	// Delay is the pause between consecutive API calls.
	Delay time.Duration `mapstructure:"delay"`
	// Workers bounds concurrent field summarizations (1 = sequential).
	Workers int `mapstructure:"workers"`
}

// RetryConfig holds the retry policy for failed API calls.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts per field.
	MaxAttempts int `mapstructure:"max_attempts"`
	// Backoff is the delay after the first failure; attempt n waits
	// backoff * n.
	Backoff time.Duration `mapstructure:"backoff"`
}

// TUIConfig holds progress display settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables. Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, FIELDBRIEF_MODEL)
// 2. Project config (.fieldbrief.yaml in current directory or parent)
// 3. User config (~/.config/fieldbrief/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("summary.model", "FIELDBRIEF_MODEL")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
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

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("summary.model", cfg.Summary.Model)
	v.Set("summary.delay", cfg.Summary.Delay.String())
	v.Set("summary.workers", cfg.Summary.Workers)
	v.Set("retry.max_attempts", cfg.Retry.MaxAttempts)
	v.Set("retry.backoff", cfg.Retry.Backoff.String())
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Summary: SummaryConfig{
			Delay:   250 * time.Millisecond,
			Workers: 1,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			Backoff:     2 * time.Second,
		},
		TUI: TUIConfig{
			RefreshRate: 100 * time.Millisecond,
		},
	}
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	// Model default is resolved in the llm package when empty.
	v.SetDefault("summary.model", "")
	v.SetDefault("summary.delay", "250ms")
	v.SetDefault("summary.workers", 1)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.backoff", "2s")

	v.SetDefault("tui.refresh_rate", "100ms")
}

// getUserConfigDir returns the XDG config directory for fieldbrief.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "fieldbrief")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "fieldbrief")
	}
	return filepath.Join(home, ".config", "fieldbrief")
}

// findProjectConfig searches for .fieldbrief.yaml in the current
// directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".fieldbrief.yaml")
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
