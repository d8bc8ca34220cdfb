package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fieldbrief/fieldbrief/internal/config"
)

var configYAML bool

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify fieldbrief configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/fieldbrief/config.yaml
Project-specific overrides can be placed in .fieldbrief.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

func init() {
	configCmd.Flags().BoolVar(&configYAML, "yaml", false, "Print configuration as YAML")
}

// configMap renders the config as ordered key/value pairs with the API
// key masked.
func configMap(cfg *config.Config) []struct{ key, value string } {
	return []struct{ key, value string }{
		{"anthropic.api_key", config.MaskAPIKey(cfg.Anthropic.APIKey)},
		{"anthropic.use_bedrock", strconv.FormatBool(cfg.Anthropic.UseBedrock)},
		{"anthropic.aws_region", cfg.Anthropic.AWSRegion},
		{"anthropic.aws_profile", cfg.Anthropic.AWSProfile},
		{"summary.model", cfg.Summary.Model},
		{"summary.delay", cfg.Summary.Delay.String()},
		{"summary.workers", strconv.Itoa(cfg.Summary.Workers)},
		{"retry.max_attempts", strconv.Itoa(cfg.Retry.MaxAttempts)},
		{"retry.backoff", cfg.Retry.Backoff.String()},
		{"tui.refresh_rate", cfg.TUI.RefreshRate.String()},
	}
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	if configYAML {
		doc := map[string]map[string]string{}
		for _, kv := range configMap(cfg) {
			section, name, _ := splitKey(kv.key)
			if doc[section] == nil {
				doc[section] = map[string]string{}
			}
			doc[section][name] = kv.value
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering config: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(string(out))
		return
	}

	for _, kv := range configMap(cfg) {
		fmt.Printf("%s: %s\n", kv.key, kv.value)
	}

	fmt.Printf("\nAPI key source: %s\n", config.GetAPIKeySource(cfg))
	fmt.Printf("User config: %s\n", config.GetUserConfigPath())
	if project := config.GetProjectConfigPath(); project != "" {
		fmt.Printf("Project config: %s\n", project)
	}
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	for _, kv := range configMap(cfg) {
		if kv.key == key {
			fmt.Println(kv.value)
			return
		}
	}
	fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
	os.Exit(1)
}

// setConfigKey updates one value and writes the user config file.
func setConfigKey(cfg *config.Config, key, value string) {
	var err error
	switch key {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.use_bedrock":
		cfg.Anthropic.UseBedrock, err = strconv.ParseBool(value)
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "summary.model":
		cfg.Summary.Model = value
	case "summary.delay":
		cfg.Summary.Delay, err = time.ParseDuration(value)
	case "summary.workers":
		cfg.Summary.Workers, err = strconv.Atoi(value)
	case "retry.max_attempts":
		cfg.Retry.MaxAttempts, err = strconv.Atoi(value)
	case "retry.backoff":
		cfg.Retry.Backoff, err = time.ParseDuration(value)
	case "tui.refresh_rate":
		cfg.TUI.RefreshRate, err = time.ParseDuration(value)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid value for %s: %v\n", key, err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Set %s\n", key)
}

// splitKey splits "section.name" into its parts.
func splitKey(key string) (section, name string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			return key[:i], key[i+1:], true
		}
	}
	return key, "", false
}
