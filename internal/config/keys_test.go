package config

import (
	"errors"
	"testing"
)

func TestGetAPIKeyFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-from-env")

	key, err := GetAPIKey(nil)
	if err != nil {
		t.Fatalf("GetAPIKey returned error: %v", err)
	}
	if key != "sk-ant-from-env" {
		t.Errorf("expected env key, got %q", key)
	}
}

func TestGetAPIKeyFromConfig(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg := &Config{}
	cfg.Anthropic.APIKey = "sk-ant-from-config"

	key, err := GetAPIKey(cfg)
	if err != nil {
		t.Fatalf("GetAPIKey returned error: %v", err)
	}
	if key != "sk-ant-from-config" {
		t.Errorf("expected config key, got %q", key)
	}
}

func TestGetAPIKeyMissing(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := GetAPIKey(&Config{})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", "sk-ant-REDACTED", false},
		{"empty", "", true},
		{"wrong prefix", "sk-openai-whatever-key", true},
		{"too short", "sk-ant-x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := MaskAPIKey(""); got != "(not set)" {
		t.Errorf("empty key mask = %q", got)
	}
	if got := MaskAPIKey("short"); got != "***" {
		t.Errorf("short key mask = %q", got)
	}

	masked := MaskAPIKey("sk-ant-REDACTED")
	if masked != "sk-ant-...9876" {
		t.Errorf("mask = %q", masked)
	}
}

func TestGetAPIKeySource(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")
	if src := GetAPIKeySource(nil); src != KeySourceEnv {
		t.Errorf("expected env source, got %s", src)
	}

	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg := &Config{}
	cfg.Anthropic.APIKey = "sk-ant-cfg"
	if src := GetAPIKeySource(cfg); src != KeySourceConfig {
		t.Errorf("expected config source, got %s", src)
	}

	if src := GetAPIKeySource(&Config{}); src != KeySourceNone {
		t.Errorf("expected none source, got %s", src)
	}
}
