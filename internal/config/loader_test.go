package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoader_Defaults(t *testing.T) {
	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.Format != "auto" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "auto")
	}

	if cfg.Gateway.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("Gateway.BaseURL = %q", cfg.Gateway.BaseURL)
	}
	if cfg.Gateway.Model != "gpt-4o-mini" {
		t.Errorf("Gateway.Model = %q", cfg.Gateway.Model)
	}
	// The API key has no default - it must come from env or file.
	if cfg.Gateway.APIKey != "" {
		t.Errorf("Gateway.APIKey = %q, want empty (no default)", cfg.Gateway.APIKey)
	}

	if cfg.Study.Turns != 5 {
		t.Errorf("Study.Turns = %d, want %d", cfg.Study.Turns, 5)
	}
	if cfg.Study.Concurrency != 3 {
		t.Errorf("Study.Concurrency = %d, want %d", cfg.Study.Concurrency, 3)
	}
	if !cfg.Study.EnableFollowup {
		t.Error("Study.EnableFollowup = false, want true (default)")
	}
	if cfg.Study.FollowupThreshold != 0.6 {
		t.Errorf("Study.FollowupThreshold = %f, want %f", cfg.Study.FollowupThreshold, 0.6)
	}

	if cfg.Report.Dir != ".docent/reports" {
		t.Errorf("Report.Dir = %q", cfg.Report.Dir)
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled = false, want true (default)")
	}
}

func TestLoader_EnvOverride(t *testing.T) {
	os.Setenv("DOCENT_GATEWAY_API_KEY", "key-from-env")
	os.Setenv("DOCENT_LOG_LEVEL", "debug")
	os.Setenv("DOCENT_STUDY_CONCURRENCY", "7")
	defer func() {
		os.Unsetenv("DOCENT_GATEWAY_API_KEY")
		os.Unsetenv("DOCENT_LOG_LEVEL")
		os.Unsetenv("DOCENT_STUDY_CONCURRENCY")
	}()

	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.APIKey != "key-from-env" {
		t.Errorf("Gateway.APIKey = %q, want %q", cfg.Gateway.APIKey, "key-from-env")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Study.Concurrency != 7 {
		t.Errorf("Study.Concurrency = %d, want %d", cfg.Study.Concurrency, 7)
	}
}

func TestLoader_ConfigFileOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
log:
  level: warn
  format: json
gateway:
  model: gpt-4o
study:
  turns: 8
  followup_threshold: 0.4
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	loader := NewLoader().WithConfigFile(configPath)
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}
	if cfg.Gateway.Model != "gpt-4o" {
		t.Errorf("Gateway.Model = %q, want %q", cfg.Gateway.Model, "gpt-4o")
	}
	if cfg.Study.Turns != 8 {
		t.Errorf("Study.Turns = %d, want %d", cfg.Study.Turns, 8)
	}
	if cfg.Study.FollowupThreshold != 0.4 {
		t.Errorf("Study.FollowupThreshold = %f, want %f", cfg.Study.FollowupThreshold, 0.4)
	}
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
log:
  level: warn
gateway:
  api_key: key-from-file
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	os.Setenv("DOCENT_LOG_LEVEL", "debug")
	os.Setenv("DOCENT_GATEWAY_API_KEY", "key-from-env")
	defer func() {
		os.Unsetenv("DOCENT_LOG_LEVEL")
		os.Unsetenv("DOCENT_GATEWAY_API_KEY")
	}()

	loader := NewLoader().WithConfigFile(configPath)
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q (env should override file)", cfg.Log.Level, "debug")
	}
	if cfg.Gateway.APIKey != "key-from-env" {
		t.Errorf("Gateway.APIKey = %q, want %q (env should override file)", cfg.Gateway.APIKey, "key-from-env")
	}
}

func TestLoader_InvalidConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid-config.yaml")

	invalidContent := `
log:
  level: [invalid yaml
`
	if err := os.WriteFile(configPath, []byte(invalidContent), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	loader := NewLoader().WithConfigFile(configPath)
	if _, err := loader.Load(); err == nil {
		t.Error("Load() error = nil, want parse error")
	}
}
