package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "auto"},
		Gateway: GatewayConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			MaxTokens:   2000,
			Temperature: 0.7,
			Timeout:     "2m",
			MaxRetries:  2,
		},
		Study: StudyConfig{
			Turns:             5,
			Concurrency:       3,
			EnableFollowup:    true,
			FollowupThreshold: 0.6,
			MaxFollowups:      3,
		},
		Report:  ReportConfig{Dir: ".docent/reports"},
		History: HistoryConfig{Enabled: true, Path: ".docent/history.db"},
	}
}

func TestValidator_ValidConfig(t *testing.T) {
	t.Parallel()
	if err := NewValidator().Validate(validConfig()); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidator_InvalidConcurrency(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Study.Concurrency = 0
	err := NewValidator().Validate(cfg)
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	if !strings.Contains(err.Error(), "study.concurrency") {
		t.Errorf("error missing field name: %v", err)
	}
}

func TestValidator_ThresholdOutOfRange(t *testing.T) {
	t.Parallel()
	for _, threshold := range []float64{-0.1, 1.1} {
		cfg := validConfig()
		cfg.Study.FollowupThreshold = threshold
		if err := NewValidator().Validate(cfg); err == nil {
			t.Errorf("Validate() with threshold %v = nil, want error", threshold)
		}
	}
}

func TestValidator_CollectsMultipleErrors(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Log.Level = "loud"
	cfg.Gateway.Model = ""
	cfg.Study.MaxFollowups = -1
	cfg.Report.Dir = ""

	v := NewValidator()
	err := v.Validate(cfg)
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	if got := len(v.Errors()); got != 4 {
		t.Errorf("collected %d errors, want 4: %v", got, err)
	}
}

func TestValidator_InvalidTimeout(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Gateway.Timeout = "soon"
	if err := NewValidator().Validate(cfg); err == nil {
		t.Error("Validate() = nil with bad duration, want error")
	}
}

func TestLoader_DefaultsValidate(t *testing.T) {
	t.Parallel()
	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Study.Concurrency != 3 {
		t.Errorf("default concurrency = %d, want 3", cfg.Study.Concurrency)
	}
	if cfg.Study.FollowupThreshold != 0.6 {
		t.Errorf("default threshold = %v, want 0.6", cfg.Study.FollowupThreshold)
	}
	if err := NewValidator().Validate(cfg); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}
