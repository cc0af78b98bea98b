package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateGateway(&cfg.Gateway)
	v.validateStudy(&cfg.Study)
	v.validateReport(&cfg.Report)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"auto": true, "text": true, "json": true,
	}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

func (v *Validator) validateGateway(cfg *GatewayConfig) {
	if cfg.BaseURL == "" {
		v.addError("gateway.base_url", cfg.BaseURL, "required")
	}
	if cfg.Model == "" {
		v.addError("gateway.model", cfg.Model, "required")
	}
	if cfg.MaxTokens <= 0 {
		v.addError("gateway.max_tokens", cfg.MaxTokens, "must be positive")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		v.addError("gateway.temperature", cfg.Temperature, "must be in [0, 2]")
	}
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err != nil {
			v.addError("gateway.timeout", cfg.Timeout, "invalid duration")
		} else if d <= 0 {
			v.addError("gateway.timeout", cfg.Timeout, "must be positive")
		}
	}
	if cfg.MaxRetries < 0 {
		v.addError("gateway.max_retries", cfg.MaxRetries, "must be >= 0")
	}
}

func (v *Validator) validateStudy(cfg *StudyConfig) {
	if cfg.Turns < 1 {
		v.addError("study.turns", cfg.Turns, "must be >= 1")
	}
	if cfg.Concurrency < 1 {
		v.addError("study.concurrency", cfg.Concurrency, "must be >= 1")
	}
	if cfg.FollowupThreshold < 0 || cfg.FollowupThreshold > 1 {
		v.addError("study.followup_threshold", cfg.FollowupThreshold, "must be in [0, 1]")
	}
	if cfg.MaxFollowups < 0 {
		v.addError("study.max_followups", cfg.MaxFollowups, "must be >= 0")
	}
}

func (v *Validator) validateReport(cfg *ReportConfig) {
	if cfg.Dir == "" {
		v.addError("report.dir", cfg.Dir, "directory required")
	}
}
