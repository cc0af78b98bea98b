// Package session runs document-study Q&A sessions: bounded fan-out of
// per-section state machines over an LLM gateway, ordered aggregation of
// their results, and monotonic progress reporting.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/docent/internal/core"
)

// Config holds the parameters for one orchestration run.
// Immutable for the duration of the run.
type Config struct {
	// Concurrency is the global ceiling on in-flight gateway calls
	// across all section tasks.
	Concurrency int

	// EnableFollowup turns on complexity evaluation and follow-up rounds.
	EnableFollowup bool

	// FollowupThreshold is the complexity score at or above which a
	// follow-up round is started.
	FollowupThreshold float64

	// MaxFollowups caps follow-up rounds per section.
	MaxFollowups int

	// Keywords are assigned to sections up front, each at most once.
	Keywords []string

	// CallTimeout bounds each gateway call. Zero means the default.
	CallTimeout time.Duration
}

// DefaultConfig returns a config with usable defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:       3,
		EnableFollowup:    true,
		FollowupThreshold: 0.6,
		MaxFollowups:      3,
		CallTimeout:       core.GatewayCallTimeout,
	}
}

// Validate checks the config before any task launches.
// All problems are reported in one error.
func (c Config) Validate() error {
	var problems []string
	if c.Concurrency < 1 {
		problems = append(problems, fmt.Sprintf("concurrency must be >= 1 (got %d)", c.Concurrency))
	}
	if c.FollowupThreshold < 0 || c.FollowupThreshold > 1 {
		problems = append(problems, fmt.Sprintf("followup threshold must be in [0,1] (got %v)", c.FollowupThreshold))
	}
	if c.MaxFollowups < 0 {
		problems = append(problems, fmt.Sprintf("max followups must be >= 0 (got %d)", c.MaxFollowups))
	}
	if c.CallTimeout < 0 {
		problems = append(problems, fmt.Sprintf("call timeout must be >= 0 (got %v)", c.CallTimeout))
	}
	if len(problems) > 0 {
		return core.ErrValidation(core.CodeInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// callTimeout returns the effective per-call timeout.
func (c Config) callTimeout() time.Duration {
	if c.CallTimeout > 0 {
		return c.CallTimeout
	}
	return core.GatewayCallTimeout
}
