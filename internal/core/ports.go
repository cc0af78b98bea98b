package core

import (
	"context"
	"time"
)

// Role selects the persona a gateway invocation speaks as.
type Role string

const (
	RoleStudent    Role = "student"
	RoleTeacher    Role = "teacher"
	RoleEvaluator  Role = "evaluator"
	RoleSummarizer Role = "summarizer"
)

// Gateway defines the contract for the LLM backend.
// Implementations may be slow and may fail; callers own timeouts and
// admission control.
type Gateway interface {
	// Invoke sends a prompt in the given role and returns the model text.
	// History carries prior exchanges for conversational context; it may
	// be nil.
	Invoke(ctx context.Context, role Role, prompt string, history []Exchange) (string, error)
}

// GatewayFunc adapts a plain function to the Gateway interface.
type GatewayFunc func(ctx context.Context, role Role, prompt string, history []Exchange) (string, error)

// Invoke implements Gateway.
func (f GatewayFunc) Invoke(ctx context.Context, role Role, prompt string, history []Exchange) (string, error) {
	return f(ctx, role, prompt, history)
}

// ProgressFunc receives completion notifications during a run.
// It is invoked once per completed section with a strictly increasing
// completed count; total is constant for the run.
type ProgressFunc func(completed, total int)

// ComplexityScorer maps an answer text to a score in [0,1].
// Higher scores indicate answers that warrant a follow-up exchange.
type ComplexityScorer interface {
	Score(ctx context.Context, answer string) float64
}

// SessionStore defines the contract for run-history persistence.
type SessionStore interface {
	// SaveSession persists a completed session with its results.
	SaveSession(ctx context.Context, rec *SessionRecord) error

	// LoadSession retrieves a session by ID.
	// Returns nil and no error if the session doesn't exist.
	LoadSession(ctx context.Context, id SessionID) (*SessionRecord, error)

	// ListSessions returns summaries of all persisted sessions, newest first.
	ListSessions(ctx context.Context) ([]SessionSummary, error)

	// DeleteSession removes a session and its results.
	DeleteSession(ctx context.Context, id SessionID) error

	// Close releases the underlying storage.
	Close() error
}

// ReportWriter renders and persists the final study report.
type ReportWriter interface {
	Write(ctx context.Context, rec *SessionRecord) (path string, err error)
}

// GatewayCallTimeout is the default per-call ceiling for gateway invocations.
const GatewayCallTimeout = 2 * time.Minute
