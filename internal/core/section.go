package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionID uniquely identifies a study session run.
type SessionID string

// NewSessionID generates a session identifier.
func NewSessionID() SessionID {
	return SessionID(fmt.Sprintf("ses-%s-%s",
		time.Now().Format("20060102-150405"),
		uuid.New().String()[:5]))
}

// Section is one input unit produced by the document splitter.
// Immutable once created; Index is the canonical output order.
type Section struct {
	Index         int    `json:"index"`
	Text          string `json:"text"`
	TargetKeyword string `json:"target_keyword,omitempty"`
}

// ExchangeKind distinguishes the main Q&A round from follow-up rounds.
type ExchangeKind string

const (
	ExchangeMain     ExchangeKind = "main"
	ExchangeFollowup ExchangeKind = "followup"
)

// Exchange is one question/answer round within a section.
// Ordinal is 0 for the main exchange and 1..N for follow-ups.
type Exchange struct {
	Question string       `json:"question"`
	Answer   string       `json:"answer"`
	Kind     ExchangeKind `json:"kind"`
	Ordinal  int          `json:"ordinal"`
}

// SectionStatus is the terminal state of a section task.
type SectionStatus string

const (
	SectionStatusDone      SectionStatus = "done"
	SectionStatusFailed    SectionStatus = "failed"
	SectionStatusCancelled SectionStatus = "cancelled"
)

// SectionResult aggregates everything produced for one section.
// A failed section keeps whatever exchanges completed before the failure.
type SectionResult struct {
	SectionIndex    int           `json:"section_index"`
	Status          SectionStatus `json:"status"`
	Main            *Exchange     `json:"main,omitempty"`
	Followups       []Exchange    `json:"followups,omitempty"`
	ComplexityScore *float64      `json:"complexity_score,omitempty"`
	Error           string        `json:"error,omitempty"`
}

// Succeeded reports whether the section completed its full exchange chain.
func (r *SectionResult) Succeeded() bool {
	return r.Status == SectionStatusDone
}

// Exchanges returns the main exchange followed by follow-ups, in order.
func (r *SectionResult) Exchanges() []Exchange {
	out := make([]Exchange, 0, 1+len(r.Followups))
	if r.Main != nil {
		out = append(out, *r.Main)
	}
	out = append(out, r.Followups...)
	return out
}

// SessionSummary is a lightweight view of a persisted session for listing.
type SessionSummary struct {
	ID            SessionID `json:"id"`
	Document      string    `json:"document"`
	SectionCount  int       `json:"section_count"`
	FailedCount   int       `json:"failed_count"`
	ExchangeCount int       `json:"exchange_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// SessionRecord is the persisted form of a completed session.
type SessionRecord struct {
	ID        SessionID       `json:"id"`
	Document  string          `json:"document"`
	Summary   string          `json:"summary,omitempty"`
	Report    string          `json:"report,omitempty"`
	Results   []SectionResult `json:"results"`
	CreatedAt time.Time       `json:"created_at"`
}
