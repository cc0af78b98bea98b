package events

// Event type constants for study sessions.
const (
	TypeSessionStarted   = "session_started"
	TypeSessionCompleted = "session_completed"
	TypeSessionFailed    = "session_failed"
	TypeSectionStarted   = "section_started"
	TypeSectionCompleted = "section_completed"
	TypeSectionFailed    = "section_failed"
	TypeExchange         = "exchange"
	TypeProgress         = "progress"
)

// SessionStartedEvent signals the start of a study session run.
type SessionStartedEvent struct {
	BaseEvent
	SectionCount int `json:"section_count"`
}

// NewSessionStarted creates a session started event.
func NewSessionStarted(sessionID string, sectionCount int) SessionStartedEvent {
	return SessionStartedEvent{
		BaseEvent:    NewBaseEvent(TypeSessionStarted, sessionID),
		SectionCount: sectionCount,
	}
}

// SessionCompletedEvent signals that all sections have been attempted.
type SessionCompletedEvent struct {
	BaseEvent
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// NewSessionCompleted creates a session completed event.
func NewSessionCompleted(sessionID string, completed, failed int) SessionCompletedEvent {
	return SessionCompletedEvent{
		BaseEvent: NewBaseEvent(TypeSessionCompleted, sessionID),
		Completed: completed,
		Failed:    failed,
	}
}

// SessionFailedEvent signals a fatal, run-level failure.
type SessionFailedEvent struct {
	BaseEvent
	Error string `json:"error"`
}

// NewSessionFailed creates a session failed event.
func NewSessionFailed(sessionID, errMsg string) SessionFailedEvent {
	return SessionFailedEvent{
		BaseEvent: NewBaseEvent(TypeSessionFailed, sessionID),
		Error:     errMsg,
	}
}

// SectionStartedEvent signals that a section task began executing.
type SectionStartedEvent struct {
	BaseEvent
	SectionIndex int    `json:"section_index"`
	Keyword      string `json:"keyword,omitempty"`
}

// NewSectionStarted creates a section started event.
func NewSectionStarted(sessionID string, index int, keyword string) SectionStartedEvent {
	return SectionStartedEvent{
		BaseEvent:    NewBaseEvent(TypeSectionStarted, sessionID),
		SectionIndex: index,
		Keyword:      keyword,
	}
}

// SectionCompletedEvent signals that a section task reached a terminal state.
type SectionCompletedEvent struct {
	BaseEvent
	SectionIndex int    `json:"section_index"`
	Followups    int    `json:"followups"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

// NewSectionCompleted creates a section completed event.
func NewSectionCompleted(sessionID string, index, followups int, status, errMsg string) SectionCompletedEvent {
	return SectionCompletedEvent{
		BaseEvent:    NewBaseEvent(TypeSectionCompleted, sessionID),
		SectionIndex: index,
		Followups:    followups,
		Status:       status,
		Error:        errMsg,
	}
}

// ExchangeEvent carries one completed question/answer round.
type ExchangeEvent struct {
	BaseEvent
	SectionIndex int    `json:"section_index"`
	Kind         string `json:"kind"`
	Ordinal      int    `json:"ordinal"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
}

// NewExchange creates an exchange event.
func NewExchange(sessionID string, index int, kind string, ordinal int, question, answer string) ExchangeEvent {
	return ExchangeEvent{
		BaseEvent:    NewBaseEvent(TypeExchange, sessionID),
		SectionIndex: index,
		Kind:         kind,
		Ordinal:      ordinal,
		Question:     question,
		Answer:       answer,
	}
}

// ProgressEvent reports monotonic completion progress.
type ProgressEvent struct {
	BaseEvent
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// NewProgress creates a progress event.
func NewProgress(sessionID string, completed, total int) ProgressEvent {
	return ProgressEvent{
		BaseEvent: NewBaseEvent(TypeProgress, sessionID),
		Completed: completed,
		Total:     total,
	}
}
