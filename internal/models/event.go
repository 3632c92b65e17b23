package models

import "time"

// Lifecycle event names emitted by the agent.
const (
	EventTurnStart          = "turn_start"
	EventTurnComplete       = "turn_complete"
	EventVerificationFailed = "verification_failed"
	EventEscalated          = "escalated"
	EventError              = "error"
	EventMaxTurnsExceeded   = "max_turns_exceeded"
)

// AnalyticsEvent is one entry of the append-only analytics log.
type AnalyticsEvent struct {
	Event      string                 `json:"event"`
	ClientID   string                 `json:"client_id"`
	CaseID     string                 `json:"case_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata"`
	Error      string                 `json:"error,omitempty"`
	TraceID    string                 `json:"trace_id,omitempty"`
	RecordedAt time.Time              `json:"recorded_at"`
}
