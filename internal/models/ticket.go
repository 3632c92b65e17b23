package models

import "time"

// Urgency levels for escalation tickets.
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

// EscalationTicket is the handoff payload for a human agent. Built once in
// the escalation path and not modified afterwards.
type EscalationTicket struct {
	ClientID  string            `json:"clientId"`
	CaseID    string            `json:"caseId"`
	IssueType string            `json:"issueType"`
	Urgency   string            `json:"urgencyLevel"`
	CreatedAt time.Time         `json:"createdAt"`
	Metadata  map[string]string `json:"metadata"`
}

// Reason returns the failure reason recorded on the ticket.
func (t *EscalationTicket) Reason() string {
	return t.Metadata["reason"]
}

// TraceID returns the trace id of the conversation that escalated.
func (t *EscalationTicket) TraceID() string {
	return t.Metadata[MetadataKeyTraceID]
}
