// Package handoff delivers escalation tickets to the human support desk.
// Every type here implements workflows.Dispatcher.
package handoff

import (
	"encoding/json"
	"fmt"
	"time"

	"card-assistant/internal/models"
)

// variables is the flat view of a ticket shared by every channel.
func variables(ticket *models.EscalationTicket) map[string]interface{} {
	return map[string]interface{}{
		"clientId":     ticket.ClientID,
		"caseId":       ticket.CaseID,
		"issueType":    ticket.IssueType,
		"urgencyLevel": ticket.Urgency,
		"reason":       ticket.Reason(),
		"traceId":      ticket.TraceID(),
		"createdAt":    ticket.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func encodeTicket(ticket *models.EscalationTicket) (string, error) {
	b, err := json.Marshal(ticket)
	if err != nil {
		return "", fmt.Errorf("encode ticket %s: %w", ticket.CaseID, err)
	}
	return string(b), nil
}

func subject(ticket *models.EscalationTicket) string {
	return fmt.Sprintf("[%s] Escalation %s: %s", ticket.Urgency, ticket.CaseID, ticket.IssueType)
}
