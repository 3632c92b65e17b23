package handoff

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"card-assistant/internal/models"
)

const insertTicketQuery = `
	INSERT INTO escalation_tickets
		(case_id, client_id, issue_type, urgency, reason, trace_id, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (case_id, issue_type, created_at) DO NOTHING`

// TicketStore persists tickets so the desk can audit every handoff.
type TicketStore struct {
	db *sql.DB
}

func NewTicketStore(db *sql.DB) *TicketStore {
	return &TicketStore{db: db}
}

func (s *TicketStore) Name() string { return "postgres" }

func (s *TicketStore) Dispatch(ctx context.Context, ticket *models.EscalationTicket) error {
	meta, err := json.Marshal(ticket.Metadata)
	if err != nil {
		return fmt.Errorf("encode ticket metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, insertTicketQuery,
		ticket.CaseID,
		ticket.ClientID,
		ticket.IssueType,
		ticket.Urgency,
		ticket.Reason(),
		ticket.TraceID(),
		meta,
		ticket.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ticket %s: %w", ticket.CaseID, err)
	}
	return nil
}
