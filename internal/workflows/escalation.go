package workflows

import (
	"context"
	"fmt"
	"time"

	apperrors "card-assistant/internal/common/errors"
	"card-assistant/internal/common/logger"
	"card-assistant/internal/common/metrics"
	"card-assistant/internal/models"
	"card-assistant/internal/monitoring/observability"
)

// HandoffMessage is returned to the caller whenever a case is escalated.
const HandoffMessage = "I'll bring a specialist to assist you further. Please stay on the line while I connect you."

const caseIDLayout = "20060102150405"

// Dispatcher delivers a built ticket to a human support channel.
type Dispatcher interface {
	Name() string
	Dispatch(ctx context.Context, ticket *models.EscalationTicket) error
}

// Escalator builds escalation tickets and responses.
type Escalator struct {
	now         func() time.Time
	dispatchers []Dispatcher
	logger      logger.Logger
}

type EscalatorOption func(*Escalator)

// WithClock overrides the time source used for case ids and tickets.
func WithClock(now func() time.Time) EscalatorOption {
	return func(e *Escalator) { e.now = now }
}

func WithDispatchers(d ...Dispatcher) EscalatorOption {
	return func(e *Escalator) { e.dispatchers = append(e.dispatchers, d...) }
}

func WithLogger(l logger.Logger) EscalatorOption {
	return func(e *Escalator) { e.logger = l }
}

func NewEscalator(opts ...EscalatorOption) *Escalator {
	e := &Escalator{
		now:    time.Now,
		logger: logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Escalate opens (or reuses) the conversation's case, notes the escalation,
// hands the ticket to the dispatchers and returns the case_escalation
// response. Urgency defaults to high.
func (e *Escalator) Escalate(ctx context.Context, conv *models.ConversationContext, intent, reason string, obs observability.Context, urgency string) *models.IntentResponse {
	if urgency == "" {
		urgency = models.UrgencyHigh
	}

	now := e.now().UTC()
	if !conv.HasCase() {
		conv.CaseID = "CASE-" + now.Format(caseIDLayout)
	}
	conv.AddNote(fmt.Sprintf("Escalated intent %s: %s", intent, reason))

	metaReason := reason
	if metaReason == "" {
		metaReason = "unspecified"
	}
	ticket := &models.EscalationTicket{
		ClientID:  conv.ClientID,
		CaseID:    conv.CaseID,
		IssueType: intent,
		Urgency:   urgency,
		CreatedAt: now,
		Metadata: map[string]string{
			"reason":                  metaReason,
			models.MetadataKeyTraceID: obs.TraceID,
		},
	}

	metrics.EscalationsTotal.WithLabelValues(intent, urgency).Inc()
	e.logger.Info("case escalated", map[string]interface{}{
		"caseId":   ticket.CaseID,
		"clientId": ticket.ClientID,
		"intent":   intent,
		"urgency":  urgency,
		"traceId":  obs.TraceID,
	})
	e.dispatch(ctx, ticket)

	return &models.IntentResponse{
		Message:          HandoffMessage,
		ResponseType:     models.ResponseTypeCaseEscalation,
		Data:             map[string]interface{}{"ticket": ticket},
		RequiresFollowUp: true,
	}
}

// dispatch never fails the escalation; delivery problems are logged and counted.
func (e *Escalator) dispatch(ctx context.Context, ticket *models.EscalationTicket) {
	for _, d := range e.dispatchers {
		if err := d.Dispatch(ctx, ticket); err != nil {
			dispatchErr := apperrors.NewHandoffDispatchError(d.Name(), ticket.CaseID, err)
			e.logger.Error("handoff dispatch failed", map[string]interface{}{
				"channel": d.Name(),
				"caseId":  ticket.CaseID,
				"error":   dispatchErr.Error(),
			})
			metrics.HandoffDispatches.WithLabelValues(d.Name(), "failed").Inc()
			continue
		}
		metrics.HandoffDispatches.WithLabelValues(d.Name(), "ok").Inc()
	}
}

var defaultEscalator = NewEscalator()

// EscalateToHuman escalates with the default escalator (no dispatchers).
func EscalateToHuman(ctx context.Context, conv *models.ConversationContext, intent, reason string, obs observability.Context, urgency string) *models.IntentResponse {
	return defaultEscalator.Escalate(ctx, conv, intent, reason, obs, urgency)
}

// TicketFrom extracts the ticket carried by an escalation response.
func TicketFrom(resp *models.IntentResponse) (*models.EscalationTicket, bool) {
	if resp == nil || resp.Data == nil {
		return nil, false
	}
	ticket, ok := resp.Data["ticket"].(*models.EscalationTicket)
	return ticket, ok
}
