// Package intents defines the contract between the agent and the
// business-logic handlers it dispatches to.
package intents

import (
	"context"

	"card-assistant/internal/models"
	"card-assistant/internal/monitoring/observability"
)

// Intent names handled by the card assistant.
const (
	VerifyClient           = "verify_client"
	FreezeCard             = "freeze_card"
	ActivateCard           = "activate_card"
	ListRecentTransactions = "list_recent_transactions"
	ExplainCharge          = "explain_charge"
)

// Handler executes one intent. Handle may return an escalation error (see
// errors.NewEscalationRequired) or any other error; both abort the turn.
type Handler interface {
	Name() string
	RequiresVerification() bool
	Handle(ctx context.Context, req *models.IntentRequest, conv *models.ConversationContext, obs observability.Context) (*models.IntentResponse, error)
}

// HandlerFunc adapts a function into a Handler.
type HandlerFunc struct {
	IntentName string
	Verified   bool
	Fn         func(ctx context.Context, req *models.IntentRequest, conv *models.ConversationContext, obs observability.Context) (*models.IntentResponse, error)
}

func (h HandlerFunc) Name() string { return h.IntentName }

func (h HandlerFunc) RequiresVerification() bool { return h.Verified }

func (h HandlerFunc) Handle(ctx context.Context, req *models.IntentRequest, conv *models.ConversationContext, obs observability.Context) (*models.IntentResponse, error) {
	return h.Fn(ctx, req, conv, obs)
}

// CardID resolves the card a request targets: the card_id parameter, then
// the conversation's active card.
func CardID(req *models.IntentRequest, conv *models.ConversationContext) string {
	if id := req.Param("card_id"); id != "" {
		return id
	}
	return conv.ActiveCardID
}

// ParamValidator checks request parameters before a handler acts on them.
type ParamValidator interface {
	Validate(intent string, params map[string]string) error
}
