// Package card implements the card management intents.
package card

import (
	"context"
	"fmt"

	"card-assistant/internal/common/logger"
	"card-assistant/internal/integrations/cardapi"
	"card-assistant/internal/intents"
	"card-assistant/internal/models"
	"card-assistant/internal/monitoring/observability"
	"card-assistant/internal/workflows"
)

const (
	messageWhichCard = "I can help with that. Which card would you like me to freeze?"
	messageFrozen    = "The card is now frozen. I've ordered a replacement and will send updates to your email."
	messageActivated = "Your card is now active. Is there anything else I can help you with?"
)

type FreezeCardHandler struct {
	api       cardapi.API
	escalator *workflows.Escalator
	logger    logger.Logger
}

func NewFreezeCardHandler(api cardapi.API, escalator *workflows.Escalator, log logger.Logger) *FreezeCardHandler {
	if escalator == nil {
		escalator = workflows.NewEscalator()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &FreezeCardHandler{api: api, escalator: escalator, logger: log}
}

func (h *FreezeCardHandler) Name() string { return intents.FreezeCard }

func (h *FreezeCardHandler) RequiresVerification() bool { return true }

func (h *FreezeCardHandler) Handle(ctx context.Context, req *models.IntentRequest, conv *models.ConversationContext, obs observability.Context) (*models.IntentResponse, error) {
	cardID := intents.CardID(req, conv)
	if cardID == "" {
		return models.NewTextResponse(messageWhichCard, true), nil
	}

	result, err := h.api.FreezeCard(ctx, cardID, req.Param("reason"))
	if err != nil {
		return nil, err
	}
	if !result.Success {
		h.logger.Warn("card freeze refused", map[string]interface{}{
			"cardId":  cardID,
			"reason":  result.FailureReason,
			"traceId": obs.TraceID,
		})
		return h.escalator.Escalate(ctx, conv, req.IntentName, result.FailureReason, obs, models.UrgencyHigh), nil
	}

	conv.AddNote(fmt.Sprintf("Card %s frozen: %s", cardID, result.ReferenceID))
	h.logger.Info("card frozen", map[string]interface{}{
		"cardId":      cardID,
		"referenceId": result.ReferenceID,
		"traceId":     obs.TraceID,
	})

	return &models.IntentResponse{
		Message:      messageFrozen,
		ResponseType: models.ResponseTypeCardSummary,
		Data: map[string]interface{}{
			"card_id":          cardID,
			"status":           models.CardStatusFrozen,
			"replacement_case": result.ReferenceID,
		},
		RequiresFollowUp: true,
	}, nil
}

type ActivateCardHandler struct {
	api       cardapi.API
	escalator *workflows.Escalator
	logger    logger.Logger
}

func NewActivateCardHandler(api cardapi.API, escalator *workflows.Escalator, log logger.Logger) *ActivateCardHandler {
	if escalator == nil {
		escalator = workflows.NewEscalator()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &ActivateCardHandler{api: api, escalator: escalator, logger: log}
}

func (h *ActivateCardHandler) Name() string { return intents.ActivateCard }

func (h *ActivateCardHandler) RequiresVerification() bool { return true }

// Handle asks the backend even without a card id; the backend's refusal
// then becomes the escalation reason.
func (h *ActivateCardHandler) Handle(ctx context.Context, req *models.IntentRequest, conv *models.ConversationContext, obs observability.Context) (*models.IntentResponse, error) {
	cardID := intents.CardID(req, conv)

	result, err := h.api.ActivateCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return h.escalator.Escalate(ctx, conv, req.IntentName, result.FailureReason, obs, models.UrgencyHigh), nil
	}

	h.logger.Info("card activated", map[string]interface{}{
		"cardId":  cardID,
		"traceId": obs.TraceID,
	})
	return &models.IntentResponse{
		Message:      messageActivated,
		ResponseType: models.ResponseTypeCardSummary,
		Data: map[string]interface{}{
			"card_id": cardID,
			"status":  models.CardStatusActive,
		},
	}, nil
}
