package verification

import (
	"context"

	"card-assistant/internal/common/logger"
	"card-assistant/internal/intents"
	"card-assistant/internal/models"
	"card-assistant/internal/monitoring/observability"
)

const (
	messageVerified = "Thank you. I've verified your identity. How can I assist you with your card today?"
	messageRetry    = "I couldn't complete the verification just yet. Let's try again or I can connect you with a specialist."
)

// VerifyClientHandler handles verify_client. It is the one intent that runs
// before the caller is verified.
type VerifyClientHandler struct {
	service Service
	logger  logger.Logger
}

func NewVerifyClientHandler(service Service, log logger.Logger) *VerifyClientHandler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &VerifyClientHandler{service: service, logger: log}
}

func (h *VerifyClientHandler) Name() string { return intents.VerifyClient }

func (h *VerifyClientHandler) RequiresVerification() bool { return false }

func (h *VerifyClientHandler) Handle(ctx context.Context, req *models.IntentRequest, conv *models.ConversationContext, obs observability.Context) (*models.IntentResponse, error) {
	result, err := h.service.Verify(ctx, conv, req.Parameters)
	if err != nil {
		return nil, err
	}

	conv.IsVerified = result.Passed
	conv.VerificationAttempts++

	fields := map[string]interface{}{
		"clientId": conv.ClientID,
		"method":   result.Method,
		"passed":   result.Passed,
		"attempt":  conv.VerificationAttempts,
		"traceId":  obs.TraceID,
	}
	if !result.Passed {
		fields["reason"] = result.FailureReason
	}
	h.logger.Info("verification attempt", fields)

	message := messageVerified
	if !result.Passed {
		message = messageRetry
	}
	resp := models.NewTextResponse(message, !result.Passed)
	resp.Data = map[string]interface{}{
		"verification_passed": result.Passed,
		"method":              result.Method,
	}
	return resp, nil
}
