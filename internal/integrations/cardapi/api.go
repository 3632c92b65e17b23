// Package cardapi is the client side of the card management backend.
package cardapi

import (
	"context"
	"fmt"

	"card-assistant/internal/models"
)

// Failure reasons reported in CardOperationResult.
const (
	ReasonCardIDRequired = "card_id_required"
	ReasonCardNotFound   = "card_not_found"
)

// API performs card management actions. A result with Success=false is a
// business refusal; a non-nil error means the backend could not be reached.
type API interface {
	FreezeCard(ctx context.Context, cardID, reason string) (*models.CardOperationResult, error)
	ActivateCard(ctx context.Context, cardID string) (*models.CardOperationResult, error)
}

func freezeReference(cardID, reason string) string {
	if reason == "" {
		return fmt.Sprintf("FRZ-%s-AUTO", cardID)
	}
	return fmt.Sprintf("FRZ-%s", cardID)
}

func activationReference(cardID string) string {
	return fmt.Sprintf("ACT-%s", cardID)
}

func refused(reason string) *models.CardOperationResult {
	return &models.CardOperationResult{Success: false, FailureReason: reason}
}
