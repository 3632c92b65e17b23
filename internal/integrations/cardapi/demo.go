package cardapi

import (
	"context"
	"sync/atomic"

	"card-assistant/internal/models"
)

// Demo accepts every well-formed request without touching any backend.
type Demo struct {
	calls atomic.Int64
}

func NewDemo() *Demo {
	return &Demo{}
}

func (d *Demo) FreezeCard(ctx context.Context, cardID, reason string) (*models.CardOperationResult, error) {
	d.calls.Add(1)
	if cardID == "" {
		return refused(ReasonCardIDRequired), nil
	}
	return &models.CardOperationResult{Success: true, ReferenceID: freezeReference(cardID, reason)}, nil
}

func (d *Demo) ActivateCard(ctx context.Context, cardID string) (*models.CardOperationResult, error) {
	d.calls.Add(1)
	if cardID == "" {
		return refused(ReasonCardIDRequired), nil
	}
	return &models.CardOperationResult{Success: true, ReferenceID: activationReference(cardID)}, nil
}

// Calls returns how many operations were requested.
func (d *Demo) Calls() int64 {
	return d.calls.Load()
}
