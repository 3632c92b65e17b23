// Package transactionapi reads card transaction history.
package transactionapi

import (
	"context"

	"card-assistant/internal/models"
)

// API looks up transactions belonging to a client. An empty cardID means
// all of the client's cards.
type API interface {
	ListRecent(ctx context.Context, clientID, cardID string, limit int) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, clientID, transactionID string) (*models.Transaction, error)
}
