package transactionapi

import (
	"context"
	"fmt"
	"time"

	"card-assistant/internal/models"
)

// Demo serves synthetic transactions.
type Demo struct {
	now func() time.Time
}

func NewDemo() *Demo {
	return &Demo{now: time.Now}
}

// NewDemoWithClock is NewDemo with a fixed time source.
func NewDemoWithClock(now func() time.Time) *Demo {
	return &Demo{now: now}
}

func (d *Demo) ListRecent(ctx context.Context, clientID, cardID string, limit int) ([]models.Transaction, error) {
	now := d.now().UTC()
	txns := make([]models.Transaction, 0, limit)
	for i := 0; i < limit; i++ {
		txns = append(txns, models.Transaction{
			ID:           fmt.Sprintf("TXN-%d", i),
			CardID:       cardID,
			PostedAt:     now,
			MerchantName: fmt.Sprintf("Merchant %d", i),
			Amount:       models.Money{Currency: "USD", Amount: int64(1000 * (i + 1))},
			Category:     "general",
		})
	}
	return txns, nil
}

func (d *Demo) GetTransaction(ctx context.Context, clientID, transactionID string) (*models.Transaction, error) {
	return &models.Transaction{
		ID:           transactionID,
		PostedAt:     d.now().UTC(),
		MerchantName: "Example Merchant",
		Amount:       models.Money{Currency: "USD", Amount: 3299},
		Category:     "shopping",
	}, nil
}
