package models

import (
	"fmt"
	"time"
)

// Money is an amount in minor units.
type Money struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

// Display renders the amount as "USD 32.99".
func (m Money) Display() string {
	sign := ""
	amount := m.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s %s%d.%02d", m.Currency, sign, amount/100, amount%100)
}

// Transaction is a posted card transaction.
type Transaction struct {
	ID           string    `json:"transactionId" db:"id"`
	CardID       string    `json:"cardId,omitempty" db:"card_id"`
	PostedAt     time.Time `json:"postedAt" db:"posted_at"`
	MerchantName string    `json:"merchantName" db:"merchant_name"`
	Amount       Money     `json:"amount"`
	Category     string    `json:"category" db:"category"`
}

// Summary is the client-facing shape of a transaction.
func (t Transaction) Summary() map[string]interface{} {
	return map[string]interface{}{
		"transactionId": t.ID,
		"postedAt":      t.PostedAt.UTC().Format(time.RFC3339),
		"merchantName":  t.MerchantName,
		"amount":        t.Amount.Display(),
		"category":      t.Category,
	}
}
