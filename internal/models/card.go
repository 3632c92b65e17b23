package models

// Card statuses reported in card summaries.
const (
	CardStatusActive = "active"
	CardStatusFrozen = "frozen"
)

// CardOperationResult is returned by card management actions.
type CardOperationResult struct {
	Success       bool   `json:"success"`
	ReferenceID   string `json:"referenceId,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
}

// Card is a payment card as stored by the card backend.
type Card struct {
	ID       string `json:"cardId" db:"id"`
	ClientID string `json:"clientId" db:"client_id"`
	Last4    string `json:"last4" db:"last4"`
	Status   string `json:"status" db:"status"`
}
