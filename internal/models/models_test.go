package models

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversationContext(t *testing.T) {
	conv := NewConversationContext("client-1", "voice")

	assert.Equal(t, "client-1", conv.ClientID)
	assert.Equal(t, DefaultLocale, conv.Locale)
	assert.False(t, conv.IsVerified)
	assert.False(t, conv.HasCase())
	assert.Empty(t, conv.CaseNotes)
	assert.NotNil(t, conv.SessionMetadata)
}

func TestConversationContext_AddNote(t *testing.T) {
	conv := NewConversationContext("client-1", "voice")
	conv.addNoteAt(time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC), "first")
	conv.AddNote("second")

	require.Len(t, conv.CaseNotes, 2)
	assert.Equal(t, "[2024-03-09T14:05:06Z] first", conv.CaseNotes[0])
	assert.Regexp(t, regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z\] second$`), conv.CaseNotes[1])
}

func TestConversationContext_Metadata(t *testing.T) {
	conv := &ConversationContext{ClientID: "client-1"}

	assert.Equal(t, "fallback", conv.GetMetadata("trace_id", "fallback"))

	conv.SetMetadata("trace_id", "abc")
	assert.Equal(t, "abc", conv.GetMetadata("trace_id", "fallback"))

	conv.SetMetadata("empty", "")
	assert.Equal(t, "", conv.GetMetadata("empty", "fallback"))
}

func TestMoney_Display(t *testing.T) {
	tests := []struct {
		money    Money
		expected string
	}{
		{Money{Currency: "USD", Amount: 3299}, "USD 32.99"},
		{Money{Currency: "USD", Amount: 1000}, "USD 10.00"},
		{Money{Currency: "EUR", Amount: 5}, "EUR 0.05"},
		{Money{Currency: "USD", Amount: -250}, "USD -2.50"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.money.Display())
		})
	}
}

func TestTransaction_Summary(t *testing.T) {
	txn := Transaction{
		ID:           "TXN-1",
		PostedAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		MerchantName: "Example Merchant",
		Amount:       Money{Currency: "USD", Amount: 3299},
		Category:     "shopping",
	}

	assert.Equal(t, map[string]interface{}{
		"transactionId": "TXN-1",
		"postedAt":      "2024-01-02T03:04:05Z",
		"merchantName":  "Example Merchant",
		"amount":        "USD 32.99",
		"category":      "shopping",
	}, txn.Summary())
}

func TestEscalationTicket_JSONKeys(t *testing.T) {
	ticket := &EscalationTicket{
		ClientID:  "client-1",
		CaseID:    "CASE-20240101000000",
		IssueType: "freeze_card",
		Urgency:   UrgencyHigh,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Metadata:  map[string]string{"reason": "card_id_required", "trace_id": "t-1"},
	}

	raw, err := json.Marshal(ticket)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.ElementsMatch(t,
		[]string{"clientId", "caseId", "issueType", "urgencyLevel", "createdAt", "metadata"},
		keys(decoded),
	)
	assert.Equal(t, "card_id_required", ticket.Reason())
	assert.Equal(t, "t-1", ticket.TraceID())
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
