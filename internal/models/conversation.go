package models

import (
	"fmt"
	"time"
)

// MetadataKeyTraceID is the session metadata key holding the conversation trace id.
const MetadataKeyTraceID = "trace_id"

const DefaultLocale = "en-US"

// ConversationContext is the mutable state carried across the turns of one
// conversation. It is owned by the caller and is not safe for concurrent
// turns: callers serialize turns per client.
type ConversationContext struct {
	ClientID             string            `json:"clientId"`
	Channel              string            `json:"channel"`
	Locale               string            `json:"locale"`
	LoyaltyTier          string            `json:"loyaltyTier,omitempty"`
	IsVerified           bool              `json:"isVerified"`
	VerificationAttempts int               `json:"verificationAttempts"`
	ActiveCardID         string            `json:"activeCardId,omitempty"`
	CaseID               string            `json:"caseId,omitempty"`
	CaseNotes            []string          `json:"caseNotes"`
	SessionMetadata      map[string]string `json:"sessionMetadata"`
	StartedAt            time.Time         `json:"startedAt"`
}

// NewConversationContext creates a fresh, unverified context.
func NewConversationContext(clientID, channel string) *ConversationContext {
	return &ConversationContext{
		ClientID:        clientID,
		Channel:         channel,
		Locale:          DefaultLocale,
		CaseNotes:       []string{},
		SessionMetadata: map[string]string{},
		StartedAt:       time.Now().UTC(),
	}
}

// AddNote appends a UTC-timestamped note to the case log.
func (c *ConversationContext) AddNote(note string) {
	c.addNoteAt(time.Now(), note)
}

func (c *ConversationContext) addNoteAt(at time.Time, note string) {
	c.CaseNotes = append(c.CaseNotes, fmt.Sprintf("[%s] %s", at.UTC().Format(time.RFC3339), note))
}

func (c *ConversationContext) SetMetadata(key, value string) {
	if c.SessionMetadata == nil {
		c.SessionMetadata = map[string]string{}
	}
	c.SessionMetadata[key] = value
}

// GetMetadata returns the stored value for key, or def when the key is absent.
func (c *ConversationContext) GetMetadata(key, def string) string {
	if v, ok := c.SessionMetadata[key]; ok {
		return v
	}
	return def
}

// HasCase reports whether an escalation case has already been opened.
func (c *ConversationContext) HasCase() bool {
	return c.CaseID != ""
}
