// Package observability derives the per-turn correlation ids of a conversation.
package observability

import (
	"strings"

	"github.com/google/uuid"

	"card-assistant/internal/models"
)

// Context carries the correlation ids for one turn. It is derived per turn
// and never persisted beyond it.
type Context struct {
	TraceID  string `json:"trace_id"`
	SpanID   string `json:"span_id"`
	ClientID string `json:"client_id"`
	Intent   string `json:"intent"`
}

// IDGenerator produces globally unique identifiers.
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() string

func (f IDGeneratorFunc) NewID() string { return f() }

// UUIDGenerator yields 32-char lowercase hex random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Builder derives observability contexts from conversation state.
type Builder struct {
	ids IDGenerator
}

// NewBuilder returns a Builder using ids, or UUIDGenerator when ids is nil.
func NewBuilder(ids IDGenerator) *Builder {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &Builder{ids: ids}
}

// FromContext reuses the trace id cached in the session metadata, generating
// and storing one on first use. The span id is always fresh.
func (b *Builder) FromContext(conv *models.ConversationContext, req *models.IntentRequest) Context {
	traceID := conv.GetMetadata(models.MetadataKeyTraceID, "")
	if traceID == "" {
		traceID = b.ids.NewID()
	}
	conv.SetMetadata(models.MetadataKeyTraceID, traceID)

	return Context{
		TraceID:  traceID,
		SpanID:   b.ids.NewID(),
		ClientID: conv.ClientID,
		Intent:   req.IntentName,
	}
}

var defaultBuilder = NewBuilder(nil)

// FromContext derives a context with the default UUID generator.
func FromContext(conv *models.ConversationContext, req *models.IntentRequest) Context {
	return defaultBuilder.FromContext(conv, req)
}
