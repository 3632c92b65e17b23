// Package analytics records conversation lifecycle events and exports them.
package analytics

import (
	"sync"
	"time"

	"card-assistant/internal/models"
)

// Sink is the event sink the agent reports to. Implementations must not
// block on I/O; export happens out of band through Flush.
type Sink interface {
	RecordEvent(name string, conv *models.ConversationContext, metadata map[string]interface{})
	RecordError(err error, conv *models.ConversationContext, metadata map[string]interface{})
	BindTrace(traceID string)
}

// Drainer hands out everything recorded so far, exactly once.
type Drainer interface {
	Flush() []models.AnalyticsEvent
}

// Collector is the in-memory Sink. It is safe for concurrent use, so a single
// collector can serve many conversations and be drained by a Flusher.
type Collector struct {
	mu      sync.Mutex
	events  []models.AnalyticsEvent
	traceID string
	now     func() time.Time
}

func NewCollector() *Collector {
	return &Collector{now: time.Now}
}

// BindTrace records the most recently active trace id.
func (c *Collector) BindTrace(traceID string) {
	c.mu.Lock()
	c.traceID = traceID
	c.mu.Unlock()
}

// TraceID returns the id passed to the last BindTrace call.
func (c *Collector) TraceID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.traceID
}

func (c *Collector) RecordEvent(name string, conv *models.ConversationContext, metadata map[string]interface{}) {
	c.append(newEvent(name, conv, metadata, c.clock()))
}

func (c *Collector) RecordError(err error, conv *models.ConversationContext, metadata map[string]interface{}) {
	event := newEvent(models.EventError, conv, metadata, c.clock())
	if err != nil {
		event.Error = err.Error()
	}
	c.append(event)
}

// Flush atomically swaps out the log and returns what it held.
func (c *Collector) Flush() []models.AnalyticsEvent {
	c.mu.Lock()
	events := c.events
	c.events = nil
	c.mu.Unlock()

	if events == nil {
		return []models.AnalyticsEvent{}
	}
	return events
}

// Len returns the number of events waiting to be flushed.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *Collector) append(event models.AnalyticsEvent) {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
}

func (c *Collector) clock() time.Time {
	if c.now == nil {
		return time.Now().UTC()
	}
	return c.now().UTC()
}

func newEvent(name string, conv *models.ConversationContext, metadata map[string]interface{}, at time.Time) models.AnalyticsEvent {
	meta := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}

	event := models.AnalyticsEvent{
		Event:      name,
		Metadata:   meta,
		RecordedAt: at,
	}
	if conv != nil {
		event.ClientID = conv.ClientID
		event.CaseID = conv.CaseID
		event.TraceID = conv.GetMetadata(models.MetadataKeyTraceID, "")
	}
	return event
}
