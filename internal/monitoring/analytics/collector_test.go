package analytics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"card-assistant/internal/models"
)

func fixedCollector() *Collector {
	c := NewCollector()
	c.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return c
}

func TestCollector_RecordEvent(t *testing.T) {
	c := fixedCollector()
	conv := models.NewConversationContext("client-1", "voice")
	conv.CaseID = "CASE-1"
	conv.SetMetadata(models.MetadataKeyTraceID, "trace-1")

	c.RecordEvent(models.EventTurnStart, conv, map[string]interface{}{"intent": "freeze_card"})

	events := c.Flush()
	require.Len(t, events, 1)
	assert.Equal(t, models.AnalyticsEvent{
		Event:      models.EventTurnStart,
		ClientID:   "client-1",
		CaseID:     "CASE-1",
		Metadata:   map[string]interface{}{"intent": "freeze_card"},
		TraceID:    "trace-1",
		RecordedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}, events[0])
}

func TestCollector_RecordEventNilMetadata(t *testing.T) {
	c := NewCollector()
	c.RecordEvent(models.EventVerificationFailed, models.NewConversationContext("client-1", "chat"), nil)

	events := c.Flush()
	require.Len(t, events, 1)
	assert.NotNil(t, events[0].Metadata)
	assert.Empty(t, events[0].Metadata)
}

func TestCollector_RecordEventCopiesMetadata(t *testing.T) {
	c := NewCollector()
	meta := map[string]interface{}{"intent": "activate_card"}
	c.RecordEvent(models.EventTurnStart, models.NewConversationContext("client-1", "chat"), meta)
	meta["intent"] = "mutated"

	assert.Equal(t, "activate_card", c.Flush()[0].Metadata["intent"])
}

func TestCollector_RecordError(t *testing.T) {
	c := NewCollector()
	conv := models.NewConversationContext("client-1", "voice")

	c.RecordError(errors.New("backend unavailable"), conv, map[string]interface{}{"intent": "explain_charge"})

	events := c.Flush()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventError, events[0].Event)
	assert.Equal(t, "backend unavailable", events[0].Error)
	assert.Equal(t, "explain_charge", events[0].Metadata["intent"])
}

func TestCollector_FlushDrainsExactlyOnce(t *testing.T) {
	c := NewCollector()
	conv := models.NewConversationContext("client-1", "voice")

	c.RecordEvent("a", conv, nil)
	c.RecordEvent("b", conv, nil)
	c.RecordError(errors.New("c"), conv, nil)

	first := c.Flush()
	require.Len(t, first, 3)
	assert.Equal(t, []string{"a", "b", models.EventError}, names(first))
	assert.Equal(t, 0, c.Len())

	second := c.Flush()
	assert.NotNil(t, second)
	assert.Empty(t, second)
}

func TestCollector_BindTrace(t *testing.T) {
	c := NewCollector()
	c.BindTrace("trace-1")
	c.BindTrace("trace-2")
	assert.Equal(t, "trace-2", c.TraceID())
	assert.Equal(t, 0, c.Len(), "binding a trace records nothing")
}

func TestCollector_ConcurrentRecordAndFlush(t *testing.T) {
	c := NewCollector()
	const writers, perWriter = 8, 250

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		drained int
	)
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				n := len(c.Flush())
				mu.Lock()
				drained += n
				mu.Unlock()
			}
		}
	}()

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv := models.NewConversationContext("client", "voice")
			for i := 0; i < perWriter; i++ {
				c.RecordEvent(models.EventTurnStart, conv, nil)
			}
		}()
	}

	wg.Wait()
	close(stop)
	<-done

	drained += len(c.Flush())
	assert.Equal(t, writers*perWriter, drained)
}

func names(events []models.AnalyticsEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Event
	}
	return out
}
