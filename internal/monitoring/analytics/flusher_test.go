package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "card-assistant/internal/common/errors"
	"card-assistant/internal/common/logger"
	"card-assistant/internal/models"
)

type recordingExporter struct {
	mu      sync.Mutex
	name    string
	err     error
	batches [][]models.AnalyticsEvent
}

func (e *recordingExporter) Name() string { return e.name }

func (e *recordingExporter) Export(ctx context.Context, events []models.AnalyticsEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batches = append(e.batches, events)
	return e.err
}

func (e *recordingExporter) total() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, b := range e.batches {
		n += len(b)
	}
	return n
}

func TestFlusher_FlushOnce(t *testing.T) {
	c := NewCollector()
	conv := models.NewConversationContext("client-1", "voice")
	c.RecordEvent(models.EventTurnStart, conv, nil)
	c.RecordEvent(models.EventTurnComplete, conv, nil)

	ok := &recordingExporter{name: "ok"}
	f := NewFlusher(c, time.Second, logger.NewTestLogger(t), ok)

	n, err := f.FlushOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, ok.total())
	assert.Equal(t, 0, c.Len())

	n, err = f.FlushOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, ok.batches, 1, "empty drains are not exported")
}

func TestFlusher_ExportFailureDropsBatch(t *testing.T) {
	c := NewCollector()
	c.RecordEvent(models.EventTurnStart, models.NewConversationContext("client-1", "voice"), nil)

	failing := &recordingExporter{name: "kafka", err: errors.New("broker down")}
	ok := &recordingExporter{name: "redis"}
	f := NewFlusher(c, time.Second, logger.NewTestLogger(t), failing, ok)

	n, err := f.FlushOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, apperrors.ErrCodeAnalyticsExportFailed, apperrors.CodeOf(err))
	assert.Equal(t, 1, ok.total(), "other exporters still receive the batch")
	assert.Equal(t, 0, c.Len())
}

func TestFlusher_RunStopsAndFlushesOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCollector()
	exp := &recordingExporter{name: "ok"}
	f := NewFlusher(c, 10*time.Millisecond, nil, exp)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.Run(ctx)
	}()

	c.RecordEvent(models.EventTurnStart, models.NewConversationContext("client-1", "voice"), nil)
	require.Eventually(t, func() bool { return exp.total() == 1 }, time.Second, 5*time.Millisecond)

	c.RecordEvent(models.EventTurnComplete, models.NewConversationContext("client-1", "voice"), nil)
	cancel()
	<-done

	assert.Equal(t, 2, exp.total())
}

func TestNewFlusher_NonPositiveIntervalUsesDefault(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		f := NewFlusher(NewCollector(), interval, nil)
		assert.Equal(t, DefaultFlushInterval, f.interval)
	}
}

func TestFlusher_RunWithNegativeInterval(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCollector()
	exp := &recordingExporter{name: "ok"}
	f := NewFlusher(c, -time.Millisecond, nil, exp)
	c.RecordEvent(models.EventTurnStart, models.NewConversationContext("client-1", "voice"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NotPanics(t, func() { f.Run(ctx) })
	assert.Equal(t, 1, exp.total())
}
