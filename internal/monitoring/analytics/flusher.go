package analytics

import (
	"context"
	"time"

	apperrors "card-assistant/internal/common/errors"
	"card-assistant/internal/common/logger"
	"card-assistant/internal/common/metrics"
)

// Flusher periodically drains a collector into exporters. Delivery is at
// most once: a batch that fails to export is logged and dropped.
type Flusher struct {
	source    Drainer
	exporters []Exporter
	interval  time.Duration
	logger    logger.Logger
}

// DefaultFlushInterval replaces a non-positive interval.
const DefaultFlushInterval = 5 * time.Second

func NewFlusher(source Drainer, interval time.Duration, log logger.Logger, exporters ...Exporter) *Flusher {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Flusher{
		source:    source,
		exporters: exporters,
		interval:  interval,
		logger:    log.WithFields(map[string]interface{}{"component": "analytics-flusher"}),
	}
}

// Run flushes on every tick until ctx is done, then flushes once more.
func (f *Flusher) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// context is already cancelled; give the last batch its own deadline
			finalCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			f.FlushOnce(finalCtx)
			cancel()
			return
		case <-ticker.C:
			f.FlushOnce(ctx)
		}
	}
}

// FlushOnce drains the source and exports the batch, returning how many
// events were drained and the first export error.
func (f *Flusher) FlushOnce(ctx context.Context) (int, error) {
	events := f.source.Flush()
	if len(events) == 0 {
		return 0, nil
	}

	var firstErr error
	for _, exp := range f.exporters {
		if err := exp.Export(ctx, events); err != nil {
			exportErr := apperrors.NewAnalyticsExportError(exp.Name(), len(events), err)
			f.logger.Error("analytics export failed", map[string]interface{}{
				"exporter": exp.Name(),
				"events":   len(events),
				"error":    exportErr.Error(),
			})
			metrics.AnalyticsEventsExported.WithLabelValues(exp.Name(), "failed").Add(float64(len(events)))
			if firstErr == nil {
				firstErr = exportErr
			}
			continue
		}
		metrics.AnalyticsEventsExported.WithLabelValues(exp.Name(), "ok").Add(float64(len(events)))
	}

	f.logger.Debug("analytics batch flushed", map[string]interface{}{
		"events":    len(events),
		"exporters": len(f.exporters),
	})
	return len(events), firstErr
}
