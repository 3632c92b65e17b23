// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeEscalated = "escalated"
	OutcomeFailed    = "failed"
)

var (
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_assistant_turns_total",
			Help: "Total number of conversation turns by intent and outcome",
		},
		[]string{"intent", "outcome"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "card_assistant_turn_duration_seconds",
			Help: "Duration of turn processing in seconds",
		},
		[]string{"intent"},
	)

	TurnsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "card_assistant_turns_active",
			Help: "Number of turns currently being processed",
		},
	)

	EscalationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_assistant_escalations_total",
			Help: "Total number of escalation tickets built",
		},
		[]string{"issue_type", "urgency"},
	)

	HandoffDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_assistant_handoff_dispatches_total",
			Help: "Escalation ticket deliveries per channel",
		},
		[]string{"channel", "status"},
	)

	AnalyticsEventsExported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_assistant_analytics_events_exported_total",
			Help: "Analytics events drained from the collector per exporter",
		},
		[]string{"exporter", "status"},
	)
)
