// Package agent implements the turn orchestrator: verification gate,
// routing, handler execution and event logging for each conversational turn.
package agent

import (
	"context"
	"fmt"
	"time"

	apperrors "card-assistant/internal/common/errors"
	"card-assistant/internal/common/logger"
	"card-assistant/internal/common/metrics"
	"card-assistant/internal/common/telemetry"
	"card-assistant/internal/intents"
	"card-assistant/internal/models"
	"card-assistant/internal/monitoring/analytics"
	"card-assistant/internal/monitoring/observability"
	"card-assistant/internal/workflows"
)

// Escalation reasons raised by the agent itself.
const (
	ReasonIdentityNotVerified  = "Unable to verify caller identity."
	ReasonVerificationRequired = "Intent requires verified identity."
)

// AuthenticationProvider decides whether the caller behind a conversation is
// authenticated. An error means the check itself could not be made.
type AuthenticationProvider interface {
	VerifyIdentity(ctx context.Context, conv *models.ConversationContext) (bool, error)
}

// AuthenticationFunc adapts a function to AuthenticationProvider.
type AuthenticationFunc func(ctx context.Context, conv *models.ConversationContext) (bool, error)

func (f AuthenticationFunc) VerifyIdentity(ctx context.Context, conv *models.ConversationContext) (bool, error) {
	return f(ctx, conv)
}

// Agent orchestrates turns. One Agent may serve many conversations
// concurrently, but turns of the same ConversationContext must be serialized
// by the caller.
type Agent struct {
	router    *workflows.Router
	sink      analytics.Sink
	auth      AuthenticationProvider
	config    Config
	builder   *observability.Builder
	telemetry *telemetry.Telemetry
	logger    logger.Logger
}

type Option func(*Agent)

func WithConfig(cfg Config) Option {
	return func(a *Agent) {
		if cfg.MaxTurns <= 0 {
			cfg.MaxTurns = DefaultMaxTurns
		}
		a.config = cfg
	}
}

// WithIDGenerator sets the source of trace and span ids.
func WithIDGenerator(ids observability.IDGenerator) Option {
	return func(a *Agent) { a.builder = observability.NewBuilder(ids) }
}

func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(a *Agent) { a.telemetry = t }
}

func WithLogger(l logger.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// New builds an agent. A nil sink is replaced by a fresh in-memory collector.
func New(router *workflows.Router, sink analytics.Sink, auth AuthenticationProvider, opts ...Option) *Agent {
	if sink == nil {
		sink = analytics.NewCollector()
	}
	a := &Agent{
		router:  router,
		sink:    sink,
		auth:    auth,
		config:  DefaultConfig(),
		builder: observability.NewBuilder(nil),
		logger:  logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.WithFields(map[string]interface{}{"component": "agent"})
	return a
}

// Create assembles an agent with a router holding handlers.
func Create(handlers []intents.Handler, sink analytics.Sink, auth AuthenticationProvider, opts ...Option) *Agent {
	return New(workflows.NewRouter(handlers...), sink, auth, opts...)
}

func (a *Agent) Config() Config { return a.config }

func (a *Agent) Router() *workflows.Router { return a.router }

// HandleTurn processes one turn. Escalation errors and handler errors are
// returned unchanged; callers detect escalations with errors.IsEscalation.
func (a *Agent) HandleTurn(ctx context.Context, req *models.IntentRequest, conv *models.ConversationContext) (*models.IntentResponse, error) {
	start := time.Now()
	metrics.TurnsActive.Inc()
	defer metrics.TurnsActive.Dec()

	ctx, span := a.telemetry.StartTurn(ctx, req.IntentName, conv.ClientID)
	resp, obs, err := a.handleTurn(ctx, req, conv)

	outcome := outcomeOf(err)
	duration := time.Since(start)
	telemetry.EndTurn(span, obs.TraceID, obs.SpanID, outcome, err)
	a.telemetry.RecordTurn(ctx, req.IntentName, outcome, duration)
	metrics.TurnsTotal.WithLabelValues(req.IntentName, outcome).Inc()
	metrics.TurnDuration.WithLabelValues(req.IntentName).Observe(duration.Seconds())

	fields := map[string]interface{}{
		"intent":     req.IntentName,
		"clientId":   conv.ClientID,
		"traceId":    obs.TraceID,
		"spanId":     obs.SpanID,
		"outcome":    outcome,
		"durationMs": duration.Milliseconds(),
	}
	switch outcome {
	case metrics.OutcomeCompleted:
		a.logger.Info("turn completed", fields)
	case metrics.OutcomeEscalated:
		fields["reason"] = err.Error()
		a.logger.Warn("turn escalated", fields)
	default:
		a.logger.WithError(err).Error("turn failed", fields)
	}

	return resp, err
}

func (a *Agent) handleTurn(ctx context.Context, req *models.IntentRequest, conv *models.ConversationContext) (*models.IntentResponse, observability.Context, error) {
	var obs observability.Context

	a.record("record_event", func() {
		a.sink.RecordEvent(models.EventTurnStart, conv, map[string]interface{}{"intent": req.IntentName})
	})

	if !conv.IsVerified && req.IntentName != intents.VerifyClient {
		ok, err := a.auth.VerifyIdentity(ctx, conv)
		if err != nil {
			return nil, obs, err
		}
		if !ok {
			a.record("record_event", func() {
				a.sink.RecordEvent(models.EventVerificationFailed, conv, nil)
			})
			return nil, obs, apperrors.NewEscalationRequired(ReasonIdentityNotVerified)
		}
		conv.IsVerified = true
	}

	obs = a.builder.FromContext(conv, req)
	a.record("bind_trace", func() { a.sink.BindTrace(obs.TraceID) })

	handler, err := a.router.Route(req.IntentName)
	if err != nil {
		return nil, obs, err
	}
	// Only reachable when the gate was skipped for verify_client.
	if handler.RequiresVerification() && !conv.IsVerified {
		return nil, obs, apperrors.NewEscalationRequired(ReasonVerificationRequired)
	}

	resp, err := handler.Handle(ctx, req, conv, obs)
	if err == nil && resp == nil {
		err = fmt.Errorf("handler %s returned no response", handler.Name())
	}
	if err != nil {
		meta := map[string]interface{}{"intent": req.IntentName}
		if apperrors.IsEscalation(err) {
			a.record("record_event", func() { a.sink.RecordEvent(models.EventEscalated, conv, meta) })
		} else {
			a.record("record_error", func() { a.sink.RecordError(err, conv, meta) })
		}
		return nil, obs, err
	}

	a.record("record_event", func() {
		a.sink.RecordEvent(models.EventTurnComplete, conv, map[string]interface{}{
			"intent":             req.IntentName,
			"response_type":      string(resp.ResponseType),
			"requires_follow_up": resp.RequiresFollowUp,
		})
	})

	return resp, obs, nil
}

// RunConversation plays requests as successive turns of conv. It stops before
// the first turn past MaxTurns, after a response that terminates the session,
// or at the first error, which is returned with the responses produced so far.
func (a *Agent) RunConversation(ctx context.Context, requests []*models.IntentRequest, conv *models.ConversationContext) ([]*models.IntentResponse, error) {
	responses := make([]*models.IntentResponse, 0, len(requests))

	for i, req := range requests {
		if turn := i + 1; turn > a.config.MaxTurns {
			a.record("record_event", func() {
				a.sink.RecordEvent(models.EventMaxTurnsExceeded, conv, nil)
			})
			a.logger.Warn("max turns exceeded", map[string]interface{}{
				"clientId": conv.ClientID,
				"maxTurns": a.config.MaxTurns,
				"pending":  len(requests) - i,
			})
			break
		}
		if err := ctx.Err(); err != nil {
			return responses, err
		}

		resp, err := a.HandleTurn(ctx, req, conv)
		if err != nil {
			return responses, err
		}
		responses = append(responses, resp)
		if resp.TerminateSession {
			break
		}
	}

	return responses, nil
}

// record shields the turn from a misbehaving sink.
func (a *Agent) record(op string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("analytics sink panicked", map[string]interface{}{
				"operation": op,
				"panic":     fmt.Sprint(r),
			})
		}
	}()
	fn()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeCompleted
	case apperrors.IsEscalation(err):
		return metrics.OutcomeEscalated
	default:
		return metrics.OutcomeFailed
	}
}
