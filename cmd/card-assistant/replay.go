package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	apperrors "card-assistant/internal/common/errors"
	"card-assistant/internal/models"
	"card-assistant/internal/monitoring/observability"
)

// Scenario is one scripted conversation.
type Scenario struct {
	Name         string                  `yaml:"name"`
	ClientID     string                  `yaml:"client_id"`
	Channel      string                  `yaml:"channel"`
	Locale       string                  `yaml:"locale"`
	ActiveCardID string                  `yaml:"active_card_id"`
	Metadata     map[string]string       `yaml:"metadata"`
	Turns        []*models.IntentRequest `yaml:"turns"`
}

// Transcript is what replay prints for a scenario.
type Transcript struct {
	Scenario   string                   `json:"scenario"`
	ClientID   string                   `json:"clientId"`
	CaseID     string                   `json:"caseId,omitempty"`
	Verified   bool                     `json:"verified"`
	Responses  []*models.IntentResponse `json:"responses"`
	Escalation *models.IntentResponse   `json:"escalation,omitempty"`
	CaseNotes  []string                 `json:"caseNotes,omitempty"`
}

func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if sc.ClientID == "" {
		return nil, fmt.Errorf("scenario %s: client_id is required", path)
	}
	if sc.Name == "" {
		sc.Name = filepath.Base(path)
	}
	for i, turn := range sc.Turns {
		if turn == nil || turn.IntentName == "" {
			return nil, fmt.Errorf("scenario %s: turn %d has no intent", path, i+1)
		}
		sc.Turns[i] = models.NewIntentRequest(turn.IntentName, turn.Utterance, turn.Parameters)
	}
	return &sc, nil
}

func (sc *Scenario) conversation() *models.ConversationContext {
	conv := models.NewConversationContext(sc.ClientID, sc.Channel)
	if sc.Locale != "" {
		conv.Locale = sc.Locale
	}
	conv.ActiveCardID = sc.ActiveCardID
	for k, v := range sc.Metadata {
		conv.SetMetadata(k, v)
	}
	return conv
}

// replay runs every scenario as its own conversation, concurrently, and
// writes one JSON transcript per scenario in input order. The first
// non-escalation error cancels the remaining conversations.
func (a *application) replay(ctx context.Context, paths []string, out io.Writer) error {
	scenarios := make([]*Scenario, len(paths))
	for i, p := range paths {
		sc, err := loadScenario(p)
		if err != nil {
			return err
		}
		scenarios[i] = sc
	}

	transcripts := make([]*Transcript, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	for i, sc := range scenarios {
		g.Go(func() error {
			t, err := a.runScenario(gctx, sc)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", sc.Name, err)
			}
			transcripts[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	for _, t := range transcripts {
		if err := enc.Encode(t); err != nil {
			return err
		}
	}
	return nil
}

// runScenario hands agent-level escalations to the escalator; the
// conversation ends there.
func (a *application) runScenario(ctx context.Context, sc *Scenario) (*Transcript, error) {
	conv := sc.conversation()
	responses, err := a.agent.RunConversation(ctx, sc.Turns, conv)

	t := &Transcript{Scenario: sc.Name, ClientID: conv.ClientID, Responses: responses}
	if esc, ok := apperrors.AsEscalation(err); ok {
		failed := sc.Turns[len(responses)]
		obs := observability.Context{
			TraceID:  conv.GetMetadata(models.MetadataKeyTraceID, ""),
			ClientID: conv.ClientID,
			Intent:   failed.IntentName,
		}
		t.Escalation = a.escalator.Escalate(ctx, conv, failed.IntentName, esc.Reason, obs, "")
	} else if err != nil {
		return nil, err
	}

	t.CaseID = conv.CaseID
	t.Verified = conv.IsVerified
	t.CaseNotes = conv.CaseNotes
	return t, nil
}
