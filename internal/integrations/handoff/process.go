package handoff

import (
	"context"
	"fmt"

	"card-assistant/internal/common/logger"
	"card-assistant/internal/models"
)

// ProcessStarter is satisfied by *camunda.Client.
type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables interface{}) (int64, error)
}

// ProcessLauncher starts the support-desk BPMN process for every ticket.
type ProcessLauncher struct {
	starter   ProcessStarter
	processID string
	logger    logger.Logger
}

func NewProcessLauncher(starter ProcessStarter, processID string, log logger.Logger) *ProcessLauncher {
	return &ProcessLauncher{starter: starter, processID: processID, logger: log}
}

func (p *ProcessLauncher) Name() string { return "zeebe" }

func (p *ProcessLauncher) Dispatch(ctx context.Context, ticket *models.EscalationTicket) error {
	key, err := p.starter.StartProcess(ctx, p.processID, variables(ticket))
	if err != nil {
		return fmt.Errorf("start process %s: %w", p.processID, err)
	}
	p.logger.Info("handoff process started", map[string]interface{}{
		"caseId":             ticket.CaseID,
		"processId":          p.processID,
		"processInstanceKey": key,
	})
	return nil
}
