package cardapi

import (
	"context"
	"database/sql"

	apperrors "card-assistant/internal/common/errors"
	"card-assistant/internal/common/logger"
	"card-assistant/internal/models"
)

const (
	freezeCardQuery   = `UPDATE cards SET status = $2, status_reason = $3, updated_at = NOW() WHERE id = $1`
	activateCardQuery = `UPDATE cards SET status = $2, activated_at = NOW(), updated_at = NOW() WHERE id = $1 AND status <> $3`
)

// Postgres keeps card state in the cards table.
type Postgres struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgres(db *sql.DB, log logger.Logger) *Postgres {
	return &Postgres{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "cardapi"}),
	}
}

func (p *Postgres) FreezeCard(ctx context.Context, cardID, reason string) (*models.CardOperationResult, error) {
	if cardID == "" {
		return refused(ReasonCardIDRequired), nil
	}

	res, err := p.db.ExecContext(ctx, freezeCardQuery, cardID, models.CardStatusFrozen, reason)
	if err != nil {
		return nil, apperrors.NewCardAPIFailedError("freeze_card", err)
	}
	if ok, err := affected(res); err != nil {
		return nil, apperrors.NewCardAPIFailedError("freeze_card", err)
	} else if !ok {
		return refused(ReasonCardNotFound), nil
	}

	ref := freezeReference(cardID, reason)
	p.logger.Info("card frozen", map[string]interface{}{"cardId": cardID, "reference": ref})
	return &models.CardOperationResult{Success: true, ReferenceID: ref}, nil
}

// ActivateCard refuses frozen cards; they must be replaced rather than reactivated.
func (p *Postgres) ActivateCard(ctx context.Context, cardID string) (*models.CardOperationResult, error) {
	if cardID == "" {
		return refused(ReasonCardIDRequired), nil
	}

	res, err := p.db.ExecContext(ctx, activateCardQuery, cardID, models.CardStatusActive, models.CardStatusFrozen)
	if err != nil {
		return nil, apperrors.NewCardAPIFailedError("activate_card", err)
	}
	if ok, err := affected(res); err != nil {
		return nil, apperrors.NewCardAPIFailedError("activate_card", err)
	} else if !ok {
		return refused(ReasonCardNotFound), nil
	}

	p.logger.Info("card activated", map[string]interface{}{"cardId": cardID})
	return &models.CardOperationResult{Success: true, ReferenceID: activationReference(cardID)}, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
