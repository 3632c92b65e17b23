package transactionapi

import (
	"context"
	"database/sql"
	"errors"

	apperrors "card-assistant/internal/common/errors"
	"card-assistant/internal/models"
)

const (
	listRecentQuery = `SELECT t.id, t.card_id, t.posted_at, t.merchant_name, t.amount_minor, t.currency, t.category
FROM card_transactions t
JOIN cards c ON c.id = t.card_id
WHERE c.client_id = $1 AND ($2 = '' OR t.card_id = $2)
ORDER BY t.posted_at DESC
LIMIT $3`

	getTransactionQuery = `SELECT t.id, t.card_id, t.posted_at, t.merchant_name, t.amount_minor, t.currency, t.category
FROM card_transactions t
JOIN cards c ON c.id = t.card_id
WHERE c.client_id = $1 AND t.id = $2`
)

// Postgres reads the card_transactions table, scoped to the client's cards.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var txn models.Transaction
	err := row.Scan(
		&txn.ID,
		&txn.CardID,
		&txn.PostedAt,
		&txn.MerchantName,
		&txn.Amount.Amount,
		&txn.Amount.Currency,
		&txn.Category,
	)
	return txn, err
}

func (p *Postgres) ListRecent(ctx context.Context, clientID, cardID string, limit int) ([]models.Transaction, error) {
	rows, err := p.db.QueryContext(ctx, listRecentQuery, clientID, cardID, limit)
	if err != nil {
		return nil, apperrors.NewTransactionLookupError("list_recent", err)
	}
	defer rows.Close()

	txns := make([]models.Transaction, 0, limit)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, apperrors.NewTransactionLookupError("list_recent", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewTransactionLookupError("list_recent", err)
	}
	return txns, nil
}

func (p *Postgres) GetTransaction(ctx context.Context, clientID, transactionID string) (*models.Transaction, error) {
	txn, err := scanTransaction(p.db.QueryRowContext(ctx, getTransactionQuery, clientID, transactionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewTransactionNotFoundError(transactionID)
	}
	if err != nil {
		return nil, apperrors.NewTransactionLookupError("get_transaction", err)
	}
	return &txn, nil
}
