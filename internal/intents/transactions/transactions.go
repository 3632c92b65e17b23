// Package transactions implements the transaction inquiry intents.
package transactions

import (
	"context"
	"fmt"

	apperrors "card-assistant/internal/common/errors"
	"card-assistant/internal/common/logger"
	"card-assistant/internal/integrations/knowledge"
	"card-assistant/internal/integrations/transactionapi"
	"card-assistant/internal/intents"
	"card-assistant/internal/models"
	"card-assistant/internal/monitoring/observability"
)

// RecentLimit is how many transactions list_recent_transactions returns.
const RecentLimit = 10

const (
	messageRecent = "Here are the last transactions on your card. Let me know if you need more detail on any of them."
	messageCharge = "This charge was processed by %s on %s for %s. Let me know if you would like to dispute it."
	chargeDate    = "02 Jan 2006"
)

// HighRiskCategories are flagged by the fraud check.
var HighRiskCategories = map[string]bool{
	"gambling":      true,
	"crypto":        true,
	"wire_transfer": true,
	"cash_advance":  true,
}

type handlerOptions struct {
	fraudChecks bool
	knowledge   knowledge.MerchantLookup
	validator   intents.ParamValidator
	logger      logger.Logger
}

type Option func(*handlerOptions)

// WithFraudChecks flags recent transactions in a high-risk category.
func WithFraudChecks(enabled bool) Option {
	return func(o *handlerOptions) { o.fraudChecks = enabled }
}

// WithKnowledge enriches explained charges with merchant information. A nil
// lookup disables enrichment.
func WithKnowledge(lookup knowledge.MerchantLookup) Option {
	return func(o *handlerOptions) { o.knowledge = lookup }
}

func WithValidator(v intents.ParamValidator) Option {
	return func(o *handlerOptions) { o.validator = v }
}

func WithLogger(l logger.Logger) Option {
	return func(o *handlerOptions) { o.logger = l }
}

func buildOptions(opts []Option) handlerOptions {
	o := handlerOptions{logger: logger.NewNoOpLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type ListRecentTransactionsHandler struct {
	api transactionapi.API
	handlerOptions
}

func NewListRecentTransactionsHandler(api transactionapi.API, opts ...Option) *ListRecentTransactionsHandler {
	return &ListRecentTransactionsHandler{api: api, handlerOptions: buildOptions(opts)}
}

func (h *ListRecentTransactionsHandler) Name() string { return intents.ListRecentTransactions }

func (h *ListRecentTransactionsHandler) RequiresVerification() bool { return true }

func (h *ListRecentTransactionsHandler) Handle(ctx context.Context, req *models.IntentRequest, conv *models.ConversationContext, obs observability.Context) (*models.IntentResponse, error) {
	cardID := intents.CardID(req, conv)
	txns, err := h.api.ListRecent(ctx, conv.ClientID, cardID, RecentLimit)
	if err != nil {
		return nil, err
	}

	summaries := make([]map[string]interface{}, 0, len(txns))
	for _, txn := range txns {
		summaries = append(summaries, txn.Summary())
	}
	data := map[string]interface{}{"transactions": summaries}

	if h.fraudChecks {
		flagged := flagHighRisk(txns)
		data["flagged"] = flagged
		if len(flagged) > 0 {
			h.logger.Warn("high-risk transactions flagged", map[string]interface{}{
				"clientId": conv.ClientID,
				"cardId":   cardID,
				"flagged":  flagged,
				"traceId":  obs.TraceID,
			})
		}
	}

	return &models.IntentResponse{
		Message:          messageRecent,
		ResponseType:     models.ResponseTypeTransactionList,
		Data:             data,
		RequiresFollowUp: true,
	}, nil
}

func flagHighRisk(txns []models.Transaction) []string {
	flagged := []string{}
	for _, txn := range txns {
		if HighRiskCategories[txn.Category] {
			flagged = append(flagged, txn.ID)
		}
	}
	return flagged
}

type ExplainChargeHandler struct {
	api transactionapi.API
	handlerOptions
}

func NewExplainChargeHandler(api transactionapi.API, opts ...Option) *ExplainChargeHandler {
	return &ExplainChargeHandler{api: api, handlerOptions: buildOptions(opts)}
}

func (h *ExplainChargeHandler) Name() string { return intents.ExplainCharge }

func (h *ExplainChargeHandler) RequiresVerification() bool { return true }

func (h *ExplainChargeHandler) validate(req *models.IntentRequest) error {
	if h.validator != nil {
		return h.validator.Validate(req.IntentName, req.Parameters)
	}
	if req.Param("transaction_id") == "" {
		return apperrors.NewInvalidParametersError(req.IntentName, []string{"transaction_id: transaction_id is required"})
	}
	return nil
}

func (h *ExplainChargeHandler) Handle(ctx context.Context, req *models.IntentRequest, conv *models.ConversationContext, obs observability.Context) (*models.IntentResponse, error) {
	if err := h.validate(req); err != nil {
		return nil, err
	}

	txn, err := h.api.GetTransaction(ctx, conv.ClientID, req.Param("transaction_id"))
	if err != nil {
		return nil, err
	}

	data := map[string]interface{}{"transaction": txn.Summary()}
	if info := h.lookupMerchant(ctx, txn.MerchantName, obs); info != nil {
		data["merchant_info"] = info
	}

	return &models.IntentResponse{
		Message:          fmt.Sprintf(messageCharge, txn.MerchantName, txn.PostedAt.Format(chargeDate), txn.Amount.Display()),
		ResponseType:     models.ResponseTypeText,
		Data:             data,
		RequiresFollowUp: true,
	}, nil
}

// lookupMerchant never fails the turn; the explanation stands without it.
func (h *ExplainChargeHandler) lookupMerchant(ctx context.Context, merchant string, obs observability.Context) *knowledge.MerchantInfo {
	if h.knowledge == nil {
		return nil
	}
	info, err := h.knowledge.LookupMerchant(ctx, merchant)
	if err != nil {
		h.logger.Warn("merchant lookup failed", map[string]interface{}{
			"merchant": merchant,
			"error":    err.Error(),
			"traceId":  obs.TraceID,
		})
		return nil
	}
	return info
}
