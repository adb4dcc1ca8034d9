package handler

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crowdfunding-ledger/internal/api_gateway/middleware"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	funds "github.com/crowdfunding-ledger/internal/funds/service"
)

// BatchResolver resolves many withdrawal requests concurrently.
type BatchResolver interface {
	ApproveAll(ctx context.Context, ids []uuid.UUID, correlationID string) []funds.BatchOutcome
	RejectAll(ctx context.Context, ids []uuid.UUID, correlationID string) []funds.BatchOutcome
}

var _ BatchResolver = (*funds.BatchResolver)(nil)

type WithdrawalHandler struct {
	withdrawals funds.WithdrawalService
	batch       BatchResolver
	logger      *slog.Logger
}

func NewWithdrawalHandler(logger *slog.Logger, withdrawals funds.WithdrawalService, batch BatchResolver) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawals: withdrawals,
		batch:       batch,
		logger:      logger,
	}
}

func (h *WithdrawalHandler) Create(c *gin.Context) {
	var req CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount := decimal.Zero
	if !req.WithdrawAll {
		var err error
		if amount, err = decimal.NewFromString(req.Amount); err != nil {
			RespondBadRequest(c, "amount must be a decimal number unless withdraw_all is set")
			return
		}
	}
	convertTo, err := parseCurrencyOrDefault(req.ConvertTo)
	if err != nil {
		RespondError(c, err)
		return
	}
	method, err := shared.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		RespondError(c, err)
		return
	}

	created, err := h.withdrawals.RequestWithdrawal(c.Request.Context(), funds.RequestInput{
		CampaignID:    uuid.MustParse(req.CampaignID),
		Amount:        amount,
		ConvertTo:     convertTo,
		PaymentMethod: method,
		Recipient:     req.Recipient,
		WithdrawAll:   req.WithdrawAll,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		h.logger.Warn("Withdrawal request refused", "campaign_id", req.CampaignID, "error", err)
		RespondError(c, err)
		return
	}
	RespondCreated(c, mapWithdrawalToResponse(created))
}

func (h *WithdrawalHandler) GetByID(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	r, err := h.withdrawals.GetWithdrawal(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, mapWithdrawalToResponse(r))
}

func (h *WithdrawalHandler) ListByCampaign(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	requests, total, err := h.withdrawals.ListWithdrawals(c.Request.Context(), id, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Warn("Failed to list campaign withdrawals", "campaign_id", id.String(), "error", err)
		RespondError(c, err)
		return
	}

	resp := make([]WithdrawalResponse, 0, len(requests))
	for _, r := range requests {
		resp = append(resp, mapWithdrawalToResponse(r))
	}
	RespondWithPaginatedData(c, resp, pagination.Page, pagination.PerPage, int(total))
}

// ApproveBatch approves each id independently. The response is 200 even when some
// items failed; every item carries its own outcome.
func (h *WithdrawalHandler) ApproveBatch(c *gin.Context) {
	h.resolveBatch(c, "approve", h.batch.ApproveAll)
}

func (h *WithdrawalHandler) RejectBatch(c *gin.Context) {
	h.resolveBatch(c, "reject", h.batch.RejectAll)
}

func (h *WithdrawalHandler) resolveBatch(c *gin.Context, action string, resolve func(context.Context, []uuid.UUID, string) []funds.BatchOutcome) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		ids = append(ids, uuid.MustParse(raw))
	}

	outcomes := resolve(c.Request.Context(), ids, middleware.GetCorrelationID(c))

	resp := BatchResponse{Results: outcomes}
	for _, o := range outcomes {
		if o.ErrorCode != "" {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}
	h.logger.Info("Withdrawal batch resolved",
		"action", action,
		"requested", len(ids),
		"succeeded", resp.Succeeded,
		"failed", resp.Failed,
	)
	RespondOK(c, resp)
}
