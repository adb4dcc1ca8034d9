package handler

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crowdfunding-ledger/internal/api_gateway/middleware"
	"github.com/crowdfunding-ledger/internal/api_gateway/service"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	funds "github.com/crowdfunding-ledger/internal/funds/service"
)

// DonationHandler starts donations and takes the synchronous settlement callbacks.
type DonationHandler struct {
	donations   service.DonationService
	settlements funds.SettlementService
	logger      *slog.Logger
}

func NewDonationHandler(logger *slog.Logger, donations service.DonationService, settlements funds.SettlementService) *DonationHandler {
	return &DonationHandler{
		donations:   donations,
		settlements: settlements,
		logger:      logger,
	}
}

func (h *DonationHandler) Initiate(c *gin.Context) {
	var req CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "amount must be a decimal number")
		return
	}
	method, err := shared.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		RespondError(c, err)
		return
	}

	receipt, err := h.donations.InitiateDonation(c.Request.Context(), service.DonationInput{
		CampaignID:    uuid.MustParse(req.CampaignID),
		Amount:        amount,
		PaymentMethod: method,
		DonorPhone:    req.DonorPhone,
		DonorEmail:    req.DonorEmail,
	})
	if err != nil {
		h.logger.Warn("Failed to initiate donation",
			"campaign_id", req.CampaignID,
			"payment_method", method,
			"correlation_id", middleware.GetCorrelationID(c),
			"error", err,
		)
		RespondError(c, err)
		return
	}
	RespondCreated(c, mapDonationToResponse(receipt))
}

// PayPalReturn handles the donor coming back from the PayPal approval page. PayPal
// appends the order id as ?token=.
func (h *DonationHandler) PayPalReturn(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		RespondBadRequest(c, "token query parameter is required")
		return
	}
	h.confirm(c, token)
}

// ListByCampaign returns the campaign's donations, newest first, pending ones included.
func (h *DonationHandler) ListByCampaign(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	txs, total, err := h.donations.ListDonations(c.Request.Context(), id, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Warn("Failed to list campaign donations", "campaign_id", id.String(), "error", err)
		RespondError(c, err)
		return
	}

	resp := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, mapTransactionToResponse(tx))
	}
	RespondWithPaginatedData(c, resp, pagination.Page, pagination.PerPage, int(total))
}

// Callback confirms a donation by provider reference, whatever the payment method.
func (h *DonationHandler) Callback(c *gin.Context) {
	var req CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	reference := strings.TrimSpace(req.TransactionID)
	if reference == "" {
		RespondBadRequest(c, "transaction_id must not be blank")
		return
	}
	h.confirm(c, reference)
}

func (h *DonationHandler) confirm(c *gin.Context, reference string) {
	res, err := h.settlements.ConfirmSettlement(c.Request.Context(), reference, middleware.GetCorrelationID(c))
	if err != nil {
		h.logger.Warn("Settlement confirmation failed", "reference", reference, "error", err)
		RespondError(c, err)
		return
	}
	RespondOK(c, mapSettlementToResponse(res))
}
