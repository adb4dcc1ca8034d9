package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crowdfunding-ledger/internal/api_gateway/middleware"
	"github.com/crowdfunding-ledger/internal/api_gateway/service"
)

type CampaignHandler struct {
	campaigns service.CampaignService
	logger    *slog.Logger
}

func NewCampaignHandler(logger *slog.Logger, campaigns service.CampaignService) *CampaignHandler {
	return &CampaignHandler{
		campaigns: campaigns,
		logger:    logger,
	}
}

func (h *CampaignHandler) Create(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	goal, err := decimal.NewFromString(req.Goal)
	if err != nil {
		RespondBadRequest(c, "goal must be a decimal number")
		return
	}
	currency, err := parseCurrencyOrDefault(req.GoalCurrency)
	if err != nil {
		RespondError(c, err)
		return
	}

	view, err := h.campaigns.CreateCampaign(c.Request.Context(), service.CreateCampaignInput{
		Title:        req.Title,
		Description:  req.Description,
		Goal:         goal,
		GoalCurrency: currency,
	})
	if err != nil {
		h.logger.Error("Failed to create campaign", "error", err, "correlation_id", middleware.GetCorrelationID(c))
		RespondError(c, err)
		return
	}
	RespondCreated(c, mapCampaignToResponse(view))
}

func (h *CampaignHandler) List(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	views, total, err := h.campaigns.ListCampaigns(c.Request.Context(), pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list campaigns", "error", err)
		RespondError(c, err)
		return
	}

	campaigns := make([]CampaignResponse, 0, len(views))
	for _, v := range views {
		campaigns = append(campaigns, mapCampaignToResponse(v))
	}
	RespondWithPaginatedData(c, campaigns, pagination.Page, pagination.PerPage, int(total))
}

func (h *CampaignHandler) GetByID(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	view, err := h.campaigns.GetCampaign(c.Request.Context(), id)
	if err != nil {
		h.logger.Warn("Failed to get campaign", "campaign_id", id.String(), "error", err)
		RespondError(c, err)
		return
	}
	RespondOK(c, mapCampaignToResponse(view))
}

// Ledger returns the campaign's audit entries, newest first.
func (h *CampaignHandler) Ledger(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.campaigns.GetLedger(c.Request.Context(), id, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Warn("Failed to get campaign ledger", "campaign_id", id.String(), "error", err)
		RespondError(c, err)
		return
	}

	resp := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, mapLedgerEntryToResponse(e))
	}
	RespondWithPaginatedData(c, resp, pagination.Page, pagination.PerPage, int(total))
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondBadRequest(c, "Invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
