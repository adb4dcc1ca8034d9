package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/crowdfunding-ledger/internal/api_gateway/middleware"
	"github.com/crowdfunding-ledger/internal/api_gateway/service"
	"github.com/crowdfunding-ledger/internal/domain/shared"
)

// WebhookHandler accepts provider notifications and queues them for the settlement
// processor. It never credits anything itself.
type WebhookHandler struct {
	notifications service.NotificationService
	logger        *slog.Logger
}

func NewWebhookHandler(logger *slog.Logger, notifications service.NotificationService) *WebhookHandler {
	return &WebhookHandler{
		notifications: notifications,
		logger:        logger,
	}
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	method, err := shared.ParsePaymentMethod(c.Param("provider"))
	if err != nil {
		RespondError(c, err)
		return
	}
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	n, err := h.notifications.AcceptNotification(c.Request.Context(), method, req.ProviderReference(), middleware.GetCorrelationID(c))
	if err != nil {
		h.logger.Error("Failed to queue provider notification", "payment_method", method, "error", err)
		RespondError(c, err)
		return
	}
	RespondAccepted(c, NotificationResponse{
		ProviderReference: n.ProviderReference,
		PaymentMethod:     string(n.PaymentMethod),
		Status:            "queued",
	})
}
