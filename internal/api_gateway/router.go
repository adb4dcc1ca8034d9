package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crowdfunding-ledger/internal/api_gateway/handler"
	"github.com/crowdfunding-ledger/internal/api_gateway/middleware"
	"github.com/crowdfunding-ledger/internal/platform/metrics"
)

type handlers struct {
	campaigns   *handler.CampaignHandler
	donations   *handler.DonationHandler
	webhooks    *handler.WebhookHandler
	withdrawals *handler.WithdrawalHandler
}

func setupRouter(logger *slog.Logger, r *gin.Engine, h handlers) {
	// CorrelationID runs first so the logger and recovery see the id.
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger, "/health", "/metrics"))
	r.Use(middleware.Metrics())

	v1 := r.Group("/api/v1")
	{
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", h.campaigns.Create)
			campaigns.GET("", h.campaigns.List)
			campaigns.GET("/:id", h.campaigns.GetByID)
			campaigns.GET("/:id/ledger", h.campaigns.Ledger)
			campaigns.GET("/:id/donations", h.donations.ListByCampaign)
			campaigns.GET("/:id/withdrawals", h.withdrawals.ListByCampaign)
		}

		v1.POST("/donations", h.donations.Initiate)
		v1.GET("/callbacks/paypal", h.donations.PayPalReturn)
		v1.POST("/callbacks", h.donations.Callback)
		v1.POST("/webhooks/:provider", h.webhooks.Receive)

		withdrawals := v1.Group("/withdrawals")
		{
			withdrawals.POST("", h.withdrawals.Create)
			withdrawals.GET("/:id", h.withdrawals.GetByID)
		}

		admin := v1.Group("/admin/withdrawals")
		{
			admin.POST("/approve", h.withdrawals.ApproveBatch)
			admin.POST("/reject", h.withdrawals.RejectBatch)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}
