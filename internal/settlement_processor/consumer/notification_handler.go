package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/crowdfunding-ledger/internal/domain/donation"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/crowdfunding-ledger/internal/funds/service"
	"github.com/crowdfunding-ledger/internal/platform/messaging/producers"
	"github.com/crowdfunding-ledger/internal/platform/metrics"
)

// NotificationHandler turns settlement notifications from Kafka into settlement
// confirmations. A nil return commits the offset.
type NotificationHandler struct {
	settlements service.SettlementService
	producer    producers.DeadLetterPublisher
	logger      *slog.Logger
}

func NewNotificationHandler(
	logger *slog.Logger,
	settlements service.SettlementService,
	producer producers.DeadLetterPublisher,
) *NotificationHandler {
	return &NotificationHandler{
		settlements: settlements,
		producer:    producer,
		logger:      logger,
	}
}

// HandleMessage confirms the settlement named by the message. Rejections, unknown
// references and invalid notifications are final and get committed; anything else is
// returned so the message is redelivered.
func (h *NotificationHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var n shared.SettlementNotification
	if err := json.Unmarshal(value, &n); err != nil {
		return h.park(ctx, key, value, "Failed to unmarshal settlement notification", err)
	}
	if strings.TrimSpace(n.ProviderReference) == "" {
		return h.park(ctx, key, value, "Settlement notification without provider reference", errors.New("provider_reference is required"))
	}

	logger := h.logger.With("reference", n.ProviderReference, "payment_method", n.PaymentMethod)
	if n.CorrelationID != "" {
		logger = logger.With("correlation_id", n.CorrelationID)
	}
	logger.Info("Received settlement notification")

	res, err := h.settlements.ConfirmSettlement(ctx, n.ProviderReference, n.CorrelationID)
	switch {
	case err == nil && res.AlreadyProcessed:
		metrics.NotificationsConsumed.WithLabelValues("already_processed").Inc()
		logger.Info("Settlement already applied")
		return nil
	case err == nil:
		metrics.NotificationsConsumed.WithLabelValues("credited").Inc()
		logger.Info("Settlement applied", "credited", res.Credited.StringFixed(2))
		return nil
	case errors.Is(err, shared.ErrProviderRejected):
		metrics.NotificationsConsumed.WithLabelValues("rejected").Inc()
		logger.Warn("Settlement rejected by provider", "error", err)
		return nil
	case errors.Is(err, donation.ErrTransactionNotFound{}):
		metrics.NotificationsConsumed.WithLabelValues("unknown_reference").Inc()
		logger.Warn("Settlement notification for unknown transaction")
		return nil
	case shared.IsValidation(err):
		metrics.NotificationsConsumed.WithLabelValues("invalid").Inc()
		logger.Warn("Settlement notification cannot be applied", "error", err)
		return nil
	default:
		metrics.NotificationsConsumed.WithLabelValues("retry").Inc()
		logger.Error("Failed to confirm settlement", "error", err)
		return fmt.Errorf("confirming settlement %s failed: %w", n.ProviderReference, err)
	}
}

// park moves an undecodable message to the DLQ. Without a DLQ the message is dropped,
// since redelivery can never decode it.
func (h *NotificationHandler) park(ctx context.Context, key, value []byte, msg string, cause error) error {
	h.logger.Error(msg, "error", cause, "message_key", string(key))
	metrics.NotificationsConsumed.WithLabelValues("dead_letter").Inc()

	if h.producer == nil {
		return nil
	}
	reason := fmt.Sprintf("%s: %s", msg, cause.Error())
	if err := h.producer.PublishToDLQ(ctx, string(key), value, reason); err != nil {
		if errors.Is(err, producers.ErrDLQDisabled) {
			h.logger.Warn("DLQ disabled, dropping message", "message_key", string(key))
			return nil
		}
		h.logger.Error("Failed to publish message to DLQ", "dlq_error", err, "message_key", string(key))
		return fmt.Errorf("failed to park message %q: %w", string(key), err)
	}
	h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", reason)
	return nil
}
