package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/crowdfunding-ledger/internal/platform/messaging/producers"
)

type NotificationServiceImpl struct {
	publisher producers.NotificationPublisher
	logger    *slog.Logger
}

func NewNotificationService(logger *slog.Logger, publisher producers.NotificationPublisher) NotificationService {
	return &NotificationServiceImpl{
		publisher: publisher,
		logger:    logger,
	}
}

// AcceptNotification publishes the notification and returns once Kafka has it. The
// notification carries no amount; the processor re-verifies with the provider.
func (s *NotificationServiceImpl) AcceptNotification(ctx context.Context, method shared.PaymentMethod, reference, correlationID string) (*shared.SettlementNotification, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, shared.NewValidationError("reference", "is required")
	}

	n := shared.SettlementNotification{
		ProviderReference: reference,
		PaymentMethod:     method,
		CorrelationID:     correlationID,
		ReceivedAt:        time.Now().UTC(),
	}
	if err := s.publisher.PublishNotification(ctx, n); err != nil {
		s.logger.Error("Failed to publish settlement notification", "reference", reference, "payment_method", method, "error", err)
		return nil, err
	}

	s.logger.Info("Settlement notification accepted", "reference", reference, "payment_method", method, "correlation_id", correlationID)
	return &n, nil
}
