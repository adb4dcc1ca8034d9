package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/crowdfunding-ledger/internal/config"
	"github.com/crowdfunding-ledger/internal/domain/shared"
)

// SettlementNotificationProducer writes SettlementNotification messages keyed by
// provider reference, so redeliveries of one donation land on one partition.
type SettlementNotificationProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

var _ NotificationPublisher = (*SettlementNotificationProducer)(nil)

func NewSettlementNotificationProducer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*SettlementNotificationProducer, error) {
	if cfg.SettlementTopic == "" {
		return nil, fmt.Errorf("kafka settlement topic is not configured")
	}
	if err := ensureTopic(logger, cfg, cfg.SettlementTopic); err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.SettlementTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.MaxWait,
	}
	return &SettlementNotificationProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.SettlementTopic,
	}, nil
}

// PublishNotification blocks until the broker acknowledges, so a 202 from the webhook
// endpoint means the notification is durable.
func (p *SettlementNotificationProducer) PublishNotification(ctx context.Context, n shared.SettlementNotification) error {
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement notification: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(n.ProviderReference),
		Value: value,
		Headers: []kafka.Header{
			{Key: "correlation-id", Value: []byte(n.CorrelationID)},
			{Key: "payment-method", Value: []byte(n.PaymentMethod)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish settlement notification",
			"topic", p.topic,
			"reference", n.ProviderReference,
			"correlation_id", n.CorrelationID,
			"error", err,
		)
		return fmt.Errorf("failed to publish settlement notification to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published settlement notification",
		"topic", p.topic,
		"reference", n.ProviderReference,
		"payment_method", n.PaymentMethod,
	)
	return nil
}

func (p *SettlementNotificationProducer) Close() error {
	p.logger.Info("Closing settlement notification producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
