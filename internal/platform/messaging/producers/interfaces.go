package producers

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/crowdfunding-ledger/internal/domain/shared"
)

// NotificationPublisher forwards provider settlement notifications to the processor.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n shared.SettlementNotification) error
	Close() error
}

// DeadLetterPublisher parks messages the processor could not decode.
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter is the subset of *kafka.Writer the producers use.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
