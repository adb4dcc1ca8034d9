package producers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/crowdfunding-ledger/internal/config"
)

const (
	topicLookupAttempts = 5
	topicLookupDelay    = 2 * time.Second
)

// topicAdmin is the part of *kafka.Conn used to inspect and create topics.
type topicAdmin interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}

func ensureTopic(logger *slog.Logger, cfg *config.KafkaConfig, topic string) error {
	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return fmt.Errorf("failed to dial kafka: %w", err)
	}
	defer conn.Close()

	if err := createTopicIfMissing(logger, conn, topic, cfg.NumPartitions, cfg.ReplicationFactor, topicLookupDelay); err != nil {
		return fmt.Errorf("failed to ensure topic %s exists: %w", topic, err)
	}
	return nil
}

// createTopicIfMissing looks the topic up a few times, since a fresh broker may not
// answer metadata requests yet, and creates it when no partitions were found.
func createTopicIfMissing(logger *slog.Logger, admin topicAdmin, topic string, partitions, replication int, delay time.Duration) error {
	var lastErr error
	for attempt := 1; attempt <= topicLookupAttempts; attempt++ {
		found, err := admin.ReadPartitions(topic)
		if err == nil && len(found) > 0 {
			logger.Info("Kafka topic exists", "topic", topic, "partitions", len(found))
			return nil
		}
		lastErr = err
		if err == nil {
			break
		}
		logger.Warn("Failed to read topic partitions", "topic", topic, "attempt", attempt, "error", err)
		time.Sleep(delay)
	}

	if partitions <= 0 {
		partitions = 1
	}
	if replication <= 0 {
		replication = 1
	}
	logger.Info("Creating Kafka topic", "topic", topic, "partitions", partitions, "replication_factor", replication, "last_lookup_error", lastErr)
	if err := admin.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: replication,
	}); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic, err)
	}
	return nil
}
