// Package config holds the settings shared by the api gateway and the settlement
// processor: HTTP server, Postgres, MongoDB, Kafka, the outbox poller, the exchange
// rate client and the payment provider credentials.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config is the validated configuration of a running service.
type Config struct {
	Application  ApplicationConfig
	Logging      LoggingConfig
	Server       ServerConfig
	Kafka        KafkaConfig
	Postgres     PostgresConfig
	MongoDB      MongoDBConfig
	Outbox       OutboxConfig
	WorkerPool   WorkerPoolConfig
	ExchangeRate ExchangeRateConfig
	Payments     PaymentsConfig
}

type ApplicationConfig struct {
	Env  string
	Name string
}

type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// KafkaConfig describes the settlement notification topic and its consumer group.
type KafkaConfig struct {
	Brokers           string
	SettlementTopic   string
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string
}

type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// OutboxConfig tunes the poller that copies ledger events to MongoDB.
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

// WorkerPoolConfig bounds concurrent withdrawal resolutions in a batch.
type WorkerPoolConfig struct {
	Size int
}

// ExchangeRateConfig configures the remote rate source and the static fallback table
// used when it cannot be reached.
type ExchangeRateConfig struct {
	BaseURL        string
	APIKey         string // empty means "always use fallback"
	MaxAttempts    int
	RetryDelay     time.Duration
	RequestTimeout time.Duration
	FallbackUSDETB float64
	FallbackETBUSD float64
}

// PaymentsConfig carries provider endpoints and credentials.
type PaymentsConfig struct {
	PayPalBaseURL      string
	PayPalClientID     string
	PayPalClientSecret string
	PayPalReturnURL    string
	PayPalCancelURL    string

	ChapaBaseURL     string
	ChapaSecretKey   string
	ChapaCallbackURL string

	// TelebirrWallets seeds the simulated wallet directory, "phone:balance" pairs
	// separated by commas.
	TelebirrWallets string
	RequestTimeout  time.Duration
}

// validate collects every violation instead of stopping at the first one.
func (c *Config) validate() error {
	var problems []string
	require := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	require(c.Server.Port > 0, "SERVER_PORT must be greater than 0")
	require(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	require(c.Server.ReadTimeout > 0, "SERVER_READ_TIMEOUT must be greater than 0")
	require(c.Server.WriteTimeout > 0, "SERVER_WRITE_TIMEOUT must be greater than 0")
	require(c.Server.IdleTimeout > 0, "SERVER_IDLE_TIMEOUT must be greater than 0")

	require(c.Kafka.Brokers != "", "KAFKA_BROKERS is required")
	require(c.Kafka.SettlementTopic != "", "KAFKA_SETTLEMENT_TOPIC is required")
	require(c.Kafka.ConsumerGroup != "", "KAFKA_CONSUMER_GROUP is required")
	require(c.Kafka.MinBytes > 0, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	require(c.Kafka.MaxBytes > 0, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	require(c.Kafka.MaxWait > 0, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	require(c.Kafka.DLQTopic != "", "KAFKA_DLQ_TOPIC is required")

	require(c.Postgres.URL != "", "POSTGRES_URL is required")
	require(c.Postgres.MaxConns > 0, "POSTGRES_MAX_CONNS must be greater than 0")
	require(c.Postgres.MinConns > 0, "POSTGRES_MIN_CONNS must be greater than 0")
	require(c.Postgres.ConnMaxLifetime > 0, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	require(c.Postgres.ConnMaxIdleTime > 0, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")

	require(c.MongoDB.URI != "", "MONGO_URI is required")
	require(c.MongoDB.Database != "", "MONGO_DATABASE is required")
	require(c.MongoDB.Timeout > 0, "MONGO_TIMEOUT must be greater than 0")
	require(c.MongoDB.MaxPoolSize > 0, "MONGO_MAX_POOL_SIZE must be greater than 0")
	require(c.MongoDB.MinPoolSize > 0, "MONGO_MIN_POOL_SIZE must be greater than 0")
	require(c.MongoDB.MaxConnIdleTime > 0, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")

	require(c.Outbox.PollingInterval > 0, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	require(c.Outbox.BatchSize > 0, "OUTBOX_BATCH_SIZE must be greater than 0")
	require(c.Outbox.MaxRetryAttempts > 0, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")

	require(c.WorkerPool.Size > 0, "WORKER_POOL_SIZE must be greater than 0")

	require(c.ExchangeRate.BaseURL != "", "EXCHANGE_RATE_BASE_URL is required")
	require(c.ExchangeRate.MaxAttempts > 0, "EXCHANGE_RATE_MAX_ATTEMPTS must be greater than 0")
	require(c.ExchangeRate.RetryDelay >= 0, "EXCHANGE_RATE_RETRY_DELAY must not be negative")
	require(c.ExchangeRate.RequestTimeout > 0, "EXCHANGE_RATE_REQUEST_TIMEOUT must be greater than 0")
	require(c.ExchangeRate.FallbackUSDETB > 0, "EXCHANGE_RATE_FALLBACK_USD_ETB must be greater than 0")
	require(c.ExchangeRate.FallbackETBUSD > 0, "EXCHANGE_RATE_FALLBACK_ETB_USD must be greater than 0")

	require(c.Payments.PayPalBaseURL != "", "PAYPAL_BASE_URL is required")
	require(c.Payments.ChapaBaseURL != "", "CHAPA_BASE_URL is required")
	require(c.Payments.RequestTimeout > 0, "PAYMENTS_REQUEST_TIMEOUT must be greater than 0")

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, ", "))
	}
	return nil
}
