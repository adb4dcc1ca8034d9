package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/crowdfunding-ledger/internal/config"
	"github.com/crowdfunding-ledger/internal/data/mongo"
	"github.com/crowdfunding-ledger/internal/data/postgres"
	"github.com/crowdfunding-ledger/internal/funds/components"
	"github.com/crowdfunding-ledger/internal/logger"
	"github.com/crowdfunding-ledger/internal/platform/exchangerate"
	"github.com/crowdfunding-ledger/internal/platform/messaging/consumers"
	"github.com/crowdfunding-ledger/internal/platform/messaging/producers"
	"github.com/crowdfunding-ledger/internal/platform/metrics"
	"github.com/crowdfunding-ledger/internal/platform/persistence"
	"github.com/crowdfunding-ledger/internal/settlement_processor/consumer"
	"github.com/crowdfunding-ledger/internal/settlement_processor/outbox_poller"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("settlement_processor")
	if err != nil {
		// logger is not initialized yet
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(cfg)

	log.Info("Starting settlement processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}
	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	ledgerRepo := mongo.NewLedgerRepository(log, mongoDB.Database())
	if err := ledgerRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to ensure ledger indexes", "error", err)
		os.Exit(1)
	}

	providers, err := components.NewProviderRegistry(appCtx, log, &cfg.Payments, postgres.NewTelebirrWalletRepository(log, postgresDB))
	if err != nil {
		log.Error("Failed to initialize payment providers", "error", err)
		os.Exit(1)
	}
	funds, err := components.CreateServices(components.Dependencies{
		DB:          postgresDB,
		Campaigns:   postgres.NewCampaignRepository(log, postgresDB),
		Donations:   postgres.NewTransactionRepository(log, postgresDB),
		Withdrawals: postgres.NewWithdrawalRepository(log, postgresDB),
		Outbox:      outboxRepo,
		Ledger:      ledgerRepo,
		Rates:       exchangerate.NewClient(log.With("component", "exchange_rate"), &cfg.ExchangeRate),
		Providers:   providers,
	}, log, cfg)
	if err != nil {
		log.Error("Failed to create balance services", "error", err)
		os.Exit(1)
	}

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ producer", "error", err)
		os.Exit(1)
	}
	handler := consumer.NewNotificationHandler(log.With("component", "notification_handler"), funds.Settlement, dlqProducer)
	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka)

	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		outboxRepo,
		outbox_poller.NewLedgerPublisher(outboxRepo, ledgerRepo, log),
		log,
	)

	if err := kafkaConsumer.Subscribe(appCtx, handler.HandleMessage); err != nil {
		log.Error("Failed to subscribe to settlement notifications", "error", err)
		os.Exit(1)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting outbox poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// the processor has no API; it only serves probes and its collectors
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	metricsServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     mux,
		ReadTimeout: cfg.Server.ReadTimeout,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	log.Info("Shutdown signal received")
	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	stopped := make(chan struct{})
	go func() {
		wg.Wait()
		<-kafkaConsumer.Done()
		close(stopped)
	}()
	select {
	case <-stopped:
		log.Info("Consumer and poller stopped")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	failed := false
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping metrics server", "error", err)
		failed = true
	}
	funds.Batch.Shutdown()
	if err := dlqProducer.Close(); err != nil {
		log.Error("Error closing DLQ producer", "error", err)
		failed = true
	}
	if err := kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
		failed = true
	}
	postgresDB.Close()
	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		failed = true
	}

	if failed {
		log.Error("Settlement processor shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Settlement processor shutdown completed")
}
