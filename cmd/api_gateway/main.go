package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/crowdfunding-ledger/internal/api_gateway"
	"github.com/crowdfunding-ledger/internal/api_gateway/service"
	"github.com/crowdfunding-ledger/internal/config"
	"github.com/crowdfunding-ledger/internal/data/mongo"
	"github.com/crowdfunding-ledger/internal/data/postgres"
	"github.com/crowdfunding-ledger/internal/funds/components"
	"github.com/crowdfunding-ledger/internal/logger"
	"github.com/crowdfunding-ledger/internal/platform/exchangerate"
	"github.com/crowdfunding-ledger/internal/platform/messaging/producers"
	"github.com/crowdfunding-ledger/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(cfg)

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

	ledgerRepo := mongo.NewLedgerRepository(log, mongoDB.Database())
	if err := ledgerRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to ensure ledger indexes", "error", err)
		os.Exit(1)
	}
	campaignRepo := postgres.NewCampaignRepository(log, postgresDB)
	donationRepo := postgres.NewTransactionRepository(log, postgresDB)

	notificationProducer, err := producers.NewSettlementNotificationProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize settlement notification producer", "error", err)
		os.Exit(1)
	}

	rates := exchangerate.NewClient(log.With("component", "exchange_rate"), &cfg.ExchangeRate)
	providers, err := components.NewProviderRegistry(appCtx, log, &cfg.Payments, postgres.NewTelebirrWalletRepository(log, postgresDB))
	if err != nil {
		log.Error("Failed to initialize payment providers", "error", err)
		os.Exit(1)
	}

	funds, err := components.CreateServices(components.Dependencies{
		DB:          postgresDB,
		Campaigns:   campaignRepo,
		Donations:   donationRepo,
		Withdrawals: postgres.NewWithdrawalRepository(log, postgresDB),
		Outbox:      postgres.NewOutboxRepository(log, postgresDB),
		Ledger:      ledgerRepo,
		Rates:       rates,
		Providers:   providers,
	}, log, cfg)
	if err != nil {
		log.Error("Failed to create balance services", "error", err)
		os.Exit(1)
	}

	server := api_gateway.NewServer(log, cfg, api_gateway.Services{
		Campaigns:     service.NewCampaignService(log, campaignRepo, ledgerRepo, rates, decimal.NewFromFloat(cfg.ExchangeRate.FallbackUSDETB)),
		Donations:     service.NewDonationService(log, campaignRepo, donationRepo, providers),
		Notifications: service.NewNotificationService(log, notificationProducer),
		Settlements:   funds.Settlement,
		Withdrawals:   funds.Withdrawals,
		Batch:         funds.Batch,
	})

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case serverErr = <-errChan:
		log.Error("Server error occurred", "error", serverErr)
	}
	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown")
	failed := serverErr != nil

	// stop accepting requests before the pool and the stores go away
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
		failed = true
	}
	funds.Batch.Shutdown()
	if err := notificationProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
		failed = true
	}
	postgresDB.Close()
	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		failed = true
	}

	if failed {
		log.Error("API gateway shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("API gateway shutdown completed")
}
