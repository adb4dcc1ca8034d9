package components

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/crowdfunding-ledger/internal/config"
	"github.com/crowdfunding-ledger/internal/domain/campaign"
	"github.com/crowdfunding-ledger/internal/domain/donation"
	"github.com/crowdfunding-ledger/internal/domain/ledger"
	"github.com/crowdfunding-ledger/internal/domain/outbox"
	"github.com/crowdfunding-ledger/internal/domain/withdrawal"
	"github.com/crowdfunding-ledger/internal/funds/service"
	"github.com/crowdfunding-ledger/internal/platform/exchangerate"
	"github.com/crowdfunding-ledger/internal/platform/persistence"
)

// Dependencies are the stores and clients the balance engine is assembled from.
type Dependencies struct {
	DB          persistence.TxRunner
	Campaigns   campaign.Repository
	Donations   donation.Repository
	Withdrawals withdrawal.Repository
	Outbox      outbox.Repository
	Ledger      ledger.Repository
	Rates       exchangerate.Provider
	Providers   service.ProviderRegistry
}

type Services struct {
	Settlement  service.SettlementService
	Withdrawals service.WithdrawalService
	Batch       *service.BatchResolver
}

// CreateServices wires the engine's components. Both services share one campaign
// manager, so credits and debits go through the same lock path.
func CreateServices(deps Dependencies, logger *slog.Logger, cfg *config.Config) (*Services, error) {
	campaignManager := NewCampaignManager(deps.Campaigns, logger.With("component", "campaign_manager"))
	outboxManager := NewOutboxManager(deps.Outbox, logger.With("component", "outbox_manager"))
	failureRecorder := NewFailureRecorder(deps.Ledger, logger.With("component", "failure_recorder"))

	settlement := service.NewSettlementService(
		deps.DB,
		deps.Donations,
		deps.Providers,
		campaignManager,
		outboxManager,
		failureRecorder,
		logger.With("component", "settlement_service"),
	)

	withdrawals := service.NewWithdrawalService(
		deps.DB,
		deps.Campaigns,
		deps.Withdrawals,
		deps.Rates,
		decimal.NewFromFloat(cfg.ExchangeRate.FallbackUSDETB),
		deps.Providers,
		campaignManager,
		outboxManager,
		failureRecorder,
		logger.With("component", "withdrawal_service"),
	)

	batch, err := service.NewBatchResolver(
		withdrawals,
		service.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		return nil, err
	}
	logger.Info("Created withdrawal worker pool", "pool_size", cfg.WorkerPool.Size)

	return &Services{
		Settlement:  settlement,
		Withdrawals: withdrawals,
		Batch:       batch,
	}, nil
}
