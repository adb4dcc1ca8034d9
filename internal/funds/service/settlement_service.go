package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/crowdfunding-ledger/internal/domain/donation"
	"github.com/crowdfunding-ledger/internal/domain/ledger"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/crowdfunding-ledger/internal/platform/metrics"
	"github.com/crowdfunding-ledger/internal/platform/persistence"
)

type SettlementServiceImpl struct {
	db              persistence.TxRunner
	donations       donation.Repository
	providers       ProviderRegistry
	campaignManager CampaignManager
	outboxManager   OutboxManager
	failureRecorder FailureRecorder
	logger          *slog.Logger
}

func NewSettlementService(
	db persistence.TxRunner,
	donations donation.Repository,
	providers ProviderRegistry,
	campaignManager CampaignManager,
	outboxManager OutboxManager,
	failureRecorder FailureRecorder,
	logger *slog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		db:              db,
		donations:       donations,
		providers:       providers,
		campaignManager: campaignManager,
		outboxManager:   outboxManager,
		failureRecorder: failureRecorder,
		logger:          logger,
	}
}

var _ SettlementService = (*SettlementServiceImpl)(nil)

// ConfirmSettlement moves a donation from pending to completed once its provider
// verifies it. The provider call happens before any lock is taken; the completed flag
// is checked again under the transaction row lock, so a redelivered notification
// never credits twice.
func (s *SettlementServiceImpl) ConfirmSettlement(ctx context.Context, reference, correlationID string) (*SettlementResult, error) {
	logger := s.logger.With("reference", reference)
	if correlationID != "" {
		logger = logger.With("correlation_id", correlationID)
	}

	record, err := s.donations.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, donation.ErrTransactionNotFound{}) {
			logger.Warn("Settlement for unknown transaction")
		}
		return nil, err
	}
	method := string(record.PaymentMethod)
	if record.Completed {
		logger.Info("Transaction already completed, skipping")
		metrics.SettlementsProcessed.WithLabelValues(method, "already_processed").Inc()
		return &SettlementResult{Transaction: record, AlreadyProcessed: true}, nil
	}

	provider, err := s.providers.Get(record.PaymentMethod)
	if err != nil {
		return nil, err
	}

	settlement, err := provider.Verify(ctx, reference)
	if err != nil {
		if errors.Is(err, shared.ErrProviderRejected) {
			// A concurrent confirmation may have completed the transaction, after which the
			// provider refuses a second capture.
			if current, rerr := s.donations.GetByReference(ctx, reference); rerr == nil && current.Completed {
				logger.Info("Transaction completed concurrently, ignoring provider rejection", "payment_method", method)
				metrics.SettlementsProcessed.WithLabelValues(method, "already_processed").Inc()
				return &SettlementResult{Transaction: current, AlreadyProcessed: true}, nil
			}
			logger.Warn("Provider rejected settlement", "payment_method", method, "error", err)
			metrics.SettlementsProcessed.WithLabelValues(method, "rejected").Inc()
			s.recordRejection(ctx, logger, record, correlationID, err)
			return nil, err
		}
		logger.Error("Provider verification failed", "payment_method", method, "error", err)
		metrics.SettlementsProcessed.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("failed to verify %s with %s: %w", reference, method, err)
	}

	amount := record.Amount
	if settlement != nil && settlement.Amount.IsPositive() {
		amount = shared.Quantize(settlement.Amount)
	}

	result := &SettlementResult{Credited: amount}
	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		locked, err := s.donations.WithTx(tx).LockByReference(ctx, reference)
		if err != nil {
			return err
		}
		if err := locked.Complete(); err != nil {
			result.Transaction = locked
			result.AlreadyProcessed = true
			return nil
		}
		if err := s.donations.WithTx(tx).MarkCompleted(ctx, locked); err != nil {
			return err
		}

		credited, err := s.campaignManager.LockAndCredit(ctx, tx, locked.CampaignID, locked.Currency(), amount)
		if err != nil {
			return err
		}

		birr, usd := decimal.Zero, decimal.Zero
		if locked.Currency() == shared.CurrencyUSD {
			usd = amount
		} else {
			birr = amount
		}
		entry := ledger.NewEntry(credited.ID, shared.EntryKindDonationCredit, birr, usd, reference, correlationID)
		if err := s.outboxManager.CreateOutboxEntry(ctx, tx, entry); err != nil {
			return err
		}

		result.Transaction = locked
		result.Campaign = credited
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrAlreadyProcessed) {
			metrics.SettlementsProcessed.WithLabelValues(method, "already_processed").Inc()
			return &SettlementResult{Transaction: record, AlreadyProcessed: true}, nil
		}
		logger.Error("Failed to apply settlement", "error", err)
		metrics.SettlementsProcessed.WithLabelValues(method, "error").Inc()
		return nil, err
	}

	if result.AlreadyProcessed {
		logger.Info("Transaction completed concurrently, skipping")
		metrics.SettlementsProcessed.WithLabelValues(method, "already_processed").Inc()
		return result, nil
	}

	logger.Info("Donation settled",
		"campaign_id", result.Campaign.ID.String(),
		"payment_method", method,
		"amount", amount.StringFixed(2),
		"total_birr", result.Campaign.TotalBirr.StringFixed(2),
		"total_usd", result.Campaign.TotalUSD.StringFixed(2),
	)
	metrics.SettlementsProcessed.WithLabelValues(method, "credited").Inc()
	return result, nil
}

func (s *SettlementServiceImpl) recordRejection(ctx context.Context, logger *slog.Logger, record *donation.Transaction, correlationID string, cause error) {
	birr, usd := decimal.Zero, decimal.Zero
	if record.Currency() == shared.CurrencyUSD {
		usd = record.Amount
	} else {
		birr = record.Amount
	}
	entry := ledger.NewEntry(record.CampaignID, shared.EntryKindSettlementRejected, birr, usd, record.Reference, correlationID)
	entry.Fail(shared.FailureReasonProviderRejected, cause.Error())
	if err := s.failureRecorder.RecordFailure(ctx, entry); err != nil {
		logger.Error("Failed to record settlement rejection", "error", err)
	}
}

