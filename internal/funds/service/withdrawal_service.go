package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/crowdfunding-ledger/internal/domain/campaign"
	"github.com/crowdfunding-ledger/internal/domain/ledger"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/crowdfunding-ledger/internal/domain/withdrawal"
	"github.com/crowdfunding-ledger/internal/platform/exchangerate"
	"github.com/crowdfunding-ledger/internal/platform/metrics"
	"github.com/crowdfunding-ledger/internal/platform/persistence"
)

type WithdrawalServiceImpl struct {
	db          persistence.TxRunner
	campaigns   campaign.Repository
	withdrawals withdrawal.Repository
	rates       exchangerate.Provider
	// fallbackUSDToBirr answers when the rate lookup yields nothing usable.
	fallbackUSDToBirr decimal.Decimal
	providers         ProviderRegistry
	campaignManager   CampaignManager
	outboxManager     OutboxManager
	failureRecorder   FailureRecorder
	logger            *slog.Logger
}

func NewWithdrawalService(
	db persistence.TxRunner,
	campaigns campaign.Repository,
	withdrawals withdrawal.Repository,
	rates exchangerate.Provider,
	fallbackUSDToBirr decimal.Decimal,
	providers ProviderRegistry,
	campaignManager CampaignManager,
	outboxManager OutboxManager,
	failureRecorder FailureRecorder,
	logger *slog.Logger,
) *WithdrawalServiceImpl {
	return &WithdrawalServiceImpl{
		db:                db,
		campaigns:         campaigns,
		withdrawals:       withdrawals,
		rates:             rates,
		fallbackUSDToBirr: fallbackUSDToBirr,
		providers:         providers,
		campaignManager:   campaignManager,
		outboxManager:     outboxManager,
		failureRecorder:   failureRecorder,
		logger:            logger,
	}
}

var _ WithdrawalService = (*WithdrawalServiceImpl)(nil)

// usdToBirr fetches the one rate an operation uses in both directions.
func (s *WithdrawalServiceImpl) usdToBirr(ctx context.Context) decimal.Decimal {
	rate := s.rates.Rate(ctx, shared.CurrencyUSD, shared.CurrencyBirr)
	if !rate.IsPositive() {
		s.logger.Warn("Exchange rate unavailable, using configured fallback", "rate", s.fallbackUSDToBirr.String())
		return s.fallbackUSDToBirr
	}
	return rate
}

// RequestWithdrawal stores a pending request after checking that the campaign could
// cover it right now. The check is advisory; approval re-plans under the lock.
func (s *WithdrawalServiceImpl) RequestWithdrawal(ctx context.Context, in RequestInput) (*withdrawal.Request, error) {
	logger := s.logger.With("campaign_id", in.CampaignID.String())
	if in.CorrelationID != "" {
		logger = logger.With("correlation_id", in.CorrelationID)
	}

	req, err := withdrawal.NewRequest(in.CampaignID, in.Amount, in.ConvertTo, in.PaymentMethod, in.Recipient, in.WithdrawAll)
	if err != nil {
		return nil, err
	}
	if _, err := s.providers.Get(req.PaymentMethod); err != nil {
		return nil, err
	}

	c, err := s.campaigns.GetByID(ctx, in.CampaignID)
	if err != nil {
		return nil, err
	}
	if !c.HasFunds() {
		logger.Info("Withdrawal refused, campaign has no funds")
		return nil, shared.ErrNoFunds
	}

	if !req.WithdrawAll {
		rate := s.usdToBirr(ctx)
		balances := withdrawal.Balances{Birr: c.TotalBirr, USD: c.TotalUSD}
		if _, err := withdrawal.PlanDeduction(balances, req.RequestedAmount, req.ConvertTo, rate, false); err != nil {
			logger.Info("Withdrawal refused at request time", "requested", req.RequestedAmount.StringFixed(2), "error", err)
			return nil, err
		}
	}

	if err := s.withdrawals.Create(ctx, req); err != nil {
		return nil, err
	}
	logger.Info("Withdrawal requested",
		"withdrawal_id", req.ID.String(),
		"amount", req.RequestedAmount.StringFixed(2),
		"convert_to", req.ConvertTo,
		"withdraw_all", req.WithdrawAll,
		"payment_method", req.PaymentMethod,
	)
	return req, nil
}

func (s *WithdrawalServiceImpl) GetWithdrawal(ctx context.Context, id uuid.UUID) (*withdrawal.Request, error) {
	return s.withdrawals.GetByID(ctx, id)
}

// ListWithdrawals pages through the campaign's requests, newest first.
func (s *WithdrawalServiceImpl) ListWithdrawals(ctx context.Context, campaignID uuid.UUID, page, perPage int) ([]*withdrawal.Request, int64, error) {
	if _, err := s.campaigns.GetByID(ctx, campaignID); err != nil {
		return nil, 0, err
	}

	requests, err := s.withdrawals.ListByCampaign(ctx, campaignID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.withdrawals.CountByCampaign(ctx, campaignID)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// Approve debits the campaign and then pays the recipient. The rate is fetched before
// the lock is taken. Insufficient funds rolls everything back and leaves the request
// pending. A failed payout after commit is recorded but does not undo the debit.
func (s *WithdrawalServiceImpl) Approve(ctx context.Context, id uuid.UUID, correlationID string) (*ApprovalResult, error) {
	logger := s.logger.With("withdrawal_id", id.String())
	if correlationID != "" {
		logger = logger.With("correlation_id", correlationID)
	}

	current, err := s.withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.IsPending() {
		metrics.WithdrawalsResolved.WithLabelValues("already_processed").Inc()
		return &ApprovalResult{Request: current, AlreadyProcessed: true}, nil
	}
	provider, err := s.providers.Get(current.PaymentMethod)
	if err != nil {
		return nil, err
	}

	rate := s.usdToBirr(ctx)
	result := &ApprovalResult{}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.withdrawals.WithTx(tx)
		locked, err := repo.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !locked.IsPending() {
			result.Request = locked
			result.AlreadyProcessed = true
			return nil
		}

		debited, plan, err := s.campaignManager.LockAndDebit(ctx, tx, locked.CampaignID, func(c *campaign.Campaign) (withdrawal.Plan, error) {
			return withdrawal.PlanDeduction(
				withdrawal.Balances{Birr: c.TotalBirr, USD: c.TotalUSD},
				locked.RequestedAmount, locked.ConvertTo, rate, locked.WithdrawAll,
			)
		})
		if err != nil {
			return err
		}

		if err := locked.Approve(plan); err != nil {
			return err
		}
		if err := repo.Resolve(ctx, locked); err != nil {
			return err
		}

		entry := ledger.NewEntry(debited.ID, shared.EntryKindWithdrawalDebit, plan.DeductBirr(), plan.DeductUSD(), locked.ID.String(), correlationID)
		if err := s.outboxManager.CreateOutboxEntry(ctx, tx, entry); err != nil {
			return err
		}

		result.Request = locked
		result.Plan = plan
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrAlreadyProcessed):
			metrics.WithdrawalsResolved.WithLabelValues("already_processed").Inc()
			return &ApprovalResult{Request: current, AlreadyProcessed: true}, nil
		case errors.Is(err, shared.InsufficientFundsError{}), errors.Is(err, shared.ErrNoFunds):
			logger.Info("Withdrawal not approved, request stays pending", "error", err)
			metrics.WithdrawalsResolved.WithLabelValues("insufficient_funds").Inc()
		default:
			logger.Error("Failed to approve withdrawal", "error", err)
			metrics.WithdrawalsResolved.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	if result.AlreadyProcessed {
		metrics.WithdrawalsResolved.WithLabelValues("already_processed").Inc()
		return result, nil
	}

	metrics.WithdrawalsResolved.WithLabelValues("approved").Inc()
	logger.Info("Withdrawal approved",
		"campaign_id", result.Request.CampaignID.String(),
		"requested", result.Plan.Requested.StringFixed(2),
		"currency", result.Plan.Target,
		"deducted_birr", result.Plan.DeductBirr().StringFixed(2),
		"deducted_usd", result.Plan.DeductUSD().StringFixed(2),
		"rate", rate.String(),
	)

	amount, currency := result.Request.TransferAmount(rate)
	transfer, err := provider.Transfer(ctx, amount, currency, result.Request.Recipient)
	if err != nil {
		logger.Error("Transfer failed after approval",
			"payment_method", result.Request.PaymentMethod,
			"amount", amount.StringFixed(2),
			"currency", currency,
			"error", err,
		)
		metrics.TransferFailures.WithLabelValues(string(result.Request.PaymentMethod)).Inc()
		result.TransferErr = fmt.Errorf("%w: %v", shared.ErrTransferFailed, err)

		entry := ledger.NewEntry(result.Request.CampaignID, shared.EntryKindTransferFailed,
			result.Plan.DeductBirr(), result.Plan.DeductUSD(), result.Request.ID.String(), correlationID)
		entry.Fail(shared.FailureReasonTransferFailed, err.Error())
		if recErr := s.failureRecorder.RecordFailure(ctx, entry); recErr != nil {
			logger.Error("Failed to record transfer failure", "error", recErr)
		}
		return result, nil
	}

	result.Transfer = transfer
	logger.Info("Transfer completed", "transfer_reference", transfer.Reference, "amount", amount.StringFixed(2), "currency", currency)
	return result, nil
}

// Reject closes a pending request without touching balances.
func (s *WithdrawalServiceImpl) Reject(ctx context.Context, id uuid.UUID, correlationID string) (*RejectionResult, error) {
	logger := s.logger.With("withdrawal_id", id.String())
	if correlationID != "" {
		logger = logger.With("correlation_id", correlationID)
	}

	result := &RejectionResult{}
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.withdrawals.WithTx(tx)
		locked, err := repo.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		result.Request = locked
		if err := locked.Reject(); err != nil {
			result.AlreadyProcessed = true
			return nil
		}
		return repo.Resolve(ctx, locked)
	})
	if err != nil {
		if errors.Is(err, shared.ErrAlreadyProcessed) {
			metrics.WithdrawalsResolved.WithLabelValues("already_processed").Inc()
			return &RejectionResult{Request: result.Request, AlreadyProcessed: true}, nil
		}
		if !errors.Is(err, withdrawal.ErrRequestNotFound{}) {
			logger.Error("Failed to reject withdrawal", "error", err)
			metrics.WithdrawalsResolved.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	if result.AlreadyProcessed {
		metrics.WithdrawalsResolved.WithLabelValues("already_processed").Inc()
		return result, nil
	}
	metrics.WithdrawalsResolved.WithLabelValues("rejected").Inc()
	logger.Info("Withdrawal rejected", "campaign_id", result.Request.CampaignID.String())
	return result, nil
}
