package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/crowdfunding-ledger/internal/domain/campaign"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/crowdfunding-ledger/internal/domain/withdrawal"
	"github.com/crowdfunding-ledger/internal/funds/service"
)

// CampaignManagerImpl implements service.CampaignManager on top of the campaign
// repository's row lock.
type CampaignManagerImpl struct {
	campaignRepo campaign.Repository
	logger       *slog.Logger
}

func NewCampaignManager(campaignRepo campaign.Repository, logger *slog.Logger) service.CampaignManager {
	return &CampaignManagerImpl{
		campaignRepo: campaignRepo,
		logger:       logger,
	}
}

func (m *CampaignManagerImpl) lock(ctx context.Context, repo campaign.Repository, id uuid.UUID) (*campaign.Campaign, error) {
	locked, err := repo.LockForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, campaign.ErrCampaignNotFound{}) {
			m.logger.Warn("Campaign not found for lock", "campaign_id", id.String())
			return nil, err
		}
		return nil, fmt.Errorf("failed to lock campaign %s: %w", id.String(), err)
	}
	m.logger.Debug("Campaign locked",
		"campaign_id", id.String(),
		"total_birr", locked.TotalBirr.StringFixed(2),
		"total_usd", locked.TotalUSD.StringFixed(2),
		"version", locked.Version,
	)
	return locked, nil
}

// LockAndCredit adds amount to the pool for currency.
func (m *CampaignManagerImpl) LockAndCredit(ctx context.Context, tx pgx.Tx, campaignID uuid.UUID, currency shared.Currency, amount decimal.Decimal) (*campaign.Campaign, error) {
	repo := m.campaignRepo.WithTx(tx)
	locked, err := m.lock(ctx, repo, campaignID)
	if err != nil {
		return nil, err
	}

	if err := locked.Credit(currency, amount); err != nil {
		m.logger.Warn("Credit rejected", "campaign_id", campaignID.String(), "currency", currency, "amount", amount.String(), "error", err)
		return nil, err
	}
	if err := repo.UpdateBalances(ctx, locked); err != nil {
		m.logger.Error("Failed to persist credit", "campaign_id", campaignID.String(), "error", err)
		return nil, err
	}
	return locked, nil
}

// LockAndDebit plans against the balances read under lock so the feasibility check
// and the write-back see the same values.
func (m *CampaignManagerImpl) LockAndDebit(ctx context.Context, tx pgx.Tx, campaignID uuid.UUID, plan service.PlanFunc) (*campaign.Campaign, withdrawal.Plan, error) {
	repo := m.campaignRepo.WithTx(tx)
	locked, err := m.lock(ctx, repo, campaignID)
	if err != nil {
		return nil, withdrawal.Plan{}, err
	}

	p, err := plan(locked)
	if err != nil {
		return nil, p, err
	}
	if err := locked.Debit(p.DeductBirr(), p.DeductUSD()); err != nil {
		m.logger.Error("Plan does not fit locked balances",
			"campaign_id", campaignID.String(),
			"deduct_birr", p.DeductBirr().StringFixed(2),
			"deduct_usd", p.DeductUSD().StringFixed(2),
			"error", err,
		)
		return nil, p, shared.InsufficientFundsError{Requested: p.Requested, Available: p.Available, Currency: p.Target}
	}
	if err := repo.UpdateBalances(ctx, locked); err != nil {
		m.logger.Error("Failed to persist debit", "campaign_id", campaignID.String(), "error", err)
		return nil, p, err
	}
	return locked, p, nil
}
