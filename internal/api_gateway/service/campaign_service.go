package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crowdfunding-ledger/internal/domain/campaign"
	"github.com/crowdfunding-ledger/internal/domain/ledger"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/crowdfunding-ledger/internal/platform/exchangerate"
)

type CampaignServiceImpl struct {
	campaignRepo      campaign.Repository
	ledgerRepo        ledger.Repository
	rates             exchangerate.Provider
	fallbackUSDToBirr decimal.Decimal
	logger            *slog.Logger
}

// NewCampaignService values campaigns at the looked-up USD rate, or at
// fallbackUSDToBirr when the lookup yields nothing usable.
func NewCampaignService(logger *slog.Logger, campaignRepo campaign.Repository, ledgerRepo ledger.Repository, rates exchangerate.Provider, fallbackUSDToBirr decimal.Decimal) CampaignService {
	return &CampaignServiceImpl{
		campaignRepo:      campaignRepo,
		ledgerRepo:        ledgerRepo,
		rates:             rates,
		fallbackUSDToBirr: fallbackUSDToBirr,
		logger:            logger,
	}
}

func (s *CampaignServiceImpl) CreateCampaign(ctx context.Context, in CreateCampaignInput) (*CampaignView, error) {
	if in.GoalCurrency == "" {
		in.GoalCurrency = shared.CurrencyBirr
	}
	c, err := campaign.NewCampaign(in.Title, in.Description, in.Goal, in.GoalCurrency)
	if err != nil {
		return nil, err
	}
	if err := s.campaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("Campaign created", "campaign_id", c.ID.String(), "goal", c.Goal.StringFixed(2), "goal_currency", c.GoalCurrency)
	return s.view(c, s.usdToBirr(ctx)), nil
}

func (s *CampaignServiceImpl) GetCampaign(ctx context.Context, id uuid.UUID) (*CampaignView, error) {
	c, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(c, s.usdToBirr(ctx)), nil
}

// ListCampaigns values every campaign on the page at the same rate.
func (s *CampaignServiceImpl) ListCampaigns(ctx context.Context, page, perPage int) ([]*CampaignView, int64, error) {
	campaigns, err := s.campaignRepo.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.campaignRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	rate := s.usdToBirr(ctx)
	views := make([]*CampaignView, 0, len(campaigns))
	for _, c := range campaigns {
		views = append(views, s.view(c, rate))
	}
	return views, total, nil
}

// GetLedger checks the campaign exists so an unknown id is a 404, not an empty page.
func (s *CampaignServiceImpl) GetLedger(ctx context.Context, campaignID uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error) {
	if _, err := s.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, 0, err
	}

	entries, err := s.ledgerRepo.GetByCampaignID(ctx, campaignID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.ledgerRepo.CountByCampaignID(ctx, campaignID)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (s *CampaignServiceImpl) usdToBirr(ctx context.Context) decimal.Decimal {
	rate := s.rates.Rate(ctx, shared.CurrencyUSD, shared.CurrencyBirr)
	if !rate.IsPositive() {
		return s.fallbackUSDToBirr
	}
	return rate
}

func (s *CampaignServiceImpl) view(c *campaign.Campaign, usdToBirr decimal.Decimal) *CampaignView {
	return &CampaignView{
		Campaign:         c,
		BalanceInBirr:    c.BalanceInUnifiedCurrency(shared.CurrencyBirr, usdToBirr),
		PercentageFunded: c.PercentageFunded(usdToBirr),
		USDToBirr:        usdToBirr,
	}
}
