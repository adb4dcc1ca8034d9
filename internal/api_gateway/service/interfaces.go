package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crowdfunding-ledger/internal/domain/campaign"
	"github.com/crowdfunding-ledger/internal/domain/donation"
	"github.com/crowdfunding-ledger/internal/domain/ledger"
	"github.com/crowdfunding-ledger/internal/domain/shared"
)

// CampaignService serves campaign reads and writes that need no balance lock.
type CampaignService interface {
	CreateCampaign(ctx context.Context, in CreateCampaignInput) (*CampaignView, error)

	// GetCampaign returns campaign.ErrCampaignNotFound if the campaign doesn't exist.
	GetCampaign(ctx context.Context, id uuid.UUID) (*CampaignView, error)

	// ListCampaigns returns a page of campaigns and the total count.
	ListCampaigns(ctx context.Context, page, perPage int) ([]*CampaignView, int64, error)

	// GetLedger returns a page of the campaign's audit entries and their total count.
	GetLedger(ctx context.Context, campaignID uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error)
}

// DonationService starts donations with the provider chosen by the donor.
type DonationService interface {
	InitiateDonation(ctx context.Context, in DonationInput) (*DonationReceipt, error)

	// ListDonations returns a page of the campaign's transactions, pending ones included,
	// and their total count.
	ListDonations(ctx context.Context, campaignID uuid.UUID, page, perPage int) ([]*donation.Transaction, int64, error)
}

// NotificationService accepts asynchronous provider notifications for the settlement
// processor.
type NotificationService interface {
	AcceptNotification(ctx context.Context, method shared.PaymentMethod, reference, correlationID string) (*shared.SettlementNotification, error)
}

type CreateCampaignInput struct {
	Title        string
	Description  string
	Goal         decimal.Decimal
	GoalCurrency shared.Currency
}

// CampaignView is a campaign with the figures computed at one exchange rate.
type CampaignView struct {
	Campaign         *campaign.Campaign
	BalanceInBirr    decimal.Decimal
	PercentageFunded decimal.Decimal
	USDToBirr        decimal.Decimal
}

type DonationInput struct {
	CampaignID    uuid.UUID
	Amount        decimal.Decimal
	PaymentMethod shared.PaymentMethod
	DonorPhone    string
	DonorEmail    string
}

// DonationReceipt is a pending transaction plus where the donor must go to pay it.
type DonationReceipt struct {
	Transaction *donation.Transaction
	RedirectURL string
}
