package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/crowdfunding-ledger/internal/domain/campaign"
	"github.com/crowdfunding-ledger/internal/domain/donation"
	"github.com/crowdfunding-ledger/internal/domain/ledger"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/crowdfunding-ledger/internal/platform/payments"
)

type MockCampaignRepo struct {
	mock.Mock
}

func (m *MockCampaignRepo) Create(ctx context.Context, c *campaign.Campaign) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*campaign.Campaign), args.Error(1)
}

func (m *MockCampaignRepo) List(ctx context.Context, limit, offset int) ([]*campaign.Campaign, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*campaign.Campaign), args.Error(1)
}

func (m *MockCampaignRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCampaignRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*campaign.Campaign), args.Error(1)
}

func (m *MockCampaignRepo) UpdateBalances(ctx context.Context, c *campaign.Campaign) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCampaignRepo) WithTx(tx pgx.Tx) campaign.Repository {
	return m.Called(tx).Get(0).(campaign.Repository)
}

type MockLedgerRepo struct {
	mock.Mock
}

func (m *MockLedgerRepo) Create(ctx context.Context, entry *ledger.Entry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockLedgerRepo) GetByEventID(ctx context.Context, eventID uuid.UUID) (*ledger.Entry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepo) GetByCampaignID(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*ledger.Entry, error) {
	args := m.Called(ctx, campaignID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepo) CountByCampaignID(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	args := m.Called(ctx, campaignID)
	return args.Get(0).(int64), args.Error(1)
}

type MockDonationRepo struct {
	mock.Mock
}

func (m *MockDonationRepo) Create(ctx context.Context, tx *donation.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockDonationRepo) GetByReference(ctx context.Context, reference string) (*donation.Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*donation.Transaction), args.Error(1)
}

func (m *MockDonationRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*donation.Transaction, error) {
	args := m.Called(ctx, campaignID, limit, offset)
	return args.Get(0).([]*donation.Transaction), args.Error(1)
}

func (m *MockDonationRepo) CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	args := m.Called(ctx, campaignID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDonationRepo) LockByReference(ctx context.Context, reference string) (*donation.Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*donation.Transaction), args.Error(1)
}

func (m *MockDonationRepo) MarkCompleted(ctx context.Context, tx *donation.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockDonationRepo) WithTx(tx pgx.Tx) donation.Repository {
	return m.Called(tx).Get(0).(donation.Repository)
}

type MockProvider struct {
	mock.Mock
	method shared.PaymentMethod
}

func (m *MockProvider) Method() shared.PaymentMethod {
	return m.method
}

func (m *MockProvider) Initiate(ctx context.Context, req payments.InitiateRequest) (*payments.InitiateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.InitiateResult), args.Error(1)
}

func (m *MockProvider) Verify(ctx context.Context, reference string) (*payments.Settlement, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Settlement), args.Error(1)
}

func (m *MockProvider) Transfer(ctx context.Context, amount decimal.Decimal, currency shared.Currency, recipient string) (*payments.TransferResult, error) {
	args := m.Called(ctx, amount, currency, recipient)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.TransferResult), args.Error(1)
}

type MockNotificationPublisher struct {
	mock.Mock
}

func (m *MockNotificationPublisher) PublishNotification(ctx context.Context, n shared.SettlementNotification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotificationPublisher) Close() error {
	return m.Called().Error(0)
}

type fixedRate struct {
	rate decimal.Decimal
}

func (f fixedRate) Rate(context.Context, shared.Currency, shared.Currency) decimal.Decimal {
	return f.rate
}
