package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/crowdfunding-ledger/internal/domain/campaign"
	"github.com/crowdfunding-ledger/internal/domain/donation"
	"github.com/crowdfunding-ledger/internal/domain/ledger"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/crowdfunding-ledger/internal/domain/withdrawal"
	"github.com/crowdfunding-ledger/internal/platform/payments"
)

// fakeTxRunner runs fn without a database. Errors are returned as-is, like a rollback.
type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	return fn(nil)
}

type fixedRate struct {
	rate decimal.Decimal
}

func (f fixedRate) Rate(_ context.Context, from, to shared.Currency) decimal.Decimal {
	if from == to {
		return decimal.NewFromInt(1)
	}
	return f.rate
}

// fakeCampaignManager applies credits and plans to an in-memory campaign the same way
// the real manager does under the row lock.
type fakeCampaignManager struct {
	mu       sync.Mutex
	campaign *campaign.Campaign
}

func (f *fakeCampaignManager) LockAndCredit(_ context.Context, _ pgx.Tx, campaignID uuid.UUID, currency shared.Currency, amount decimal.Decimal) (*campaign.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.campaign == nil || f.campaign.ID != campaignID {
		return nil, campaign.ErrCampaignNotFound{CampaignID: campaignID}
	}
	if err := f.campaign.Credit(currency, amount); err != nil {
		return nil, err
	}
	return f.campaign, nil
}

func (f *fakeCampaignManager) LockAndDebit(_ context.Context, _ pgx.Tx, campaignID uuid.UUID, plan PlanFunc) (*campaign.Campaign, withdrawal.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.campaign == nil || f.campaign.ID != campaignID {
		return nil, withdrawal.Plan{}, campaign.ErrCampaignNotFound{CampaignID: campaignID}
	}
	p, err := plan(f.campaign)
	if err != nil {
		return nil, p, err
	}
	if err := f.campaign.Debit(p.DeductBirr(), p.DeductUSD()); err != nil {
		return nil, p, shared.InsufficientFundsError{Requested: p.Requested, Available: p.Available, Currency: p.Target}
	}
	return f.campaign, p, nil
}

type recordingOutbox struct {
	mu      sync.Mutex
	entries []*ledger.Entry
	err     error
}

func (r *recordingOutbox) CreateOutboxEntry(_ context.Context, _ pgx.Tx, entry *ledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

type recordingFailures struct {
	mu      sync.Mutex
	entries []*ledger.Entry
}

func (r *recordingFailures) RecordFailure(_ context.Context, entry *ledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
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

type MockWithdrawalRepo struct {
	mock.Mock
}

func (m *MockWithdrawalRepo) Create(ctx context.Context, r *withdrawal.Request) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockWithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*withdrawal.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*withdrawal.Request), args.Error(1)
}

func (m *MockWithdrawalRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*withdrawal.Request, error) {
	args := m.Called(ctx, campaignID, limit, offset)
	return args.Get(0).([]*withdrawal.Request), args.Error(1)
}

func (m *MockWithdrawalRepo) CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	args := m.Called(ctx, campaignID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWithdrawalRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*withdrawal.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*withdrawal.Request), args.Error(1)
}

func (m *MockWithdrawalRepo) Resolve(ctx context.Context, r *withdrawal.Request) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockWithdrawalRepo) WithTx(tx pgx.Tx) withdrawal.Repository {
	return m.Called(tx).Get(0).(withdrawal.Repository)
}

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
