// Package service holds the multi-currency balance engine: settlement of donations,
// resolution of withdrawal requests and the batch resolver that runs them on a worker
// pool. Every balance change happens under the campaign row lock, inside the same
// database transaction that writes its outbox entry.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/crowdfunding-ledger/internal/domain/campaign"
	"github.com/crowdfunding-ledger/internal/domain/ledger"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/crowdfunding-ledger/internal/domain/withdrawal"
	"github.com/crowdfunding-ledger/internal/platform/payments"
)

// SettlementService confirms donations with their provider and credits the campaign.
type SettlementService interface {
	ConfirmSettlement(ctx context.Context, reference, correlationID string) (*SettlementResult, error)
}

// WithdrawalService creates and resolves withdrawal requests.
type WithdrawalService interface {
	RequestWithdrawal(ctx context.Context, input RequestInput) (*withdrawal.Request, error)
	GetWithdrawal(ctx context.Context, id uuid.UUID) (*withdrawal.Request, error)
	ListWithdrawals(ctx context.Context, campaignID uuid.UUID, page, perPage int) ([]*withdrawal.Request, int64, error)
	Approve(ctx context.Context, id uuid.UUID, correlationID string) (*ApprovalResult, error)
	Reject(ctx context.Context, id uuid.UUID, correlationID string) (*RejectionResult, error)
}

// CampaignManager applies balance changes to a campaign locked inside tx.
type CampaignManager interface {
	LockAndCredit(ctx context.Context, tx pgx.Tx, campaignID uuid.UUID, currency shared.Currency, amount decimal.Decimal) (*campaign.Campaign, error)
	// LockAndDebit computes a plan against the locked balances and applies it.
	LockAndDebit(ctx context.Context, tx pgx.Tx, campaignID uuid.UUID, plan PlanFunc) (*campaign.Campaign, withdrawal.Plan, error)
}

// PlanFunc decides a deduction from the balances read under lock.
type PlanFunc func(c *campaign.Campaign) (withdrawal.Plan, error)

// OutboxManager stages a ledger entry in the same transaction as the balance change.
type OutboxManager interface {
	CreateOutboxEntry(ctx context.Context, tx pgx.Tx, entry *ledger.Entry) error
}

// FailureRecorder writes failure entries straight to the audit ledger.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, entry *ledger.Entry) error
}

// ProviderRegistry resolves a payment method to its provider.
type ProviderRegistry interface {
	Get(method shared.PaymentMethod) (payments.Provider, error)
}

var _ ProviderRegistry = (*payments.Registry)(nil)
