package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crowdfunding-ledger/internal/domain/campaign"
	"github.com/crowdfunding-ledger/internal/domain/donation"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/crowdfunding-ledger/internal/domain/withdrawal"
	"github.com/crowdfunding-ledger/internal/platform/payments"
)

type SettlementResult struct {
	Transaction      *donation.Transaction
	Campaign         *campaign.Campaign
	Credited         decimal.Decimal
	AlreadyProcessed bool
}

// RequestInput is a withdrawal request as submitted by a campaign owner.
type RequestInput struct {
	CampaignID    uuid.UUID
	Amount        decimal.Decimal
	ConvertTo     shared.Currency
	PaymentMethod shared.PaymentMethod
	Recipient     string
	WithdrawAll   bool
	CorrelationID string
}

// ApprovalResult describes an approval. The campaign debit is final even when
// TransferErr is set; a failed payout is reported, not reverted.
type ApprovalResult struct {
	Request          *withdrawal.Request
	Plan             withdrawal.Plan
	Transfer         *payments.TransferResult
	TransferErr      error
	AlreadyProcessed bool
}

type RejectionResult struct {
	Request          *withdrawal.Request
	AlreadyProcessed bool
}
