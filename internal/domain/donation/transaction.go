package donation

import (
	"strings"
	"time"

	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = shared.NewValidationError("amount", "must be positive")

// Transaction is a donation attempt. It starts pending and is completed exactly once,
// after the provider confirms settlement.
type Transaction struct {
	ID            uuid.UUID            `json:"id"`
	Reference     string               `json:"transaction_id"` // provider reference, unique
	CampaignID    uuid.UUID            `json:"campaign_id"`
	Amount        decimal.Decimal      `json:"amount"`
	PaymentMethod shared.PaymentMethod `json:"payment_method"`
	DonorContact  string               `json:"donor_contact,omitempty"`
	Completed     bool                 `json:"completed"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
}

// NewTransaction records a donation that has been initiated with a provider.
func NewTransaction(campaignID uuid.UUID, reference string, amount decimal.Decimal, method shared.PaymentMethod, contact string) (*Transaction, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, shared.NewValidationError("transaction_id", "provider reference is required")
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	now := time.Now()
	return &Transaction{
		ID:            uuid.New(),
		Reference:     reference,
		CampaignID:    campaignID,
		Amount:        shared.Quantize(amount),
		PaymentMethod: method,
		DonorContact:  contact,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Currency is the pool the donation credits, implied by the payment method.
func (t *Transaction) Currency() shared.Currency {
	return t.PaymentMethod.Currency()
}

// Complete flips the transaction to completed. A second call returns
// shared.ErrAlreadyProcessed and changes nothing.
func (t *Transaction) Complete() error {
	if t.Completed {
		return shared.ErrAlreadyProcessed
	}
	now := time.Now()
	t.Completed = true
	t.CompletedAt = &now
	t.UpdatedAt = now
	return nil
}
