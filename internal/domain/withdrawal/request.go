package withdrawal

import (
	"strings"
	"time"

	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of a withdrawal request. It leaves pending exactly once.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request is a campaign owner's ask to pay out funds in ConvertTo.
type Request struct {
	ID              uuid.UUID            `json:"id"`
	CampaignID      uuid.UUID            `json:"campaign_id"`
	RequestedAmount decimal.Decimal      `json:"requested_amount"`
	ConvertTo       shared.Currency      `json:"convert_to"`
	WithdrawAll     bool                 `json:"withdraw_all"`
	Status          Status               `json:"status"`
	PaymentMethod   shared.PaymentMethod `json:"payment_method"`
	Recipient       string               `json:"recipient"`
	DeductedBirr    decimal.Decimal      `json:"deducted_birr"`
	DeductedUSD     decimal.Decimal      `json:"deducted_usd"`
	ExchangeRate    decimal.Decimal      `json:"exchange_rate"`
	RequestedAt     time.Time            `json:"requested_at"`
	ProcessedAt     *time.Time           `json:"processed_at,omitempty"`
}

// NewRequest validates and creates a pending request. When withdrawAll is set the
// amount is ignored and fixed at resolution time.
func NewRequest(campaignID uuid.UUID, amount decimal.Decimal, convertTo shared.Currency, method shared.PaymentMethod, recipient string, withdrawAll bool) (*Request, error) {
	if convertTo == "" {
		convertTo = shared.CurrencyBirr
	}
	if withdrawAll {
		amount = decimal.Zero
	} else if !amount.IsPositive() {
		return nil, shared.NewValidationError("amount", "must be positive")
	}
	if err := validateRecipient(method, recipient); err != nil {
		return nil, err
	}

	return &Request{
		ID:              uuid.New(),
		CampaignID:      campaignID,
		RequestedAmount: shared.Quantize(amount),
		ConvertTo:       convertTo,
		WithdrawAll:     withdrawAll,
		Status:          StatusPending,
		PaymentMethod:   method,
		Recipient:       strings.TrimSpace(recipient),
		DeductedBirr:    decimal.Zero,
		DeductedUSD:     decimal.Zero,
		ExchangeRate:    decimal.Zero,
		RequestedAt:     time.Now(),
	}, nil
}

func validateRecipient(method shared.PaymentMethod, recipient string) error {
	recipient = strings.TrimSpace(recipient)
	switch method {
	case shared.PaymentMethodPayPal:
		if !strings.Contains(recipient, "@") {
			return shared.NewValidationError("recipient", "paypal payouts need an email address")
		}
	case shared.PaymentMethodTelebirr, shared.PaymentMethodChapa:
		if recipient == "" {
			return shared.NewValidationError("recipient", "a phone number is required")
		}
		for _, r := range strings.TrimPrefix(recipient, "+") {
			if r < '0' || r > '9' {
				return shared.NewValidationError("recipient", "phone number must contain digits only")
			}
		}
	default:
		return shared.NewValidationError("payment_method", "must be one of paypal, telebirr, chapa")
	}
	return nil
}

// IsPending reports whether the request can still be resolved.
func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// Approve records the plan that was applied to the campaign.
func (r *Request) Approve(p Plan) error {
	if !r.IsPending() {
		return shared.ErrAlreadyProcessed
	}
	now := time.Now()
	r.Status = StatusApproved
	r.RequestedAmount = p.Requested
	r.DeductedBirr = p.DeductBirr()
	r.DeductedUSD = p.DeductUSD()
	r.ExchangeRate = p.USDToBirr
	r.ProcessedAt = &now
	return nil
}

// Reject closes the request without touching balances.
func (r *Request) Reject() error {
	if !r.IsPending() {
		return shared.ErrAlreadyProcessed
	}
	now := time.Now()
	r.Status = StatusRejected
	r.ProcessedAt = &now
	return nil
}

// TransferAmount is the payout in the currency of the recipient's payment method.
func (r *Request) TransferAmount(usdToBirr decimal.Decimal) (decimal.Decimal, shared.Currency) {
	cur := r.PaymentMethod.Currency()
	return shared.Convert(r.RequestedAmount, r.ConvertTo, cur, usdToBirr), cur
}
