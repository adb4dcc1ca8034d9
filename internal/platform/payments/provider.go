// Package payments adapts the external payment providers to one capability set:
// initiate a donation, verify that it settled, and pay out a withdrawal.
package payments

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/crowdfunding-ledger/internal/domain/shared"
)

// InitiateRequest describes a donation the donor is about to pay.
type InitiateRequest struct {
	Amount      decimal.Decimal
	Currency    shared.Currency
	Contact     string // email or phone, depending on the provider
	Description string
	Metadata    map[string]string
}

// InitiateResult carries the provider reference the donation is tracked by and, for
// redirect based providers, the page the donor must visit.
type InitiateResult struct {
	Reference   string
	RedirectURL string
}

// Settlement is a provider's confirmation that a donation was paid. A zero Amount means
// the provider did not report one.
type Settlement struct {
	Reference string
	Amount    decimal.Decimal
	Currency  shared.Currency
}

type TransferResult struct {
	Reference string
	Amount    decimal.Decimal
	Currency  shared.Currency
	Recipient string
}

// Provider is implemented by every payment integration. Verify wraps
// shared.ErrProviderRejected when the provider definitively declines; any other error
// means it could not be reached. Transfer failures wrap shared.ErrTransferFailed.
type Provider interface {
	Method() shared.PaymentMethod
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	Verify(ctx context.Context, reference string) (*Settlement, error)
	Transfer(ctx context.Context, amount decimal.Decimal, currency shared.Currency, recipient string) (*TransferResult, error)
}

// Registry selects a provider by payment method tag.
type Registry struct {
	providers map[shared.PaymentMethod]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[shared.PaymentMethod]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Method()] = p
	}
	return r
}

func (r *Registry) Get(method shared.PaymentMethod) (Provider, error) {
	p, ok := r.providers[method]
	if !ok {
		return nil, shared.NewValidationError("payment_method", fmt.Sprintf("no provider configured for %q", method))
	}
	return p, nil
}

func requireCurrency(method shared.PaymentMethod, got shared.Currency) error {
	if got != method.Currency() {
		return shared.NewValidationError("currency", fmt.Sprintf("%s only handles %s", method, method.Currency()))
	}
	return nil
}

func requirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("amount", "must be greater than zero")
	}
	return nil
}
