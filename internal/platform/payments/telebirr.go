package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crowdfunding-ledger/internal/domain/shared"
)

var (
	ErrWalletNotFound            = errors.New("telebirr wallet not found")
	ErrWalletInsufficientBalance = errors.New("telebirr wallet has insufficient balance")
	ErrPaymentNotFound           = errors.New("telebirr payment not found")
)

// WalletStore persists the simulated wallets and the payments issued against them,
// so every process running a Telebirr provider sees the same state.
type WalletStore interface {
	// SeedWallets creates missing wallets and leaves existing balances untouched.
	SeedWallets(ctx context.Context, wallets map[string]decimal.Decimal) error
	// DebitForPayment takes amount from the wallet and records reference in one step.
	DebitForPayment(ctx context.Context, phone string, amount decimal.Decimal, reference string) error
	PaymentAmount(ctx context.Context, reference string) (decimal.Decimal, error)
	CreditWallet(ctx context.Context, phone string, amount decimal.Decimal) error
}

// Telebirr simulates a mobile-money provider on top of a wallet directory.
// Initiate debits the donor's wallet immediately and Verify confirms any reference it
// issued.
type Telebirr struct {
	logger *slog.Logger
	store  WalletStore
}

var _ Provider = (*Telebirr)(nil)

// NewTelebirr seeds wallets from "phone:balance" pairs separated by commas.
func NewTelebirr(ctx context.Context, logger *slog.Logger, store WalletStore, seed string) (*Telebirr, error) {
	wallets, err := parseWallets(seed)
	if err != nil {
		return nil, err
	}
	if err := store.SeedWallets(ctx, wallets); err != nil {
		return nil, fmt.Errorf("failed to seed telebirr wallets: %w", err)
	}
	logger.Info("Telebirr simulator initialized", "seeded_wallets", len(wallets))
	return &Telebirr{
		logger: logger,
		store:  store,
	}, nil
}

func parseWallets(seed string) (map[string]decimal.Decimal, error) {
	wallets := make(map[string]decimal.Decimal)
	for _, entry := range strings.Split(seed, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		phone, balance, ok := strings.Cut(entry, ":")
		if !ok || strings.TrimSpace(phone) == "" {
			return nil, fmt.Errorf("invalid telebirr wallet %q, want phone:balance", entry)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(balance))
		if err != nil || amount.IsNegative() {
			return nil, fmt.Errorf("invalid telebirr wallet balance %q", balance)
		}
		wallets[strings.TrimSpace(phone)] = shared.Quantize(amount)
	}
	return wallets, nil
}

func (t *Telebirr) Method() shared.PaymentMethod { return shared.PaymentMethodTelebirr }

func (t *Telebirr) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if err := requirePositive(req.Amount); err != nil {
		return nil, err
	}
	if err := requireCurrency(t.Method(), req.Currency); err != nil {
		return nil, err
	}
	amount := shared.Quantize(req.Amount)
	reference := "TEL-" + uuid.NewString()

	err := t.store.DebitForPayment(ctx, req.Contact, amount, reference)
	switch {
	case errors.Is(err, ErrWalletNotFound):
		return nil, fmt.Errorf("telebirr account %s not found: %w", req.Contact, shared.ErrProviderRejected)
	case errors.Is(err, ErrWalletInsufficientBalance):
		return nil, fmt.Errorf("telebirr account %s has insufficient balance: %w", req.Contact, shared.ErrProviderRejected)
	case err != nil:
		return nil, fmt.Errorf("telebirr payment: %w", err)
	}

	t.logger.Debug("Telebirr payment simulated", "reference", reference, "donor_phone", req.Contact, "amount", amount.StringFixed(2))
	return &InitiateResult{Reference: reference}, nil
}

func (t *Telebirr) Verify(ctx context.Context, reference string) (*Settlement, error) {
	amount, err := t.store.PaymentAmount(ctx, reference)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return nil, fmt.Errorf("telebirr reference %s unknown: %w", reference, shared.ErrProviderRejected)
		}
		return nil, fmt.Errorf("telebirr verify %s: %w", reference, err)
	}
	return &Settlement{Reference: reference, Amount: amount, Currency: shared.CurrencyBirr}, nil
}

func (t *Telebirr) Transfer(ctx context.Context, amount decimal.Decimal, currency shared.Currency, recipient string) (*TransferResult, error) {
	if err := requirePositive(amount); err != nil {
		return nil, err
	}
	if err := requireCurrency(t.Method(), currency); err != nil {
		return nil, err
	}
	amount = shared.Quantize(amount)

	if err := t.store.CreditWallet(ctx, recipient, amount); err != nil {
		if errors.Is(err, ErrWalletNotFound) {
			return nil, fmt.Errorf("telebirr recipient %s not found: %w", recipient, shared.ErrTransferFailed)
		}
		return nil, fmt.Errorf("telebirr transfer to %s: %w: %v", recipient, shared.ErrTransferFailed, err)
	}
	t.logger.Debug("Telebirr transfer simulated", "recipient", recipient, "amount", amount.StringFixed(2))

	return &TransferResult{
		Reference: "TEL-TR-" + uuid.NewString(),
		Amount:    amount,
		Currency:  shared.CurrencyBirr,
		Recipient: recipient,
	}, nil
}
