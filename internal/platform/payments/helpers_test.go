package payments

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crowdfunding-ledger/internal/config"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testPaymentsConfig(baseURL string) *config.PaymentsConfig {
	return &config.PaymentsConfig{
		PayPalBaseURL:      baseURL,
		PayPalClientID:     "client",
		PayPalClientSecret: "secret",
		PayPalReturnURL:    "http://localhost/api/v1/callbacks/paypal",
		PayPalCancelURL:    "http://localhost/cancel",
		ChapaBaseURL:       baseURL,
		ChapaSecretKey:     "CHASECK_TEST",
		ChapaCallbackURL:   "http://localhost/api/v1/webhooks/chapa",
		RequestTimeout:     2 * time.Second,
	}
}

// memoryWallets is a WalletStore kept in process memory.
type memoryWallets struct {
	mu       sync.Mutex
	wallets  map[string]decimal.Decimal
	payments map[string]decimal.Decimal
}

func newMemoryWallets() *memoryWallets {
	return &memoryWallets{
		wallets:  make(map[string]decimal.Decimal),
		payments: make(map[string]decimal.Decimal),
	}
}

func (m *memoryWallets) SeedWallets(_ context.Context, wallets map[string]decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for phone, balance := range wallets {
		if _, ok := m.wallets[phone]; !ok {
			m.wallets[phone] = balance
		}
	}
	return nil
}

func (m *memoryWallets) DebitForPayment(_ context.Context, phone string, amount decimal.Decimal, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.wallets[phone]
	if !ok {
		return ErrWalletNotFound
	}
	if balance.LessThan(amount) {
		return ErrWalletInsufficientBalance
	}
	m.wallets[phone] = balance.Sub(amount)
	m.payments[reference] = amount
	return nil
}

func (m *memoryWallets) PaymentAmount(_ context.Context, reference string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	amount, ok := m.payments[reference]
	if !ok {
		return decimal.Zero, ErrPaymentNotFound
	}
	return amount, nil
}

func (m *memoryWallets) CreditWallet(_ context.Context, phone string, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.wallets[phone]
	if !ok {
		return ErrWalletNotFound
	}
	m.wallets[phone] = balance.Add(amount)
	return nil
}

func (m *memoryWallets) balance(phone string) (decimal.Decimal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.wallets[phone]
	return balance, ok
}
