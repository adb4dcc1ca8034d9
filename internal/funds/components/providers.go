package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crowdfunding-ledger/internal/config"
	"github.com/crowdfunding-ledger/internal/platform/payments"
)

// NewProviderRegistry builds the PayPal, Telebirr and Chapa integrations. Both
// binaries use it: the gateway to initiate donations, the processor to verify them.
// Telebirr state lives in wallets so the two see the same payments.
func NewProviderRegistry(ctx context.Context, logger *slog.Logger, cfg *config.PaymentsConfig, wallets payments.WalletStore) (*payments.Registry, error) {
	telebirr, err := payments.NewTelebirr(ctx, logger.With("provider", "telebirr"), wallets, cfg.TelebirrWallets)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telebirr: %w", err)
	}
	return payments.NewRegistry(
		payments.NewPayPal(logger.With("provider", "paypal"), cfg),
		telebirr,
		payments.NewChapa(logger.With("provider", "chapa"), cfg),
	), nil
}
