package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/crowdfunding-ledger/internal/platform/payments"
	"github.com/crowdfunding-ledger/internal/platform/persistence"
)

// TelebirrWalletRepository backs the Telebirr simulator, so the gateway that issues
// payments and the processor that verifies them share one wallet directory.
type TelebirrWalletRepository struct {
	db      persistence.TxRunner
	querier persistence.Querier
	logger  *slog.Logger
}

func NewTelebirrWalletRepository(logger *slog.Logger, db *persistence.PostgresDB) *TelebirrWalletRepository {
	return &TelebirrWalletRepository{
		db:      db,
		querier: db.Pool(),
		logger:  logger,
	}
}

var _ payments.WalletStore = (*TelebirrWalletRepository)(nil)

func (r *TelebirrWalletRepository) SeedWallets(ctx context.Context, wallets map[string]decimal.Decimal) error {
	phones := make([]string, 0, len(wallets))
	for phone := range wallets {
		phones = append(phones, phone)
	}
	sort.Strings(phones)

	return r.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		for _, phone := range phones {
			_, err := tx.Exec(ctx,
				`INSERT INTO telebirr_wallets (phone, balance) VALUES ($1, $2) ON CONFLICT (phone) DO NOTHING`,
				phone, wallets[phone],
			)
			if err != nil {
				r.logger.Error("Failed to seed telebirr wallet", "phone", phone, "error", err)
				return fmt.Errorf("failed to seed telebirr wallet %s: %w", phone, err)
			}
		}
		return nil
	})
}

// DebitForPayment locks the wallet, checks the balance and records the payment in
// the same transaction.
func (r *TelebirrWalletRepository) DebitForPayment(ctx context.Context, phone string, amount decimal.Decimal, reference string) error {
	return r.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var balance decimal.Decimal
		err := tx.QueryRow(ctx, `SELECT balance FROM telebirr_wallets WHERE phone = $1 FOR UPDATE`, phone).Scan(&balance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return payments.ErrWalletNotFound
			}
			return fmt.Errorf("failed to lock telebirr wallet: %w", err)
		}
		if balance.LessThan(amount) {
			return payments.ErrWalletInsufficientBalance
		}

		if _, err := tx.Exec(ctx,
			`UPDATE telebirr_wallets SET balance = balance - $1, updated_at = NOW() WHERE phone = $2`,
			amount, phone,
		); err != nil {
			return fmt.Errorf("failed to debit telebirr wallet: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO telebirr_payments (reference, phone, amount) VALUES ($1, $2, $3)`,
			reference, phone, amount,
		); err != nil {
			r.logger.Error("Failed to record telebirr payment", "reference", reference, "error", err)
			return fmt.Errorf("failed to record telebirr payment: %w", err)
		}
		return nil
	})
}

func (r *TelebirrWalletRepository) PaymentAmount(ctx context.Context, reference string) (decimal.Decimal, error) {
	var amount decimal.Decimal
	err := r.querier.QueryRow(ctx, `SELECT amount FROM telebirr_payments WHERE reference = $1`, reference).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, payments.ErrPaymentNotFound
		}
		r.logger.Error("Failed to get telebirr payment", "reference", reference, "error", err)
		return decimal.Zero, fmt.Errorf("failed to get telebirr payment: %w", err)
	}
	return amount, nil
}

func (r *TelebirrWalletRepository) CreditWallet(ctx context.Context, phone string, amount decimal.Decimal) error {
	result, err := r.querier.Exec(ctx,
		`UPDATE telebirr_wallets SET balance = balance + $1, updated_at = NOW() WHERE phone = $2`,
		amount, phone,
	)
	if err != nil {
		r.logger.Error("Failed to credit telebirr wallet", "phone", phone, "error", err)
		return fmt.Errorf("failed to credit telebirr wallet: %w", err)
	}
	if result.RowsAffected() == 0 {
		return payments.ErrWalletNotFound
	}
	return nil
}
