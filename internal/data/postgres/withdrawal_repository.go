package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/crowdfunding-ledger/internal/domain/withdrawal"
	"github.com/crowdfunding-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const withdrawalColumns = `id, campaign_id, requested_amount, convert_to, withdraw_all, status, payment_method, recipient, deducted_birr, deducted_usd, exchange_rate, requested_at, processed_at`

// WithdrawalRepository implements the withdrawal.Repository interface for PostgreSQL
type WithdrawalRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewWithdrawalRepository(logger *slog.Logger, db *persistence.PostgresDB) withdrawal.Repository {
	return &WithdrawalRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *WithdrawalRepository) WithTx(tx pgx.Tx) withdrawal.Repository {
	return &WithdrawalRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *WithdrawalRepository) Create(ctx context.Context, w *withdrawal.Request) error {
	query := `
		INSERT INTO withdrawal_requests (id, campaign_id, requested_amount, convert_to, withdraw_all, status, payment_method, recipient, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.querier.Exec(ctx, query,
		w.ID,
		w.CampaignID,
		w.RequestedAmount,
		w.ConvertTo,
		w.WithdrawAll,
		w.Status,
		w.PaymentMethod,
		w.Recipient,
		w.RequestedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create withdrawal request", "campaign_id", w.CampaignID.String(), "error", err)
		return fmt.Errorf("failed to create withdrawal request: %w", err)
	}
	return nil
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*withdrawal.Request, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1`
	return r.getOne(ctx, query, id, "get withdrawal request")
}

func (r *WithdrawalRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*withdrawal.Request, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id, "lock withdrawal request")
}

func (r *WithdrawalRepository) getOne(ctx context.Context, query string, id uuid.UUID, op string) (*withdrawal.Request, error) {
	w, err := scanWithdrawal(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, withdrawal.ErrRequestNotFound{RequestID: id}
		}
		r.logger.Error("Failed to "+op, "withdrawal_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return w, nil
}

func (r *WithdrawalRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*withdrawal.Request, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE campaign_id = $1 ORDER BY requested_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.querier.Query(ctx, query, campaignID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list withdrawal requests", "campaign_id", campaignID.String(), "error", err)
		return nil, fmt.Errorf("failed to list withdrawal requests: %w", err)
	}
	defer rows.Close()

	out := make([]*withdrawal.Request, 0)
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal request: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over withdrawal requests: %w", err)
	}
	return out, nil
}

func (r *WithdrawalRepository) CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	var n int64
	if err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM withdrawal_requests WHERE campaign_id = $1`, campaignID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count withdrawal requests: %w", err)
	}
	return n, nil
}

// Resolve moves a pending row to its final status. A row that is no longer pending
// is reported as already processed.
func (r *WithdrawalRepository) Resolve(ctx context.Context, w *withdrawal.Request) error {
	query := `
		UPDATE withdrawal_requests
		SET status = $1, requested_amount = $2, deducted_birr = $3, deducted_usd = $4, exchange_rate = $5, processed_at = $6
		WHERE id = $7 AND status = 'pending'
	`
	result, err := r.querier.Exec(ctx, query,
		w.Status,
		w.RequestedAmount,
		w.DeductedBirr,
		w.DeductedUSD,
		w.ExchangeRate,
		w.ProcessedAt,
		w.ID,
	)
	if err != nil {
		r.logger.Error("Failed to resolve withdrawal request", "withdrawal_id", w.ID.String(), "error", err)
		return fmt.Errorf("failed to resolve withdrawal request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("withdrawal request %s: %w", w.ID, shared.ErrAlreadyProcessed)
	}
	return nil
}

func scanWithdrawal(row pgx.Row) (*withdrawal.Request, error) {
	var w withdrawal.Request
	err := row.Scan(
		&w.ID,
		&w.CampaignID,
		&w.RequestedAmount,
		&w.ConvertTo,
		&w.WithdrawAll,
		&w.Status,
		&w.PaymentMethod,
		&w.Recipient,
		&w.DeductedBirr,
		&w.DeductedUSD,
		&w.ExchangeRate,
		&w.RequestedAt,
		&w.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
