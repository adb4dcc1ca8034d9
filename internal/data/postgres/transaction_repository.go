package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crowdfunding-ledger/internal/domain/donation"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/crowdfunding-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const transactionColumns = `id, transaction_id, campaign_id, amount, payment_method, donor_contact, completed, created_at, updated_at, completed_at`

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// TransactionRepository implements the donation.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) donation.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *TransactionRepository) WithTx(tx pgx.Tx) donation.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, t *donation.Transaction) error {
	query := `
		INSERT INTO transactions (id, transaction_id, campaign_id, amount, payment_method, donor_contact, completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.querier.Exec(ctx, query,
		t.ID,
		t.Reference,
		t.CampaignID,
		t.Amount,
		t.PaymentMethod,
		t.DonorContact,
		t.Completed,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return donation.ErrDuplicateReference{Reference: t.Reference}
		}
		r.logger.Error("Failed to create transaction", "reference", t.Reference, "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*donation.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1`
	return r.getOne(ctx, query, reference, "get transaction")
}

// LockByReference serializes concurrent settlements of the same donation.
func (r *TransactionRepository) LockByReference(ctx context.Context, reference string) (*donation.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1 FOR UPDATE`
	return r.getOne(ctx, query, reference, "lock transaction")
}

func (r *TransactionRepository) getOne(ctx context.Context, query, reference, op string) (*donation.Transaction, error) {
	t, err := scanTransaction(r.querier.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, donation.ErrTransactionNotFound{Reference: reference}
		}
		r.logger.Error("Failed to "+op, "reference", reference, "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return t, nil
}

func (r *TransactionRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*donation.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE campaign_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.querier.Query(ctx, query, campaignID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list transactions", "campaign_id", campaignID.String(), "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]*donation.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transactions: %w", err)
	}
	return txs, nil
}

func (r *TransactionRepository) CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	var n int64
	if err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE campaign_id = $1`, campaignID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

// MarkCompleted flips completed only if it is still false; a zero row count means
// another settlement won.
func (r *TransactionRepository) MarkCompleted(ctx context.Context, t *donation.Transaction) error {
	query := `
		UPDATE transactions
		SET completed = TRUE, completed_at = $1, updated_at = $2
		WHERE id = $3 AND completed = FALSE
	`
	result, err := r.querier.Exec(ctx, query, t.CompletedAt, t.UpdatedAt, t.ID)
	if err != nil {
		r.logger.Error("Failed to mark transaction completed", "reference", t.Reference, "error", err)
		return fmt.Errorf("failed to mark transaction completed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s: %w", t.Reference, shared.ErrAlreadyProcessed)
	}
	return nil
}

func scanTransaction(row pgx.Row) (*donation.Transaction, error) {
	var t donation.Transaction
	err := row.Scan(
		&t.ID,
		&t.Reference,
		&t.CampaignID,
		&t.Amount,
		&t.PaymentMethod,
		&t.DonorContact,
		&t.Completed,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
