package donation

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines donation transaction persistence operations
type Repository interface {
	Create(ctx context.Context, tx *Transaction) error
	GetByReference(ctx context.Context, reference string) (*Transaction, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*Transaction, error)
	CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error)
	// LockByReference locks the transaction row for the rest of the database transaction.
	LockByReference(ctx context.Context, reference string) (*Transaction, error)
	MarkCompleted(ctx context.Context, tx *Transaction) error
	WithTx(tx pgx.Tx) Repository
}

type ErrTransactionNotFound struct {
	Reference string
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.Reference
}

func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	return t.Reference == "" || t.Reference == e.Reference
}

// ErrDuplicateReference indicates provider reference uniqueness violation
type ErrDuplicateReference struct {
	Reference string
}

func (e ErrDuplicateReference) Error() string {
	return "transaction with provider reference already exists: " + e.Reference
}
