package withdrawal

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines withdrawal request persistence operations
type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*Request, error)
	CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error)
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Request, error)
	// Resolve persists the status change together with the recorded deductions.
	Resolve(ctx context.Context, r *Request) error
	WithTx(tx pgx.Tx) Repository
}

type ErrRequestNotFound struct {
	RequestID uuid.UUID
}

func (e ErrRequestNotFound) Error() string {
	return "withdrawal request not found: " + e.RequestID.String()
}

func (e ErrRequestNotFound) Is(target error) bool {
	t, ok := target.(ErrRequestNotFound)
	if !ok {
		return false
	}
	return t.RequestID == uuid.Nil || t.RequestID == e.RequestID
}
