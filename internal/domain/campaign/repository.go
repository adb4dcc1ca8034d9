package campaign

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines campaign persistence operations
type Repository interface {
	Create(ctx context.Context, c *Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*Campaign, error)
	List(ctx context.Context, limit, offset int) ([]*Campaign, error)
	Count(ctx context.Context) (int64, error)

	// LockForUpdate takes the per-campaign row lock; only valid inside a transaction.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Campaign, error)
	// UpdateBalances writes both pools, guarded by the version read under lock.
	UpdateBalances(ctx context.Context, c *Campaign) error
	WithTx(tx pgx.Tx) Repository
}

// ErrCampaignNotFound indicates missing campaign
type ErrCampaignNotFound struct {
	CampaignID uuid.UUID
}

func (e ErrCampaignNotFound) Error() string {
	return "campaign not found: " + e.CampaignID.String()
}

// Is lets errors.Is match any ErrCampaignNotFound when the target has no ID.
func (e ErrCampaignNotFound) Is(target error) bool {
	t, ok := target.(ErrCampaignNotFound)
	if !ok {
		return false
	}
	return t.CampaignID == uuid.Nil || t.CampaignID == e.CampaignID
}

// ErrConcurrentModification indicates the stored version moved under us.
type ErrConcurrentModification struct {
	CampaignID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for campaign: " + e.CampaignID.String()
}
