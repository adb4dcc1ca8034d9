// Package postgres provides PostgreSQL implementations of the domain repositories.
// Monetary columns are NUMERIC(18,2) and travel as decimal.Decimal in both directions.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crowdfunding-ledger/internal/domain/campaign"
	"github.com/crowdfunding-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const campaignColumns = `id, title, description, goal, goal_currency, total_birr, total_usd, version, created_at, updated_at`

// CampaignRepository implements the campaign.Repository interface for PostgreSQL
type CampaignRepository struct {
	querier persistence.Querier // *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

func NewCampaignRepository(logger *slog.Logger, db *persistence.PostgresDB) campaign.Repository {
	return &CampaignRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx, so row locks taken through it are held
// until tx ends.
func (r *CampaignRepository) WithTx(tx pgx.Tx) campaign.Repository {
	return &CampaignRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *CampaignRepository) Create(ctx context.Context, c *campaign.Campaign) error {
	query := `
		INSERT INTO campaigns (id, title, description, goal, goal_currency, total_birr, total_usd, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.querier.Exec(ctx, query,
		c.ID,
		c.Title,
		c.Description,
		c.Goal,
		c.GoalCurrency,
		c.TotalBirr,
		c.TotalUSD,
		c.Version,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create campaign", "campaign_id", c.ID.String(), "error", err)
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	return r.getOne(ctx, query, id, "get campaign")
}

// LockForUpdate reads the campaign with SELECT ... FOR UPDATE. Concurrent credits
// and withdrawals on the same campaign queue behind this lock.
func (r *CampaignRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id, "lock campaign for update")
}

func (r *CampaignRepository) getOne(ctx context.Context, query string, id uuid.UUID, op string) (*campaign.Campaign, error) {
	c, err := scanCampaign(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, campaign.ErrCampaignNotFound{CampaignID: id}
		}
		r.logger.Error("Failed to "+op, "campaign_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return c, nil
}

// List returns campaigns newest first.
func (r *CampaignRepository) List(ctx context.Context, limit, offset int) ([]*campaign.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.querier.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list campaigns", "error", err)
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := make([]*campaign.Campaign, 0, limit)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over campaigns: %w", err)
	}
	return campaigns, nil
}

func (r *CampaignRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM campaigns`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count campaigns: %w", err)
	}
	return n, nil
}

// UpdateBalances writes both pools. The caller has already bumped c.Version, so the
// row must still hold the previous version.
func (r *CampaignRepository) UpdateBalances(ctx context.Context, c *campaign.Campaign) error {
	query := `
		UPDATE campaigns
		SET total_birr = $1, total_usd = $2, version = $3, updated_at = $4
		WHERE id = $5 AND version = $6
	`
	result, err := r.querier.Exec(ctx, query,
		c.TotalBirr,
		c.TotalUSD,
		c.Version,
		c.UpdatedAt,
		c.ID,
		c.Version-1,
	)
	if err != nil {
		r.logger.Error("Failed to update campaign balances", "campaign_id", c.ID.String(), "error", err)
		return fmt.Errorf("failed to update campaign balances: %w", err)
	}
	if result.RowsAffected() == 0 {
		return campaign.ErrConcurrentModification{CampaignID: c.ID}
	}
	return nil
}

func scanCampaign(row pgx.Row) (*campaign.Campaign, error) {
	var c campaign.Campaign
	err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.Goal,
		&c.GoalCurrency,
		&c.TotalBirr,
		&c.TotalUSD,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
