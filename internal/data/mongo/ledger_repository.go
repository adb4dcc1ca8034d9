package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crowdfunding-ledger/internal/domain/ledger"
)

// LedgerCollectionName is the collection holding audit entries.
const LedgerCollectionName = "ledger_entries"

// LedgerRepository implements the ledger.Repository interface for MongoDB
type LedgerRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewLedgerRepository(logger *slog.Logger, db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{
		db:     db,
		logger: logger,
	}
}

var _ ledger.Repository = (*LedgerRepository)(nil)

func (r *LedgerRepository) collection() *mongo.Collection {
	return r.db.Collection(LedgerCollectionName)
}

// EnsureIndexes creates the unique event_id index Create relies on, plus the index
// serving per-campaign history.
func (r *LedgerRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_event_id"),
		},
		{
			Keys:    bson.D{{Key: "campaign_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("campaign_created_at"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create ledger indexes: %w", err)
	}
	return nil
}

// Create inserts entry. A second insert of the same event id yields ErrDuplicateEntry.
func (r *LedgerRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	if _, err := r.collection().InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrDuplicateEntry{EventID: entry.EventID}
		}
		r.logger.Error("Failed to create ledger entry", "event_id", entry.EventID.String(), "error", err)
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

func (r *LedgerRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*ledger.Entry, error) {
	var entry ledger.Entry
	err := r.collection().FindOne(ctx, bson.M{"event_id": eventID}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrEntryNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get ledger entry", "event_id", eventID.String(), "error", err)
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return &entry, nil
}

// GetByCampaignID returns a page of a campaign's history, newest first.
func (r *LedgerRepository) GetByCampaignID(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*ledger.Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection().Find(ctx, bson.M{"campaign_id": campaignID}, opts)
	if err != nil {
		r.logger.Error("Failed to get ledger entries", "campaign_id", campaignID.String(), "error", err)
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []*ledger.Entry{}
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode ledger entries", "campaign_id", campaignID.String(), "error", err)
		return nil, fmt.Errorf("failed to decode ledger entries: %w", err)
	}
	return entries, nil
}

func (r *LedgerRepository) CountByCampaignID(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	count, err := r.collection().CountDocuments(ctx, bson.M{"campaign_id": campaignID})
	if err != nil {
		r.logger.Error("Failed to count ledger entries", "campaign_id", campaignID.String(), "error", err)
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return count, nil
}
