package mongo

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/crowdfunding-ledger/internal/domain/ledger"
	"github.com/crowdfunding-ledger/internal/domain/shared"
)

func entryDoc(e *ledger.Entry) bson.D {
	return bson.D{
		{Key: "event_id", Value: e.EventID},
		{Key: "campaign_id", Value: e.CampaignID},
		{Key: "kind", Value: string(e.Kind)},
		{Key: "amount_birr", Value: e.AmountBirr},
		{Key: "amount_usd", Value: e.AmountUSD},
		{Key: "reference", Value: e.Reference},
		{Key: "status", Value: string(e.Status)},
		{Key: "created_at", Value: e.CreatedAt},
	}
}

func TestLedgerRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	logger := slog.Default()
	ctx := context.Background()
	campaignID := uuid.New()

	mt.Run("create", func(mt *mtest.T) {
		repo := NewLedgerRepository(logger, mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		entry := ledger.NewEntry(campaignID, shared.EntryKindDonationCredit, decimal.NewFromInt(100), decimal.Zero, "TEL-1", "corr")
		assert.NoError(t, repo.Create(ctx, entry))
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		repo := NewLedgerRepository(logger, mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}))

		entry := ledger.NewEntry(campaignID, shared.EntryKindDonationCredit, decimal.NewFromInt(100), decimal.Zero, "TEL-1", "corr")
		err := repo.Create(ctx, entry)
		assert.ErrorIs(t, err, ledger.ErrDuplicateEntry{EventID: entry.EventID})
	})

	mt.Run("get by event id", func(mt *mtest.T) {
		repo := NewLedgerRepository(logger, mt.DB)
		want := ledger.NewEntry(campaignID, shared.EntryKindWithdrawalDebit, decimal.Zero, decimal.RequireFromString("7.57"), "wd-1", "")
		want.CreatedAt = want.CreatedAt.Truncate(time.Millisecond)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ledger.ledger_entries", mtest.FirstBatch, entryDoc(want)))

		got, err := repo.GetByEventID(ctx, want.EventID)
		require.NoError(t, err)
		assert.Equal(t, want.EventID, got.EventID)
		assert.Equal(t, "7.57", got.AmountUSD)
		assert.Equal(t, shared.EntryKindWithdrawalDebit, got.Kind)
	})

	mt.Run("get by event id not found", func(mt *mtest.T) {
		repo := NewLedgerRepository(logger, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ledger.ledger_entries", mtest.FirstBatch))

		_, err := repo.GetByEventID(ctx, uuid.New())
		assert.ErrorIs(t, err, ledger.ErrEntryNotFound{})
	})

	mt.Run("history page", func(mt *mtest.T) {
		repo := NewLedgerRepository(logger, mt.DB)
		a := ledger.NewEntry(campaignID, shared.EntryKindDonationCredit, decimal.NewFromInt(5), decimal.Zero, "CH-1", "")
		b := ledger.NewEntry(campaignID, shared.EntryKindDonationCredit, decimal.Zero, decimal.NewFromInt(2), "PAY-1", "")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ledger.ledger_entries", mtest.FirstBatch, entryDoc(b), entryDoc(a)))

		entries, err := repo.GetByCampaignID(ctx, campaignID, 10, 0)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "PAY-1", entries[0].Reference)
		assert.Equal(t, "CH-1", entries[1].Reference)
	})

	mt.Run("count", func(mt *mtest.T) {
		repo := NewLedgerRepository(logger, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ledger.ledger_entries", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}))

		n, err := repo.CountByCampaignID(ctx, campaignID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		repo := NewLedgerRepository(logger, mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		assert.NoError(t, repo.EnsureIndexes(ctx))
	})
}
