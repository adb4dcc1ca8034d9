package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/crowdfunding-ledger/internal/domain/ledger"
	"github.com/crowdfunding-ledger/internal/domain/outbox"
	"github.com/crowdfunding-ledger/internal/funds/service"
)

type OutboxManagerImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxManager(outboxRepo outbox.Repository, logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// CreateOutboxEntry stages entry for the poller inside tx.
func (m *OutboxManagerImpl) CreateOutboxEntry(ctx context.Context, tx pgx.Tx, entry *ledger.Entry) error {
	msg, err := outbox.NewMessage(entry)
	if err != nil {
		return fmt.Errorf("failed to build outbox message for event %s: %w", entry.EventID.String(), err)
	}

	if err := m.outboxRepo.WithTx(tx).Create(ctx, msg); err != nil {
		m.logger.Error("Failed to create outbox message",
			"event_id", entry.EventID.String(),
			"campaign_id", entry.CampaignID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message for event %s: %w", entry.EventID.String(), err)
	}

	m.logger.Debug("Outbox message staged",
		"event_id", entry.EventID.String(),
		"kind", entry.Kind,
		"reference", entry.Reference,
	)
	return nil
}
