package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crowdfunding-ledger/internal/domain/ledger"
	"github.com/crowdfunding-ledger/internal/domain/outbox"
	"github.com/crowdfunding-ledger/internal/domain/shared"
)

// LedgerPublisher writes one outbox message to the audit store.
type LedgerPublisher interface {
	PublishToLedger(ctx context.Context, message *outbox.Message) error
}

type LedgerPublisherImpl struct {
	outboxRepo outbox.Repository
	ledgerRepo ledger.Repository
	logger     *slog.Logger
}

func NewLedgerPublisher(
	outboxRepo outbox.Repository,
	ledgerRepo ledger.Repository,
	logger *slog.Logger,
) LedgerPublisher {
	return &LedgerPublisherImpl{
		outboxRepo: outboxRepo,
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

// PublishToLedger inserts the entry carried by message unless an entry with the same
// event id already exists, then marks the message processed. A redelivered message
// therefore never produces a second audit row.
func (p *LedgerPublisherImpl) PublishToLedger(ctx context.Context, message *outbox.Message) error {
	entry, err := message.LedgerEntry()
	if err != nil {
		p.logger.Error("Failed to decode ledger entry from outbox payload", "outbox_id", message.ID, "error", err)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Failed to mark undecodable outbox message", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("decode payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger.With("outbox_id", message.ID, "event_id", entry.EventID.String())
	if entry.CorrelationID != "" {
		logger = logger.With("correlation_id", entry.CorrelationID)
	}

	existing, err := p.ledgerRepo.GetByEventID(ctx, entry.EventID)
	if err != nil && !errors.Is(err, ledger.ErrEntryNotFound{}) {
		logger.Error("Failed to look up ledger entry", "error", err)
		return fmt.Errorf("failed to check ledger entry %s: %w", entry.EventID, err)
	}

	if existing != nil {
		logger.Info("Ledger entry already written")
	} else {
		now := time.Now().UTC()
		entry.ProcessedAt = &now
		if err := p.ledgerRepo.Create(ctx, entry); err != nil && !errors.Is(err, ledger.ErrDuplicateEntry{}) {
			logger.Error("Failed to create ledger entry", "error", err)
			return fmt.Errorf("failed to create ledger entry %s: %w", entry.EventID, err)
		}
		logger.Info("Ledger entry written", "kind", entry.Kind, "campaign_id", entry.CampaignID.String())
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to mark outbox message PROCESSED", "error", err)
		return fmt.Errorf("ledger write for %s succeeded, but marking outbox %d PROCESSED failed: %w", entry.EventID, message.ID, err)
	}
	return nil
}
