package components

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/crowdfunding-ledger/internal/domain/ledger"
	"github.com/crowdfunding-ledger/internal/funds/service"
)

type FailureRecorderImpl struct {
	ledgerRepo ledger.Repository
	logger     *slog.Logger
}

func NewFailureRecorder(ledgerRepo ledger.Repository, logger *slog.Logger) service.FailureRecorder {
	return &FailureRecorderImpl{
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

// RecordFailure writes entry directly to the audit ledger. Failures have no balance
// change to stay atomic with, so they skip the outbox. A duplicate event id means the
// failure is already recorded.
func (r *FailureRecorderImpl) RecordFailure(ctx context.Context, entry *ledger.Entry) error {
	logger := r.logger.With("event_id", entry.EventID.String(), "kind", entry.Kind, "reference", entry.Reference)
	if entry.CorrelationID != "" {
		logger = logger.With("correlation_id", entry.CorrelationID)
	}

	if entry.ProcessedAt == nil {
		now := time.Now()
		entry.ProcessedAt = &now
	}

	if err := r.ledgerRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, ledger.ErrDuplicateEntry{}) {
			logger.Info("Failure already recorded")
			return nil
		}
		logger.Error("Failed to record failure", "error", err)
		return err
	}
	logger.Info("Failure recorded", "reason", entry.FailureReason)
	return nil
}
