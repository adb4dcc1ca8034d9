package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/crowdfunding-ledger/internal/domain/withdrawal"
)

// BatchOutcome is the per-id result of a batch approve or reject.
type BatchOutcome struct {
	ID               uuid.UUID         `json:"id"`
	Status           withdrawal.Status `json:"status,omitempty"`
	AlreadyProcessed bool              `json:"already_processed,omitempty"`
	ErrorCode        string            `json:"error_code,omitempty"`
	Message          string            `json:"message,omitempty"`
	Transfer         *TransferOutcome  `json:"transfer,omitempty"`
}

type TransferOutcome struct {
	Succeeded bool   `json:"succeeded"`
	Reference string `json:"reference,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Currency  string `json:"currency,omitempty"`
	Error     string `json:"error,omitempty"`
}

type WorkerPoolConfig struct {
	Size int
}

// BatchResolver fans a list of withdrawal ids out over an ants pool. Each id is
// resolved in its own database transaction; ids on different campaigns run in
// parallel and ids on the same campaign queue on its row lock.
type BatchResolver struct {
	withdrawals WithdrawalService
	pool        *ants.Pool
	logger      *slog.Logger
}

func NewBatchResolver(withdrawals WithdrawalService, cfg WorkerPoolConfig, logger *slog.Logger) (*BatchResolver, error) {
	pool, err := ants.NewPool(cfg.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	return &BatchResolver{
		withdrawals: withdrawals,
		pool:        pool,
		logger:      logger,
	}, nil
}

func (b *BatchResolver) ApproveAll(ctx context.Context, ids []uuid.UUID, correlationID string) []BatchOutcome {
	return b.run(ctx, ids, func(id uuid.UUID) BatchOutcome {
		res, err := b.withdrawals.Approve(ctx, id, correlationID)
		if err != nil {
			return failedOutcome(id, err)
		}
		out := BatchOutcome{ID: id, Status: res.Request.Status, AlreadyProcessed: res.AlreadyProcessed}
		if res.AlreadyProcessed {
			return out
		}
		amount, currency := res.Request.TransferAmount(res.Plan.USDToBirr)
		out.Transfer = &TransferOutcome{Amount: amount.StringFixed(2), Currency: string(currency)}
		if res.TransferErr != nil {
			out.Transfer.Error = res.TransferErr.Error()
		} else if res.Transfer != nil {
			out.Transfer.Succeeded = true
			out.Transfer.Reference = res.Transfer.Reference
		}
		return out
	})
}

func (b *BatchResolver) RejectAll(ctx context.Context, ids []uuid.UUID, correlationID string) []BatchOutcome {
	return b.run(ctx, ids, func(id uuid.UUID) BatchOutcome {
		res, err := b.withdrawals.Reject(ctx, id, correlationID)
		if err != nil {
			return failedOutcome(id, err)
		}
		return BatchOutcome{ID: id, Status: res.Request.Status, AlreadyProcessed: res.AlreadyProcessed}
	})
}

func failedOutcome(id uuid.UUID, err error) BatchOutcome {
	return BatchOutcome{ID: id, ErrorCode: ErrorCode(err), Message: err.Error()}
}

// run preserves the order of ids in the returned outcomes.
func (b *BatchResolver) run(ctx context.Context, ids []uuid.UUID, resolve func(uuid.UUID) BatchOutcome) []BatchOutcome {
	outcomes := make([]BatchOutcome, len(ids))
	var wg sync.WaitGroup

	for i, id := range ids {
		i, id := i, id
		if err := ctx.Err(); err != nil {
			outcomes[i] = failedOutcome(id, err)
			continue
		}
		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			outcomes[i] = resolve(id)
		})
		if err != nil {
			wg.Done()
			b.logger.Error("Failed to submit withdrawal to worker pool", "withdrawal_id", id.String(), "error", err)
			outcomes[i] = failedOutcome(id, err)
		}
	}

	wg.Wait()
	return outcomes
}

// Shutdown releases the pool.
func (b *BatchResolver) Shutdown() {
	b.logger.Info("Shutting down withdrawal worker pool", "running_workers", b.pool.Running())
	b.pool.Release()
}
