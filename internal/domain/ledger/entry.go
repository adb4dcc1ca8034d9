package ledger

import (
	"time"

	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is an audit record of a balance movement or a failed settlement/payout.
// Balances live in Postgres; entries only describe what happened to them.
type Entry struct {
	EventID       uuid.UUID          `json:"event_id" bson:"event_id"`
	CampaignID    uuid.UUID          `json:"campaign_id" bson:"campaign_id"`
	Kind          shared.EntryKind   `json:"kind" bson:"kind"`
	AmountBirr    string             `json:"amount_birr" bson:"amount_birr"`
	AmountUSD     string             `json:"amount_usd" bson:"amount_usd"`
	Reference     string             `json:"reference" bson:"reference"`
	Status        shared.EntryStatus `json:"status" bson:"status"`
	FailureReason string             `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	CorrelationID string             `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	ProcessedAt   *time.Time         `json:"processed_at,omitempty" bson:"processed_at,omitempty"`
}

// NewEntry builds a completed entry for a movement of birr and usd.
func NewEntry(campaignID uuid.UUID, kind shared.EntryKind, birr, usd decimal.Decimal, reference, correlationID string) *Entry {
	return &Entry{
		EventID:       uuid.New(),
		CampaignID:    campaignID,
		Kind:          kind,
		AmountBirr:    shared.Quantize(birr).StringFixed(2),
		AmountUSD:     shared.Quantize(usd).StringFixed(2),
		Reference:     reference,
		Status:        shared.EntryStatusCompleted,
		CorrelationID: correlationID,
		CreatedAt:     time.Now(),
	}
}

// Fail marks the entry as a failure with a reason.
func (e *Entry) Fail(reason shared.FailureReason, detail string) {
	e.Status = shared.EntryStatusFailed
	e.FailureReason = string(reason)
	if detail != "" {
		e.FailureReason += ": " + detail
	}
}
