package shared

// EntryKind classifies audit ledger entries.
type EntryKind string

const (
	EntryKindDonationCredit     EntryKind = "DONATION_CREDIT"
	EntryKindWithdrawalDebit    EntryKind = "WITHDRAWAL_DEBIT"
	EntryKindTransferFailed     EntryKind = "TRANSFER_FAILED"
	EntryKindSettlementRejected EntryKind = "SETTLEMENT_REJECTED"
)

// EntryStatus is the outcome recorded on an audit entry.
type EntryStatus string

const (
	EntryStatusCompleted EntryStatus = "COMPLETED"
	EntryStatusFailed    EntryStatus = "FAILED"
)

// FailureReason categorizes failures written to the audit ledger.
type FailureReason string

const (
	FailureReasonProviderRejected FailureReason = "PROVIDER_REJECTED"
	FailureReasonTransferFailed   FailureReason = "TRANSFER_FAILED"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
