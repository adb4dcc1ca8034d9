package service

import (
	"errors"

	"github.com/crowdfunding-ledger/internal/domain/campaign"
	"github.com/crowdfunding-ledger/internal/domain/donation"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/crowdfunding-ledger/internal/domain/withdrawal"
)

// Error codes reported to API clients and in batch outcomes.
const (
	CodeValidation        = "validation_error"
	CodeNotFound          = "not_found"
	CodeInsufficientFunds = "insufficient_funds"
	CodeNoFunds           = "no_funds"
	CodeProviderRejected  = "provider_rejected"
	CodeAlreadyProcessed  = "already_processed"
	CodeConflict          = "conflict"
	CodeInternal          = "internal_error"
)

// ErrorCode classifies err into one of the Code constants.
func ErrorCode(err error) string {
	var conflict campaign.ErrConcurrentModification
	switch {
	case err == nil:
		return ""
	case shared.IsValidation(err):
		return CodeValidation
	case errors.Is(err, campaign.ErrCampaignNotFound{}),
		errors.Is(err, donation.ErrTransactionNotFound{}),
		errors.Is(err, withdrawal.ErrRequestNotFound{}):
		return CodeNotFound
	case errors.Is(err, shared.InsufficientFundsError{}):
		return CodeInsufficientFunds
	case errors.Is(err, shared.ErrNoFunds):
		return CodeNoFunds
	case errors.Is(err, shared.ErrProviderRejected):
		return CodeProviderRejected
	case errors.Is(err, shared.ErrAlreadyProcessed):
		return CodeAlreadyProcessed
	case errors.As(err, &conflict):
		return CodeConflict
	default:
		return CodeInternal
	}
}
