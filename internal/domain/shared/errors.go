package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrProviderRejected means the payment provider definitively declined an operation.
	ErrProviderRejected = errors.New("payment provider rejected the operation")
	// ErrAlreadyProcessed is returned for re-delivered settlements and re-resolved
	// withdrawals. Callers treat it as a successful no-op.
	ErrAlreadyProcessed = errors.New("already processed")
	// ErrTransferFailed marks a payout that did not go through after the ledger was debited.
	ErrTransferFailed = errors.New("transfer failed")
	// ErrNoFunds is returned when a campaign holds nothing in either pool.
	ErrNoFunds = errors.New("campaign has no funds to withdraw")
)

// ValidationError reports malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// InsufficientFundsError is returned when a withdrawal exceeds the combined value of
// both pools at the rate used for the resolution.
type InsufficientFundsError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
	Currency  Currency
}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: requested %s %s, available %s %s",
		e.Requested.StringFixed(2), e.Currency, e.Available.StringFixed(2), e.Currency)
}

// Is matches any InsufficientFundsError so callers can use errors.Is with a zero value.
func (e InsufficientFundsError) Is(target error) bool {
	_, ok := target.(InsufficientFundsError)
	return ok
}
