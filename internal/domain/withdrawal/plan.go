package withdrawal

import (
	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Plan is how a withdrawal splits across the two pools.
type Plan struct {
	Target       shared.Currency
	Requested    decimal.Decimal
	Available    decimal.Decimal // combined value in Target at USDToBirr
	DeductTarget decimal.Decimal
	DeductOther  decimal.Decimal
	USDToBirr    decimal.Decimal
}

func (p Plan) DeductBirr() decimal.Decimal {
	if p.Target == shared.CurrencyBirr {
		return p.DeductTarget
	}
	return p.DeductOther
}

func (p Plan) DeductUSD() decimal.Decimal {
	if p.Target == shared.CurrencyUSD {
		return p.DeductTarget
	}
	return p.DeductOther
}

// Balances is the pair of pools a plan is computed against.
type Balances struct {
	Birr decimal.Decimal
	USD  decimal.Decimal
}

func (b Balances) in(c shared.Currency) decimal.Decimal {
	if c == shared.CurrencyUSD {
		return b.USD
	}
	return b.Birr
}

// PlanDeduction decides how much to take from each pool. The target pool is used
// first and only the remainder is converted, so conversion is kept to a minimum.
// Asking for exactly the combined value drains both pools. requested is ignored when
// drainAll is set.
func PlanDeduction(b Balances, requested decimal.Decimal, target shared.Currency, usdToBirr decimal.Decimal, drainAll bool) (Plan, error) {
	if !usdToBirr.IsPositive() {
		return Plan{}, shared.NewValidationError("exchange_rate", "must be positive")
	}
	other := target.Other()
	targetBal := b.in(target)
	otherBal := b.in(other)

	available := shared.Quantize(targetBal.Add(shared.Convert(otherBal, other, target, usdToBirr)))
	if drainAll {
		requested = available
	}
	requested = shared.Quantize(requested)

	plan := Plan{
		Target:    target,
		Requested: requested,
		Available: available,
		USDToBirr: usdToBirr,
	}

	if !requested.IsPositive() {
		if drainAll {
			return plan, shared.ErrNoFunds
		}
		return plan, shared.NewValidationError("amount", "must be positive")
	}
	if requested.GreaterThan(available) {
		return plan, shared.InsufficientFundsError{Requested: requested, Available: available, Currency: target}
	}

	if requested.Equal(available) {
		plan.DeductTarget = targetBal
		plan.DeductOther = otherBal
		return plan, nil
	}

	plan.DeductTarget = decimal.Min(requested, targetBal)
	plan.DeductOther = decimal.Zero
	if remainder := requested.Sub(plan.DeductTarget); remainder.IsPositive() {
		plan.DeductOther = shared.Convert(remainder, target, other, usdToBirr)
	}
	if plan.DeductOther.GreaterThan(otherBal) {
		return plan, shared.InsufficientFundsError{Requested: requested, Available: available, Currency: target}
	}
	return plan, nil
}
