package campaign

import (
	"errors"
	"strings"
	"time"

	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyTitle      = shared.NewValidationError("title", "cannot be empty")
	ErrInvalidGoal     = shared.NewValidationError("goal", "must be positive")
	ErrInvalidAmount   = shared.NewValidationError("amount", "must be positive")
	ErrNegativeBalance = errors.New("deduction would make a balance negative")
)

// Campaign holds two independent currency pools and a funding goal.
type Campaign struct {
	ID           uuid.UUID       `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Goal         decimal.Decimal `json:"goal"`
	GoalCurrency shared.Currency `json:"goal_currency"`
	TotalBirr    decimal.Decimal `json:"total_birr"`
	TotalUSD     decimal.Decimal `json:"total_usd"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewCampaign creates a campaign with empty balances.
func NewCampaign(title, description string, goal decimal.Decimal, goalCurrency shared.Currency) (*Campaign, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}
	if !goal.IsPositive() {
		return nil, ErrInvalidGoal
	}
	if goalCurrency != shared.CurrencyBirr && goalCurrency != shared.CurrencyUSD {
		return nil, shared.NewValidationError("goal_currency", "must be one of birr, usd")
	}

	now := time.Now()
	return &Campaign{
		ID:           uuid.New(),
		Title:        title,
		Description:  description,
		Goal:         shared.Quantize(goal),
		GoalCurrency: goalCurrency,
		TotalBirr:    decimal.Zero,
		TotalUSD:     decimal.Zero,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Balance returns the pool held in currency c.
func (c *Campaign) Balance(cur shared.Currency) decimal.Decimal {
	if cur == shared.CurrencyUSD {
		return c.TotalUSD
	}
	return c.TotalBirr
}

// Credit adds a settled donation to the pool of its currency.
func (c *Campaign) Credit(cur shared.Currency, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	amount = shared.Quantize(amount)
	switch cur {
	case shared.CurrencyUSD:
		c.TotalUSD = shared.Quantize(c.TotalUSD.Add(amount))
	case shared.CurrencyBirr:
		c.TotalBirr = shared.Quantize(c.TotalBirr.Add(amount))
	default:
		return shared.NewValidationError("currency", "unknown currency "+string(cur))
	}
	c.touch()
	return nil
}

// Debit removes both parts of a withdrawal at once. Nothing changes if either pool
// would go negative.
func (c *Campaign) Debit(birr, usd decimal.Decimal) error {
	if birr.IsNegative() || usd.IsNegative() {
		return ErrInvalidAmount
	}
	nextBirr := shared.Quantize(c.TotalBirr.Sub(birr))
	nextUSD := shared.Quantize(c.TotalUSD.Sub(usd))
	if nextBirr.IsNegative() || nextUSD.IsNegative() {
		return ErrNegativeBalance
	}
	c.TotalBirr = nextBirr
	c.TotalUSD = nextUSD
	c.touch()
	return nil
}

// BalanceInUnifiedCurrency values both pools in target. rate converts one unit of the
// other currency into target.
func (c *Campaign) BalanceInUnifiedCurrency(target shared.Currency, rate decimal.Decimal) decimal.Decimal {
	converted := shared.Quantize(c.Balance(target.Other()).Mul(rate))
	return shared.Quantize(c.Balance(target).Add(converted))
}

// PercentageFunded measures progress in birr. usdToBirr is used both for the USD pool
// and for a USD-denominated goal.
func (c *Campaign) PercentageFunded(usdToBirr decimal.Decimal) decimal.Decimal {
	if !c.Goal.IsPositive() {
		return decimal.Zero
	}
	goal := c.Goal
	if c.GoalCurrency == shared.CurrencyUSD {
		goal = shared.Quantize(goal.Mul(usdToBirr))
	}
	if !goal.IsPositive() {
		return decimal.Zero
	}
	balance := c.BalanceInUnifiedCurrency(shared.CurrencyBirr, usdToBirr)
	return shared.Quantize(balance.Mul(decimal.NewFromInt(100)).Div(goal))
}

// HasFunds reports whether either pool is non-zero.
func (c *Campaign) HasFunds() bool {
	return c.TotalBirr.IsPositive() || c.TotalUSD.IsPositive()
}

func (c *Campaign) touch() {
	c.UpdatedAt = time.Now()
	c.Version++
}
