package shared

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is one of the two pools a campaign holds.
type Currency string

const (
	CurrencyBirr Currency = "birr"
	CurrencyUSD  Currency = "usd"
)

// ParseCurrency accepts "birr"/"etb" and "usd" in any case.
func ParseCurrency(s string) (Currency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "birr", "etb":
		return CurrencyBirr, nil
	case "usd":
		return CurrencyUSD, nil
	}
	return "", NewValidationError("currency", "must be one of birr, usd")
}

// Other returns the opposite pool.
func (c Currency) Other() Currency {
	if c == CurrencyUSD {
		return CurrencyBirr
	}
	return CurrencyUSD
}

// ISOCode is the code used by the exchange-rate source.
func (c Currency) ISOCode() string {
	if c == CurrencyUSD {
		return "USD"
	}
	return "ETB"
}

// PaymentMethod tags the provider used for a donation or payout.
type PaymentMethod string

const (
	PaymentMethodPayPal   PaymentMethod = "paypal"
	PaymentMethodTelebirr PaymentMethod = "telebirr"
	PaymentMethodChapa    PaymentMethod = "chapa"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case PaymentMethodPayPal, PaymentMethodTelebirr, PaymentMethodChapa:
		return m, nil
	}
	return "", NewValidationError("payment_method", "must be one of paypal, telebirr, chapa")
}

// Currency is the pool a method settles in: PayPal in USD, the local providers in birr.
func (m PaymentMethod) Currency() Currency {
	if m == PaymentMethodPayPal {
		return CurrencyUSD
	}
	return CurrencyBirr
}

// Quantize rounds a monetary amount to cents, half to even.
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

// Convert moves amount between pools using usdToBirr, the single rate fetched for an
// operation. Birr to USD divides by the same rate so both directions agree.
func Convert(amount decimal.Decimal, from, to Currency, usdToBirr decimal.Decimal) decimal.Decimal {
	switch {
	case from == to:
		return Quantize(amount)
	case from == CurrencyUSD:
		return Quantize(amount.Mul(usdToBirr))
	default:
		return Quantize(amount.Div(usdToBirr))
	}
}
