package fx

import "github.com/shopspring/decimal"

// Convert renders a base-currency amount in a target currency: multiply by
// the snapshot rate and round to two decimal places with ties away from
// zero (half-up, not banker's rounding). Same-currency display must bypass
// conversion entirely rather than multiplying by an identity rate.
func Convert(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}
