// Package money keeps all currency amounts in integer minor units (cents).
// Decimal arithmetic only appears at the two edges: parsing request payloads
// and applying a commission rate during settlement.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var centsFactor = decimal.NewFromInt(100)

// FromDecimal converts a decimal currency amount into cents. Amounts with
// sub-cent precision are rejected rather than silently rounded.
func FromDecimal(amount decimal.Decimal) (int64, error) {
	cents := amount.Mul(centsFactor)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-cent precision", amount)
	}
	return cents.IntPart(), nil
}

// ToDecimal renders cents as a decimal currency amount with two places.
func ToDecimal(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(centsFactor)
}

// NetAfterCommission returns gross*(1-rate) rounded half-to-even to a whole
// number of cents. Rounding happens exactly once, on the final figure, so a
// seller's credit for an order is deterministic.
func NetAfterCommission(grossCents int64, rate decimal.Decimal) int64 {
	net := decimal.NewFromInt(grossCents).Mul(decimal.NewFromInt(1).Sub(rate))
	return net.RoundBank(0).IntPart()
}

// Format renders cents as a human-readable amount, e.g. 180050 -> "1800.50".
func Format(cents int64) string {
	return ToDecimal(cents).StringFixed(2)
}
