package domain

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// Commission computes the fee withheld on a credit-type transaction:
// amount * rate / 100, rounded to 2 decimal places (half away from zero, the
// currency contract used throughout the ledger).
//
// Deposits take the dealer's current rate at approval time; manual adjustments
// freeze an operator-supplied rate at creation.
func Commission(amount, rate decimal.Decimal) decimal.Decimal {
	if rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return amount.Mul(rate).Div(oneHundred).Round(2)
}
