package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dealer represents a sub-dealer cash account holding a running net balance
// against a configurable ceiling.
type Dealer struct {
	ID             string
	Name           string
	CommissionRate decimal.Decimal // percentage, e.g. 2.50
	BalanceCeiling decimal.Decimal // auto-passivation threshold; <= 0 means unlimited
	NetBalance     decimal.Decimal // cache of ComputeBalance over approved transactions
	ActiveBySystem bool
	CanEditAmounts bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Unlimited reports whether the dealer has no effective ceiling.
func (d *Dealer) Unlimited() bool {
	return d.BalanceCeiling.LessThanOrEqual(decimal.Zero)
}

// CanReceiveDeposit checks that crediting amount keeps the dealer under its ceiling.
func (d *Dealer) CanReceiveDeposit(amount decimal.Decimal) bool {
	if !d.ActiveBySystem {
		return false
	}
	if d.Unlimited() {
		return true
	}
	return d.NetBalance.Add(amount).LessThanOrEqual(d.BalanceCeiling)
}

// CanCoverWithdrawal checks the cached balance against a withdrawal amount.
// The admission guard recomputes availability from pending rows; this is only
// the assignment-time precondition.
func (d *Dealer) CanCoverWithdrawal(amount decimal.Decimal) bool {
	return d.NetBalance.GreaterThanOrEqual(amount)
}
