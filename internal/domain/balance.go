package domain

import "github.com/shopspring/decimal"

// BalanceResult is the output of ComputeBalance.
type BalanceResult struct {
	NetBalance     decimal.Decimal
	ActiveBySystem bool
}

// ComputeBalance recomputes a dealer's net balance and system-active flag from
// its transaction set. Only APPROVED rows count; pending withdrawals are the
// admission guard's concern, not the calculator's.
//
//	net = approved credits - approved debits - approved commissions
//
// The passivation latch is one-way: once the ceiling is reached the flag goes
// false and no automated path flips it back. A ceiling <= 0 disables the latch.
func ComputeBalance(dealer *Dealer, txs []*Transaction) BalanceResult {
	var grossIn, grossOut, commission decimal.Decimal

	for _, t := range txs {
		if t.Status != StatusApproved {
			continue
		}
		switch {
		case t.Kind.IsCredit():
			grossIn = grossIn.Add(t.Amount)
		case t.Kind.IsDebit():
			grossOut = grossOut.Add(t.Amount)
		}
		commission = commission.Add(t.CommissionAmount)
	}

	net := grossIn.Sub(grossOut).Sub(commission)

	active := dealer.ActiveBySystem
	if !dealer.Unlimited() && net.GreaterThanOrEqual(dealer.BalanceCeiling) {
		active = false
	}

	return BalanceResult{NetBalance: net, ActiveBySystem: active}
}
