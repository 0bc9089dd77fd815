package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankAccount is a funding channel owned by a dealer. The core only reads it
// for deposit eligibility filtering.
type BankAccount struct {
	ID              string
	DealerID        string
	BankName        string
	IBAN            string
	AccountHolder   string
	DailyLimit      decimal.Decimal
	MinDepositLimit decimal.Decimal
	MaxDepositLimit decimal.Decimal
	Active          bool
	CreatedAt       time.Time
}

// AcceptsAmount checks the per-transaction deposit bounds.
func (b *BankAccount) AcceptsAmount(amount decimal.Decimal) bool {
	if !b.Active {
		return false
	}
	return amount.GreaterThanOrEqual(b.MinDepositLimit) &&
		amount.LessThanOrEqual(b.MaxDepositLimit)
}
