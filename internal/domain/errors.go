package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Validation
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidKind       = errors.New("unknown transaction kind")
	ErrInvalidCommission = errors.New("commission must not be negative")
	ErrDealerRequired    = errors.New("dealer is required outside the assignment pool")
	ErrMissingTarget     = errors.New("withdrawal requires a target IBAN")
	ErrMissingReason     = errors.New("rejection requires a reason")
	ErrMissingReceipt    = errors.New("withdrawal approval requires a payout account and receipt")

	// Lookup
	ErrDealerNotFound      = errors.New("dealer not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBankAccountNotFound = errors.New("bank account not found")

	// Admission and routing
	ErrNoEligibleAccount = errors.New("no eligible deposit account")
	ErrDuplicateRequest  = errors.New("open transaction already exists for this external id")
	ErrDealerInactive    = errors.New("dealer is not active")

	// State machine
	ErrInvalidTransition = errors.New("transition not legal from current status")

	// Concurrency
	ErrBusy = errors.New("dealer is busy, retry with backoff")
)

// InsufficientFundsError is returned by the withdrawal admission guard and
// carries the available amount computed under the dealer lock.
type InsufficientFundsError struct {
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s", e.Available.StringFixed(2))
}

// Is makes errors.Is(err, ErrInsufficientFunds) work for the typed error.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// ErrInsufficientFunds is the sentinel for InsufficientFundsError matching.
var ErrInsufficientFunds = errors.New("insufficient funds")
