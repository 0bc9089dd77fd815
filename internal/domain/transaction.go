package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the transaction type.
type Kind string

const (
	KindDeposit      Kind = "DEPOSIT"
	KindWithdraw     Kind = "WITHDRAW"
	KindManualCredit Kind = "MANUAL_CREDIT"
	KindManualDebit  Kind = "MANUAL_DEBIT"
	// KindManualLegacy is a deprecated credit kind kept for historical rows.
	KindManualLegacy Kind = "MANUAL"
)

// IsCredit reports whether the kind increases a dealer's balance.
func (k Kind) IsCredit() bool {
	switch k {
	case KindDeposit, KindManualCredit, KindManualLegacy:
		return true
	}
	return false
}

// IsDebit reports whether the kind decreases a dealer's balance.
func (k Kind) IsDebit() bool {
	return k == KindWithdraw || k == KindManualDebit
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k.IsCredit() || k.IsDebit()
}

// Status is the transaction lifecycle state.
type Status string

const (
	StatusWaitingAssignment Status = "WAITING_ASSIGNMENT"
	StatusPending           Status = "PENDING"
	StatusApproved          Status = "APPROVED"
	StatusRejected          Status = "REJECTED"
)

// Open reports whether the transaction still awaits a terminal decision.
func (s Status) Open() bool {
	return s == StatusWaitingAssignment || s == StatusPending
}

// Terminal reports whether the status is APPROVED or REJECTED.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Transaction is a ledger entry. Rows are append-mostly: once APPROVED or
// REJECTED they change only through the explicit requeue path.
type Transaction struct {
	ID               string
	Token            string  // idempotency token handed back on deposit creation
	DealerID         *string // nil while WAITING_ASSIGNMENT
	BankAccountID    *string // funding channel for deposits, payout account for withdrawals
	Kind             Kind
	Status           Status
	Amount           decimal.Decimal
	CommissionAmount decimal.Decimal
	Description      string
	TargetIBAN       string // withdrawals only
	TargetName       string
	ExternalUserID   string
	SenderName       string
	ReceiptRef       string // opaque reference to the payout receipt artifact
	RejectionReason  string
	ProcessedBy      string
	CreatedAt        time.Time
	ProcessedAt      *time.Time
}

// Validate checks invariants that must hold before the row is persisted.
func (t *Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if t.CommissionAmount.IsNegative() {
		return ErrInvalidCommission
	}
	if t.DealerID == nil && t.Status != StatusWaitingAssignment {
		return ErrDealerRequired
	}
	if t.Kind == KindWithdraw && t.TargetIBAN == "" {
		return ErrMissingTarget
	}
	return nil
}

// CanTransition reports whether moving to the given status is legal from the
// current one. The state machine is monotonic except for the two audited
// recovery paths (requeue and return-to-pool).
func (t *Transaction) CanTransition(to Status) bool {
	switch to {
	case StatusPending:
		// assignment from the pool, or admin requeue of a rejected row
		return t.Status == StatusWaitingAssignment || t.Status == StatusRejected
	case StatusApproved, StatusRejected:
		return t.Status == StatusPending
	case StatusWaitingAssignment:
		// return-to-pool, never from a terminal state
		return t.Status == StatusPending
	}
	return false
}

// NetAmount is the amount net of commission for credit kinds.
func (t *Transaction) NetAmount() decimal.Decimal {
	if t.Kind.IsCredit() {
		return t.Amount.Sub(t.CommissionAmount)
	}
	return t.Amount
}

// TransactionFilter narrows ledger queries. Zero values mean "any".
type TransactionFilter struct {
	DealerID string
	Kind     Kind
	Status   Status
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}
