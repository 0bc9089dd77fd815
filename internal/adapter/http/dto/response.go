package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kyilmaz/dealerpool/internal/domain"
)

// DealerResponse represents a dealer in API responses.
type DealerResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	BalanceCeiling decimal.Decimal `json:"balance_ceiling"`
	NetBalance     decimal.Decimal `json:"net_balance"`
	ActiveBySystem bool            `json:"active_by_system"`
	CanEditAmounts bool            `json:"can_edit_amounts"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// DealerFromDomain converts a domain dealer to a response.
func DealerFromDomain(d *domain.Dealer) *DealerResponse {
	return &DealerResponse{
		ID:             d.ID,
		Name:           d.Name,
		CommissionRate: d.CommissionRate,
		BalanceCeiling: d.BalanceCeiling,
		NetBalance:     d.NetBalance,
		ActiveBySystem: d.ActiveBySystem,
		CanEditAmounts: d.CanEditAmounts,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// DealersFromDomain converts domain dealers to responses.
func DealersFromDomain(dealers []*domain.Dealer) []*DealerResponse {
	result := make([]*DealerResponse, len(dealers))
	for i, d := range dealers {
		result[i] = DealerFromDomain(d)
	}
	return result
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID               string          `json:"id"`
	Token            string          `json:"token,omitempty"`
	DealerID         *string         `json:"dealer_id,omitempty"`
	BankAccountID    *string         `json:"bank_account_id,omitempty"`
	Kind             string          `json:"kind"`
	Status           string          `json:"status"`
	Amount           decimal.Decimal `json:"amount"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	Description      string          `json:"description,omitempty"`
	TargetIBAN       string          `json:"target_iban,omitempty"`
	TargetName       string          `json:"target_name,omitempty"`
	ExternalUserID   string          `json:"external_user_id,omitempty"`
	SenderName       string          `json:"sender_name,omitempty"`
	ReceiptRef       string          `json:"receipt_ref,omitempty"`
	RejectionReason  string          `json:"rejection_reason,omitempty"`
	ProcessedBy      string          `json:"processed_by,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	ProcessedAt      *time.Time      `json:"processed_at,omitempty"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:               t.ID,
		Token:            t.Token,
		DealerID:         t.DealerID,
		BankAccountID:    t.BankAccountID,
		Kind:             string(t.Kind),
		Status:           string(t.Status),
		Amount:           t.Amount,
		CommissionAmount: t.CommissionAmount,
		Description:      t.Description,
		TargetIBAN:       t.TargetIBAN,
		TargetName:       t.TargetName,
		ExternalUserID:   t.ExternalUserID,
		SenderName:       t.SenderName,
		ReceiptRef:       t.ReceiptRef,
		RejectionReason:  t.RejectionReason,
		ProcessedBy:      t.ProcessedBy,
		CreatedAt:        t.CreatedAt,
		ProcessedAt:      t.ProcessedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txs []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txs))
	for i, t := range txs {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// BankAccountResponse represents a funding channel in API responses.
type BankAccountResponse struct {
	ID              string          `json:"id"`
	DealerID        string          `json:"dealer_id"`
	BankName        string          `json:"bank_name"`
	IBAN            string          `json:"iban"`
	AccountHolder   string          `json:"account_holder"`
	DailyLimit      decimal.Decimal `json:"daily_limit"`
	MinDepositLimit decimal.Decimal `json:"min_deposit_limit"`
	MaxDepositLimit decimal.Decimal `json:"max_deposit_limit"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
}

// BankAccountFromDomain converts a domain bank account to a response.
func BankAccountFromDomain(b *domain.BankAccount) *BankAccountResponse {
	return &BankAccountResponse{
		ID:              b.ID,
		DealerID:        b.DealerID,
		BankName:        b.BankName,
		IBAN:            b.IBAN,
		AccountHolder:   b.AccountHolder,
		DailyLimit:      b.DailyLimit,
		MinDepositLimit: b.MinDepositLimit,
		MaxDepositLimit: b.MaxDepositLimit,
		Active:          b.Active,
		CreatedAt:       b.CreatedAt,
	}
}

// BankAccountsFromDomain converts domain bank accounts to responses.
func BankAccountsFromDomain(accounts []*domain.BankAccount) []*BankAccountResponse {
	result := make([]*BankAccountResponse, len(accounts))
	for i, b := range accounts {
		result[i] = BankAccountFromDomain(b)
	}
	return result
}

// DepositCreatedResponse is handed back to the payer: the confirmation token
// and the funding channel to wire money to.
type DepositCreatedResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Account     *BankAccountResponse `json:"account"`
}

// ConfirmDepositResponse is the payer-visible confirmation outcome.
type ConfirmDepositResponse struct {
	Status string `json:"status"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Available string `json:"available,omitempty"`
}
