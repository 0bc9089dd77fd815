package dto

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/kyilmaz/dealerpool/internal/domain"
	"github.com/kyilmaz/dealerpool/internal/usecase"
)

var validate = validator.New()

// CreateDepositRequest represents an inbound deposit from the payment surface.
type CreateDepositRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	PayerName      string          `json:"payer_name"`
	ExternalUserID string          `json:"external_user_id" validate:"required"`
}

// Validate checks required fields.
func (r *CreateDepositRequest) Validate() error {
	return validate.Struct(r)
}

// ToUseCaseInput converts to use case input.
func (r *CreateDepositRequest) ToUseCaseInput() usecase.CreateDepositInput {
	return usecase.CreateDepositInput{
		Amount:         r.Amount,
		PayerName:      r.PayerName,
		ExternalUserID: r.ExternalUserID,
	}
}

// ConfirmDepositRequest carries the deposit confirmation token.
type ConfirmDepositRequest struct {
	Token string `json:"token" validate:"required"`
}

// Validate checks required fields.
func (r *ConfirmDepositRequest) Validate() error {
	return validate.Struct(r)
}

// CreateWithdrawalRequest represents an inbound withdrawal request.
// DealerID may be empty, which sends the request to the assignment pool.
type CreateWithdrawalRequest struct {
	DealerID       string          `json:"dealer_id"`
	Amount         decimal.Decimal `json:"amount"`
	TargetIBAN     string          `json:"target_iban" validate:"required"`
	TargetName     string          `json:"target_name"`
	ExternalUserID string          `json:"external_user_id" validate:"required"`
}

// Validate checks required fields.
func (r *CreateWithdrawalRequest) Validate() error {
	return validate.Struct(r)
}

// ToUseCaseInput converts to use case input.
func (r *CreateWithdrawalRequest) ToUseCaseInput() usecase.CreateWithdrawalInput {
	return usecase.CreateWithdrawalInput{
		DealerID:   r.DealerID,
		Amount:     r.Amount,
		TargetIBAN: r.TargetIBAN,
		TargetName: r.TargetName,
		ExternalID: r.ExternalUserID,
	}
}

// AssignRequest names the dealer a pooled withdrawal should be assigned to.
type AssignRequest struct {
	DealerID string `json:"dealer_id" validate:"required"`
}

// Validate checks required fields.
func (r *AssignRequest) Validate() error {
	return validate.Struct(r)
}

// ApproveRequest carries the approval side data for a pending transaction.
type ApproveRequest struct {
	PayoutAccount string `json:"payout_account"`
	ReceiptRef    string `json:"receipt_ref"`
}

// ToUseCaseInput converts to use case input.
func (r *ApproveRequest) ToUseCaseInput(transactionID string) usecase.ApproveInput {
	return usecase.ApproveInput{
		TransactionID: transactionID,
		PayoutAccount: r.PayoutAccount,
		ReceiptRef:    r.ReceiptRef,
	}
}

// RejectRequest carries the mandatory rejection reason.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// Validate checks required fields.
func (r *RejectRequest) Validate() error {
	return validate.Struct(r)
}

// ManualAdjustmentRequest represents an operator credit or debit.
type ManualAdjustmentRequest struct {
	DealerID       string          `json:"dealer_id" validate:"required"`
	Kind           string          `json:"kind" validate:"required,oneof=MANUAL_CREDIT MANUAL_DEBIT"`
	Amount         decimal.Decimal `json:"amount"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	Description    string          `json:"description"`
}

// Validate checks required fields.
func (r *ManualAdjustmentRequest) Validate() error {
	return validate.Struct(r)
}

// ToUseCaseInput converts to use case input.
func (r *ManualAdjustmentRequest) ToUseCaseInput() usecase.ManualAdjustmentInput {
	return usecase.ManualAdjustmentInput{
		DealerID:       r.DealerID,
		Kind:           domain.Kind(r.Kind),
		Amount:         r.Amount,
		CommissionRate: r.CommissionRate,
		Description:    r.Description,
	}
}

// CreateDealerRequest represents tenant onboarding data.
type CreateDealerRequest struct {
	Name           string          `json:"name" validate:"required"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	BalanceCeiling decimal.Decimal `json:"balance_ceiling"`
	CanEditAmounts bool            `json:"can_edit_amounts"`
}

// Validate checks required fields.
func (r *CreateDealerRequest) Validate() error {
	return validate.Struct(r)
}

// ToUseCaseInput converts to use case input.
func (r *CreateDealerRequest) ToUseCaseInput() usecase.CreateDealerInput {
	return usecase.CreateDealerInput{
		Name:           r.Name,
		CommissionRate: r.CommissionRate,
		BalanceCeiling: r.BalanceCeiling,
		CanEditAmounts: r.CanEditAmounts,
	}
}

// CreateBankAccountRequest registers a funding channel for a dealer.
type CreateBankAccountRequest struct {
	BankName        string          `json:"bank_name" validate:"required"`
	IBAN            string          `json:"iban" validate:"required"`
	AccountHolder   string          `json:"account_holder" validate:"required"`
	DailyLimit      decimal.Decimal `json:"daily_limit"`
	MinDepositLimit decimal.Decimal `json:"min_deposit_limit"`
	MaxDepositLimit decimal.Decimal `json:"max_deposit_limit"`
}

// Validate checks required fields.
func (r *CreateBankAccountRequest) Validate() error {
	return validate.Struct(r)
}

// ToUseCaseInput converts to use case input.
func (r *CreateBankAccountRequest) ToUseCaseInput(dealerID string) usecase.CreateBankAccountInput {
	return usecase.CreateBankAccountInput{
		DealerID:        dealerID,
		BankName:        r.BankName,
		IBAN:            r.IBAN,
		AccountHolder:   r.AccountHolder,
		DailyLimit:      r.DailyLimit,
		MinDepositLimit: r.MinDepositLimit,
		MaxDepositLimit: r.MaxDepositLimit,
	}
}

// SetBankAccountActiveRequest toggles routing eligibility.
type SetBankAccountActiveRequest struct {
	Active bool `json:"active"`
}
