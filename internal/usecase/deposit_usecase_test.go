package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kyilmaz/dealerpool/internal/domain"
	"github.com/kyilmaz/dealerpool/internal/usecase"
	"github.com/kyilmaz/dealerpool/internal/usecase/mocks"
)

type depositFixture struct {
	dealerRepo *mocks.FakeDealerRepository
	txRepo     *mocks.FakeTransactionRepository
	bankRepo   *mocks.FakeBankAccountRepository
	uc         *usecase.DepositUseCase
}

func newDepositFixture() *depositFixture {
	f := &depositFixture{
		dealerRepo: mocks.NewFakeDealerRepository(),
		txRepo:     mocks.NewFakeTransactionRepository(),
		bankRepo:   mocks.NewFakeBankAccountRepository(),
	}
	f.uc = usecase.NewDepositUseCase(
		mocks.NewFakeTransactionManager(),
		f.dealerRepo,
		f.txRepo,
		f.bankRepo,
		mocks.NewFakeOutboxRepository(),
		mocks.NewFakeAuditRepository(),
		mocks.NewFakeIDGenerator(),
		mocks.NewFakeTokenGenerator(),
		nil,
	)
	return f
}

func (f *depositFixture) account(id, dealerID string, min, max int64) *domain.BankAccount {
	acc := &domain.BankAccount{
		ID:              id,
		DealerID:        dealerID,
		BankName:        "Test Bank",
		IBAN:            "TR" + id,
		AccountHolder:   "Holder " + id,
		MinDepositLimit: decimal.NewFromInt(min),
		MaxDepositLimit: decimal.NewFromInt(max),
		Active:          true,
		CreatedAt:       time.Now(),
	}
	f.bankRepo.Create(context.Background(), acc)
	return acc
}

func TestDepositUseCase_CreateDeposit(t *testing.T) {
	f := newDepositFixture()
	seedDealer(f.dealerRepo, f.txRepo, "d1", 0)
	f.account("acc-1", "d1", 10, 10000)

	result, err := f.uc.CreateDeposit(context.Background(), usecase.CreateDepositInput{
		Amount:         decimal.NewFromInt(500),
		PayerName:      "Ayse Yilmaz",
		ExternalUserID: "user-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Account.ID != "acc-1" {
		t.Errorf("expected acc-1, got %s", result.Account.ID)
	}
	txn := result.Transaction
	if txn.Kind != domain.KindDeposit || txn.Status != domain.StatusPending {
		t.Errorf("expected pending deposit, got %s/%s", txn.Kind, txn.Status)
	}
	if txn.Token == "" {
		t.Error("expected confirmation token")
	}
	if txn.DealerID == nil || *txn.DealerID != "d1" {
		t.Errorf("expected dealer d1, got %v", txn.DealerID)
	}

	// The row is PENDING; the balance does not move until approval.
	d, _ := f.dealerRepo.GetByID(context.Background(), "d1")
	if !d.NetBalance.Equal(decimal.Zero) {
		t.Errorf("expected net balance 0, got %s", d.NetBalance)
	}
}

func TestDepositUseCase_CreateDeposit_InvalidAmount(t *testing.T) {
	f := newDepositFixture()

	_, err := f.uc.CreateDeposit(context.Background(), usecase.CreateDepositInput{
		Amount: decimal.Zero,
	})
	if err != domain.ErrInvalidAmount {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestDepositUseCase_CreateDeposit_NoEligibleAccount(t *testing.T) {
	f := newDepositFixture()
	seedDealer(f.dealerRepo, f.txRepo, "d1", 0)
	// The only account caps deposits at 100.
	f.account("acc-1", "d1", 10, 100)

	_, err := f.uc.CreateDeposit(context.Background(), usecase.CreateDepositInput{
		Amount:         decimal.NewFromInt(500),
		ExternalUserID: "user-1",
	})
	if err != domain.ErrNoEligibleAccount {
		t.Errorf("expected ErrNoEligibleAccount, got %v", err)
	}
}

// A dealer at its ceiling is excluded from routing even when its accounts
// admit the amount.
func TestDepositUseCase_CreateDeposit_CeilingExcludesDealer(t *testing.T) {
	f := newDepositFixture()
	dealer := seedDealer(f.dealerRepo, f.txRepo, "d1", 900)
	dealer.BalanceCeiling = decimal.NewFromInt(1000)
	f.account("acc-1", "d1", 10, 10000)

	_, err := f.uc.CreateDeposit(context.Background(), usecase.CreateDepositInput{
		Amount:         decimal.NewFromInt(200),
		ExternalUserID: "user-1",
	})
	if err != domain.ErrNoEligibleAccount {
		t.Errorf("expected ErrNoEligibleAccount, got %v", err)
	}
}

func TestDepositUseCase_CreateDeposit_RoutesAcrossEligibleAccounts(t *testing.T) {
	f := newDepositFixture()
	seedDealer(f.dealerRepo, f.txRepo, "d1", 0)
	seedDealer(f.dealerRepo, f.txRepo, "d2", 0)
	f.account("acc-1", "d1", 10, 10000)
	f.account("acc-2", "d2", 10, 10000)

	// Routing is random; over enough attempts both accounts should be hit.
	hits := map[string]int{}
	for i := 0; i < 50; i++ {
		result, err := f.uc.CreateDeposit(context.Background(), usecase.CreateDepositInput{
			Amount:         decimal.NewFromInt(100),
			ExternalUserID: fmt.Sprintf("user-%d", i),
		})
		if err != nil {
			t.Fatalf("attempt %d: unexpected error: %v", i, err)
		}
		hits[result.Account.ID]++
		// Keep the external id open-duplicate check out of the way.
		result.Transaction.Status = domain.StatusRejected
		f.txRepo.Update(context.Background(), nil, result.Transaction)
	}

	if hits["acc-1"] == 0 || hits["acc-2"] == 0 {
		t.Errorf("expected both accounts used, got %v", hits)
	}
}

func TestDepositUseCase_CreateDeposit_RejectsDuplicateExternalID(t *testing.T) {
	f := newDepositFixture()
	seedDealer(f.dealerRepo, f.txRepo, "d1", 0)
	f.account("acc-1", "d1", 10, 10000)

	input := usecase.CreateDepositInput{
		Amount:         decimal.NewFromInt(100),
		ExternalUserID: "user-1",
	}

	if _, err := f.uc.CreateDeposit(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.uc.CreateDeposit(context.Background(), input); err != domain.ErrDuplicateRequest {
		t.Errorf("expected ErrDuplicateRequest, got %v", err)
	}
}

func TestDepositUseCase_ConfirmDeposit(t *testing.T) {
	f := newDepositFixture()
	dealerID := "d1"
	f.txRepo.Create(context.Background(), nil, &domain.Transaction{
		ID:       "tx-pending",
		Token:    "token-pending",
		DealerID: &dealerID,
		Kind:     domain.KindDeposit,
		Status:   domain.StatusPending,
		Amount:   decimal.NewFromInt(100),
	})
	f.txRepo.Create(context.Background(), nil, &domain.Transaction{
		ID:       "tx-approved",
		Token:    "token-approved",
		DealerID: &dealerID,
		Kind:     domain.KindDeposit,
		Status:   domain.StatusApproved,
		Amount:   decimal.NewFromInt(100),
	})
	f.txRepo.Create(context.Background(), nil, &domain.Transaction{
		ID:       "tx-rejected",
		Token:    "token-rejected",
		DealerID: &dealerID,
		Kind:     domain.KindDeposit,
		Status:   domain.StatusRejected,
		Amount:   decimal.NewFromInt(100),
	})

	tests := []struct {
		token string
		want  usecase.ConfirmStatus
	}{
		{"token-pending", usecase.ConfirmStatusConfirmed},
		{"token-approved", usecase.ConfirmStatusAlreadyProcessed},
		{"token-rejected", usecase.ConfirmStatusInvalid},
	}

	for _, tt := range tests {
		got, err := f.uc.ConfirmDeposit(context.Background(), tt.token)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.token, err)
		}
		if got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.token, tt.want, got)
		}
	}

	if _, err := f.uc.ConfirmDeposit(context.Background(), "missing"); err != domain.ErrTransactionNotFound {
		t.Errorf("expected ErrTransactionNotFound, got %v", err)
	}
}
