package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kyilmaz/dealerpool/internal/domain"
	"github.com/kyilmaz/dealerpool/internal/usecase"
	"github.com/kyilmaz/dealerpool/internal/usecase/mocks"
)

// seedDealer stores a dealer together with an approved manual credit so the
// balance calculator reproduces the given net balance on every recompute.
func seedDealer(dealerRepo *mocks.FakeDealerRepository, txRepo *mocks.FakeTransactionRepository, id string, net int64) *domain.Dealer {
	dealer := &domain.Dealer{
		ID:             id,
		Name:           "Dealer " + id,
		NetBalance:     decimal.NewFromInt(net),
		ActiveBySystem: true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	dealerRepo.Create(context.Background(), dealer)

	if net != 0 {
		txRepo.Create(context.Background(), nil, &domain.Transaction{
			ID:             "seed-" + id,
			DealerID:       &dealer.ID,
			Kind:           domain.KindManualCredit,
			Status:         domain.StatusApproved,
			Amount:         decimal.NewFromInt(net),
			ExternalUserID: "ADMIN: seed",
			CreatedAt:      time.Now(),
		})
	}

	return dealer
}

func newWithdrawalUseCase(
	dealerRepo *mocks.FakeDealerRepository,
	txRepo *mocks.FakeTransactionRepository,
	cache usecase.Cache,
) *usecase.WithdrawalUseCase {
	return usecase.NewWithdrawalUseCase(
		mocks.NewFakeTransactionManager(),
		dealerRepo,
		txRepo,
		mocks.NewFakeOutboxRepository(),
		mocks.NewFakeAuditRepository(),
		mocks.NewFakeIDGenerator(),
		mocks.NewFakeRetrier(),
		cache,
		nil,
	)
}

func TestWithdrawalUseCase_CreateWithdrawal_Validation(t *testing.T) {
	uc := newWithdrawalUseCase(mocks.NewFakeDealerRepository(), mocks.NewFakeTransactionRepository(), nil)

	_, err := uc.CreateWithdrawal(context.Background(), usecase.CreateWithdrawalInput{
		DealerID:   "d1",
		Amount:     decimal.NewFromInt(-5),
		TargetIBAN: "TR00",
	})
	if err != domain.ErrInvalidAmount {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}

	_, err = uc.CreateWithdrawal(context.Background(), usecase.CreateWithdrawalInput{
		DealerID: "d1",
		Amount:   decimal.NewFromInt(100),
	})
	if err != domain.ErrMissingTarget {
		t.Errorf("expected ErrMissingTarget, got %v", err)
	}
}

func TestWithdrawalUseCase_CreateWithdrawal_AdmitsUntilExhausted(t *testing.T) {
	dealerRepo := mocks.NewFakeDealerRepository()
	txRepo := mocks.NewFakeTransactionRepository()
	seedDealer(dealerRepo, txRepo, "d1", 1000)

	uc := newWithdrawalUseCase(dealerRepo, txRepo, nil)

	for i, amount := range []int64{500, 400} {
		txn, err := uc.CreateWithdrawal(context.Background(), usecase.CreateWithdrawalInput{
			DealerID:   "d1",
			Amount:     decimal.NewFromInt(amount),
			TargetIBAN: "TR330006100519786457841326",
			ExternalID: fmt.Sprintf("user-%d", i),
		})
		if err != nil {
			t.Fatalf("withdrawal %d: unexpected error: %v", amount, err)
		}
		if txn.Status != domain.StatusPending {
			t.Errorf("withdrawal %d: expected PENDING, got %s", amount, txn.Status)
		}
	}

	// 500 + 400 pending against a balance of 1000 leaves 100 available.
	_, err := uc.CreateWithdrawal(context.Background(), usecase.CreateWithdrawalInput{
		DealerID:   "d1",
		Amount:     decimal.NewFromInt(200),
		TargetIBAN: "TR330006100519786457841326",
		ExternalID: "user-2",
	})

	var insufficient *domain.InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	}
	if !insufficient.Available.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected available 100, got %s", insufficient.Available)
	}
}

func TestWithdrawalUseCase_CreateWithdrawal_RejectsDuplicateExternalID(t *testing.T) {
	dealerRepo := mocks.NewFakeDealerRepository()
	txRepo := mocks.NewFakeTransactionRepository()
	seedDealer(dealerRepo, txRepo, "d1", 1000)

	uc := newWithdrawalUseCase(dealerRepo, txRepo, nil)

	input := usecase.CreateWithdrawalInput{
		DealerID:   "d1",
		Amount:     decimal.NewFromInt(100),
		TargetIBAN: "TR330006100519786457841326",
		ExternalID: "user-1",
	}

	if _, err := uc.CreateWithdrawal(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := uc.CreateWithdrawal(context.Background(), input)
	if err != domain.ErrDuplicateRequest {
		t.Errorf("expected ErrDuplicateRequest, got %v", err)
	}
}

func TestWithdrawalUseCase_CreateWithdrawal_PoolsMasterlessRequests(t *testing.T) {
	txRepo := mocks.NewFakeTransactionRepository()
	outboxRepo := mocks.NewFakeOutboxRepository()

	uc := usecase.NewWithdrawalUseCase(
		mocks.NewFakeTransactionManager(),
		mocks.NewFakeDealerRepository(),
		txRepo,
		outboxRepo,
		mocks.NewFakeAuditRepository(),
		mocks.NewFakeIDGenerator(),
		mocks.NewFakeRetrier(),
		nil,
		nil,
	)

	txn, err := uc.CreateWithdrawal(context.Background(), usecase.CreateWithdrawalInput{
		Amount:     decimal.NewFromInt(250),
		TargetIBAN: "TR330006100519786457841326",
		ExternalID: "user-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.Status != domain.StatusWaitingAssignment {
		t.Errorf("expected WAITING_ASSIGNMENT, got %s", txn.Status)
	}
	if txn.DealerID != nil {
		t.Errorf("expected no dealer, got %s", *txn.DealerID)
	}

	events := outboxRepo.Events()
	if len(events) != 1 || events[0].EventType != domain.EventTypeTransactionPooled {
		t.Errorf("expected one %s event, got %+v", domain.EventTypeTransactionPooled, events)
	}
}

func TestWithdrawalUseCase_CreateWithdrawal_InvalidatesDealerCache(t *testing.T) {
	dealerRepo := mocks.NewFakeDealerRepository()
	txRepo := mocks.NewFakeTransactionRepository()
	seedDealer(dealerRepo, txRepo, "d1", 1000)
	cache := mocks.NewFakeCache()

	uc := newWithdrawalUseCase(dealerRepo, txRepo, cache)

	if _, err := uc.CreateWithdrawal(context.Background(), usecase.CreateWithdrawalInput{
		DealerID:   "d1",
		Amount:     decimal.NewFromInt(100),
		TargetIBAN: "TR330006100519786457841326",
		ExternalID: "user-1",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deleted := cache.Deleted()
	if len(deleted) != 1 || deleted[0] != "dealer:d1" {
		t.Errorf("expected dealer:d1 invalidated, got %v", deleted)
	}
}

// Concurrent admissions against one dealer must never over-commit the balance.
// The serial transaction manager emulates the dealer row lock.
func TestWithdrawalUseCase_CreateWithdrawal_NoDoubleSpendUnderConcurrency(t *testing.T) {
	dealerRepo := mocks.NewFakeDealerRepository()
	txRepo := mocks.NewFakeTransactionRepository()
	seedDealer(dealerRepo, txRepo, "d1", 1000)

	uc := usecase.NewWithdrawalUseCase(
		mocks.NewSerialTransactionManager(),
		dealerRepo,
		txRepo,
		mocks.NewFakeOutboxRepository(),
		mocks.NewFakeAuditRepository(),
		mocks.NewFakeIDGenerator(),
		mocks.NewFakeRetrier(),
		nil,
		nil,
	)

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	var admitted, refused int

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := uc.CreateWithdrawal(context.Background(), usecase.CreateWithdrawalInput{
				DealerID:   "d1",
				Amount:     decimal.NewFromInt(150),
				TargetIBAN: "TR330006100519786457841326",
				ExternalID: fmt.Sprintf("user-%d", i),
			})

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				admitted++
				return
			}
			var insufficient *domain.InsufficientFundsError
			if errors.As(err, &insufficient) {
				refused++
				return
			}
			t.Errorf("unexpected error: %v", err)
		}(i)
	}
	wg.Wait()

	// 6 * 150 = 900 fits in 1000; the 7th would need 150 with only 100 left.
	if admitted != 6 {
		t.Errorf("expected 6 admitted, got %d", admitted)
	}
	if refused != 4 {
		t.Errorf("expected 4 refused, got %d", refused)
	}

	sum, _ := txRepo.SumPendingWithdrawals(context.Background(), nil, "d1")
	if sum.GreaterThan(decimal.NewFromInt(1000)) {
		t.Errorf("pending withdrawals %s exceed the balance", sum)
	}
}

func TestWithdrawalUseCase_GetTransaction(t *testing.T) {
	txRepo := mocks.NewFakeTransactionRepository()
	txRepo.Create(context.Background(), nil, &domain.Transaction{
		ID:     "tx-1",
		Kind:   domain.KindWithdraw,
		Status: domain.StatusWaitingAssignment,
		Amount: decimal.NewFromInt(100),
	})

	uc := newWithdrawalUseCase(mocks.NewFakeDealerRepository(), txRepo, nil)

	txn, err := uc.GetTransaction(context.Background(), "tx-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txn.ID != "tx-1" {
		t.Errorf("expected tx-1, got %s", txn.ID)
	}

	if _, err := uc.GetTransaction(context.Background(), "missing"); err != domain.ErrTransactionNotFound {
		t.Errorf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestWithdrawalUseCase_ListTransactions_DefaultsLimit(t *testing.T) {
	txRepo := mocks.NewFakeTransactionRepository()
	var gotFilter domain.TransactionFilter
	txRepo.ListFunc = func(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
		gotFilter = filter
		return nil, nil
	}

	uc := newWithdrawalUseCase(mocks.NewFakeDealerRepository(), txRepo, nil)

	if _, err := uc.ListTransactions(context.Background(), domain.TransactionFilter{Limit: 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotFilter.Limit != 50 {
		t.Errorf("expected default limit 50, got %d", gotFilter.Limit)
	}
}
