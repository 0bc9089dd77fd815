package usecase_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/kyilmaz/dealerpool/internal/domain"
	"github.com/kyilmaz/dealerpool/internal/usecase"
	"github.com/kyilmaz/dealerpool/internal/usecase/mocks"
)

func TestDealerUseCase_CreateDealer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dealerRepo := mocks.NewMockDealerRepository(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)

	idGen.EXPECT().Generate().Return("dealer-1")
	dealerRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	uc := usecase.NewDealerUseCase(nil, dealerRepo, nil, nil, nil, idGen, nil, nil)

	dealer, err := uc.CreateDealer(context.Background(), usecase.CreateDealerInput{
		Name:           "Acme Sub-Dealer",
		CommissionRate: decimal.NewFromInt(5),
		BalanceCeiling: decimal.NewFromInt(10000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dealer.ID != "dealer-1" {
		t.Errorf("expected dealer-1, got %s", dealer.ID)
	}
	if !dealer.ActiveBySystem {
		t.Error("expected new dealer active")
	}
	if !dealer.NetBalance.Equal(decimal.Zero) {
		t.Errorf("expected zero balance, got %s", dealer.NetBalance)
	}
}

func TestDealerUseCase_CreateDealer_Validation(t *testing.T) {
	uc := usecase.NewDealerUseCase(nil, nil, nil, nil, nil, nil, nil, nil)

	_, err := uc.CreateDealer(context.Background(), usecase.CreateDealerInput{})
	if err != domain.ErrDealerRequired {
		t.Errorf("expected ErrDealerRequired, got %v", err)
	}

	_, err = uc.CreateDealer(context.Background(), usecase.CreateDealerInput{
		Name:           "Acme",
		CommissionRate: decimal.NewFromInt(-1),
	})
	if err != domain.ErrInvalidCommission {
		t.Errorf("expected ErrInvalidCommission, got %v", err)
	}
}

func TestDealerUseCase_GetDealer_CacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cached, _ := json.Marshal(&domain.Dealer{ID: "d1", Name: "Cached"})

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), "dealer:d1").Return(cached, nil)

	// No repository expectations: a warm cache never hits the database.
	uc := usecase.NewDealerUseCase(nil, mocks.NewMockDealerRepository(ctrl), nil, nil, nil, nil, cache, nil)

	dealer, err := uc.GetDealer(context.Background(), "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dealer.Name != "Cached" {
		t.Errorf("expected cached dealer, got %s", dealer.Name)
	}
}

func TestDealerUseCase_GetDealer_CacheMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dealerRepo := mocks.NewMockDealerRepository(ctrl)
	cache := mocks.NewMockCache(ctrl)

	cache.EXPECT().Get(gomock.Any(), "dealer:d1").Return(nil, nil)
	dealerRepo.EXPECT().GetByID(gomock.Any(), "d1").Return(&domain.Dealer{ID: "d1", Name: "Fresh"}, nil)
	cache.EXPECT().Set(gomock.Any(), "dealer:d1", gomock.Any(), usecase.DealerCacheTTL).Return(nil)

	uc := usecase.NewDealerUseCase(nil, dealerRepo, nil, nil, nil, nil, cache, nil)

	dealer, err := uc.GetDealer(context.Background(), "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dealer.Name != "Fresh" {
		t.Errorf("expected repository dealer, got %s", dealer.Name)
	}
}

func TestDealerUseCase_ListDealers_DefaultsLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dealerRepo := mocks.NewMockDealerRepository(ctrl)
	dealerRepo.EXPECT().List(gomock.Any(), 50, 0).Return([]*domain.Dealer{{ID: "d1"}}, nil)

	uc := usecase.NewDealerUseCase(nil, dealerRepo, nil, nil, nil, nil, nil, nil)

	dealers, err := uc.ListDealers(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dealers) != 1 {
		t.Errorf("expected 1 dealer, got %d", len(dealers))
	}
}

// RefreshBalance reruns the calculator from the transaction set, overwriting a
// stale cached balance.
func TestDealerUseCase_RefreshBalance(t *testing.T) {
	dealerRepo := mocks.NewFakeDealerRepository()
	txRepo := mocks.NewFakeTransactionRepository()
	cache := mocks.NewFakeCache()

	dealer := seedDealer(dealerRepo, txRepo, "d1", 300)
	dealer.NetBalance = decimal.NewFromInt(999) // stale

	uc := usecase.NewDealerUseCase(
		mocks.NewFakeTransactionManager(),
		dealerRepo,
		txRepo,
		mocks.NewFakeBankAccountRepository(),
		mocks.NewFakeAuditRepository(),
		mocks.NewFakeIDGenerator(),
		cache,
		nil,
	)

	refreshed, err := uc.RefreshBalance(context.Background(), "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !refreshed.NetBalance.Equal(decimal.NewFromInt(300)) {
		t.Errorf("expected recomputed balance 300, got %s", refreshed.NetBalance)
	}

	deleted := cache.Deleted()
	if len(deleted) != 1 || deleted[0] != "dealer:d1" {
		t.Errorf("expected dealer:d1 invalidated, got %v", deleted)
	}
}

func TestDealerUseCase_CreateBankAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dealerRepo := mocks.NewMockDealerRepository(ctrl)
	bankRepo := mocks.NewMockBankAccountRepository(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)

	dealerRepo.EXPECT().GetByID(gomock.Any(), "d1").Return(&domain.Dealer{ID: "d1"}, nil)
	idGen.EXPECT().Generate().Return("acc-1")
	bankRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	uc := usecase.NewDealerUseCase(nil, dealerRepo, nil, bankRepo, nil, idGen, nil, nil)

	account, err := uc.CreateBankAccount(context.Background(), usecase.CreateBankAccountInput{
		DealerID:        "d1",
		BankName:        "Test Bank",
		IBAN:            "TR330006100519786457841326",
		AccountHolder:   "Acme",
		MinDepositLimit: decimal.NewFromInt(10),
		MaxDepositLimit: decimal.NewFromInt(10000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if account.ID != "acc-1" || !account.Active {
		t.Errorf("expected active acc-1, got %+v", account)
	}
}

func TestDealerUseCase_CreateBankAccount_UnknownDealer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dealerRepo := mocks.NewMockDealerRepository(ctrl)
	dealerRepo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, domain.ErrDealerNotFound)

	uc := usecase.NewDealerUseCase(nil, dealerRepo, nil, nil, nil, nil, nil, nil)

	_, err := uc.CreateBankAccount(context.Background(), usecase.CreateBankAccountInput{DealerID: "missing"})
	if err != domain.ErrDealerNotFound {
		t.Errorf("expected ErrDealerNotFound, got %v", err)
	}
}

func TestDealerUseCase_SetBankAccountActive(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bankRepo := mocks.NewMockBankAccountRepository(ctrl)
	bankRepo.EXPECT().GetByID(gomock.Any(), "acc-1").Return(&domain.BankAccount{ID: "acc-1"}, nil)
	bankRepo.EXPECT().SetActive(gomock.Any(), "acc-1", false).Return(nil)

	uc := usecase.NewDealerUseCase(nil, nil, nil, bankRepo, nil, nil, nil, nil)

	if err := uc.SetBankAccountActive(context.Background(), "acc-1", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDealerUseCase_SetBankAccountActive_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bankRepo := mocks.NewMockBankAccountRepository(ctrl)
	bankRepo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, domain.ErrBankAccountNotFound)

	uc := usecase.NewDealerUseCase(nil, nil, nil, bankRepo, nil, nil, nil, nil)

	if err := uc.SetBankAccountActive(context.Background(), "missing", true); err != domain.ErrBankAccountNotFound {
		t.Errorf("expected ErrBankAccountNotFound, got %v", err)
	}
}
