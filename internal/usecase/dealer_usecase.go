package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kyilmaz/dealerpool/internal/domain"
	"github.com/kyilmaz/dealerpool/internal/infrastructure/metrics"
)

// DealerUseCase manages dealer onboarding, funding channels and read paths.
type DealerUseCase struct {
	txManager  TransactionManager
	dealerRepo DealerRepository
	txRepo     TransactionRepository
	bankRepo   BankAccountRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	cache      Cache
	metrics    *metrics.Metrics
}

func NewDealerUseCase(
	txManager TransactionManager,
	dealerRepo DealerRepository,
	txRepo TransactionRepository,
	bankRepo BankAccountRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	cache Cache,
	metrics *metrics.Metrics,
) *DealerUseCase {
	return &DealerUseCase{
		txManager:  txManager,
		dealerRepo: dealerRepo,
		txRepo:     txRepo,
		bankRepo:   bankRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		cache:      cache,
		metrics:    metrics,
	}
}

// CreateDealerInput carries tenant onboarding data.
type CreateDealerInput struct {
	Name           string
	CommissionRate decimal.Decimal
	BalanceCeiling decimal.Decimal
	CanEditAmounts bool
}

// CreateDealer onboards a new sub-dealer with a zero balance.
func (uc *DealerUseCase) CreateDealer(ctx context.Context, input CreateDealerInput) (*domain.Dealer, error) {
	if input.Name == "" {
		return nil, domain.ErrDealerRequired
	}
	if input.CommissionRate.IsNegative() {
		return nil, domain.ErrInvalidCommission
	}

	now := time.Now().UTC()
	dealer := &domain.Dealer{
		ID:             uc.idGen.Generate(),
		Name:           input.Name,
		CommissionRate: input.CommissionRate,
		BalanceCeiling: input.BalanceCeiling,
		NetBalance:     decimal.Zero,
		ActiveBySystem: true,
		CanEditAmounts: input.CanEditAmounts,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.dealerRepo.Create(ctx, dealer); err != nil {
		return nil, err
	}

	if uc.auditRepo != nil {
		_ = uc.auditRepo.Create(ctx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			ActorID:      ActorFromContext(ctx),
			Action:       string(domain.AuditActionDealerCreate),
			ResourceType: "dealer",
			ResourceID:   dealer.ID,
			AfterState:   domain.MarshalState(dealer),
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    time.Now(),
		})
	}

	if uc.metrics != nil {
		uc.metrics.DealersCreated.Inc()
	}

	return dealer, nil
}

// GetDealer returns a dealer snapshot, served from cache when warm.
func (uc *DealerUseCase) GetDealer(ctx context.Context, id string) (*domain.Dealer, error) {
	key := "dealer:" + id

	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, key); err == nil && data != nil {
			var dealer domain.Dealer
			if err := json.Unmarshal(data, &dealer); err == nil {
				return &dealer, nil
			}
		}
	}

	dealer, err := uc.dealerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(dealer); err == nil {
			_ = uc.cache.Set(ctx, key, data, DealerCacheTTL)
		}
	}

	return dealer, nil
}

// ListDealers lists dealers with pagination.
func (uc *DealerUseCase) ListDealers(ctx context.Context, limit, offset int) ([]*domain.Dealer, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	return uc.dealerRepo.List(ctx, limit, offset)
}

// RefreshBalance forces a recompute from the transaction set. Operational
// escape hatch for when the cached balance is suspected stale.
func (uc *DealerUseCase) RefreshBalance(ctx context.Context, dealerID string) (*domain.Dealer, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, asBusy(err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	dealer, err := uc.dealerRepo.GetByIDForUpdate(txCtx, tx, dealerID)
	if err != nil {
		return nil, asBusy(err)
	}

	if _, err := recalculateDealer(txCtx, tx, uc.dealerRepo, uc.txRepo, dealer, time.Now().UTC()); err != nil {
		return nil, asBusy(err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, asBusy(err)
	}

	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, "dealer:"+dealerID)
	}

	if uc.auditRepo != nil {
		_ = uc.auditRepo.Create(ctx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			ActorID:      ActorFromContext(ctx),
			Action:       string(domain.AuditActionDealerRefresh),
			ResourceType: "dealer",
			ResourceID:   dealerID,
			AfterState:   domain.MarshalState(dealer),
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    time.Now(),
		})
	}

	return dealer, nil
}

// CreateBankAccountInput carries a new funding channel.
type CreateBankAccountInput struct {
	DealerID        string
	BankName        string
	IBAN            string
	AccountHolder   string
	DailyLimit      decimal.Decimal
	MinDepositLimit decimal.Decimal
	MaxDepositLimit decimal.Decimal
}

// CreateBankAccount registers a funding channel for a dealer.
func (uc *DealerUseCase) CreateBankAccount(ctx context.Context, input CreateBankAccountInput) (*domain.BankAccount, error) {
	if _, err := uc.dealerRepo.GetByID(ctx, input.DealerID); err != nil {
		return nil, err
	}

	account := &domain.BankAccount{
		ID:              uc.idGen.Generate(),
		DealerID:        input.DealerID,
		BankName:        input.BankName,
		IBAN:            input.IBAN,
		AccountHolder:   input.AccountHolder,
		DailyLimit:      input.DailyLimit,
		MinDepositLimit: input.MinDepositLimit,
		MaxDepositLimit: input.MaxDepositLimit,
		Active:          true,
		CreatedAt:       time.Now().UTC(),
	}

	if err := uc.bankRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// ListBankAccounts returns a dealer's funding channels.
func (uc *DealerUseCase) ListBankAccounts(ctx context.Context, dealerID string) ([]*domain.BankAccount, error) {
	return uc.bankRepo.ListByDealer(ctx, dealerID)
}

// SetBankAccountActive toggles a funding channel in or out of deposit routing.
func (uc *DealerUseCase) SetBankAccountActive(ctx context.Context, id string, active bool) error {
	if _, err := uc.bankRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return uc.bankRepo.SetActive(ctx, id, active)
}
