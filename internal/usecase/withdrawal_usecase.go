package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kyilmaz/dealerpool/internal/domain"
	"github.com/kyilmaz/dealerpool/internal/infrastructure/metrics"
)

// WithdrawalUseCase owns withdrawal admission. The no-double-spend property
// lives here: the balance read, the pending-withdrawal sum and the insert of
// the new PENDING row all happen under one dealer row lock.
type WithdrawalUseCase struct {
	txManager   TransactionManager
	dealerRepo  DealerRepository
	txRepo      TransactionRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	retrier     Retrier
	cache       Cache
	metrics     *metrics.Metrics
}

func NewWithdrawalUseCase(
	txManager TransactionManager,
	dealerRepo DealerRepository,
	txRepo TransactionRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	retrier Retrier,
	cache Cache,
	metrics *metrics.Metrics,
) *WithdrawalUseCase {
	return &WithdrawalUseCase{
		txManager:  txManager,
		dealerRepo: dealerRepo,
		txRepo:     txRepo,
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		retrier:    retrier,
		cache:      cache,
		metrics:    metrics,
	}
}

// CreateWithdrawalInput carries an inbound withdrawal request. DealerID may be
// empty: such requests go straight to the assignment pool.
type CreateWithdrawalInput struct {
	DealerID   string
	Amount     decimal.Decimal
	TargetIBAN string
	TargetName string
	ExternalID string
}

// CreateWithdrawal admits a withdrawal for a known dealer, or pools a
// masterless one. Returns the persisted transaction.
func (uc *WithdrawalUseCase) CreateWithdrawal(ctx context.Context, input CreateWithdrawalInput) (*domain.Transaction, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	if input.TargetIBAN == "" {
		return nil, domain.ErrMissingTarget
	}

	if input.DealerID == "" {
		return uc.createPooled(ctx, input)
	}

	var txn *domain.Transaction
	op := func() error {
		var err error
		txn, err = uc.admit(ctx, input)
		return err
	}

	// Serialization conflicts between concurrent admissions retry with
	// backoff; business refusals are permanent.
	if uc.retrier != nil {
		if err := uc.retrier.Retry(ctx, op); err != nil {
			return nil, err
		}
		return txn, nil
	}

	if err := op(); err != nil {
		return nil, err
	}
	return txn, nil
}

// admit runs one atomic admission attempt.
func (uc *WithdrawalUseCase) admit(ctx context.Context, input CreateWithdrawalInput) (*domain.Transaction, error) {
	start := time.Now()

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, asBusy(err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Lock the dealer row. Everything until commit is serialized per dealer.
	dealer, err := uc.dealerRepo.GetByIDForUpdate(txCtx, tx, input.DealerID)
	if err != nil {
		return nil, asBusy(err)
	}

	if dup, err := uc.txRepo.HasOpenByExternalID(txCtx, tx, input.ExternalID, domain.KindWithdraw); err != nil {
		return nil, asBusy(err)
	} else if dup {
		return nil, domain.ErrDuplicateRequest
	}

	// Pending withdrawals never reduce the cached balance, so availability is
	// recomputed from first principles on every admission.
	pendingSum, err := uc.txRepo.SumPendingWithdrawals(txCtx, tx, dealer.ID)
	if err != nil {
		return nil, asBusy(err)
	}

	available := dealer.NetBalance.Sub(pendingSum)
	if available.LessThan(input.Amount) {
		if uc.metrics != nil {
			uc.metrics.WithdrawalsRefused.Inc()
		}
		return nil, &domain.InsufficientFundsError{Available: available}
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:             uc.idGen.Generate(),
		DealerID:       &dealer.ID,
		Kind:           domain.KindWithdraw,
		Status:         domain.StatusPending,
		Amount:         input.Amount,
		TargetIBAN:     input.TargetIBAN,
		TargetName:     input.TargetName,
		ExternalUserID: input.ExternalID,
		CreatedAt:      now,
	}
	if err := txn.Validate(); err != nil {
		return nil, err
	}

	if err := uc.txRepo.Create(txCtx, tx, txn); err != nil {
		return nil, asBusy(err)
	}

	// The new row is PENDING and does not move the balance, but every status
	// mutation triggers the calculator by contract.
	if _, err := recalculateDealer(txCtx, tx, uc.dealerRepo, uc.txRepo, dealer, now); err != nil {
		return nil, asBusy(err)
	}

	if err := uc.outboxRepo.Create(txCtx, tx, transactionEvent(uc.idGen, domain.EventTypeTransactionCreated, txn, now)); err != nil {
		return nil, err
	}

	if uc.auditRepo != nil {
		auditLog := &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			ActorID:      ActorFromContext(ctx),
			Action:       string(domain.AuditActionWithdrawalCreate),
			ResourceType: "transaction",
			ResourceID:   txn.ID,
			AfterState:   domain.MarshalState(txn),
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    time.Now(),
		}
		if err := uc.auditRepo.CreateTx(txCtx, tx, auditLog); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, asBusy(err)
	}

	uc.invalidateDealer(ctx, dealer.ID)

	if uc.metrics != nil {
		uc.metrics.WithdrawalsAdmitted.Inc()
		uc.metrics.AdmissionDuration.Observe(time.Since(start).Seconds())
	}

	return txn, nil
}

// createPooled records a masterless withdrawal directly in the pool.
func (uc *WithdrawalUseCase) createPooled(ctx context.Context, input CreateWithdrawalInput) (*domain.Transaction, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, asBusy(err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if dup, err := uc.txRepo.HasOpenByExternalID(txCtx, tx, input.ExternalID, domain.KindWithdraw); err != nil {
		return nil, asBusy(err)
	} else if dup {
		return nil, domain.ErrDuplicateRequest
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:             uc.idGen.Generate(),
		Kind:           domain.KindWithdraw,
		Status:         domain.StatusWaitingAssignment,
		Amount:         input.Amount,
		TargetIBAN:     input.TargetIBAN,
		TargetName:     input.TargetName,
		ExternalUserID: input.ExternalID,
		CreatedAt:      now,
	}
	if err := txn.Validate(); err != nil {
		return nil, err
	}

	if err := uc.txRepo.Create(txCtx, tx, txn); err != nil {
		return nil, asBusy(err)
	}

	if err := uc.outboxRepo.Create(txCtx, tx, transactionEvent(uc.idGen, domain.EventTypeTransactionPooled, txn, now)); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, asBusy(err)
	}

	if uc.metrics != nil {
		uc.metrics.PoolCreated.Inc()
	}

	return txn, nil
}

// GetTransaction looks up a single transaction.
func (uc *WithdrawalUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.txRepo.GetByID(ctx, id)
}

// ListTransactions queries the ledger with filters.
func (uc *WithdrawalUseCase) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	if filter.Limit <= 0 || filter.Limit > 1000 {
		filter.Limit = 50
	}
	return uc.txRepo.List(ctx, filter)
}

func (uc *WithdrawalUseCase) invalidateDealer(ctx context.Context, dealerID string) {
	if uc.cache == nil {
		return
	}
	_ = uc.cache.Delete(ctx, "dealer:"+dealerID)
}
