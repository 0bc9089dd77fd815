package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kyilmaz/dealerpool/internal/domain"
	"github.com/kyilmaz/dealerpool/internal/infrastructure/metrics"
)

// AdjustmentUseCase applies operator-initiated manual credits and debits.
// Adjustments are born APPROVED with a frozen commission; they never pass
// through the assignment pool.
type AdjustmentUseCase struct {
	txManager  TransactionManager
	dealerRepo DealerRepository
	txRepo     TransactionRepository
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	cache      Cache
	metrics    *metrics.Metrics
}

func NewAdjustmentUseCase(
	txManager TransactionManager,
	dealerRepo DealerRepository,
	txRepo TransactionRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	cache Cache,
	metrics *metrics.Metrics,
) *AdjustmentUseCase {
	return &AdjustmentUseCase{
		txManager:  txManager,
		dealerRepo: dealerRepo,
		txRepo:     txRepo,
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		cache:      cache,
		metrics:    metrics,
	}
}

// ManualAdjustmentInput carries a manual credit or debit.
type ManualAdjustmentInput struct {
	DealerID       string
	Kind           domain.Kind // KindManualCredit or KindManualDebit
	Amount         decimal.Decimal
	CommissionRate decimal.Decimal // operator override, usually zero
	Description    string
}

// Apply records the adjustment and recomputes the dealer's balance in the same
// unit of work.
func (uc *AdjustmentUseCase) Apply(ctx context.Context, input ManualAdjustmentInput) (*domain.Transaction, error) {
	if input.Kind != domain.KindManualCredit && input.Kind != domain.KindManualDebit {
		return nil, domain.ErrInvalidKind
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, asBusy(err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	dealer, err := uc.dealerRepo.GetByIDForUpdate(txCtx, tx, input.DealerID)
	if err != nil {
		return nil, asBusy(err)
	}

	// Commission is frozen at creation for adjustments; only credit kinds
	// carry one.
	commission := decimal.Zero
	if input.Kind == domain.KindManualCredit {
		commission = domain.Commission(input.Amount, input.CommissionRate)
	}

	now := time.Now().UTC()
	actor := ActorFromContext(ctx)
	txn := &domain.Transaction{
		ID:               uc.idGen.Generate(),
		DealerID:         &dealer.ID,
		Kind:             input.Kind,
		Status:           domain.StatusApproved,
		Amount:           input.Amount,
		CommissionAmount: commission,
		Description:      input.Description,
		ExternalUserID:   "ADMIN: " + actor,
		ProcessedBy:      actor,
		ProcessedAt:      &now,
		CreatedAt:        now,
	}
	if err := txn.Validate(); err != nil {
		return nil, err
	}

	if err := uc.txRepo.Create(txCtx, tx, txn); err != nil {
		return nil, asBusy(err)
	}

	if _, err := recalculateDealer(txCtx, tx, uc.dealerRepo, uc.txRepo, dealer, now); err != nil {
		return nil, asBusy(err)
	}

	if err := uc.outboxRepo.Create(txCtx, tx, transactionEvent(uc.idGen, domain.EventTypeTransactionApproved, txn, now)); err != nil {
		return nil, err
	}

	if uc.auditRepo != nil {
		auditLog := &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			ActorID:      actor,
			Action:       string(domain.AuditActionManualAdjust),
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

	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, "dealer:"+dealer.ID)
	}

	if uc.metrics != nil {
		uc.metrics.ManualAdjustments.Inc()
	}

	return txn, nil
}
