package usecase

import (
	"context"
	"time"

	"github.com/kyilmaz/dealerpool/internal/domain"
	"github.com/kyilmaz/dealerpool/internal/infrastructure/metrics"
)

// PoolUseCase drives the assignment state machine: pool -> pending ->
// approved/rejected, plus the two audited recovery paths.
type PoolUseCase struct {
	txManager  TransactionManager
	dealerRepo DealerRepository
	txRepo     TransactionRepository
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	cache      Cache
	metrics    *metrics.Metrics
}

func NewPoolUseCase(
	txManager TransactionManager,
	dealerRepo DealerRepository,
	txRepo TransactionRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	cache Cache,
	metrics *metrics.Metrics,
) *PoolUseCase {
	return &PoolUseCase{
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

// ListPool returns unassigned transactions oldest first.
func (uc *PoolUseCase) ListPool(ctx context.Context, limit, offset int) ([]*domain.Transaction, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	return uc.txRepo.ListPool(ctx, limit, offset)
}

// Assign moves a pooled transaction to a dealer. The dealer's balance is
// re-checked under its row lock right before commit; the pool screen's read
// may be stale.
func (uc *PoolUseCase) Assign(ctx context.Context, transactionID, dealerID string) (*domain.Transaction, error) {
	return uc.mutate(ctx, transactionID, domain.AuditActionAssign, func(txCtx context.Context, tx Transaction, txn *domain.Transaction, now time.Time) (string, *domain.Dealer, error) {
		if !txn.CanTransition(domain.StatusPending) || txn.Status != domain.StatusWaitingAssignment {
			return "", nil, domain.ErrInvalidTransition
		}

		dealer, err := uc.dealerRepo.GetByIDForUpdate(txCtx, tx, dealerID)
		if err != nil {
			return "", nil, asBusy(err)
		}
		if !dealer.CanCoverWithdrawal(txn.Amount) {
			return "", nil, &domain.InsufficientFundsError{Available: dealer.NetBalance}
		}

		txn.DealerID = &dealer.ID
		txn.Status = domain.StatusPending

		return domain.EventTypeTransactionAssigned, dealer, nil
	})
}

// ApproveInput carries the approval side data. Withdrawals must name the
// payout account and a receipt reference before the transition commits.
type ApproveInput struct {
	TransactionID string
	PayoutAccount string
	ReceiptRef    string
}

// Approve finalizes a pending transaction. For deposits the commission is
// recomputed from the dealer's current rate at this moment, not the rate at
// submission.
func (uc *PoolUseCase) Approve(ctx context.Context, input ApproveInput) (*domain.Transaction, error) {
	return uc.mutate(ctx, input.TransactionID, domain.AuditActionApprove, func(txCtx context.Context, tx Transaction, txn *domain.Transaction, now time.Time) (string, *domain.Dealer, error) {
		if !txn.CanTransition(domain.StatusApproved) {
			return "", nil, domain.ErrInvalidTransition
		}

		dealer, err := uc.dealerRepo.GetByIDForUpdate(txCtx, tx, *txn.DealerID)
		if err != nil {
			return "", nil, asBusy(err)
		}

		switch txn.Kind {
		case domain.KindDeposit:
			txn.CommissionAmount = domain.Commission(txn.Amount, dealer.CommissionRate)
		case domain.KindWithdraw:
			if input.PayoutAccount == "" || input.ReceiptRef == "" {
				return "", nil, domain.ErrMissingReceipt
			}
			txn.BankAccountID = &input.PayoutAccount
			txn.ReceiptRef = input.ReceiptRef
		}

		txn.Status = domain.StatusApproved
		txn.ProcessedAt = &now
		txn.ProcessedBy = ActorFromContext(ctx)

		return domain.EventTypeTransactionApproved, dealer, nil
	})
}

// Reject moves a pending transaction to REJECTED. A reason is mandatory.
func (uc *PoolUseCase) Reject(ctx context.Context, transactionID, reason string) (*domain.Transaction, error) {
	if reason == "" {
		return nil, domain.ErrMissingReason
	}
	return uc.mutate(ctx, transactionID, domain.AuditActionReject, func(txCtx context.Context, tx Transaction, txn *domain.Transaction, now time.Time) (string, *domain.Dealer, error) {
		if !txn.CanTransition(domain.StatusRejected) {
			return "", nil, domain.ErrInvalidTransition
		}

		txn.Status = domain.StatusRejected
		txn.RejectionReason = reason
		txn.ProcessedAt = &now
		txn.ProcessedBy = ActorFromContext(ctx)

		// No balance effect; rejected rows never counted. Recompute anyway so
		// the cache invariant holds after every status mutation.
		if txn.DealerID == nil {
			return domain.EventTypeTransactionRejected, nil, nil
		}
		dealer, err := uc.dealerRepo.GetByIDForUpdate(txCtx, tx, *txn.DealerID)
		if err != nil {
			return "", nil, asBusy(err)
		}
		return domain.EventTypeTransactionRejected, dealer, nil
	})
}

// Requeue is the admin-only error-correction path: REJECTED back to PENDING,
// clearing the processing record.
func (uc *PoolUseCase) Requeue(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return uc.mutate(ctx, transactionID, domain.AuditActionRequeue, func(txCtx context.Context, tx Transaction, txn *domain.Transaction, now time.Time) (string, *domain.Dealer, error) {
		if txn.Status != domain.StatusRejected {
			return "", nil, domain.ErrInvalidTransition
		}

		txn.Status = domain.StatusPending
		txn.ProcessedAt = nil
		txn.ProcessedBy = ""
		txn.RejectionReason = ""

		if txn.DealerID == nil {
			return domain.EventTypeTransactionRequeued, nil, nil
		}
		dealer, err := uc.dealerRepo.GetByIDForUpdate(txCtx, tx, *txn.DealerID)
		if err != nil {
			return "", nil, asBusy(err)
		}
		return domain.EventTypeTransactionRequeued, dealer, nil
	})
}

// ReturnToPool detaches a PENDING transaction from its dealer and makes it
// available for reassignment. The previous dealer's balance is recomputed
// immediately.
func (uc *PoolUseCase) ReturnToPool(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return uc.mutate(ctx, transactionID, domain.AuditActionReturnToPool, func(txCtx context.Context, tx Transaction, txn *domain.Transaction, now time.Time) (string, *domain.Dealer, error) {
		if !txn.CanTransition(domain.StatusWaitingAssignment) {
			return "", nil, domain.ErrInvalidTransition
		}

		previousDealer := txn.DealerID
		txn.DealerID = nil
		txn.Status = domain.StatusWaitingAssignment

		if previousDealer == nil {
			return domain.EventTypeTransactionPooled, nil, nil
		}
		dealer, err := uc.dealerRepo.GetByIDForUpdate(txCtx, tx, *previousDealer)
		if err != nil {
			return "", nil, asBusy(err)
		}
		return domain.EventTypeTransactionPooled, dealer, nil
	})
}

// mutate wraps a status transition in one atomic unit: lock the row, apply the
// transition, persist, recompute the affected dealer's balance, emit the
// outbox event, audit, commit. The transaction row must be persisted before
// the balance fold runs, otherwise the fold reads the pre-transition status
// and the just-approved amount is left out of the net balance.
func (uc *PoolUseCase) mutate(
	ctx context.Context,
	transactionID string,
	action domain.AuditAction,
	apply func(txCtx context.Context, tx Transaction, txn *domain.Transaction, now time.Time) (string, *domain.Dealer, error),
) (*domain.Transaction, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, asBusy(err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	txn, err := uc.txRepo.GetByIDForUpdate(txCtx, tx, transactionID)
	if err != nil {
		return nil, asBusy(err)
	}

	before := domain.MarshalState(txn)
	dealerBefore := txn.DealerID
	now := time.Now().UTC()

	eventType, dealer, err := apply(txCtx, tx, txn, now)
	if err != nil {
		return nil, err
	}

	if err := uc.txRepo.Update(txCtx, tx, txn); err != nil {
		return nil, asBusy(err)
	}

	if dealer != nil {
		if _, err := recalculateDealer(txCtx, tx, uc.dealerRepo, uc.txRepo, dealer, now); err != nil {
			return nil, asBusy(err)
		}
	}

	if err := uc.outboxRepo.Create(txCtx, tx, transactionEvent(uc.idGen, eventType, txn, now)); err != nil {
		return nil, err
	}

	if uc.auditRepo != nil {
		auditLog := &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			ActorID:      ActorFromContext(ctx),
			Action:       string(action),
			ResourceType: "transaction",
			ResourceID:   txn.ID,
			BeforeState:  before,
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

	if txn.DealerID != nil {
		uc.invalidateDealer(ctx, *txn.DealerID)
	}
	if dealerBefore != nil && (txn.DealerID == nil || *dealerBefore != *txn.DealerID) {
		uc.invalidateDealer(ctx, *dealerBefore)
	}

	if uc.metrics != nil {
		uc.metrics.Transitions.WithLabelValues(string(action)).Inc()
	}

	return txn, nil
}

func (uc *PoolUseCase) invalidateDealer(ctx context.Context, dealerID string) {
	if uc.cache == nil {
		return
	}
	_ = uc.cache.Delete(ctx, "dealer:"+dealerID)
}
