package usecase

import (
	"context"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kyilmaz/dealerpool/internal/domain"
	"github.com/kyilmaz/dealerpool/internal/infrastructure/metrics"
)

// DepositUseCase routes inbound deposits to an eligible funding channel and
// handles payer-side confirmation by token.
type DepositUseCase struct {
	txManager  TransactionManager
	dealerRepo DealerRepository
	txRepo     TransactionRepository
	bankRepo   BankAccountRepository
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	tokenGen   TokenGenerator
	metrics    *metrics.Metrics
}

func NewDepositUseCase(
	txManager TransactionManager,
	dealerRepo DealerRepository,
	txRepo TransactionRepository,
	bankRepo BankAccountRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	tokenGen TokenGenerator,
	metrics *metrics.Metrics,
) *DepositUseCase {
	return &DepositUseCase{
		txManager:  txManager,
		dealerRepo: dealerRepo,
		txRepo:     txRepo,
		bankRepo:   bankRepo,
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		tokenGen:   tokenGen,
		metrics:    metrics,
	}
}

// CreateDepositInput carries an inbound deposit request from the external
// payment surface.
type CreateDepositInput struct {
	Amount         decimal.Decimal
	PayerName      string
	ExternalUserID string
}

// CreateDepositResult is handed back to the payer: the confirmation token and
// the funding channel to wire money to.
type CreateDepositResult struct {
	Transaction *domain.Transaction
	Account     *domain.BankAccount
}

// CreateDeposit picks an eligible bank account uniformly at random and creates
// the deposit as PENDING against that account's dealer.
func (uc *DepositUseCase) CreateDeposit(ctx context.Context, input CreateDepositInput) (*CreateDepositResult, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	candidates, err := uc.bankRepo.ListEligibleForDeposit(ctx, input.Amount)
	if err != nil {
		return nil, err
	}

	// The repository filtered on account bounds and dealer activity; the
	// ceiling check needs live dealer state.
	type candidate struct {
		account *domain.BankAccount
		dealer  *domain.Dealer
	}
	eligible := make([]candidate, 0, len(candidates))
	seen := make(map[string]*domain.Dealer)
	for _, acc := range candidates {
		dealer, ok := seen[acc.DealerID]
		if !ok {
			dealer, err = uc.dealerRepo.GetByID(ctx, acc.DealerID)
			if err != nil {
				return nil, err
			}
			seen[acc.DealerID] = dealer
		}
		if dealer.CanReceiveDeposit(input.Amount) {
			eligible = append(eligible, candidate{account: acc, dealer: dealer})
		}
	}

	if len(eligible) == 0 {
		if uc.metrics != nil {
			uc.metrics.RoutingFailures.Inc()
		}
		return nil, domain.ErrNoEligibleAccount
	}

	// Uniform pick for load balancing, not priority routing.
	chosen := eligible[rand.Intn(len(eligible))]

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, asBusy(err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Lock the dealer and re-check the ceiling; the pre-filter read was
	// stale-tolerant.
	dealer, err := uc.dealerRepo.GetByIDForUpdate(txCtx, tx, chosen.dealer.ID)
	if err != nil {
		return nil, asBusy(err)
	}
	if !dealer.CanReceiveDeposit(input.Amount) {
		return nil, domain.ErrNoEligibleAccount
	}

	if dup, err := uc.txRepo.HasOpenByExternalID(txCtx, tx, input.ExternalUserID, domain.KindDeposit); err != nil {
		return nil, asBusy(err)
	} else if dup {
		return nil, domain.ErrDuplicateRequest
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:             uc.idGen.Generate(),
		Token:          uc.tokenGen.NewToken(),
		DealerID:       &dealer.ID,
		BankAccountID:  &chosen.account.ID,
		Kind:           domain.KindDeposit,
		Status:         domain.StatusPending,
		Amount:         input.Amount,
		SenderName:     input.PayerName,
		ExternalUserID: input.ExternalUserID,
		Description:    "Depositor: " + input.PayerName,
		CreatedAt:      now,
	}
	if err := txn.Validate(); err != nil {
		return nil, err
	}

	if err := uc.txRepo.Create(txCtx, tx, txn); err != nil {
		return nil, asBusy(err)
	}

	if err := uc.outboxRepo.Create(txCtx, tx, transactionEvent(uc.idGen, domain.EventTypeTransactionCreated, txn, now)); err != nil {
		return nil, err
	}

	if uc.auditRepo != nil {
		auditLog := &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			ActorID:      ActorFromContext(ctx),
			Action:       string(domain.AuditActionDepositCreate),
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

	if uc.metrics != nil {
		uc.metrics.DepositsRouted.Inc()
	}

	return &CreateDepositResult{Transaction: txn, Account: chosen.account}, nil
}

// ConfirmStatus is the payer-visible confirmation outcome.
type ConfirmStatus string

const (
	ConfirmStatusConfirmed        ConfirmStatus = "confirmed"
	ConfirmStatusAlreadyProcessed ConfirmStatus = "already_processed"
	ConfirmStatusInvalid          ConfirmStatus = "invalid"
)

// ConfirmDeposit resolves a deposit token. It never mutates the ledger: the
// payer's confirmation only acknowledges that the transfer is on its way;
// approval remains the dealer's decision.
func (uc *DepositUseCase) ConfirmDeposit(ctx context.Context, token string) (ConfirmStatus, error) {
	txn, err := uc.txRepo.GetByToken(ctx, token)
	if err != nil {
		return "", err
	}

	switch txn.Status {
	case domain.StatusPending:
		return ConfirmStatusConfirmed, nil
	case domain.StatusApproved:
		return ConfirmStatusAlreadyProcessed, nil
	default:
		return ConfirmStatusInvalid, nil
	}
}
