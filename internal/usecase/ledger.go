package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/kyilmaz/dealerpool/internal/domain"
)

// recalculateDealer reruns the balance calculator for a dealer inside the
// caller's transaction and persists the result. The dealer row must already be
// locked by the caller.
func recalculateDealer(
	ctx context.Context,
	tx Transaction,
	dealers DealerRepository,
	transactions TransactionRepository,
	dealer *domain.Dealer,
	now time.Time,
) (domain.BalanceResult, error) {
	approved, err := transactions.ListApprovedByDealer(ctx, tx, dealer.ID)
	if err != nil {
		return domain.BalanceResult{}, err
	}

	result := domain.ComputeBalance(dealer, approved)

	if err := dealers.UpdateBalance(ctx, tx, dealer.ID, result.NetBalance, result.ActiveBySystem, now); err != nil {
		return domain.BalanceResult{}, err
	}

	dealer.NetBalance = result.NetBalance
	dealer.ActiveBySystem = result.ActiveBySystem

	return result, nil
}

// asBusy converts lock-wait expiry into the retryable busy error. Storage
// failures pass through untouched.
func asBusy(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrBusy
	}
	return err
}

// transactionEvent builds an outbox row for a transaction state change.
func transactionEvent(idGen IDGenerator, eventType string, t *domain.Transaction, now time.Time) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            idGen.Generate(),
		AggregateID:   t.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     eventType,
		Payload:       domain.NewTransactionEvent(t),
		CreatedAt:     now,
		Published:     false,
	}
}

type actorKey struct{}

// WithActor attaches an operator identity to the context.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the operator identity, defaulting to SystemActor.
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return SystemActor
}
