package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kyilmaz/dealerpool/internal/domain"
)

// DealerRepository defines data access for sub-dealer accounts.
type DealerRepository interface {
	Create(ctx context.Context, dealer *domain.Dealer) error
	GetByID(ctx context.Context, id string) (*domain.Dealer, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Dealer, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, net decimal.Decimal, active bool, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Dealer, error)
}

// TransactionRepository defines data access for ledger transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, t *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Transaction, error)
	GetByToken(ctx context.Context, token string) (*domain.Transaction, error)
	// Update persists the mutable fields of an existing row.
	Update(ctx context.Context, tx Transaction, t *domain.Transaction) error
	// ListApprovedByDealer feeds the balance calculator. Runs inside the
	// caller's transaction so the aggregation sees its own writes.
	ListApprovedByDealer(ctx context.Context, tx Transaction, dealerID string) ([]*domain.Transaction, error)
	// SumPendingWithdrawals is the admission guard's availability input.
	SumPendingWithdrawals(ctx context.Context, tx Transaction, dealerID string) (decimal.Decimal, error)
	// HasOpenByExternalID reports whether a PENDING or WAITING_ASSIGNMENT row
	// of the given kind exists for the external actor.
	HasOpenByExternalID(ctx context.Context, tx Transaction, externalID string, kind domain.Kind) (bool, error)
	List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
	ListPool(ctx context.Context, limit, offset int) ([]*domain.Transaction, error)
}

// BankAccountRepository defines data access for dealer funding channels.
type BankAccountRepository interface {
	Create(ctx context.Context, account *domain.BankAccount) error
	GetByID(ctx context.Context, id string) (*domain.BankAccount, error)
	// ListEligibleForDeposit returns active accounts of system-active dealers
	// whose [min,max] deposit bounds admit the amount. The ceiling check
	// happens in the usecase against the owning dealer.
	ListEligibleForDeposit(ctx context.Context, amount decimal.Decimal) ([]*domain.BankAccount, error)
	ListByDealer(ctx context.Context, dealerID string) ([]*domain.BankAccount, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier retries an operation on transient serialization conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique entity IDs.
type IDGenerator interface {
	Generate() string
}

// TokenGenerator generates opaque deposit confirmation tokens.
type TokenGenerator interface {
	NewToken() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
