package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds every balance-affecting unit of work.
	// A dealer lock that cannot be acquired within this window surfaces as
	// domain.ErrBusy rather than blocking the caller indefinitely.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour

	// DealerCacheTTL bounds staleness of cached dealer snapshots. Snapshots
	// are invalidated on every balance recompute anyway.
	DealerCacheTTL = 5 * time.Minute

	// SystemActor is recorded as the processor when no operator is attached.
	SystemActor = "system"
)
