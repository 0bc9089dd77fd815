package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kyilmaz/dealerpool/internal/domain"
	"github.com/kyilmaz/dealerpool/internal/usecase"
)

// FakeDealerRepository is an in-memory implementation of DealerRepository.
// With Snapshot set, reads return copies so in-memory mutations stay invisible
// until an explicit write, like rows read from a database.
type FakeDealerRepository struct {
	mu      sync.RWMutex
	dealers map[string]*domain.Dealer

	Snapshot bool

	CreateFunc           func(ctx context.Context, dealer *domain.Dealer) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Dealer, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Dealer, error)
	UpdateBalanceFunc    func(ctx context.Context, tx usecase.Transaction, id string, net decimal.Decimal, active bool, updatedAt time.Time) error
	ListFunc             func(ctx context.Context, limit, offset int) ([]*domain.Dealer, error)
}

func NewFakeDealerRepository() *FakeDealerRepository {
	return &FakeDealerRepository{
		dealers: make(map[string]*domain.Dealer),
	}
}

func (m *FakeDealerRepository) Create(ctx context.Context, dealer *domain.Dealer) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, dealer)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dealers[dealer.ID] = dealer
	return nil
}

func (m *FakeDealerRepository) GetByID(ctx context.Context, id string) (*domain.Dealer, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.dealers[id]; ok {
		if m.Snapshot {
			c := *d
			return &c, nil
		}
		return d, nil
	}
	return nil, domain.ErrDealerNotFound
}

func (m *FakeDealerRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Dealer, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *FakeDealerRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, net decimal.Decimal, active bool, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, net, active, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.dealers[id]; ok {
		d.NetBalance = net
		d.ActiveBySystem = active
		d.UpdatedAt = updatedAt
	}
	return nil
}

func (m *FakeDealerRepository) List(ctx context.Context, limit, offset int) ([]*domain.Dealer, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var dealers []*domain.Dealer
	for _, d := range m.dealers {
		dealers = append(dealers, d)
	}
	return dealers, nil
}

// FakeTransactionRepository is an in-memory implementation of
// TransactionRepository. With Snapshot set, reads and writes copy rows, so a
// mutation on a fetched transaction is invisible until Update persists it,
// matching database visibility.
type FakeTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction

	Snapshot bool

	CreateFunc                func(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error
	GetByIDFunc               func(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdateFunc      func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error)
	GetByTokenFunc            func(ctx context.Context, token string) (*domain.Transaction, error)
	UpdateFunc                func(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error
	ListApprovedByDealerFunc  func(ctx context.Context, tx usecase.Transaction, dealerID string) ([]*domain.Transaction, error)
	SumPendingWithdrawalsFunc func(ctx context.Context, tx usecase.Transaction, dealerID string) (decimal.Decimal, error)
	HasOpenByExternalIDFunc   func(ctx context.Context, tx usecase.Transaction, externalID string, kind domain.Kind) (bool, error)
	ListFunc                  func(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
	ListPoolFunc              func(ctx context.Context, limit, offset int) ([]*domain.Transaction, error)
}

func NewFakeTransactionRepository() *FakeTransactionRepository {
	return &FakeTransactionRepository{
		transactions: make(map[string]*domain.Transaction),
	}
}

func (m *FakeTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[t.ID] = m.row(t)
	return nil
}

func (m *FakeTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transactions[id]; ok {
		return m.row(t), nil
	}
	return nil, domain.ErrTransactionNotFound
}

// row copies the transaction in Snapshot mode, otherwise shares the pointer.
func (m *FakeTransactionRepository) row(t *domain.Transaction) *domain.Transaction {
	if !m.Snapshot {
		return t
	}
	c := *t
	return &c
}

func (m *FakeTransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *FakeTransactionRepository) GetByToken(ctx context.Context, token string) (*domain.Transaction, error) {
	if m.GetByTokenFunc != nil {
		return m.GetByTokenFunc(ctx, token)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.transactions {
		if t.Token == token {
			return m.row(t), nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *FakeTransactionRepository) Update(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[t.ID] = m.row(t)
	return nil
}

func (m *FakeTransactionRepository) ListApprovedByDealer(ctx context.Context, tx usecase.Transaction, dealerID string) ([]*domain.Transaction, error) {
	if m.ListApprovedByDealerFunc != nil {
		return m.ListApprovedByDealerFunc(ctx, tx, dealerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var approved []*domain.Transaction
	for _, t := range m.transactions {
		if t.Status == domain.StatusApproved && t.DealerID != nil && *t.DealerID == dealerID {
			approved = append(approved, m.row(t))
		}
	}
	return approved, nil
}

func (m *FakeTransactionRepository) SumPendingWithdrawals(ctx context.Context, tx usecase.Transaction, dealerID string) (decimal.Decimal, error) {
	if m.SumPendingWithdrawalsFunc != nil {
		return m.SumPendingWithdrawalsFunc(ctx, tx, dealerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, t := range m.transactions {
		if t.Kind == domain.KindWithdraw && t.Status == domain.StatusPending && t.DealerID != nil && *t.DealerID == dealerID {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

func (m *FakeTransactionRepository) HasOpenByExternalID(ctx context.Context, tx usecase.Transaction, externalID string, kind domain.Kind) (bool, error) {
	if m.HasOpenByExternalIDFunc != nil {
		return m.HasOpenByExternalIDFunc(ctx, tx, externalID, kind)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.transactions {
		if t.ExternalUserID == externalID && t.Kind == kind && t.Status.Open() {
			return true, nil
		}
	}
	return false, nil
}

func (m *FakeTransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Transaction
	for _, t := range m.transactions {
		if filter.DealerID != "" && (t.DealerID == nil || *t.DealerID != filter.DealerID) {
			continue
		}
		if filter.Kind != "" && t.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		result = append(result, m.row(t))
	}
	return result, nil
}

func (m *FakeTransactionRepository) ListPool(ctx context.Context, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListPoolFunc != nil {
		return m.ListPoolFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var pooled []*domain.Transaction
	for _, t := range m.transactions {
		if t.Status == domain.StatusWaitingAssignment {
			pooled = append(pooled, m.row(t))
		}
	}
	return pooled, nil
}

// FakeBankAccountRepository is an in-memory implementation of BankAccountRepository.
type FakeBankAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.BankAccount

	CreateFunc                 func(ctx context.Context, account *domain.BankAccount) error
	GetByIDFunc                func(ctx context.Context, id string) (*domain.BankAccount, error)
	ListEligibleForDepositFunc func(ctx context.Context, amount decimal.Decimal) ([]*domain.BankAccount, error)
	ListByDealerFunc           func(ctx context.Context, dealerID string) ([]*domain.BankAccount, error)
	SetActiveFunc              func(ctx context.Context, id string, active bool) error
}

func NewFakeBankAccountRepository() *FakeBankAccountRepository {
	return &FakeBankAccountRepository{
		accounts: make(map[string]*domain.BankAccount),
	}
}

func (m *FakeBankAccountRepository) Create(ctx context.Context, account *domain.BankAccount) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

func (m *FakeBankAccountRepository) GetByID(ctx context.Context, id string) (*domain.BankAccount, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc, nil
	}
	return nil, domain.ErrBankAccountNotFound
}

func (m *FakeBankAccountRepository) ListEligibleForDeposit(ctx context.Context, amount decimal.Decimal) ([]*domain.BankAccount, error) {
	if m.ListEligibleForDepositFunc != nil {
		return m.ListEligibleForDepositFunc(ctx, amount)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var eligible []*domain.BankAccount
	for _, acc := range m.accounts {
		if !acc.Active {
			continue
		}
		if amount.LessThan(acc.MinDepositLimit) || amount.GreaterThan(acc.MaxDepositLimit) {
			continue
		}
		eligible = append(eligible, acc)
	}
	return eligible, nil
}

func (m *FakeBankAccountRepository) ListByDealer(ctx context.Context, dealerID string) ([]*domain.BankAccount, error) {
	if m.ListByDealerFunc != nil {
		return m.ListByDealerFunc(ctx, dealerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.BankAccount
	for _, acc := range m.accounts {
		if acc.DealerID == dealerID {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

func (m *FakeBankAccountRepository) SetActive(ctx context.Context, id string, active bool) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, id, active)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.Active = active
		return nil
	}
	return domain.ErrBankAccountNotFound
}

// FakeOutboxRepository records outbox events in memory.
type FakeOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewFakeOutboxRepository() *FakeOutboxRepository {
	return &FakeOutboxRepository{}
}

func (m *FakeOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *FakeOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var pending []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			pending = append(pending, e)
		}
	}
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (m *FakeOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *FakeOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, e := range m.events {
		if !e.Published {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// Events returns a snapshot of the recorded events.
func (m *FakeOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.OutboxEvent, len(m.events))
	copy(out, m.events)
	return out
}

// FakeAuditRepository records audit logs in memory.
type FakeAuditRepository struct {
	mu   sync.RWMutex
	logs []*domain.AuditLog
}

func NewFakeAuditRepository() *FakeAuditRepository {
	return &FakeAuditRepository{}
}

func (m *FakeAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *FakeAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return m.Create(ctx, log)
}

func (m *FakeAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.AuditLog, len(m.logs))
	copy(out, m.logs)
	return out, nil
}

// Logs returns a snapshot of the recorded audit logs.
func (m *FakeAuditRepository) Logs() []*domain.AuditLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.AuditLog, len(m.logs))
	copy(out, m.logs)
	return out
}

// FakeTransactionManager is a fake implementation of TransactionManager.
type FakeTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewFakeTransactionManager() *FakeTransactionManager {
	return &FakeTransactionManager{}
}

func (m *FakeTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &FakeTransaction{}, nil
}

// FakeTransaction is a fake implementation of Transaction.
type FakeTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *FakeTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *FakeTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// SerialTransactionManager emulates the dealer row lock: only one transaction
// is open at a time, and Commit or Rollback releases it.
type SerialTransactionManager struct {
	mu sync.Mutex
}

func NewSerialTransactionManager() *SerialTransactionManager {
	return &SerialTransactionManager{}
}

func (m *SerialTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	m.mu.Lock()
	tx := &serialTransaction{}
	tx.release = func() {
		tx.once.Do(m.mu.Unlock)
	}
	return tx, nil
}

type serialTransaction struct {
	once    sync.Once
	release func()
}

func (t *serialTransaction) Commit(ctx context.Context) error {
	t.release()
	return nil
}

func (t *serialTransaction) Rollback(ctx context.Context) error {
	t.release()
	return nil
}

// FakeIDGenerator generates sequential IDs.
type FakeIDGenerator struct {
	GenerateFunc func() string
	mu           sync.Mutex
	counter      int
}

func NewFakeIDGenerator() *FakeIDGenerator {
	return &FakeIDGenerator{}
}

func (m *FakeIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("fake-id-%d", m.counter)
}

// FakeTokenGenerator generates sequential tokens.
type FakeTokenGenerator struct {
	NewTokenFunc func() string
	mu           sync.Mutex
	counter      int
}

func NewFakeTokenGenerator() *FakeTokenGenerator {
	return &FakeTokenGenerator{}
}

func (m *FakeTokenGenerator) NewToken() string {
	if m.NewTokenFunc != nil {
		return m.NewTokenFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("fake-token-%d", m.counter)
}

// FakeRetrier runs the operation once with no retries.
type FakeRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewFakeRetrier() *FakeRetrier {
	return &FakeRetrier{}
}

func (m *FakeRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// FakeCache is an in-memory implementation of Cache.
type FakeCache struct {
	mu      sync.RWMutex
	data    map[string][]byte
	deleted []string
}

func NewFakeCache() *FakeCache {
	return &FakeCache{
		data: make(map[string][]byte),
	}
}

func (m *FakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, nil
}

func (m *FakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *FakeCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

// Deleted returns the keys deleted so far.
func (m *FakeCache) Deleted() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.deleted))
	copy(out, m.deleted)
	return out
}
