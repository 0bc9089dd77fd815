package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kyilmaz/dealerpool/internal/domain"
)

const bankAccountColumns = `id, dealer_id, bank_name, iban, account_holder,
       daily_limit, min_deposit_limit, max_deposit_limit, active, created_at`

// BankAccountRepository implements usecase.BankAccountRepository.
type BankAccountRepository struct {
	pool *pgxpool.Pool
}

// NewBankAccountRepository creates a new BankAccountRepository.
func NewBankAccountRepository(pool *pgxpool.Pool) *BankAccountRepository {
	return &BankAccountRepository{pool: pool}
}

// Create creates a new bank account.
func (r *BankAccountRepository) Create(ctx context.Context, account *domain.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (
			id, dealer_id, bank_name, iban, account_holder,
			daily_limit, min_deposit_limit, max_deposit_limit, active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.DealerID,
		account.BankName,
		account.IBAN,
		account.AccountHolder,
		decimalToNumeric(account.DailyLimit),
		decimalToNumeric(account.MinDepositLimit),
		decimalToNumeric(account.MaxDepositLimit),
		account.Active,
		timeToPgTimestamptz(account.CreatedAt),
	)

	return err
}

// GetByID retrieves a bank account by ID.
func (r *BankAccountRepository) GetByID(ctx context.Context, id string) (*domain.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE id = $1`

	account, err := scanBankAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBankAccountNotFound
		}

		return nil, err
	}

	return account, nil
}

// ListEligibleForDeposit returns active accounts of system-active dealers
// whose deposit bounds admit the amount. The dealer ceiling is checked by
// the caller, which re-verifies it under a row lock anyway.
func (r *BankAccountRepository) ListEligibleForDeposit(ctx context.Context, amount decimal.Decimal) ([]*domain.BankAccount, error) {
	query := `
		SELECT b.id, b.dealer_id, b.bank_name, b.iban, b.account_holder,
		       b.daily_limit, b.min_deposit_limit, b.max_deposit_limit, b.active, b.created_at
		FROM bank_accounts b
		JOIN dealers d ON d.id = b.dealer_id
		WHERE b.active = TRUE
		  AND d.active_by_system = TRUE
		  AND b.min_deposit_limit <= $1
		  AND b.max_deposit_limit >= $1
	`

	rows, err := r.pool.Query(ctx, query, decimalToNumeric(amount))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBankAccounts(rows)
}

// ListByDealer lists a dealer's bank accounts.
func (r *BankAccountRepository) ListByDealer(ctx context.Context, dealerID string) ([]*domain.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE dealer_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, dealerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBankAccounts(rows)
}

// SetActive toggles a bank account's availability for routing.
func (r *BankAccountRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE bank_accounts SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrBankAccountNotFound
	}

	return nil
}

func collectBankAccounts(rows pgx.Rows) ([]*domain.BankAccount, error) {
	var accounts []*domain.BankAccount
	for rows.Next() {
		account, err := scanBankAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanBankAccount(row pgx.Row) (*domain.BankAccount, error) {
	var (
		account    domain.BankAccount
		dailyLimit pgtype.Numeric
		minLimit   pgtype.Numeric
		maxLimit   pgtype.Numeric
		createdAt  pgtype.Timestamptz
	)

	err := row.Scan(
		&account.ID,
		&account.DealerID,
		&account.BankName,
		&account.IBAN,
		&account.AccountHolder,
		&dailyLimit,
		&minLimit,
		&maxLimit,
		&account.Active,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	account.DailyLimit = numericToDecimal(dailyLimit)
	account.MinDepositLimit = numericToDecimal(minLimit)
	account.MaxDepositLimit = numericToDecimal(maxLimit)
	account.CreatedAt = createdAt.Time

	return &account, nil
}
