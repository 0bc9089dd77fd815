package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kyilmaz/dealerpool/internal/domain"
	"github.com/kyilmaz/dealerpool/internal/usecase"
)

const transactionColumns = `id, token, dealer_id, bank_account_id, kind, status,
       amount, commission_amount, description, target_iban, target_name,
       external_user_id, sender_name, receipt_ref, rejection_reason,
       processed_by, created_at, processed_at`

const pgErrUniqueViolation = "23505"

// openExternalIndex backs the one-open-request-per-external-user rule. The
// usecases check first under their locks; the index closes the remaining race
// between concurrent inserts.
const openExternalIndex = "idx_transactions_open_external"

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create inserts a transaction within a database transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO transactions (
			id, token, dealer_id, bank_account_id, kind, status,
			amount, commission_amount, description, target_iban, target_name,
			external_user_id, sender_name, receipt_ref, rejection_reason,
			processed_by, created_at, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := pgxTx.Exec(ctx, query,
		t.ID,
		textOrNull(t.Token),
		t.DealerID,
		t.BankAccountID,
		string(t.Kind),
		string(t.Status),
		decimalToNumeric(t.Amount),
		decimalToNumeric(t.CommissionAmount),
		t.Description,
		t.TargetIBAN,
		t.TargetName,
		t.ExternalUserID,
		t.SenderName,
		t.ReceiptRef,
		t.RejectionReason,
		t.ProcessedBy,
		timeToPgTimestamptz(t.CreatedAt),
		timePtrToPgTimestamptz(t.ProcessedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation && pgErr.ConstraintName == openExternalIndex {
			return domain.ErrDuplicateRequest
		}
		return err
	}

	return nil
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	t, err := scanTransaction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return t, nil
}

// GetByIDForUpdate retrieves a transaction by ID with a FOR UPDATE lock.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`

	t, err := scanTransaction(pgxTx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return t, nil
}

// GetByToken retrieves a transaction by its deposit confirmation token.
func (r *TransactionRepository) GetByToken(ctx context.Context, token string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE token = $1`

	t, err := scanTransaction(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return t, nil
}

// Update persists the mutable fields of an existing row.
func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE transactions
		SET dealer_id = $2, bank_account_id = $3, status = $4,
		    commission_amount = $5, receipt_ref = $6, rejection_reason = $7,
		    processed_by = $8, processed_at = $9
		WHERE id = $1
	`

	_, err := pgxTx.Exec(ctx, query,
		t.ID,
		t.DealerID,
		t.BankAccountID,
		string(t.Status),
		decimalToNumeric(t.CommissionAmount),
		t.ReceiptRef,
		t.RejectionReason,
		t.ProcessedBy,
		timePtrToPgTimestamptz(t.ProcessedAt),
	)

	return err
}

// ListApprovedByDealer returns all approved rows of a dealer, inside the
// caller's transaction so the balance recomputation sees its own writes.
func (r *TransactionRepository) ListApprovedByDealer(ctx context.Context, tx usecase.Transaction, dealerID string) ([]*domain.Transaction, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE dealer_id = $1 AND status = $2
		ORDER BY created_at ASC`

	rows, err := pgxTx.Query(ctx, query, dealerID, string(domain.StatusApproved))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// SumPendingWithdrawals sums the amounts of pending withdrawals for a dealer.
func (r *TransactionRepository) SumPendingWithdrawals(ctx context.Context, tx usecase.Transaction, dealerID string) (decimal.Decimal, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE dealer_id = $1 AND kind = $2 AND status = $3
	`

	var sum pgtype.Numeric

	err := pgxTx.QueryRow(ctx, query, dealerID, string(domain.KindWithdraw), string(domain.StatusPending)).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// HasOpenByExternalID reports whether an open row of the given kind already
// exists for the external actor.
func (r *TransactionRepository) HasOpenByExternalID(ctx context.Context, tx usecase.Transaction, externalID string, kind domain.Kind) (bool, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE external_user_id = $1 AND kind = $2 AND status IN ($3, $4)
		)
	`

	var exists bool

	err := pgxTx.QueryRow(ctx, query,
		externalID,
		string(kind),
		string(domain.StatusPending),
		string(domain.StatusWaitingAssignment),
	).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// List retrieves transactions matching the filter.
func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	args := []any{}
	argPos := 1

	if filter.DealerID != "" {
		query += fmt.Sprintf(` AND dealer_id = $%d`, argPos)
		args = append(args, filter.DealerID)
		argPos++
	}

	if filter.Kind != "" {
		query += fmt.Sprintf(` AND kind = $%d`, argPos)
		args = append(args, string(filter.Kind))
		argPos++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argPos)
		args = append(args, string(filter.Status))
		argPos++
	}

	if filter.From != nil {
		query += fmt.Sprintf(` AND created_at >= $%d`, argPos)
		args = append(args, *filter.From)
		argPos++
	}

	if filter.To != nil {
		query += fmt.Sprintf(` AND created_at < $%d`, argPos)
		args = append(args, *filter.To)
		argPos++
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argPos)
		args = append(args, filter.Limit)
		argPos++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argPos)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListPool returns unassigned withdrawals, oldest first.
func (r *TransactionRepository) ListPool(ctx context.Context, limit, offset int) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, string(domain.StatusWaitingAssignment), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}

		txs = append(txs, t)
	}

	return txs, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t           domain.Transaction
		token       pgtype.Text
		kind        string
		status      string
		amount      pgtype.Numeric
		commission  pgtype.Numeric
		createdAt   pgtype.Timestamptz
		processedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&t.ID,
		&token,
		&t.DealerID,
		&t.BankAccountID,
		&kind,
		&status,
		&amount,
		&commission,
		&t.Description,
		&t.TargetIBAN,
		&t.TargetName,
		&t.ExternalUserID,
		&t.SenderName,
		&t.ReceiptRef,
		&t.RejectionReason,
		&t.ProcessedBy,
		&createdAt,
		&processedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Token = token.String
	t.Kind = domain.Kind(kind)
	t.Status = domain.Status(status)
	t.Amount = numericToDecimal(amount)
	t.CommissionAmount = numericToDecimal(commission)
	t.CreatedAt = createdAt.Time
	t.ProcessedAt = pgTimestamptzToTimePtr(processedAt)

	return &t, nil
}
