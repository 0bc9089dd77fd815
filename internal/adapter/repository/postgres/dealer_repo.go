package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kyilmaz/dealerpool/internal/domain"
	"github.com/kyilmaz/dealerpool/internal/usecase"
)

const dealerColumns = `id, name, commission_rate, balance_ceiling, net_balance,
       active_by_system, can_edit_amounts, created_at, updated_at`

// DealerRepository implements usecase.DealerRepository.
type DealerRepository struct {
	pool *pgxpool.Pool
}

// NewDealerRepository creates a new DealerRepository.
func NewDealerRepository(pool *pgxpool.Pool) *DealerRepository {
	return &DealerRepository{pool: pool}
}

// Create creates a new dealer.
func (r *DealerRepository) Create(ctx context.Context, dealer *domain.Dealer) error {
	query := `
		INSERT INTO dealers (
			id, name, commission_rate, balance_ceiling, net_balance,
			active_by_system, can_edit_amounts, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		dealer.ID,
		dealer.Name,
		decimalToNumeric(dealer.CommissionRate),
		decimalToNumeric(dealer.BalanceCeiling),
		decimalToNumeric(dealer.NetBalance),
		dealer.ActiveBySystem,
		dealer.CanEditAmounts,
		timeToPgTimestamptz(dealer.CreatedAt),
		timeToPgTimestamptz(dealer.UpdatedAt),
	)

	return err
}

// GetByID retrieves a dealer by ID.
func (r *DealerRepository) GetByID(ctx context.Context, id string) (*domain.Dealer, error) {
	query := `SELECT ` + dealerColumns + ` FROM dealers WHERE id = $1`

	dealer, err := scanDealer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDealerNotFound
		}

		return nil, err
	}

	return dealer, nil
}

// GetByIDForUpdate retrieves a dealer by ID with a FOR UPDATE lock.
func (r *DealerRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Dealer, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + dealerColumns + ` FROM dealers WHERE id = $1 FOR UPDATE`

	dealer, err := scanDealer(pgxTx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDealerNotFound
		}

		return nil, err
	}

	return dealer, nil
}

// UpdateBalance writes the recomputed net balance and activity flag.
func (r *DealerRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, net decimal.Decimal, active bool, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE dealers
		SET net_balance = $2, active_by_system = $3, updated_at = $4
		WHERE id = $1
	`

	_, err := pgxTx.Exec(ctx, query, id, decimalToNumeric(net), active, timeToPgTimestamptz(updatedAt))

	return err
}

// List lists dealers with pagination.
func (r *DealerRepository) List(ctx context.Context, limit, offset int) ([]*domain.Dealer, error) {
	query := `SELECT ` + dealerColumns + ` FROM dealers ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dealers []*domain.Dealer
	for rows.Next() {
		dealer, err := scanDealer(rows)
		if err != nil {
			return nil, err
		}

		dealers = append(dealers, dealer)
	}

	return dealers, rows.Err()
}

func scanDealer(row pgx.Row) (*domain.Dealer, error) {
	var (
		dealer         domain.Dealer
		commissionRate pgtype.Numeric
		balanceCeiling pgtype.Numeric
		netBalance     pgtype.Numeric
		createdAt      pgtype.Timestamptz
		updatedAt      pgtype.Timestamptz
	)

	err := row.Scan(
		&dealer.ID,
		&dealer.Name,
		&commissionRate,
		&balanceCeiling,
		&netBalance,
		&dealer.ActiveBySystem,
		&dealer.CanEditAmounts,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	dealer.CommissionRate = numericToDecimal(commissionRate)
	dealer.BalanceCeiling = numericToDecimal(balanceCeiling)
	dealer.NetBalance = numericToDecimal(netBalance)
	dealer.CreatedAt = createdAt.Time
	dealer.UpdatedAt = updatedAt.Time

	return &dealer, nil
}
