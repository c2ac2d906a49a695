package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository is the persistence port of the cash book.
type Repository interface {
	SumByKindBefore(ctx context.Context, before time.Time) (in, out decimal.Decimal, err error)
	ListRange(ctx context.Context, from, to time.Time) ([]Movement, error)
	DeleteRange(ctx context.Context, tx pgx.Tx, from, to time.Time) error
	Insert(ctx context.Context, tx pgx.Tx, m *Movement) error
	MonthlyTotals(ctx context.Context, year int) ([]MonthTotal, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) SumByKindBefore(ctx context.Context, before time.Time) (decimal.Decimal, decimal.Decimal, error) {
	const q = `
SELECT
	COALESCE(SUM(amount) FILTER (WHERE kind = 'ENTREE'), 0),
	COALESCE(SUM(amount) FILTER (WHERE kind = 'SORTIE'), 0)
FROM cash_movements
WHERE movement_date < $1`
	var in, out decimal.Decimal
	err := r.pool.QueryRow(ctx, q, before).Scan(&in, &out)
	return in, out, err
}

func (r *pgRepository) ListRange(ctx context.Context, from, to time.Time) ([]Movement, error) {
	const q = `
SELECT id, movement_date, kind, reference, label, amount, created_at
FROM cash_movements
WHERE movement_date >= $1 AND movement_date <= $2
ORDER BY movement_date ASC, id ASC`
	rows, err := r.pool.Query(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.Date, &m.Kind, &m.Reference, &m.Label, &m.Amount, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *pgRepository) DeleteRange(ctx context.Context, tx pgx.Tx, from, to time.Time) error {
	_, err := tx.Exec(ctx,
		`DELETE FROM cash_movements WHERE movement_date >= $1 AND movement_date <= $2`, from, to)
	return err
}

func (r *pgRepository) Insert(ctx context.Context, tx pgx.Tx, m *Movement) error {
	const q = `
INSERT INTO cash_movements (movement_date, kind, reference, label, amount, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	return tx.QueryRow(ctx, q,
		m.Date, m.Kind, m.Reference, m.Label, m.Amount, m.CreatedAt).Scan(&m.ID)
}

func (r *pgRepository) MonthlyTotals(ctx context.Context, year int) ([]MonthTotal, error) {
	const q = `
SELECT EXTRACT(MONTH FROM movement_date)::int,
	COALESCE(SUM(amount) FILTER (WHERE kind = 'ENTREE'), 0),
	COALESCE(SUM(amount) FILTER (WHERE kind = 'SORTIE'), 0)
FROM cash_movements
WHERE EXTRACT(YEAR FROM movement_date) = $1
GROUP BY 1
ORDER BY 1`
	rows, err := r.pool.Query(ctx, q, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthTotal
	for rows.Next() {
		var (
			m  int
			mt MonthTotal
		)
		if err := rows.Scan(&m, &mt.TotalIn, &mt.TotalOut); err != nil {
			return nil, err
		}
		mt.Month = time.Month(m)
		out = append(out, mt)
	}
	return out, rows.Err()
}
