package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cityprop/backoffice/internal/orders"
)

// TypeCount is the number of orders of one service type.
type TypeCount struct {
	ServiceType orders.ServiceType
	Count       int
}

// TopClient is one row of the best-clients board.
type TopClient struct {
	ClientName  string
	ClientPhone string
	OrderCount  int
	TotalSpent  int64
}

// RecentOrder is one row of the latest-activity board.
type RecentOrder struct {
	OrderID     int64
	ClientName  string
	ServiceType orders.ServiceType
	CreatedAt   time.Time
}

// Repository is the read-only query port of the dashboard.
type Repository interface {
	CountByType(ctx context.Context) ([]TypeCount, error)
	CountRetained(ctx context.Context) (retained, pending int, err error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error)
	TopClients(ctx context.Context, limit int) ([]TopClient, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) CountByType(ctx context.Context) ([]TypeCount, error) {
	const q = `
SELECT service_type, COUNT(*)
FROM orders
GROUP BY service_type
ORDER BY service_type`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TypeCount
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.ServiceType, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (r *pgRepository) CountRetained(ctx context.Context) (int, int, error) {
	const q = `
SELECT
	COUNT(*) FILTER (WHERE retained),
	COUNT(*) FILTER (WHERE NOT retained)
FROM (
	SELECT retained FROM climate_details
	UNION ALL
	SELECT retained FROM carpet_details
) AS details`
	var retained, pending int
	err := r.pool.QueryRow(ctx, q).Scan(&retained, &pending)
	return retained, pending, err
}

func (r *pgRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE created_at >= $1`, since).Scan(&n)
	return n, err
}

func (r *pgRepository) RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error) {
	const q = `
SELECT id, client_name, service_type, created_at
FROM orders
ORDER BY created_at DESC, id DESC
LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecentOrder
	for rows.Next() {
		var o RecentOrder
		if err := rows.Scan(&o.OrderID, &o.ClientName, &o.ServiceType, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *pgRepository) TopClients(ctx context.Context, limit int) ([]TopClient, error) {
	const q = `
SELECT o.client_name, o.client_phone, COUNT(*),
	COALESCE(SUM(COALESCE(cd.cost, td.cost, 0)), 0)
FROM orders o
LEFT JOIN climate_details cd ON cd.order_id = o.id
LEFT JOIN carpet_details td ON td.order_id = o.id
GROUP BY o.client_name, o.client_phone
ORDER BY COUNT(*) DESC, 4 DESC
LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopClient
	for rows.Next() {
		var c TopClient
		if err := rows.Scan(&c.ClientName, &c.ClientPhone, &c.OrderCount, &c.TotalSpent); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
