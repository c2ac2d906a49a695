package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cityprop/backoffice/internal/shared"
)

// Repository is the persistence port of the orders domain.
type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, o *Order) error
	CreateClimateDetail(ctx context.Context, tx pgx.Tx, d *ClimateDetail) error
	CreateCarpetDetail(ctx context.Context, tx pgx.Tx, d *CarpetDetail) error
	UpdateOrder(ctx context.Context, tx pgx.Tx, o *Order) error
	UpdateClimateDetail(ctx context.Context, tx pgx.Tx, d *ClimateDetail) error
	UpdateCarpetDetail(ctx context.Context, tx pgx.Tx, d *CarpetDetail) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*OrderWithDetails, error)
	List(ctx context.Context, f ListFilter, limit, offset int) ([]OrderWithDetails, int, error)
	ListAll(ctx context.Context) ([]OrderWithDetails, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Create(ctx context.Context, tx pgx.Tx, o *Order) error {
	const q = `
INSERT INTO orders (client_name, client_phone, client_location, service_type, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`
	return tx.QueryRow(ctx, q,
		o.ClientName, o.ClientPhone, o.ClientLocation, o.ServiceType, o.CreatedAt,
	).Scan(&o.ID)
}

func (r *pgRepository) CreateClimateDetail(ctx context.Context, tx pgx.Tx, d *ClimateDetail) error {
	const q = `
INSERT INTO climate_details (order_id, intervention_date, satisfaction, retained, equipment, cost)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	return tx.QueryRow(ctx, q,
		d.OrderID, d.InterventionDate, d.Satisfaction, d.Retained, d.Equipment, d.Cost,
	).Scan(&d.ID)
}

func (r *pgRepository) CreateCarpetDetail(ctx context.Context, tx pgx.Tx, d *CarpetDetail) error {
	const q = `
INSERT INTO carpet_details (order_id, retained, pickup_date, carpet_count, cost,
	processed_date, promised_date, delivered_date, comment, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id`
	return tx.QueryRow(ctx, q,
		d.OrderID, d.Retained, d.PickupDate, d.CarpetCount, d.Cost,
		d.ProcessedDate, d.PromisedDate, d.DeliveredDate, d.Comment, d.Status,
	).Scan(&d.ID)
}

func (r *pgRepository) UpdateOrder(ctx context.Context, tx pgx.Tx, o *Order) error {
	const q = `
UPDATE orders
SET client_name = $2, client_phone = $3, client_location = $4, service_type = $5
WHERE id = $1`
	tag, err := tx.Exec(ctx, q, o.ID, o.ClientName, o.ClientPhone, o.ClientLocation, o.ServiceType)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) UpdateClimateDetail(ctx context.Context, tx pgx.Tx, d *ClimateDetail) error {
	const q = `
UPDATE climate_details
SET intervention_date = $2, satisfaction = $3, retained = $4, equipment = $5, cost = $6
WHERE id = $1`
	tag, err := tx.Exec(ctx, q, d.ID, d.InterventionDate, d.Satisfaction, d.Retained, d.Equipment, d.Cost)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) UpdateCarpetDetail(ctx context.Context, tx pgx.Tx, d *CarpetDetail) error {
	const q = `
UPDATE carpet_details
SET retained = $2, pickup_date = $3, carpet_count = $4, cost = $5,
	processed_date = $6, promised_date = $7, delivered_date = $8, comment = $9, status = $10
WHERE id = $1`
	tag, err := tx.Exec(ctx, q, d.ID, d.Retained, d.PickupDate, d.CarpetCount, d.Cost,
		d.ProcessedDate, d.PromisedDate, d.DeliveredDate, d.Comment, d.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const orderColumns = `
	o.id, o.client_name, o.client_phone, o.client_location, o.service_type, o.created_at,
	cd.id, cd.intervention_date, cd.satisfaction, cd.retained, cd.equipment, cd.cost,
	td.id, td.retained, td.pickup_date, td.carpet_count, td.cost,
	td.processed_date, td.promised_date, td.delivered_date, td.comment, td.status`

const orderJoins = `
FROM orders o
LEFT JOIN climate_details cd ON cd.order_id = o.id
LEFT JOIN carpet_details td ON td.order_id = o.id`

func scanOrder(row pgx.Row) (*OrderWithDetails, error) {
	var (
		o  OrderWithDetails
		cd struct {
			id           *int64
			intervention *time.Time
			satisfaction *Satisfaction
			retained     *bool
			equipment    *string
			cost         *int64
		}
		td struct {
			id        *int64
			retained  *bool
			pickup    *time.Time
			count     *int
			cost      *int64
			processed *time.Time
			promised  *time.Time
			delivered *time.Time
			comment   *string
			status    *CarpetStatus
		}
	)
	err := row.Scan(
		&o.ID, &o.ClientName, &o.ClientPhone, &o.ClientLocation, &o.ServiceType, &o.CreatedAt,
		&cd.id, &cd.intervention, &cd.satisfaction, &cd.retained, &cd.equipment, &cd.cost,
		&td.id, &td.retained, &td.pickup, &td.count, &td.cost,
		&td.processed, &td.promised, &td.delivered, &td.comment, &td.status,
	)
	if err != nil {
		return nil, err
	}
	if cd.id != nil {
		o.Climate = &ClimateDetail{
			ID:               *cd.id,
			OrderID:          o.ID,
			InterventionDate: cd.intervention,
			Satisfaction:     cd.satisfaction,
			Retained:         *cd.retained,
			Equipment:        *cd.equipment,
			Cost:             *cd.cost,
		}
	}
	if td.id != nil {
		o.Carpet = &CarpetDetail{
			ID:            *td.id,
			OrderID:       o.ID,
			Retained:      *td.retained,
			PickupDate:    td.pickup,
			CarpetCount:   *td.count,
			Cost:          *td.cost,
			ProcessedDate: td.processed,
			PromisedDate:  td.promised,
			DeliveredDate: td.delivered,
			Comment:       *td.comment,
			Status:        *td.status,
		}
	}
	return &o, nil
}

func (r *pgRepository) FindByID(ctx context.Context, id int64) (*OrderWithDetails, error) {
	q := "SELECT" + orderColumns + orderJoins + "\nWHERE o.id = $1"
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// operationalDate is the sort key of the list view: the service date when
// one is recorded, otherwise the creation date.
const operationalDate = `COALESCE(td.pickup_date, cd.intervention_date, o.created_at)`

func buildListWhere(f ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, fmt.Sprintf(
			"(o.client_name ILIKE %s OR o.client_phone ILIKE %s OR o.client_location ILIKE %s)", p, p, p))
	}
	if f.ServiceType != "" {
		conds = append(conds, "o.service_type = "+arg(f.ServiceType))
	}
	if f.Status != "" {
		conds = append(conds, "(cd.satisfaction = "+arg(f.Status)+" OR td.status = "+arg(f.Status)+")")
	}
	if f.Retained != nil {
		conds = append(conds, "COALESCE(cd.retained, td.retained, FALSE) = "+arg(*f.Retained))
	}
	if f.CreatedOn != nil {
		conds = append(conds, "o.created_at::date = "+arg(*f.CreatedOn))
	}
	if f.OperationalFrom != nil {
		conds = append(conds, operationalDate+"::date >= "+arg(*f.OperationalFrom))
	}
	if f.OperationalTo != nil {
		conds = append(conds, operationalDate+"::date <= "+arg(*f.OperationalTo))
	}
	if len(conds) == 0 {
		return "", args
	}
	return "\nWHERE " + strings.Join(conds, " AND "), args
}

func (r *pgRepository) List(ctx context.Context, f ListFilter, limit, offset int) ([]OrderWithDetails, int, error) {
	where, args := buildListWhere(f)

	var total int
	countQ := "SELECT COUNT(*)" + orderJoins + where
	if err := r.pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT" + orderColumns + orderJoins + where +
		fmt.Sprintf("\nORDER BY %s DESC, o.id DESC\nLIMIT $%d OFFSET $%d",
			operationalDate, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []OrderWithDetails
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *o)
	}
	return out, total, rows.Err()
}

func (r *pgRepository) ListAll(ctx context.Context) ([]OrderWithDetails, error) {
	q := "SELECT" + orderColumns + orderJoins +
		fmt.Sprintf("\nORDER BY %s DESC, o.id DESC", operationalDate)
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderWithDetails
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}
