package retention

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cityprop/backoffice/internal/orders"
	"github.com/cityprop/backoffice/internal/shared"
)

// Repository is the persistence port of the retention domain.
type Repository interface {
	ListClimateAlerts(ctx context.Context, cityCutoff, climateCutoff time.Time, search string) ([]Alert, error)
	ListCarpetAlerts(ctx context.Context, cutoff time.Time, search string) ([]Alert, error)
	ListDelayAlerts(ctx context.Context, cutoff time.Time, search string) ([]Alert, error)
	MarkClimateRetained(ctx context.Context, id int64) (bool, error)
	MarkCarpetRetained(ctx context.Context, id int64) (bool, error)
	CarpetStatus(ctx context.Context, id int64) (orders.CarpetStatus, error)
	SetCarpetStatus(ctx context.Context, id int64, status orders.CarpetStatus, delivered *time.Time) error
	GetCarpet(ctx context.Context, id int64) (*WorkshopItem, error)
	ListWorkshop(ctx context.Context) ([]WorkshopItem, error)
	ListAbandoned(ctx context.Context, f AbandonedFilter, limit, offset int) ([]Alert, int, error)
	AddNote(ctx context.Context, n *Note) error
	ListNotes(ctx context.Context, ref DetailRef) ([]Note, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) ListClimateAlerts(ctx context.Context, cityCutoff, climateCutoff time.Time, search string) ([]Alert, error) {
	const q = `
SELECT cd.id, o.id, o.client_name, o.client_phone, o.client_location, o.service_type,
	cd.intervention_date, cd.cost
FROM climate_details cd
JOIN orders o ON o.id = cd.order_id
WHERE cd.retained = FALSE
  AND cd.intervention_date IS NOT NULL
  AND ((o.service_type = 'CITYPROP' AND cd.intervention_date <= $1)
    OR (o.service_type = 'CLIMATISEUR' AND cd.intervention_date <= $2))
  AND ($3 = '' OR o.client_name ILIKE '%' || $3 || '%' OR o.client_phone ILIKE '%' || $3 || '%')
ORDER BY cd.intervention_date ASC, cd.id ASC`
	rows, err := r.pool.Query(ctx, q, cityCutoff, climateCutoff, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Alert
	for rows.Next() {
		var a Alert
		a.Ref.Kind = KindClimate
		if err := rows.Scan(&a.Ref.ID, &a.OrderID, &a.ClientName, &a.ClientPhone,
			&a.ClientLocation, &a.ServiceType, &a.TriggerDate, &a.Amount); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *pgRepository) ListCarpetAlerts(ctx context.Context, cutoff time.Time, search string) ([]Alert, error) {
	const q = `
SELECT td.id, o.id, o.client_name, o.client_phone, o.client_location, o.service_type,
	td.delivered_date, td.cost, td.status
FROM carpet_details td
JOIN orders o ON o.id = td.order_id
WHERE td.retained = FALSE
  AND td.status IN ('LIVRE_SATISFAIT', 'LIVRE_INSATISFAIT')
  AND td.delivered_date IS NOT NULL
  AND td.delivered_date <= $1
  AND ($2 = '' OR o.client_name ILIKE '%' || $2 || '%' OR o.client_phone ILIKE '%' || $2 || '%')
ORDER BY td.delivered_date ASC, td.id ASC`
	return r.queryCarpetAlerts(ctx, q, cutoff, search)
}

func (r *pgRepository) ListDelayAlerts(ctx context.Context, cutoff time.Time, search string) ([]Alert, error) {
	const q = `
SELECT td.id, o.id, o.client_name, o.client_phone, o.client_location, o.service_type,
	td.pickup_date, td.cost, td.status
FROM carpet_details td
JOIN orders o ON o.id = td.order_id
WHERE td.status NOT IN ('LIVRE_SATISFAIT', 'LIVRE_INSATISFAIT', 'ABANDON')
  AND td.pickup_date IS NOT NULL
  AND td.pickup_date <= $1
  AND ($2 = '' OR o.client_name ILIKE '%' || $2 || '%' OR o.client_phone ILIKE '%' || $2 || '%')
ORDER BY td.pickup_date ASC, td.id ASC`
	return r.queryCarpetAlerts(ctx, q, cutoff, search)
}

func (r *pgRepository) queryCarpetAlerts(ctx context.Context, q string, args ...any) ([]Alert, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Alert
	for rows.Next() {
		var a Alert
		a.Ref.Kind = KindCarpet
		if err := rows.Scan(&a.Ref.ID, &a.OrderID, &a.ClientName, &a.ClientPhone,
			&a.ClientLocation, &a.ServiceType, &a.TriggerDate, &a.Amount, &a.Status); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *pgRepository) MarkClimateRetained(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE climate_details SET retained = TRUE WHERE id = $1 AND retained = FALSE`, id)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, r.climateExists(ctx, id)
	}
	return true, nil
}

func (r *pgRepository) MarkCarpetRetained(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE carpet_details SET retained = TRUE WHERE id = $1 AND retained = FALSE`, id)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, r.carpetExists(ctx, id)
	}
	return true, nil
}

func (r *pgRepository) climateExists(ctx context.Context, id int64) error {
	var n int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM climate_details WHERE id = $1`, id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) carpetExists(ctx context.Context, id int64) error {
	var n int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM carpet_details WHERE id = $1`, id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) CarpetStatus(ctx context.Context, id int64) (orders.CarpetStatus, error) {
	var s orders.CarpetStatus
	err := r.pool.QueryRow(ctx,
		`SELECT status FROM carpet_details WHERE id = $1`, id).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", shared.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return s, nil
}

func (r *pgRepository) SetCarpetStatus(ctx context.Context, id int64, status orders.CarpetStatus, delivered *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE carpet_details
SET status = $2, delivered_date = COALESCE($3, delivered_date)
WHERE id = $1`, id, status, delivered)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) GetCarpet(ctx context.Context, id int64) (*WorkshopItem, error) {
	const q = `
SELECT td.id, td.order_id, td.retained, td.pickup_date, td.carpet_count, td.cost,
	td.processed_date, td.promised_date, td.delivered_date, td.comment, td.status,
	o.client_name, o.client_phone, o.client_location
FROM carpet_details td
JOIN orders o ON o.id = td.order_id
WHERE td.id = $1`
	var it WorkshopItem
	d := &it.Detail
	err := r.pool.QueryRow(ctx, q, id).Scan(&d.ID, &d.OrderID, &d.Retained, &d.PickupDate,
		&d.CarpetCount, &d.Cost, &d.ProcessedDate, &d.PromisedDate, &d.DeliveredDate,
		&d.Comment, &d.Status, &it.ClientName, &it.ClientPhone, &it.ClientLocation)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	it.OrderID = d.OrderID
	return &it, nil
}

func (r *pgRepository) ListWorkshop(ctx context.Context) ([]WorkshopItem, error) {
	const q = `
SELECT td.id, td.order_id, td.retained, td.pickup_date, td.carpet_count, td.cost,
	td.processed_date, td.promised_date, td.delivered_date, td.comment, td.status,
	o.client_name, o.client_phone, o.client_location
FROM carpet_details td
JOIN orders o ON o.id = td.order_id
WHERE td.status = 'NON_RESPECTE'
ORDER BY td.processed_date ASC NULLS LAST, td.pickup_date ASC NULLS LAST, td.id ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WorkshopItem
	for rows.Next() {
		var it WorkshopItem
		d := &it.Detail
		if err := rows.Scan(&d.ID, &d.OrderID, &d.Retained, &d.PickupDate, &d.CarpetCount,
			&d.Cost, &d.ProcessedDate, &d.PromisedDate, &d.DeliveredDate, &d.Comment, &d.Status,
			&it.ClientName, &it.ClientPhone, &it.ClientLocation); err != nil {
			return nil, err
		}
		it.OrderID = d.OrderID
		out = append(out, it)
	}
	return out, rows.Err()
}

func buildAbandonedWhere(f AbandonedFilter) (string, []any) {
	conds := []string{"td.status = 'ABANDON'"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, fmt.Sprintf("(o.client_name ILIKE %s OR o.client_phone ILIKE %s)", p, p))
	}
	if f.PickupDate != nil {
		conds = append(conds, "td.pickup_date = "+arg(*f.PickupDate))
	}
	if f.CarpetCount > 0 {
		conds = append(conds, "td.carpet_count = "+arg(f.CarpetCount))
	}
	return "\nWHERE " + strings.Join(conds, " AND "), args
}

func (r *pgRepository) ListAbandoned(ctx context.Context, f AbandonedFilter, limit, offset int) ([]Alert, int, error) {
	where, args := buildAbandonedWhere(f)

	countQ := "SELECT COUNT(*) FROM carpet_details td JOIN orders o ON o.id = td.order_id" + where
	var total int
	if err := r.pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `
SELECT td.id, o.id, o.client_name, o.client_phone, o.client_location, o.service_type,
	COALESCE(td.pickup_date, o.created_at), td.cost, td.status
FROM carpet_details td
JOIN orders o ON o.id = td.order_id` + where +
		fmt.Sprintf("\nORDER BY td.pickup_date DESC NULLS LAST, td.id DESC\nLIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	items, err := r.queryCarpetAlerts(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *pgRepository) AddNote(ctx context.Context, n *Note) error {
	const q = `
INSERT INTO retention_notes (detail_kind, detail_id, author, body, marked_retained, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	return r.pool.QueryRow(ctx, q,
		n.DetailKind, n.DetailID, n.Author, n.Body, n.MarkedRetained, n.CreatedAt).Scan(&n.ID)
}

func (r *pgRepository) ListNotes(ctx context.Context, ref DetailRef) ([]Note, error) {
	const q = `
SELECT id, detail_kind, detail_id, author, body, marked_retained, created_at
FROM retention_notes
WHERE detail_kind = $1 AND detail_id = $2
ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, q, ref.Kind, ref.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.DetailKind, &n.DetailID, &n.Author, &n.Body, &n.MarkedRetained, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
