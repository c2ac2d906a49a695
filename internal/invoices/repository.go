package invoices

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

// Repository is the persistence port of the billing domain.
type Repository interface {
	CreateDocument(ctx context.Context, tx pgx.Tx, d *Document) error
	SetNumber(ctx context.Context, tx pgx.Tx, id int64, number string) error
	UpdateDocument(ctx context.Context, tx pgx.Tx, d *Document) error
	ReplaceLines(ctx context.Context, tx pgx.Tx, documentID int64, lines []Line) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Document, error)
	List(ctx context.Context, f ListFilter, limit, offset int) ([]Document, int, error)
	SumNet(ctx context.Context, docType DocumentType, from, to time.Time) (int64, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) CreateDocument(ctx context.Context, tx pgx.Tx, d *Document) error {
	const q = `
INSERT INTO documents (doc_type, number, order_id, client_name, client_phone, subject, signatory,
	issue_date, issue_place, discount_rate, gross, discount, net, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING id`
	return tx.QueryRow(ctx, q,
		d.Type, d.Number, d.OrderID, d.ClientName, d.ClientPhone, d.Subject, d.Signatory,
		d.IssueDate, d.IssuePlace, d.DiscountRate, d.Gross, d.Discount, d.Net, d.CreatedAt,
	).Scan(&d.ID)
}

func (r *pgRepository) SetNumber(ctx context.Context, tx pgx.Tx, id int64, number string) error {
	tag, err := tx.Exec(ctx, `UPDATE documents SET number = $2 WHERE id = $1`, id, number)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) UpdateDocument(ctx context.Context, tx pgx.Tx, d *Document) error {
	// order_id is fixed at creation and never rewritten on edit.
	const q = `
UPDATE documents
SET doc_type = $2, client_name = $3, client_phone = $4, subject = $5, signatory = $6,
	issue_date = $7, discount_rate = $8, gross = $9, discount = $10, net = $11
WHERE id = $1`
	tag, err := tx.Exec(ctx, q, d.ID, d.Type, d.ClientName, d.ClientPhone, d.Subject, d.Signatory,
		d.IssueDate, d.DiscountRate, d.Gross, d.Discount, d.Net)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) ReplaceLines(ctx context.Context, tx pgx.Tx, documentID int64, lines []Line) error {
	if _, err := tx.Exec(ctx, `DELETE FROM document_lines WHERE document_id = $1`, documentID); err != nil {
		return err
	}
	const q = `
INSERT INTO document_lines (document_id, position, description, quantity, unit_price, price_note)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	for i := range lines {
		lines[i].DocumentID = documentID
		if err := tx.QueryRow(ctx, q, documentID, lines[i].Position,
			lines[i].Description, lines[i].Quantity, lines[i].UnitPrice, lines[i].Note).Scan(&lines[i].ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const documentColumns = `
	id, doc_type, number, order_id, client_name, client_phone, subject, signatory,
	issue_date, issue_place, discount_rate, gross, discount, net, created_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.Type, &d.Number, &d.OrderID, &d.ClientName, &d.ClientPhone,
		&d.Subject, &d.Signatory,
		&d.IssueDate, &d.IssuePlace, &d.DiscountRate, &d.Gross, &d.Discount, &d.Net, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *pgRepository) FindByID(ctx context.Context, id int64) (*Document, error) {
	q := "SELECT" + documentColumns + "\nFROM documents WHERE id = $1"
	d, err := scanDocument(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	const linesQ = `
SELECT id, document_id, position, description, quantity, unit_price, price_note
FROM document_lines
WHERE document_id = $1
ORDER BY position ASC`
	rows, err := r.pool.Query(ctx, linesQ, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.Position, &l.Description, &l.Quantity, &l.UnitPrice, &l.Note); err != nil {
			return nil, err
		}
		d.Lines = append(d.Lines, l)
	}
	return d, rows.Err()
}

func buildDocumentWhere(f ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Type != "" {
		conds = append(conds, "doc_type = "+arg(f.Type))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, fmt.Sprintf("(client_name ILIKE %s OR number ILIKE %s)", p, p))
	}
	if f.DateFrom != nil {
		conds = append(conds, "issue_date >= "+arg(*f.DateFrom))
	}
	if f.DateTo != nil {
		conds = append(conds, "issue_date <= "+arg(*f.DateTo))
	}
	if len(conds) == 0 {
		return "", args
	}
	return "\nWHERE " + strings.Join(conds, " AND "), args
}

func (r *pgRepository) List(ctx context.Context, f ListFilter, limit, offset int) ([]Document, int, error) {
	where, args := buildDocumentWhere(f)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM documents"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT" + documentColumns + "\nFROM documents" + where +
		fmt.Sprintf("\nORDER BY issue_date DESC, id DESC\nLIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

func (r *pgRepository) SumNet(ctx context.Context, docType DocumentType, from, to time.Time) (int64, error) {
	const q = `
SELECT COALESCE(SUM(net), 0)
FROM documents
WHERE doc_type = $1 AND issue_date >= $2 AND issue_date <= $3`
	var sum int64
	err := r.pool.QueryRow(ctx, q, docType, from, to).Scan(&sum)
	return sum, err
}
