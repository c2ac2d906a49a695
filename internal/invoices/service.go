package invoices

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cityprop/backoffice/internal/observability"
	"github.com/cityprop/backoffice/internal/platform/db"
	"github.com/cityprop/backoffice/internal/shared"
)

// PerPage is the document list page size.
const PerPage = 10

// Service implements the quote and invoice workflows.
type Service struct {
	pool       *pgxpool.Pool
	repo       Repository
	validate   *validator.Validate
	logger     *slog.Logger
	siteCode   string
	issuePlace string
	metrics    *observability.Metrics
	now        func() time.Time
}

// NewService wires the billing service. siteCode and issuePlace end up on
// every emitted document.
func NewService(pool *pgxpool.Pool, repo Repository, validate *validator.Validate, logger *slog.Logger, siteCode, issuePlace string) *Service {
	return &Service{
		pool:       pool,
		repo:       repo,
		validate:   validate,
		logger:     logger,
		siteCode:   siteCode,
		issuePlace: issuePlace,
		now:        time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithMetrics enables business counters.
func (s *Service) WithMetrics(m *observability.Metrics) *Service {
	s.metrics = m
	return s
}

func (s *Service) buildDocument(f DocumentForm) (*Document, error) {
	if err := s.validate.Struct(f); err != nil {
		return nil, shared.NewValidationError("Le formulaire contient des champs invalides.", err)
	}
	issueDate, err := time.Parse("2006-01-02", f.IssueDate)
	if err != nil {
		return nil, shared.NewValidationError("Date d'émission invalide.", err)
	}
	rate := decimal.Zero
	if f.DiscountRate != "" {
		rate, err = decimal.NewFromString(f.DiscountRate)
		if err != nil {
			return nil, shared.NewValidationError("Taux de remise invalide.", err)
		}
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
			return nil, shared.NewValidationError("Le taux de remise doit être compris entre 0 et 100.", nil)
		}
	}
	var orderID *int64
	if f.OrderID != "" {
		id, err := strconv.ParseInt(f.OrderID, 10, 64)
		if err != nil || id <= 0 {
			return nil, shared.NewValidationError("Référence de commande invalide.", err)
		}
		orderID = &id
	}
	signatory := strings.TrimSpace(f.Signatory)
	if signatory == "" {
		signatory = DefaultSignatory
	}
	lines := FilterLines(f.Lines)
	if len(lines) == 0 {
		return nil, shared.NewValidationError("Le document doit contenir au moins une ligne valide.", nil)
	}

	var gross int64
	for _, l := range lines {
		gross += l.Total()
	}
	discount, net := ComputeNet(gross, rate)

	return &Document{
		Type:         DocumentType(f.Type),
		OrderID:      orderID,
		ClientName:   f.ClientName,
		ClientPhone:  f.ClientPhone,
		Subject:      strings.TrimSpace(f.Subject),
		Signatory:    signatory,
		IssueDate:    issueDate.UTC(),
		IssuePlace:   s.issuePlace,
		DiscountRate: rate,
		Gross:        gross,
		Discount:     discount,
		Net:          net,
		CreatedAt:    s.now().UTC(),
		Lines:        lines,
	}, nil
}

// Create persists a new document. The reference number needs the record id,
// so it is stamped right after the insert, inside the same transaction.
func (s *Service) Create(ctx context.Context, f DocumentForm) (int64, error) {
	d, err := s.buildDocument(f)
	if err != nil {
		return 0, err
	}
	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.repo.CreateDocument(ctx, tx, d); err != nil {
			return err
		}
		d.Number = DocumentNumber(d.IssueDate, d.ID, s.siteCode)
		if err := s.repo.SetNumber(ctx, tx, d.ID, d.Number); err != nil {
			return err
		}
		return s.repo.ReplaceLines(ctx, tx, d.ID, d.Lines)
	})
	if err != nil {
		return 0, err
	}
	s.metrics.DocumentIssued(string(d.Type))
	s.logger.Info("document created", "document_id", d.ID, "number", d.Number, "type", d.Type)
	return d.ID, nil
}

// Get loads a document with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*Document, error) {
	return s.repo.FindByID(ctx, id)
}

// Update rewrites a document and its lines. The reference number follows
// the issue date, so editing the date renumbers the document.
func (s *Service) Update(ctx context.Context, id int64, f DocumentForm) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	d, err := s.buildDocument(f)
	if err != nil {
		return err
	}
	d.ID = id
	d.CreatedAt = existing.CreatedAt
	d.Number = DocumentNumber(d.IssueDate, id, s.siteCode)

	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.repo.UpdateDocument(ctx, tx, d); err != nil {
			return err
		}
		if err := s.repo.SetNumber(ctx, tx, id, d.Number); err != nil {
			return err
		}
		return s.repo.ReplaceLines(ctx, tx, id, d.Lines)
	})
}

// Delete removes a document and its lines.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("document deleted", "document_id", id)
	return nil
}

// ListResult is a page of the document list.
type ListResult struct {
	Documents  []Document
	Pagination shared.Pagination
}

// List returns one page of documents, newest issue date first.
func (s *Service) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	items, total, err := s.repo.List(ctx, f, PerPage, (f.Page-1)*PerPage)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Documents:  items,
		Pagination: shared.NewPagination(f.Page, PerPage, total),
	}, nil
}

// FinanceSummary is the revenue report over a date range. Quotes carry no
// revenue; only invoices count.
type FinanceSummary struct {
	From     time.Time
	To       time.Time
	Invoices []Document
	TotalNet int64
}

// Finance lists the invoices issued in [from, to] with their net total.
func (s *Service) Finance(ctx context.Context, from, to time.Time) (*FinanceSummary, error) {
	if to.Before(from) {
		return nil, shared.NewValidationError("La date de fin précède la date de début.", nil)
	}
	items, _, err := s.repo.List(ctx, ListFilter{
		Type:     TypeInvoice,
		DateFrom: &from,
		DateTo:   &to,
	}, 1000, 0)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.SumNet(ctx, TypeInvoice, from, to)
	if err != nil {
		return nil, err
	}
	return &FinanceSummary{From: from, To: to, Invoices: items, TotalNet: total}, nil
}
