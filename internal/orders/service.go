package orders

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cityprop/backoffice/internal/observability"
	"github.com/cityprop/backoffice/internal/platform/db"
	"github.com/cityprop/backoffice/internal/shared"
)

// PerPage is the order list page size.
const PerPage = 10

// Service implements the order workflows on top of the repository.
type Service struct {
	pool     *pgxpool.Pool
	repo     Repository
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewService wires the order service.
func NewService(pool *pgxpool.Pool, repo Repository, validate *validator.Validate, logger *slog.Logger) *Service {
	return &Service{
		pool:     pool,
		repo:     repo,
		validate: validate,
		logger:   logger,
		now:      time.Now,
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

func (s *Service) buildOrder(f OrderForm) (*Order, *ClimateDetail, *CarpetDetail, error) {
	if err := s.validate.Struct(f); err != nil {
		return nil, nil, nil, shared.NewValidationError("Le formulaire contient des champs invalides.", err)
	}
	o := &Order{
		ClientName:     f.ClientName,
		ClientPhone:    f.ClientPhone,
		ClientLocation: f.ClientLocation,
		ServiceType:    ServiceType(f.ServiceType),
		CreatedAt:      s.now().UTC(),
	}

	if o.ServiceType.IsClimate() {
		when, err := ParseDate(f.InterventionDate)
		if err != nil {
			return nil, nil, nil, shared.NewValidationError("Date d'intervention invalide.", err)
		}
		d := &ClimateDetail{
			InterventionDate: when,
			Retained:         false,
			Equipment:        f.Equipment,
			Cost:             f.ClimateCost,
		}
		if f.Satisfaction != "" {
			sat := Satisfaction(f.Satisfaction)
			d.Satisfaction = &sat
		}
		return o, d, nil, nil
	}

	pickup, err := ParseDate(f.PickupDate)
	if err != nil {
		return nil, nil, nil, shared.NewValidationError("Date de ramassage invalide.", err)
	}
	processed, err := ParseDate(f.ProcessedDate)
	if err != nil {
		return nil, nil, nil, shared.NewValidationError("Date de traitement invalide.", err)
	}
	promised, err := ParseDate(f.PromisedDate)
	if err != nil {
		return nil, nil, nil, shared.NewValidationError("Date promise invalide.", err)
	}
	delivered, err := ParseDate(f.DeliveredDate)
	if err != nil {
		return nil, nil, nil, shared.NewValidationError("Date de livraison invalide.", err)
	}
	status := CarpetInProgress
	if f.Status != "" {
		status = CarpetStatus(f.Status)
	}
	d := &CarpetDetail{
		Retained:      false,
		PickupDate:    pickup,
		CarpetCount:   f.CarpetCount,
		Cost:          f.CarpetCost,
		ProcessedDate: processed,
		PromisedDate:  promised,
		DeliveredDate: delivered,
		Comment:       f.Comment,
		Status:        status,
	}
	return o, nil, d, nil
}

// Create validates the form and persists the order with its detail record
// in one transaction.
func (s *Service) Create(ctx context.Context, f OrderForm) (int64, error) {
	o, climate, carpet, err := s.buildOrder(f)
	if err != nil {
		return 0, err
	}
	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.repo.Create(ctx, tx, o); err != nil {
			return err
		}
		if climate != nil {
			climate.OrderID = o.ID
			return s.repo.CreateClimateDetail(ctx, tx, climate)
		}
		carpet.OrderID = o.ID
		return s.repo.CreateCarpetDetail(ctx, tx, carpet)
	})
	if err != nil {
		return 0, err
	}
	s.metrics.OrderCreated(string(o.ServiceType))
	s.logger.Info("order created", "order_id", o.ID, "service_type", o.ServiceType)
	return o.ID, nil
}

// Get loads an order with its detail record.
func (s *Service) Get(ctx context.Context, id int64) (*OrderWithDetails, error) {
	return s.repo.FindByID(ctx, id)
}

// Update rewrites the order and its detail from the form. The service type
// is fixed at creation; a detail record is created on first edit when the
// order somehow lacks one.
func (s *Service) Update(ctx context.Context, id int64, f OrderForm) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	f.ServiceType = string(existing.ServiceType)
	o, climate, carpet, err := s.buildOrder(f)
	if err != nil {
		return err
	}
	o.ID = id
	o.CreatedAt = existing.CreatedAt

	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.repo.UpdateOrder(ctx, tx, o); err != nil {
			return err
		}
		if climate != nil {
			climate.OrderID = id
			if existing.Climate == nil {
				return s.repo.CreateClimateDetail(ctx, tx, climate)
			}
			climate.ID = existing.Climate.ID
			climate.Retained = existing.Climate.Retained
			return s.repo.UpdateClimateDetail(ctx, tx, climate)
		}
		carpet.OrderID = id
		if existing.Carpet == nil {
			return s.repo.CreateCarpetDetail(ctx, tx, carpet)
		}
		carpet.ID = existing.Carpet.ID
		carpet.Retained = existing.Carpet.Retained
		return s.repo.UpdateCarpetDetail(ctx, tx, carpet)
	})
}

// Delete removes the order and, through the cascade, its detail record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("order deleted", "order_id", id)
	return nil
}

// ListResult is a page of the order list.
type ListResult struct {
	Orders     []OrderWithDetails
	Pagination shared.Pagination
}

// List returns one page of orders matching the filter, newest operational
// date first.
func (s *Service) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	offset := (f.Page - 1) * PerPage
	items, total, err := s.repo.List(ctx, f, PerPage, offset)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Orders:     items,
		Pagination: shared.NewPagination(f.Page, PerPage, total),
	}, nil
}

// All returns every order for the spreadsheet export.
func (s *Service) All(ctx context.Context) ([]OrderWithDetails, error) {
	return s.repo.ListAll(ctx)
}
