package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cityprop/backoffice/internal/platform/db"
	"github.com/cityprop/backoffice/internal/shared"
)

// MovementInput is one raw row of the monthly entry form.
type MovementInput struct {
	Date      string
	Kind      string
	Reference string
	Label     string
	Amount    string
}

// Service implements the cash book workflows.
type Service struct {
	pool   *pgxpool.Pool
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires the cash book service.
func NewService(pool *pgxpool.Pool, repo Repository, logger *slog.Logger) *Service {
	return &Service{pool: pool, repo: repo, logger: logger, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func monthRange(year int, month time.Month) (time.Time, time.Time) {
	start := shared.MonthStart(year, int(month))
	return start, start.AddDate(0, 1, -1)
}

// BuildSheet assembles a month sheet from the carry-forward and the rows of
// the month. The running balance chains from the carry-forward through each
// row in (date, id) order.
func BuildSheet(year int, month time.Month, carry decimal.Decimal, rows []Movement) *MonthSheet {
	sheet := &MonthSheet{
		Year:         year,
		Month:        month,
		CarryForward: carry,
		TotalIn:      decimal.Zero,
		TotalOut:     decimal.Zero,
	}
	balance := carry
	for _, m := range rows {
		balance = balance.Add(m.In()).Sub(m.Out())
		sheet.TotalIn = sheet.TotalIn.Add(m.In())
		sheet.TotalOut = sheet.TotalOut.Add(m.Out())
		sheet.Rows = append(sheet.Rows, Row{Movement: m, Balance: balance})
	}
	sheet.Closing = balance
	return sheet
}

// MonthSheet loads one month of the cash book. The carry-forward is the net
// of every movement before the month starts.
func (s *Service) MonthSheet(ctx context.Context, year int, month time.Month) (*MonthSheet, error) {
	start, end := monthRange(year, month)
	in, out, err := s.repo.SumByKindBefore(ctx, start)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return BuildSheet(year, month, in.Sub(out), rows), nil
}

// ParseMovements validates the posted rows against the target month. A
// single out-of-month date rejects the whole submission; a sheet saved in
// parts would corrupt the running balances. Fully blank rows are skipped.
func ParseMovements(year int, month time.Month, inputs []MovementInput, createdAt time.Time) ([]Movement, error) {
	start, end := monthRange(year, month)
	var out []Movement
	for i, in := range inputs {
		if strings.TrimSpace(in.Date) == "" && strings.TrimSpace(in.Label) == "" &&
			strings.TrimSpace(in.Reference) == "" && strings.TrimSpace(in.Amount) == "" {
			continue
		}
		rowNum := i + 1
		date, err := time.Parse("2006-01-02", strings.TrimSpace(in.Date))
		if err != nil {
			return nil, shared.NewValidationError(
				fmt.Sprintf("Ligne %d : date invalide.", rowNum), err)
		}
		date = date.UTC()
		if date.Before(start) || date.After(end) {
			return nil, shared.NewValidationError(
				fmt.Sprintf("Ligne %d : la date %s est hors du mois de %s %d. Aucune ligne n'a été enregistrée.",
					rowNum, date.Format("02/01/2006"), shared.MonthName(int(month)), year), nil)
		}
		kind := MovementKind(in.Kind)
		if !kind.Valid() {
			return nil, shared.NewValidationError(
				fmt.Sprintf("Ligne %d : sens de mouvement inconnu.", rowNum), nil)
		}
		reference := strings.TrimSpace(in.Reference)
		if reference == "" {
			return nil, shared.NewValidationError(
				fmt.Sprintf("Ligne %d : l'équipe est obligatoire.", rowNum), nil)
		}
		label := strings.TrimSpace(in.Label)
		if label == "" {
			return nil, shared.NewValidationError(
				fmt.Sprintf("Ligne %d : le libellé est obligatoire.", rowNum), nil)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
		if err != nil {
			return nil, shared.NewValidationError(
				fmt.Sprintf("Ligne %d : montant invalide.", rowNum), err)
		}
		if amount.Sign() < 0 {
			return nil, shared.NewValidationError(
				fmt.Sprintf("Ligne %d : le montant ne peut pas être négatif.", rowNum), nil)
		}
		out = append(out, Movement{
			Date:      date,
			Kind:      kind,
			Reference: reference,
			Label:     label,
			Amount:    amount,
			CreatedAt: createdAt,
		})
	}
	return out, nil
}

// SaveMonth replaces the month's rows with the submitted ones in a single
// transaction. Validation rejects the whole submission before anything is
// written.
func (s *Service) SaveMonth(ctx context.Context, year int, month time.Month, inputs []MovementInput) error {
	rows, err := ParseMovements(year, month, inputs, s.now().UTC())
	if err != nil {
		return err
	}
	start, end := monthRange(year, month)
	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.repo.DeleteRange(ctx, tx, start, end); err != nil {
			return err
		}
		for i := range rows {
			if err := s.repo.Insert(ctx, tx, &rows[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("cash sheet saved", "year", year, "month", int(month), "rows", len(rows))
	return nil
}

// YearSummary lists per-month totals for the given year.
func (s *Service) YearSummary(ctx context.Context, year int) ([]MonthTotal, error) {
	return s.repo.MonthlyTotals(ctx, year)
}
