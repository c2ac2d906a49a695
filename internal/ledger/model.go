package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind distinguishes cash in from cash out. The persisted values
// match the historical codes.
type MovementKind string

const (
	KindIn  MovementKind = "ENTREE"
	KindOut MovementKind = "SORTIE"
)

// Valid reports whether the kind is known.
func (k MovementKind) Valid() bool {
	return k == KindIn || k == KindOut
}

// Movement is one line of the cash book.
type Movement struct {
	ID        int64           `db:"id"`
	Date      time.Time       `db:"movement_date"`
	Kind      MovementKind    `db:"kind"`
	Reference string          `db:"reference"`
	Label     string          `db:"label"`
	Amount    decimal.Decimal `db:"amount"`
	CreatedAt time.Time       `db:"created_at"`
}

// In returns the amount when the movement is an inflow, zero otherwise.
func (m Movement) In() decimal.Decimal {
	if m.Kind == KindIn {
		return m.Amount
	}
	return decimal.Zero
}

// Out returns the amount when the movement is an outflow, zero otherwise.
func (m Movement) Out() decimal.Decimal {
	if m.Kind == KindOut {
		return m.Amount
	}
	return decimal.Zero
}

// Row is a cash book line annotated with the balance after it.
type Row struct {
	Movement
	Balance decimal.Decimal
}

// MonthSheet is one month of the cash book: the balance carried over from
// every prior month, the rows with running balances, and the totals.
type MonthSheet struct {
	Year         int
	Month        time.Month
	CarryForward decimal.Decimal
	Rows         []Row
	TotalIn      decimal.Decimal
	TotalOut     decimal.Decimal
	Closing      decimal.Decimal
}

// MonthNumber returns the month as a number, for links and form values.
func (s *MonthSheet) MonthNumber() int {
	return int(s.Month)
}

// MonthTotal is one line of the yearly summary.
type MonthTotal struct {
	Month    time.Month
	TotalIn  decimal.Decimal
	TotalOut decimal.Decimal
}

// MonthNumber returns the month as a number, for display helpers.
func (t MonthTotal) MonthNumber() int {
	return int(t.Month)
}
