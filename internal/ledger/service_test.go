package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityprop/backoffice/internal/shared"
)

func amount(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func movement(day int, kind MovementKind, n int64) Movement {
	return Movement{
		Date:   time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC),
		Kind:   kind,
		Label:  "mouvement",
		Amount: amount(n),
	}
}

func TestBuildSheetChainsBalances(t *testing.T) {
	rows := []Movement{
		movement(2, KindIn, 50000),
		movement(5, KindOut, 12000),
		movement(5, KindIn, 3000),
	}
	sheet := BuildSheet(2026, time.March, amount(10000), rows)

	require.Len(t, sheet.Rows, 3)
	assert.True(t, sheet.Rows[0].Balance.Equal(amount(60000)))
	assert.True(t, sheet.Rows[1].Balance.Equal(amount(48000)))
	assert.True(t, sheet.Rows[2].Balance.Equal(amount(51000)))
	assert.True(t, sheet.TotalIn.Equal(amount(53000)))
	assert.True(t, sheet.TotalOut.Equal(amount(12000)))
	assert.True(t, sheet.Closing.Equal(amount(51000)))
}

func TestBuildSheetEmptyMonth(t *testing.T) {
	sheet := BuildSheet(2026, time.March, amount(-2500), nil)
	assert.Empty(t, sheet.Rows)
	assert.True(t, sheet.Closing.Equal(amount(-2500)))
	assert.True(t, sheet.TotalIn.IsZero())
	assert.True(t, sheet.TotalOut.IsZero())
}

func TestParseMovements(t *testing.T) {
	createdAt := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	rows, err := ParseMovements(2026, time.March, []MovementInput{
		{Date: "2026-03-01", Kind: "ENTREE", Reference: "Equipe A", Label: "Vente comptoir", Amount: "25000"},
		{Date: "", Kind: "ENTREE", Reference: "", Label: "", Amount: ""},
		{Date: "2026-03-15", Kind: "SORTIE", Reference: "Equipe B", Label: "Achat fournitures", Amount: "4000"},
	}, createdAt)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, KindIn, rows[0].Kind)
	assert.Equal(t, "Equipe A", rows[0].Reference)
	assert.Equal(t, createdAt, rows[0].CreatedAt)
	assert.Equal(t, "Achat fournitures", rows[1].Label)
}

func TestParseMovementsAcceptsZeroAmount(t *testing.T) {
	rows, err := ParseMovements(2026, time.March, []MovementInput{
		{Date: "2026-03-10", Kind: "ENTREE", Reference: "Equipe A", Label: "Régularisation", Amount: "0"},
	}, time.Now())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Amount.IsZero())
}

func TestParseMovementsRejectsOutOfMonthDate(t *testing.T) {
	_, err := ParseMovements(2026, time.March, []MovementInput{
		{Date: "2026-03-10", Kind: "ENTREE", Reference: "A", Label: "ok", Amount: "100"},
		{Date: "2026-04-01", Kind: "ENTREE", Reference: "A", Label: "hors mois", Amount: "100"},
	}, time.Now())
	require.Error(t, err)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "hors du mois")
}

func TestParseMovementsRowValidation(t *testing.T) {
	cases := []struct {
		name  string
		input MovementInput
	}{
		{"bad date", MovementInput{Date: "10/03/2026", Kind: "ENTREE", Reference: "A", Label: "x", Amount: "100"}},
		{"unknown kind", MovementInput{Date: "2026-03-10", Kind: "VIREMENT", Reference: "A", Label: "x", Amount: "100"}},
		{"empty reference", MovementInput{Date: "2026-03-10", Kind: "ENTREE", Reference: "  ", Label: "x", Amount: "100"}},
		{"empty label", MovementInput{Date: "2026-03-10", Kind: "ENTREE", Reference: "A", Label: "  ", Amount: "100"}},
		{"bad amount", MovementInput{Date: "2026-03-10", Kind: "ENTREE", Reference: "A", Label: "x", Amount: "abc"}},
		{"negative amount", MovementInput{Date: "2026-03-10", Kind: "ENTREE", Reference: "A", Label: "x", Amount: "-5"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseMovements(2026, time.March, []MovementInput{tc.input}, time.Now())
			assert.Error(t, err)
		})
	}
}

func TestExportFileName(t *testing.T) {
	sheet := &MonthSheet{Year: 2026, Month: time.January}
	assert.Equal(t, "caisse-JAN-2026.xlsx", ExportFileName(sheet))
}
