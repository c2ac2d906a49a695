package invoices

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rate(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRoundDiscount(t *testing.T) {
	cases := []struct {
		name  string
		gross int64
		rate  string
		want  int64
	}{
		{"fractional rate snaps down to decade", 120000, "1.003", 1200},
		{"last digit seven snaps to five", 100700, "1", 1005},
		{"exact multiple of ten untouched", 100000, "1", 1000},
		{"last digit five untouched", 100500, "1", 1005},
		{"last digit four drops", 100400, "1", 1000},
		{"last digit nine drops to five", 100900, "1", 1005},
		{"half franc rounds up before snapping", 12345, "10", 1235},
		{"tiny discount snaps to zero", 1250, "0.1", 0},
		{"zero rate", 50000, "0", 0},
		{"zero gross", 0, "10", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RoundDiscount(tc.gross, rate(tc.rate)))
		})
	}
}

func TestComputeNet(t *testing.T) {
	discount, net := ComputeNet(120000, rate("1.003"))
	assert.Equal(t, int64(1200), discount)
	assert.Equal(t, int64(118800), net)

	// The discount never exceeds the gross.
	discount, net = ComputeNet(100, rate("100"))
	assert.Equal(t, int64(100), discount)
	assert.Equal(t, int64(0), net)
}

func TestFilterLines(t *testing.T) {
	in := []LineInput{
		{Description: "Nettoyage bureaux", Quantity: 2, UnitPrice: 25000},
		{Description: "   ", Quantity: 1, UnitPrice: 1000},
		{Description: "Tapis", Quantity: 0, UnitPrice: 5000},
		{Description: "Climatiseur", Quantity: 1, UnitPrice: -10},
		{Description: "  Entretien split  ", Quantity: 3, UnitPrice: 15000},
	}
	out := FilterLines(in)
	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].Position)
	assert.Equal(t, "Nettoyage bureaux", out[0].Description)
	assert.Equal(t, 2, out[1].Position)
	assert.Equal(t, "Entretien split", out[1].Description)
	assert.Equal(t, int64(45000), out[1].Total())
}
