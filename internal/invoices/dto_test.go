package invoices

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityprop/backoffice/internal/orders"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestFormFromOrderClimate(t *testing.T) {
	o := &orders.OrderWithDetails{
		Order: orders.Order{
			ID:          42,
			ClientName:  "Mme Koné",
			ClientPhone: "0102030405",
			ServiceType: orders.ServiceClimate,
		},
		Climate: &orders.ClimateDetail{
			InterventionDate: datePtr(2026, 4, 12),
			Equipment:        "Split 2CV",
			Cost:             35000,
		},
	}
	today := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	f := FormFromOrder(o, today)

	assert.Equal(t, "FACTURE", f.Type)
	assert.Equal(t, "42", f.OrderID)
	assert.Equal(t, "Mme Koné", f.ClientName)
	assert.Equal(t, "Prestation CLIMATISEUR du 12/04/2026", f.Subject)
	assert.Equal(t, "2026-04-15", f.IssueDate)
	require.Len(t, f.Lines, 1)
	assert.Equal(t, "Intervention CLIMATISEUR - Split 2CV", f.Lines[0].Description)
	assert.Equal(t, 1, f.Lines[0].Quantity)
	assert.Equal(t, int64(35000), f.Lines[0].UnitPrice)
}

func TestFormFromOrderCarpet(t *testing.T) {
	o := &orders.OrderWithDetails{
		Order: orders.Order{
			ID:          7,
			ClientName:  "M. Traoré",
			ServiceType: orders.ServiceCarpet,
		},
		Carpet: &orders.CarpetDetail{
			PickupDate:  datePtr(2026, 4, 10),
			CarpetCount: 3,
			Cost:        45000,
		},
	}
	f := FormFromOrder(o, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "Prestation TAPISPROP du 10/04/2026", f.Subject)
	require.Len(t, f.Lines, 1)
	assert.Equal(t, "Nettoyage de tapis", f.Lines[0].Description)
	assert.Equal(t, 3, f.Lines[0].Quantity)
	assert.Equal(t, int64(15000), f.Lines[0].UnitPrice)
}

func TestFormFromOrderCarpetUnevenCost(t *testing.T) {
	o := &orders.OrderWithDetails{
		Order: orders.Order{ID: 8, ClientName: "Client", ServiceType: orders.ServiceCarpet},
		Carpet: &orders.CarpetDetail{
			CarpetCount: 3,
			Cost:        10000,
		},
	}
	f := FormFromOrder(o, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC))

	require.Len(t, f.Lines, 1)
	assert.Equal(t, 1, f.Lines[0].Quantity)
	assert.Equal(t, int64(10000), f.Lines[0].UnitPrice)
}

func TestFilterLinesKeepsNote(t *testing.T) {
	lines := FilterLines([]LineInput{
		{Description: "Nettoyage", Quantity: 1, UnitPrice: 5000, Note: "tarif préférentiel"},
		{Description: "", Quantity: 1, UnitPrice: 5000, Note: "ignorée"},
	})
	require.Len(t, lines, 1)
	assert.Equal(t, "tarif préférentiel", lines[0].Note)
	assert.Equal(t, 1, lines[0].Position)
}
