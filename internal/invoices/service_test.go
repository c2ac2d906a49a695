package invoices

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityprop/backoffice/internal/shared"
)

func newTestService() *Service {
	return NewService(nil, nil, validator.New(), slog.New(slog.DiscardHandler), "ABJ", "Abidjan").
		WithClock(func() time.Time {
			return time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)
		})
}

func TestBuildDocumentAppliesRounding(t *testing.T) {
	s := newTestService()
	d, err := s.buildDocument(DocumentForm{
		Type:         "FACTURE",
		ClientName:   "SCI Les Palmiers",
		IssueDate:    "2026-04-15",
		DiscountRate: "1.003",
		Lines: []LineInput{
			{Description: "Nettoyage complet", Quantity: 1, UnitPrice: 120000},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(120000), d.Gross)
	assert.Equal(t, int64(1200), d.Discount)
	assert.Equal(t, int64(118800), d.Net)
	assert.Equal(t, "Abidjan", d.IssuePlace)
}

func TestBuildDocumentRejectsEmptyLines(t *testing.T) {
	s := newTestService()
	_, err := s.buildDocument(DocumentForm{
		Type:       "DEVIS",
		ClientName: "Client",
		IssueDate:  "2026-04-15",
		Lines: []LineInput{
			{Description: "", Quantity: 1, UnitPrice: 100},
			{Description: "x", Quantity: 0, UnitPrice: 100},
		},
	})
	require.Error(t, err)
	var verr *shared.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestBuildDocumentRejectsBadRate(t *testing.T) {
	s := newTestService()
	base := DocumentForm{
		Type:       "FACTURE",
		ClientName: "Client",
		IssueDate:  "2026-04-15",
		Lines:      []LineInput{{Description: "x", Quantity: 1, UnitPrice: 100}},
	}

	for _, bad := range []string{"abc", "-1", "101"} {
		f := base
		f.DiscountRate = bad
		_, err := s.buildDocument(f)
		assert.Error(t, err, bad)
	}

	f := base
	f.DiscountRate = ""
	d, err := s.buildDocument(f)
	require.NoError(t, err)
	assert.Equal(t, int64(0), d.Discount)
}

func TestBuildDocumentRejectsUnknownType(t *testing.T) {
	s := newTestService()
	_, err := s.buildDocument(DocumentForm{
		Type:       "RECU",
		ClientName: "Client",
		IssueDate:  "2026-04-15",
		Lines:      []LineInput{{Description: "x", Quantity: 1, UnitPrice: 100}},
	})
	assert.Error(t, err)
}

func TestDocumentNumber(t *testing.T) {
	issue := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "20260415-87-ABJ", DocumentNumber(issue, 87, "ABJ"))
}

func TestBuildDocumentHeaderFields(t *testing.T) {
	s := newTestService()
	d, err := s.buildDocument(DocumentForm{
		Type:       "FACTURE",
		OrderID:    "42",
		ClientName: "Client",
		Subject:    "  Prestation TAPISPROP du 12/04/2026  ",
		IssueDate:  "2026-04-15",
		Lines:      []LineInput{{Description: "x", Quantity: 1, UnitPrice: 100, Note: "tarif préférentiel"}},
	})
	require.NoError(t, err)
	require.NotNil(t, d.OrderID)
	assert.Equal(t, int64(42), *d.OrderID)
	assert.Equal(t, "Prestation TAPISPROP du 12/04/2026", d.Subject)
	assert.Equal(t, DefaultSignatory, d.Signatory)
	assert.Equal(t, "tarif préférentiel", d.Lines[0].Note)

	d2, err := s.buildDocument(DocumentForm{
		Type:       "DEVIS",
		ClientName: "Client",
		Signatory:  "LE DIRECTEUR",
		IssueDate:  "2026-04-15",
		Lines:      []LineInput{{Description: "x", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)
	assert.Nil(t, d2.OrderID)
	assert.Equal(t, "LE DIRECTEUR", d2.Signatory)

	_, err = s.buildDocument(DocumentForm{
		Type:       "DEVIS",
		OrderID:    "abc",
		ClientName: "Client",
		IssueDate:  "2026-04-15",
		Lines:      []LineInput{{Description: "x", Quantity: 1, UnitPrice: 100}},
	})
	assert.Error(t, err)
}
