package orders

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
	return NewService(nil, nil, validator.New(), slog.New(slog.DiscardHandler)).
		WithClock(func() time.Time { return date(2026, 5, 2) })
}

func TestBuildOrderClimate(t *testing.T) {
	s := newTestService()
	o, climate, carpet, err := s.buildOrder(OrderForm{
		ClientName:       "Mme Kouassi",
		ClientPhone:      "0707070707",
		ClientLocation:   "Cocody",
		ServiceType:      "CLIMATISEUR",
		InterventionDate: "2026-05-01",
		Satisfaction:     "OK",
		Equipment:        "Split 2CV",
		ClimateCost:      45000,
	})
	require.NoError(t, err)
	require.NotNil(t, climate)
	assert.Nil(t, carpet)
	assert.Equal(t, ServiceClimate, o.ServiceType)
	require.NotNil(t, climate.InterventionDate)
	assert.Equal(t, date(2026, 5, 1), *climate.InterventionDate)
	require.NotNil(t, climate.Satisfaction)
	assert.Equal(t, SatisfactionOK, *climate.Satisfaction)
	assert.False(t, climate.Retained)
}

func TestBuildOrderCarpetDefaultsStatus(t *testing.T) {
	s := newTestService()
	_, climate, carpet, err := s.buildOrder(OrderForm{
		ClientName:  "M. Diabaté",
		ClientPhone: "0101010101",
		ServiceType: "TAPISPROP",
		PickupDate:  "2026-04-28",
		CarpetCount: 3,
		CarpetCost:  15000,
	})
	require.NoError(t, err)
	assert.Nil(t, climate)
	require.NotNil(t, carpet)
	assert.Equal(t, CarpetInProgress, carpet.Status)
}

func TestBuildOrderRejectsMissingFields(t *testing.T) {
	s := newTestService()
	_, _, _, err := s.buildOrder(OrderForm{ServiceType: "CITYPROP"})
	require.Error(t, err)
	var verr *shared.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestBuildOrderRejectsUnknownType(t *testing.T) {
	s := newTestService()
	_, _, _, err := s.buildOrder(OrderForm{
		ClientName:  "X",
		ClientPhone: "1",
		ServiceType: "JARDINAGE",
	})
	require.Error(t, err)
}

func TestBuildOrderRejectsBadDate(t *testing.T) {
	s := newTestService()
	_, _, _, err := s.buildOrder(OrderForm{
		ClientName:       "X",
		ClientPhone:      "1",
		ServiceType:      "CITYPROP",
		InterventionDate: "2026-13-40",
	})
	require.Error(t, err)
	var verr *shared.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestBuildListWhere(t *testing.T) {
	where, args := buildListWhere(ListFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	retained := true
	created := date(2026, 5, 2)
	where, args = buildListWhere(ListFilter{
		Search:      "kouassi",
		ServiceType: ServiceCarpet,
		Status:      "PRET",
		Retained:    &retained,
		CreatedOn:   &created,
	})
	assert.Contains(t, where, "ILIKE $1")
	assert.Contains(t, where, "o.service_type = $2")
	assert.Contains(t, where, "cd.satisfaction = $3")
	assert.Contains(t, where, "td.status = $4")
	assert.Len(t, args, 6)
	assert.Equal(t, "%kouassi%", args[0])
}

func TestBuildListWhereOperationalRange(t *testing.T) {
	from := date(2026, 5, 1)
	to := date(2026, 5, 31)
	where, args := buildListWhere(ListFilter{
		OperationalFrom: &from,
		OperationalTo:   &to,
	})
	assert.Contains(t, where, operationalDate+"::date >= $1")
	assert.Contains(t, where, operationalDate+"::date <= $2")
	assert.Equal(t, []any{from, to}, args)
}
