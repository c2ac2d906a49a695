package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestOperationalDateFallsBackToCreation(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	o := OrderWithDetails{
		Order:   Order{ServiceType: ServiceClimate, CreatedAt: created},
		Climate: &ClimateDetail{},
	}
	assert.Equal(t, created, o.OperationalDate())

	o.Climate.InterventionDate = datePtr(2026, 3, 12)
	assert.Equal(t, date(2026, 3, 12), o.OperationalDate())
}

func TestOperationalDateUsesPickupForCarpets(t *testing.T) {
	o := OrderWithDetails{
		Order:  Order{ServiceType: ServiceCarpet, CreatedAt: date(2026, 1, 5)},
		Carpet: &CarpetDetail{PickupDate: datePtr(2026, 1, 8)},
	}
	assert.Equal(t, date(2026, 1, 8), o.OperationalDate())
}

func TestCarpetStatusClassification(t *testing.T) {
	assert.True(t, CarpetDeliveredOK.Delivered())
	assert.True(t, CarpetDeliveredKO.Delivered())
	assert.False(t, CarpetAbandoned.Delivered())
	assert.True(t, CarpetAbandoned.Terminal())
	assert.False(t, CarpetReady.Terminal())
	assert.False(t, CarpetInProgress.Terminal())
}

func TestUrgency(t *testing.T) {
	today := date(2026, 4, 15)

	cases := []struct {
		name      string
		processed *time.Time
		want      string
	}{
		{"no deadline", nil, UrgencyNormal},
		{"past deadline", datePtr(2026, 4, 14), UrgencyLate},
		{"due today", datePtr(2026, 4, 15), UrgencyUrgent},
		{"due tomorrow", datePtr(2026, 4, 16), UrgencyUrgent},
		{"due later", datePtr(2026, 4, 20), UrgencyNormal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := CarpetDetail{ProcessedDate: tc.processed}
			assert.Equal(t, tc.want, d.Urgency(today))
		})
	}
}

func TestParseDateRoundTrip(t *testing.T) {
	got, err := ParseDate("2026-02-28")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2026-02-28", FormatDate(got))

	got, err = ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, "", FormatDate(nil))

	_, err = ParseDate("28/02/2026")
	assert.Error(t, err)
}
