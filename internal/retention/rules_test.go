package retention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityprop/backoffice/internal/orders"
)

var today = time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := today.AddDate(0, 0, -n)
	return &t
}

func TestClimateDueBoundaries(t *testing.T) {
	cases := []struct {
		name        string
		serviceType orders.ServiceType
		date        *time.Time
		retained    bool
		want        bool
	}{
		{"cityprop at window", orders.ServiceCityProp, daysAgo(180), false, true},
		{"cityprop one day short", orders.ServiceCityProp, daysAgo(179), false, false},
		{"cityprop well past", orders.ServiceCityProp, daysAgo(365), false, true},
		{"climatiseur at window", orders.ServiceClimate, daysAgo(90), false, true},
		{"climatiseur one day short", orders.ServiceClimate, daysAgo(89), false, false},
		{"retained never triggers", orders.ServiceCityProp, daysAgo(400), true, false},
		{"no date never triggers", orders.ServiceCityProp, nil, false, false},
		{"carpet type ignored", orders.ServiceCarpet, daysAgo(400), false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClimateDue(tc.serviceType, tc.date, tc.retained, today))
		})
	}
}

func TestCarpetDueBoundaries(t *testing.T) {
	cases := []struct {
		name      string
		status    orders.CarpetStatus
		delivered *time.Time
		retained  bool
		want      bool
	}{
		{"satisfied at window", orders.CarpetDeliveredOK, daysAgo(180), false, true},
		{"unsatisfied at window", orders.CarpetDeliveredKO, daysAgo(180), false, true},
		{"one day short", orders.CarpetDeliveredOK, daysAgo(179), false, false},
		{"not delivered", orders.CarpetReady, daysAgo(300), false, false},
		{"abandoned", orders.CarpetAbandoned, daysAgo(300), false, false},
		{"retained", orders.CarpetDeliveredOK, daysAgo(300), true, false},
		{"no delivery date", orders.CarpetDeliveredOK, nil, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CarpetDue(tc.status, tc.delivered, tc.retained, today))
		})
	}
}

func TestDelayDueBoundaries(t *testing.T) {
	assert.True(t, DelayDue(orders.CarpetInProgress, daysAgo(11), today))
	assert.False(t, DelayDue(orders.CarpetInProgress, daysAgo(10), today))
	assert.True(t, DelayDue(orders.CarpetClientUnavailable, daysAgo(30), today))
	assert.False(t, DelayDue(orders.CarpetDeliveredOK, daysAgo(30), today))
	assert.False(t, DelayDue(orders.CarpetAbandoned, daysAgo(30), today))
	assert.False(t, DelayDue(orders.CarpetInProgress, nil, today))
}

func TestParseDetailRef(t *testing.T) {
	ref, err := ParseDetailRef("CLIMATE:42")
	require.NoError(t, err)
	assert.Equal(t, DetailRef{Kind: KindClimate, ID: 42}, ref)
	assert.Equal(t, "CLIMATE:42", ref.String())

	ref, err = ParseDetailRef("CARPET:7")
	require.NoError(t, err)
	assert.Equal(t, KindCarpet, ref.Kind)

	for _, bad := range []string{"", "42", "TAPIS:42", "CARPET:", "CARPET:abc", "CARPET:-1", "CARPET:0"} {
		_, err := ParseDetailRef(bad)
		assert.Error(t, err, bad)
	}
}
