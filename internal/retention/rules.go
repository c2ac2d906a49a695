package retention

import (
	"time"

	"github.com/cityprop/backoffice/internal/orders"
)

// Follow-up windows, in days. An order becomes an alert once its trigger
// date is at least this old.
const (
	CityPropWindowDays = 180
	ClimateWindowDays  = 90
	CarpetWindowDays   = 180
	DelayWindowDays    = 11
)

// AlertsPerPage is the page size of the alert listings.
const AlertsPerPage = 7

// Cutoff returns the latest trigger date that still raises an alert for the
// given window, relative to today.
func Cutoff(today time.Time, windowDays int) time.Time {
	return today.AddDate(0, 0, -windowDays)
}

// ClimateDue reports whether a climate service record is due for a
// retention call. Records already marked retained or without an
// intervention date never trigger.
func ClimateDue(serviceType orders.ServiceType, interventionDate *time.Time, retained bool, today time.Time) bool {
	if retained || interventionDate == nil {
		return false
	}
	switch serviceType {
	case orders.ServiceCityProp:
		return !interventionDate.After(Cutoff(today, CityPropWindowDays))
	case orders.ServiceClimate:
		return !interventionDate.After(Cutoff(today, ClimateWindowDays))
	}
	return false
}

// CarpetDue reports whether a delivered carpet order is due for a retention
// call. Only delivered orders qualify, satisfied or not.
func CarpetDue(status orders.CarpetStatus, deliveredDate *time.Time, retained bool, today time.Time) bool {
	if retained || deliveredDate == nil || !status.Delivered() {
		return false
	}
	return !deliveredDate.After(Cutoff(today, CarpetWindowDays))
}

// DelayDue reports whether a carpet order has sat in the workshop long
// enough after pickup to raise a delay alert. Terminal orders are done and
// never trigger.
func DelayDue(status orders.CarpetStatus, pickupDate *time.Time, today time.Time) bool {
	if pickupDate == nil || status.Terminal() {
		return false
	}
	return !pickupDate.After(Cutoff(today, DelayWindowDays))
}
