package orders

import "time"

// ServiceType identifies the service category of an order. The persisted
// values match the historical back-office codes.
type ServiceType string

const (
	ServiceCityProp ServiceType = "CITYPROP"
	ServiceClimate  ServiceType = "CLIMATISEUR"
	ServiceCarpet   ServiceType = "TAPISPROP"
)

// Valid reports whether the service type is one of the known categories.
func (t ServiceType) Valid() bool {
	switch t {
	case ServiceCityProp, ServiceClimate, ServiceCarpet:
		return true
	}
	return false
}

// IsClimate reports whether the order carries a ClimateDetail.
func (t ServiceType) IsClimate() bool {
	return t == ServiceCityProp || t == ServiceClimate
}

// Satisfaction is the outcome recorded after a climate intervention.
type Satisfaction string

const (
	SatisfactionOK      Satisfaction = "OK"
	SatisfactionRework  Satisfaction = "KO_RET"
	SatisfactionRefused Satisfaction = "KO_REFUS"
)

// CarpetStatus tracks a carpet order through the workshop and delivery.
type CarpetStatus string

const (
	CarpetInProgress        CarpetStatus = "NON_RESPECTE"
	CarpetReady             CarpetStatus = "PRET"
	CarpetClientUnavailable CarpetStatus = "CLIENT_INDISPO"
	CarpetDeliveredOK       CarpetStatus = "LIVRE_SATISFAIT"
	CarpetDeliveredKO       CarpetStatus = "LIVRE_INSATISFAIT"
	CarpetAbandoned         CarpetStatus = "ABANDON"
)

// Valid reports whether the status is one of the known workshop states.
func (s CarpetStatus) Valid() bool {
	switch s {
	case CarpetInProgress, CarpetReady, CarpetClientUnavailable,
		CarpetDeliveredOK, CarpetDeliveredKO, CarpetAbandoned:
		return true
	}
	return false
}

// Delivered reports whether the carpet reached the client, satisfied or not.
func (s CarpetStatus) Delivered() bool {
	return s == CarpetDeliveredOK || s == CarpetDeliveredKO
}

// Terminal reports whether the status ends delay-alert tracking.
func (s CarpetStatus) Terminal() bool {
	return s.Delivered() || s == CarpetAbandoned
}

// Order is a customer service request.
type Order struct {
	ID             int64       `db:"id"`
	ClientName     string      `db:"client_name"`
	ClientPhone    string      `db:"client_phone"`
	ClientLocation string      `db:"client_location"`
	ServiceType    ServiceType `db:"service_type"`
	CreatedAt      time.Time   `db:"created_at"`
}

// ClimateDetail is the service record attached to CITYPROP and CLIMATISEUR
// orders.
type ClimateDetail struct {
	ID               int64         `db:"id"`
	OrderID          int64         `db:"order_id"`
	InterventionDate *time.Time    `db:"intervention_date"`
	Satisfaction     *Satisfaction `db:"satisfaction"`
	Retained         bool          `db:"retained"`
	Equipment        string        `db:"equipment"`
	Cost             int64         `db:"cost"`
}

// CarpetDetail is the service record attached to TAPISPROP orders.
type CarpetDetail struct {
	ID            int64        `db:"id"`
	OrderID       int64        `db:"order_id"`
	Retained      bool         `db:"retained"`
	PickupDate    *time.Time   `db:"pickup_date"`
	CarpetCount   int          `db:"carpet_count"`
	Cost          int64        `db:"cost"`
	ProcessedDate *time.Time   `db:"processed_date"`
	PromisedDate  *time.Time   `db:"promised_date"`
	DeliveredDate *time.Time   `db:"delivered_date"`
	Comment       string       `db:"comment"`
	Status        CarpetStatus `db:"status"`
}

// Urgency levels for the workshop follow-up board.
const (
	UrgencyLate   = "RETARD"
	UrgencyUrgent = "URGENT"
	UrgencyNormal = "NORMAL"
)

// Urgency classifies the workshop deadline against the given day.
func (d CarpetDetail) Urgency(today time.Time) string {
	if d.ProcessedDate == nil {
		return UrgencyNormal
	}
	diff := int(d.ProcessedDate.Sub(today).Hours() / 24)
	switch {
	case diff < 0:
		return UrgencyLate
	case diff <= 1:
		return UrgencyUrgent
	default:
		return UrgencyNormal
	}
}

// OrderWithDetails bundles an order with whichever detail variant exists.
type OrderWithDetails struct {
	Order
	Climate *ClimateDetail
	Carpet  *CarpetDetail
}

// OperationalDate is the business date used to sort and range-filter the
// order list: pickup for carpets, intervention for climate orders, falling
// back to the creation date.
func (o OrderWithDetails) OperationalDate() time.Time {
	if o.ServiceType == ServiceCarpet && o.Carpet != nil && o.Carpet.PickupDate != nil {
		return *o.Carpet.PickupDate
	}
	if o.Climate != nil && o.Climate.InterventionDate != nil {
		return *o.Climate.InterventionDate
	}
	return o.CreatedAt
}

// Retained reports the retention flag of whichever detail exists.
func (o OrderWithDetails) Retained() bool {
	if o.Climate != nil {
		return o.Climate.Retained
	}
	if o.Carpet != nil {
		return o.Carpet.Retained
	}
	return false
}
