package orders

import "time"

// DateFormat is the HTML date input format used across the forms.
const DateFormat = "2006-01-02"

// OrderForm carries the fields posted by the order create and edit pages.
// Detail fields are optional; which block is persisted depends on the
// service type.
type OrderForm struct {
	ClientName     string `form:"client_name" validate:"required,max=120"`
	ClientPhone    string `form:"client_phone" validate:"required,max=40"`
	ClientLocation string `form:"client_location" validate:"max=120"`
	ServiceType    string `form:"service_type" validate:"required,oneof=CITYPROP CLIMATISEUR TAPISPROP"`

	// Climate detail.
	InterventionDate string `form:"intervention_date" validate:"omitempty,datetime=2006-01-02"`
	Satisfaction     string `form:"satisfaction" validate:"omitempty,oneof=OK KO_RET KO_REFUS"`
	Equipment        string `form:"equipment" validate:"max=120"`
	ClimateCost      int64  `form:"climate_cost" validate:"min=0"`

	// Carpet detail.
	PickupDate    string `form:"pickup_date" validate:"omitempty,datetime=2006-01-02"`
	CarpetCount   int    `form:"carpet_count" validate:"min=0"`
	CarpetCost    int64  `form:"carpet_cost" validate:"min=0"`
	ProcessedDate string `form:"processed_date" validate:"omitempty,datetime=2006-01-02"`
	PromisedDate  string `form:"promised_date" validate:"omitempty,datetime=2006-01-02"`
	DeliveredDate string `form:"delivered_date" validate:"omitempty,datetime=2006-01-02"`
	Comment       string `form:"comment" validate:"max=500"`
	Status        string `form:"status" validate:"omitempty,oneof=NON_RESPECTE PRET CLIENT_INDISPO LIVRE_SATISFAIT LIVRE_INSATISFAIT ABANDON"`
}

// ListFilter narrows the order list. The operational bounds filter on the
// business date: pickup for carpets, intervention for climate orders,
// creation otherwise.
type ListFilter struct {
	Search          string
	ServiceType     ServiceType
	Status          string // satisfaction or carpet status code
	Retained        *bool
	CreatedOn       *time.Time
	OperationalFrom *time.Time
	OperationalTo   *time.Time
	Page            int
}

// ParseDate parses an optional form date, returning nil for the empty
// string.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

// FormatDate renders an optional date back into form value syntax.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateFormat)
}
