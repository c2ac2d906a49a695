package retention

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cityprop/backoffice/internal/orders"
	"github.com/cityprop/backoffice/internal/shared"
)

// DetailKind identifies which detail table an alert points at.
type DetailKind string

const (
	KindClimate DetailKind = "CLIMATE"
	KindCarpet  DetailKind = "CARPET"
)

// DetailRef addresses one service detail record across both detail tables.
type DetailRef struct {
	Kind DetailKind
	ID   int64
}

// String encodes the ref for form values, e.g. "CLIMATE:42".
func (r DetailRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// ParseDetailRef decodes a form-encoded ref.
func ParseDetailRef(s string) (DetailRef, error) {
	kind, idStr, ok := strings.Cut(s, ":")
	if !ok {
		return DetailRef{}, shared.NewValidationError("Référence de fiche invalide.", nil)
	}
	k := DetailKind(kind)
	if k != KindClimate && k != KindCarpet {
		return DetailRef{}, shared.NewValidationError("Référence de fiche invalide.", nil)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return DetailRef{}, shared.NewValidationError("Référence de fiche invalide.", err)
	}
	return DetailRef{Kind: k, ID: id}, nil
}

// Alert is a normalized retention or delay alert row, regardless of which
// detail table it came from.
type Alert struct {
	Ref            DetailRef
	OrderID        int64
	ClientName     string
	ClientPhone    string
	ClientLocation string
	ServiceType    orders.ServiceType
	TriggerDate    time.Time
	Amount         int64
	Status         string
}

// DaysOverdue returns how many days the alert has been pending past its
// window.
func (a Alert) DaysOverdue(today time.Time, windowDays int) int {
	due := a.TriggerDate.AddDate(0, 0, windowDays)
	return int(today.Sub(due).Hours() / 24)
}

// Note is a free-form follow-up comment attached to a detail record.
// MarkedRetained records that the note was taken while the client was
// flipped to retained.
type Note struct {
	ID             int64
	DetailKind     DetailKind
	DetailID       int64
	Author         string
	Body           string
	MarkedRetained bool
	CreatedAt      time.Time
}

// AbandonedFilter narrows the abandoned-carpet list.
type AbandonedFilter struct {
	Search      string
	PickupDate  *time.Time
	CarpetCount int
	Page        int
}

// WorkshopItem is a carpet order still in the workshop, annotated with its
// deadline urgency.
type WorkshopItem struct {
	Detail         orders.CarpetDetail
	OrderID        int64
	ClientName     string
	ClientPhone    string
	ClientLocation string
	Urgency        string
}
