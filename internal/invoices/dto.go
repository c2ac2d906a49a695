package invoices

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cityprop/backoffice/internal/orders"
)

// LineInput is one raw line from the document form, before filtering.
type LineInput struct {
	Description string
	Quantity    int
	UnitPrice   int64
	Note        string
}

// DocumentForm carries the fields posted by the document create and edit
// pages. OrderID is set when the document is created from an order.
type DocumentForm struct {
	Type         string `validate:"required,oneof=DEVIS FACTURE"`
	OrderID      string `validate:"omitempty,number"`
	ClientName   string `validate:"required,max=120"`
	ClientPhone  string `validate:"max=40"`
	Subject      string `validate:"max=200"`
	Signatory    string `validate:"max=120"`
	IssueDate    string `validate:"required,datetime=2006-01-02"`
	DiscountRate string
	Lines        []LineInput
}

// ListFilter narrows the document list.
type ListFilter struct {
	Type     DocumentType
	DateFrom *time.Time
	DateTo   *time.Time
	Search   string
	Page     int
}

// FormFromRequest reads the posted document form. Lines arrive as parallel
// arrays; rows beyond the shortest of the three required arrays are ignored.
func FormFromRequest(r *http.Request) DocumentForm {
	f := DocumentForm{
		Type:         r.PostFormValue("doc_type"),
		OrderID:      r.PostFormValue("order_id"),
		ClientName:   r.PostFormValue("client_name"),
		ClientPhone:  r.PostFormValue("client_phone"),
		Subject:      r.PostFormValue("subject"),
		Signatory:    r.PostFormValue("signatory"),
		IssueDate:    r.PostFormValue("issue_date"),
		DiscountRate: r.PostFormValue("discount_rate"),
	}
	descs := r.PostForm["line_description"]
	qtys := r.PostForm["line_quantity"]
	prices := r.PostForm["line_price"]
	notes := r.PostForm["line_note"]
	n := len(descs)
	if len(qtys) < n {
		n = len(qtys)
	}
	if len(prices) < n {
		n = len(prices)
	}
	for i := 0; i < n; i++ {
		qty, _ := strconv.Atoi(strings.TrimSpace(qtys[i]))
		price, _ := strconv.ParseInt(strings.TrimSpace(prices[i]), 10, 64)
		note := ""
		if i < len(notes) {
			note = strings.TrimSpace(notes[i])
		}
		f.Lines = append(f.Lines, LineInput{
			Description: descs[i],
			Quantity:    qty,
			UnitPrice:   price,
			Note:        note,
		})
	}
	return f
}

// FormFromOrder prefills an invoice form with an order's client and service
// data, one line per costed detail.
func FormFromOrder(o *orders.OrderWithDetails, today time.Time) DocumentForm {
	subject := "Prestation " + string(o.ServiceType)
	if op := o.OperationalDate(); !op.IsZero() {
		subject += " du " + op.Format("02/01/2006")
	}
	f := DocumentForm{
		Type:        string(TypeInvoice),
		OrderID:     strconv.FormatInt(o.ID, 10),
		ClientName:  o.ClientName,
		ClientPhone: o.ClientPhone,
		Subject:     subject,
		IssueDate:   today.Format("2006-01-02"),
	}
	switch {
	case o.Climate != nil:
		desc := "Intervention " + string(o.ServiceType)
		if o.Climate.Equipment != "" {
			desc += " - " + o.Climate.Equipment
		}
		f.Lines = append(f.Lines, LineInput{
			Description: desc,
			Quantity:    1,
			UnitPrice:   o.Climate.Cost,
		})
	case o.Carpet != nil:
		// One line per carpet when the cost divides evenly.
		qty := o.Carpet.CarpetCount
		unit := o.Carpet.Cost
		if qty > 1 && unit%int64(qty) == 0 {
			unit /= int64(qty)
		} else {
			qty = 1
		}
		f.Lines = append(f.Lines, LineInput{
			Description: "Nettoyage de tapis",
			Quantity:    qty,
			UnitPrice:   unit,
		})
	}
	return f
}

// FilterLines drops rows that cannot be billed: blank description, zero or
// negative quantity or price. Kept rows are renumbered from 1.
func FilterLines(in []LineInput) []Line {
	var out []Line
	for _, l := range in {
		desc := strings.TrimSpace(l.Description)
		if desc == "" || l.Quantity <= 0 || l.UnitPrice <= 0 {
			continue
		}
		out = append(out, Line{
			Position:    len(out) + 1,
			Description: desc,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Note:        l.Note,
		})
	}
	return out
}
