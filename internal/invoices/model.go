package invoices

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType distinguishes quotes from invoices. The persisted values
// match the historical codes.
type DocumentType string

const (
	TypeQuote   DocumentType = "DEVIS"
	TypeInvoice DocumentType = "FACTURE"
)

// Valid reports whether the type is a known document type.
func (t DocumentType) Valid() bool {
	return t == TypeQuote || t == TypeInvoice
}

// Label returns the French display name.
func (t DocumentType) Label() string {
	if t == TypeQuote {
		return "Devis"
	}
	return "Facture"
}

// DefaultSignatory is printed under the signature block when the form leaves
// the field blank.
const DefaultSignatory = "LA COMPTABILITÉ"

// Document is a quote or an invoice. Amounts are whole FCFA. OrderID links
// the document to the order it bills; free-standing documents leave it nil.
type Document struct {
	ID           int64           `db:"id"`
	Type         DocumentType    `db:"doc_type"`
	Number       string          `db:"number"`
	OrderID      *int64          `db:"order_id"`
	ClientName   string          `db:"client_name"`
	ClientPhone  string          `db:"client_phone"`
	Subject      string          `db:"subject"`
	Signatory    string          `db:"signatory"`
	IssueDate    time.Time       `db:"issue_date"`
	IssuePlace   string          `db:"issue_place"`
	DiscountRate decimal.Decimal `db:"discount_rate"`
	Gross        int64           `db:"gross"`
	Discount     int64           `db:"discount"`
	Net          int64           `db:"net"`
	CreatedAt    time.Time       `db:"created_at"`

	Lines []Line
}

// Line is one billed row of a document. Note is free text shown next to the
// unit price, e.g. "tarif préférentiel".
type Line struct {
	ID          int64  `db:"id"`
	DocumentID  int64  `db:"document_id"`
	Position    int    `db:"position"`
	Description string `db:"description"`
	Quantity    int    `db:"quantity"`
	UnitPrice   int64  `db:"unit_price"`
	Note        string `db:"price_note"`
}

// Total is the line amount.
func (l Line) Total() int64 {
	return int64(l.Quantity) * l.UnitPrice
}

// DocumentNumber builds the reference printed on the document:
// issue date, record id and site code, e.g. "20260415-87-ABJ".
func DocumentNumber(issueDate time.Time, id int64, siteCode string) string {
	return fmt.Sprintf("%s-%d-%s", issueDate.Format("20060102"), id, siteCode)
}
