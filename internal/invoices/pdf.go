package invoices

import (
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/cityprop/backoffice/internal/view"
)

// WritePDF renders the printable document. Layout mirrors the paper forms
// the agency used before: header block, line table, totals, amount in words
// and the place/date signature line.
func WritePDF(w io.Writer, d *Document, companyName string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(d.Type.Label()+" "+d.Number), true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(companyName), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, tr(d.Type.Label()+" N° "+d.Number), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, tr("Client : "+d.ClientName), "", 1, "L", false, 0, "")
	if d.ClientPhone != "" {
		pdf.CellFormat(0, 6, tr("Téléphone : "+d.ClientPhone), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, tr("Date : "+d.IssueDate.Format("02/01/2006")), "", 1, "L", false, 0, "")
	if d.Subject != "" {
		pdf.CellFormat(0, 6, tr("Objet : "+d.Subject), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Line table.
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(221, 235, 247)
	pdf.CellFormat(90, 8, tr("Désignation"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, tr("Qté"), "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 8, tr("P.U. (FCFA)"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, tr("Montant (FCFA)"), "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, l := range d.Lines {
		unit := view.FormatInt(l.UnitPrice)
		if l.Note != "" {
			unit += " (" + l.Note + ")"
		}
		pdf.CellFormat(90, 7, tr(l.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, view.FormatInt(int64(l.Quantity)), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 7, tr(unit), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, view.FormatInt(l.Total()), "1", 1, "R", false, 0, "")
	}

	// Totals block.
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(150, 7, tr("Total brut"), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, view.FormatInt(d.Gross), "1", 1, "R", false, 0, "")
	if d.Discount > 0 {
		pdf.CellFormat(150, 7, tr("Remise ("+d.DiscountRate.String()+" %)"), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, "-"+view.FormatInt(d.Discount), "1", 1, "R", false, 0, "")
	}
	pdf.CellFormat(150, 7, tr("Net à payer"), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, view.FormatInt(d.Net), "1", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "I", 10)
	pdf.MultiCell(0, 6, tr("Arrêté le présent document à la somme de : "+AmountInWords(d.Net)), "", "L", false)
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, tr("Fait à "+d.IssuePlace+", le "+d.IssueDate.Format("02/01/2006")), "", 1, "R", false, 0, "")
	pdf.Ln(10)
	signatory := d.Signatory
	if signatory == "" {
		signatory = DefaultSignatory
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, tr(signatory), "", 1, "R", false, 0, "")

	return pdf.Output(w)
}
