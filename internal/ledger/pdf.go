package ledger

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/cityprop/backoffice/internal/shared"
	"github.com/cityprop/backoffice/internal/view"
)

// WritePDF renders the month sheet as the printable cash book.
func WritePDF(w io.Writer, sheet *MonthSheet, companyName string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	period := fmt.Sprintf("%s %d", shared.MonthName(int(sheet.Month)), sheet.Year)
	pdf.SetTitle(tr("Brouillard caisse "+period), true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, tr(companyName), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 7, tr("Brouillard CAISSE - "+period), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(221, 235, 247)
	pdf.CellFormat(18, 7, tr("Date"), "1", 0, "C", true, 0, "")
	pdf.CellFormat(62, 7, tr("Libellé"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(36, 7, tr("Entrée"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(36, 7, tr("Sortie"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(38, 7, tr("Solde"), "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(18, 6, "", "1", 0, "C", false, 0, "")
	pdf.CellFormat(62, 6, tr("Report"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(36, 6, "", "1", 0, "R", false, 0, "")
	pdf.CellFormat(36, 6, "", "1", 0, "R", false, 0, "")
	pdf.CellFormat(38, 6, formatAmount(sheet.CarryForward), "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, r := range sheet.Rows {
		pdf.CellFormat(18, 6, r.Date.Format("02/01"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(62, 6, tr(r.Label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(36, 6, inOrBlank(r.Movement, KindIn), "1", 0, "R", false, 0, "")
		pdf.CellFormat(36, 6, inOrBlank(r.Movement, KindOut), "1", 0, "R", false, 0, "")
		pdf.CellFormat(38, 6, formatAmount(r.Balance), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(80, 7, tr("Totaux"), "1", 0, "R", false, 0, "")
	pdf.CellFormat(36, 7, formatAmount(sheet.TotalIn), "1", 0, "R", false, 0, "")
	pdf.CellFormat(36, 7, formatAmount(sheet.TotalOut), "1", 0, "R", false, 0, "")
	pdf.CellFormat(38, 7, formatAmount(sheet.Closing), "1", 1, "R", false, 0, "")

	return pdf.Output(w)
}

func inOrBlank(m Movement, kind MovementKind) string {
	if m.Kind != kind {
		return ""
	}
	return formatAmount(m.Amount)
}

func formatAmount(d decimal.Decimal) string {
	return view.FormatInt(d.IntPart())
}
