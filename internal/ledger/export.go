package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/cityprop/backoffice/internal/shared"
)

const sheetName = "Brouillard"

var columnWidths = []float64{5, 12, 30, 40, 10, 18, 18, 18}

var columnHeaders = []string{
	"N°", "Date", "Référence", "Libellé", "Sens", "Entrée", "Sortie", "Solde",
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// BuildWorkbook renders a month sheet as the accountant's cash book
// spreadsheet: company header, period, carry-forward row, one row per
// movement with the running balance, and the totals.
func BuildWorkbook(sheet *MonthSheet, companyName string) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetName)

	for i, w := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			return nil, err
		}
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return nil, err
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	// Header block.
	period := fmt.Sprintf("%s %d", shared.MonthName(int(sheet.Month)), sheet.Year)
	f.SetCellValue(sheetName, "A1", "Entreprise : "+companyName)
	f.SetCellValue(sheetName, "A2", "Période : "+period)
	f.SetCellValue(sheetName, "A3", "Brouillard CAISSE")
	f.SetCellStyle(sheetName, "A3", "A3", titleStyle)

	const headerRow = 5
	for i, h := range columnHeaders {
		f.SetCellValue(sheetName, cell(i+1, headerRow), h)
	}
	f.SetCellStyle(sheetName, cell(1, headerRow), cell(len(columnHeaders), headerRow), headerStyle)

	// Carry-forward row before the first movement.
	row := headerRow + 1
	f.SetCellValue(sheetName, cell(4, row), "Report")
	f.SetCellValue(sheetName, cell(8, row), amountCell(sheet.CarryForward))
	f.SetCellStyle(sheetName, cell(4, row), cell(8, row), boldStyle)
	row++

	for i, r := range sheet.Rows {
		f.SetCellValue(sheetName, cell(1, row), i+1)
		f.SetCellValue(sheetName, cell(2, row), r.Date.Format("02/01/2006"))
		f.SetCellValue(sheetName, cell(3, row), r.Reference)
		f.SetCellValue(sheetName, cell(4, row), r.Label)
		f.SetCellValue(sheetName, cell(5, row), string(r.Kind))
		if r.Kind == KindIn {
			f.SetCellValue(sheetName, cell(6, row), amountCell(r.Amount))
		} else {
			f.SetCellValue(sheetName, cell(7, row), amountCell(r.Amount))
		}
		f.SetCellValue(sheetName, cell(8, row), amountCell(r.Balance))
		row++
	}

	f.SetCellValue(sheetName, cell(4, row), "Totaux")
	f.SetCellValue(sheetName, cell(6, row), amountCell(sheet.TotalIn))
	f.SetCellValue(sheetName, cell(7, row), amountCell(sheet.TotalOut))
	f.SetCellValue(sheetName, cell(8, row), amountCell(sheet.Closing))
	f.SetCellStyle(sheetName, cell(4, row), cell(8, row), boldStyle)

	return f, nil
}

// amountCell stores amounts as numbers so the spreadsheet stays summable.
func amountCell(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}

// ExportFileName builds the download name, e.g. "caisse-JAN-2026.xlsx".
func ExportFileName(sheet *MonthSheet) string {
	return fmt.Sprintf("caisse-%s-%d.xlsx", shared.MonthShortNames[int(sheet.Month)], sheet.Year)
}
