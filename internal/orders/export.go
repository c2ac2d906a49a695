package orders

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Commandes"

var exportHeaders = []string{
	"N°", "Client", "Téléphone", "Localisation", "Type de service",
	"Date de création", "Date opération", "Statut", "Montant (FCFA)", "Fidélisé",
}

var exportWidths = []float64{6, 28, 16, 24, 16, 14, 14, 20, 16, 10}

// BuildWorkbook renders the full order list as a spreadsheet. The caller
// owns the returned file and should stream it with Write.
func BuildWorkbook(all []OrderWithDetails) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", exportSheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return nil, err
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, err
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(exportSheet, col, col, exportWidths[i]); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(exportSheet, "A1", fmt.Sprintf("%s1", mustCol(len(exportHeaders))), headerStyle); err != nil {
		return nil, err
	}

	for i, o := range all {
		row := i + 2
		values := []any{
			o.ID,
			o.ClientName,
			o.ClientPhone,
			o.ClientLocation,
			string(o.ServiceType),
			o.CreatedAt.Format("02/01/2006"),
			o.OperationalDate().Format("02/01/2006"),
			statusLabel(o),
			amount(o),
			retainedLabel(o),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func mustCol(n int) string {
	col, _ := excelize.ColumnNumberToName(n)
	return col
}

func statusLabel(o OrderWithDetails) string {
	if o.Climate != nil && o.Climate.Satisfaction != nil {
		return string(*o.Climate.Satisfaction)
	}
	if o.Carpet != nil {
		return string(o.Carpet.Status)
	}
	return ""
}

func amount(o OrderWithDetails) int64 {
	if o.Climate != nil {
		return o.Climate.Cost
	}
	if o.Carpet != nil {
		return o.Carpet.Cost
	}
	return 0
}

func retainedLabel(o OrderWithDetails) string {
	if o.Retained() {
		return "Oui"
	}
	return "Non"
}
