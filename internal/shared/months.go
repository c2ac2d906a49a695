package shared

import "time"

// MonthNames maps month numbers to their French names, used across the ledger
// and the export documents.
var MonthNames = map[int]string{
	1: "Janvier", 2: "Février", 3: "Mars", 4: "Avril",
	5: "Mai", 6: "Juin", 7: "Juillet", 8: "Août",
	9: "Septembre", 10: "Octobre", 11: "Novembre", 12: "Décembre",
}

// MonthShortNames holds the abbreviated French month labels used in export
// file names.
var MonthShortNames = map[int]string{
	1: "JAN", 2: "FÉV", 3: "MAR", 4: "AVR",
	5: "MAI", 6: "JUN", 7: "JUL", 8: "AOÛ",
	9: "SEP", 10: "OCT", 11: "NOV", 12: "DÉC",
}

// MonthName returns the French name for a month number, or an empty string.
func MonthName(m int) string {
	return MonthNames[m]
}

// MonthStart returns midnight UTC on the first day of the given month.
func MonthStart(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}
