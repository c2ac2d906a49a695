package invoices

import "strings"

// AmountInWords spells out a FCFA amount in French, uppercase, for the
// signature block of quotes and invoices.
func AmountInWords(n int64) string {
	if n <= 0 {
		return "ZERO FRANC CFA"
	}
	return strings.ToUpper(frenchNumber(n)) + " FRANC CFA"
}

var frenchUnits = []string{
	"", "un", "deux", "trois", "quatre", "cinq", "six", "sept", "huit", "neuf",
	"dix", "onze", "douze", "treize", "quatorze", "quinze", "seize",
	"dix-sept", "dix-huit", "dix-neuf",
}

var frenchTens = []string{
	"", "", "vingt", "trente", "quarante", "cinquante", "soixante",
}

// followed marks that the number is immediately followed by a numeral
// adjective such as "mille", which strips the plural "s" from "vingt" and
// "cent". Nouns like "million" keep it.
func frenchUnder100(n int64, followed bool) string {
	if n < 20 {
		return frenchUnits[n]
	}
	switch {
	case n < 70:
		tens, unit := n/10, n%10
		if unit == 1 {
			return frenchTens[tens] + " et un"
		}
		if unit == 0 {
			return frenchTens[tens]
		}
		return frenchTens[tens] + "-" + frenchUnits[unit]
	case n < 80:
		// 70-79 build on sixty.
		if n == 71 {
			return "soixante et onze"
		}
		return "soixante-" + frenchUnits[n-60]
	default:
		// 80-99 build on quatre-vingt.
		if n == 80 {
			if followed {
				return "quatre-vingt"
			}
			return "quatre-vingts"
		}
		return "quatre-vingt-" + frenchUnits[n-80]
	}
}

func frenchUnder1000(n int64, followed bool) string {
	if n < 100 {
		return frenchUnder100(n, followed)
	}
	hundreds, rest := n/100, n%100
	var head string
	switch {
	case hundreds == 1:
		head = "cent"
	case rest == 0:
		if followed {
			head = frenchUnits[hundreds] + " cent"
		} else {
			head = frenchUnits[hundreds] + " cents"
		}
	default:
		head = frenchUnits[hundreds] + " cent"
	}
	if rest == 0 {
		return head
	}
	return head + " " + frenchUnder100(rest, followed)
}

func frenchScale(n int64, singular, plural string) string {
	if n == 1 {
		return "un " + singular
	}
	return frenchUnder1000(n, false) + " " + plural
}

func frenchNumber(n int64) string {
	var parts []string
	if billions := n / 1_000_000_000; billions > 0 {
		parts = append(parts, frenchScale(billions, "milliard", "milliards"))
		n %= 1_000_000_000
	}
	if millions := n / 1_000_000; millions > 0 {
		parts = append(parts, frenchScale(millions, "million", "millions"))
		n %= 1_000_000
	}
	if thousands := n / 1000; thousands > 0 {
		// "mille" is invariable and never takes "un".
		if thousands == 1 {
			parts = append(parts, "mille")
		} else {
			parts = append(parts, frenchUnder1000(thousands, true)+" mille")
		}
		n %= 1000
	}
	if n > 0 {
		parts = append(parts, frenchUnder1000(n, false))
	}
	if len(parts) == 0 {
		return "zéro"
	}
	return strings.Join(parts, " ")
}
