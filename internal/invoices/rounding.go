package invoices

import "github.com/shopspring/decimal"

// RoundDiscount turns a percentage discount on a gross amount into a whole
// FCFA amount ending in 0 or 5. The raw discount is rounded half-up to the
// franc, then snapped to the nearest lower multiple of 5 of its decade:
// last digits 0-4 drop to the multiple of 10, 5-9 drop to that multiple
// plus 5. Cash handlers never count coins below 5 FCFA.
func RoundDiscount(gross int64, rate decimal.Decimal) int64 {
	if gross <= 0 || rate.Sign() <= 0 {
		return 0
	}
	raw := decimal.NewFromInt(gross).Mul(rate).Div(decimal.NewFromInt(100))
	v := raw.Round(0).IntPart()
	last := v % 10
	if last < 5 {
		return v - last
	}
	return v - last + 5
}

// ComputeNet applies the rounded discount to the gross amount.
func ComputeNet(gross int64, rate decimal.Decimal) (discount, net int64) {
	discount = RoundDiscount(gross, rate)
	if discount > gross {
		discount = gross
	}
	return discount, gross - discount
}
