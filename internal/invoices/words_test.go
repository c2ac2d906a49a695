package invoices

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountInWords(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "ZERO FRANC CFA"},
		{-5, "ZERO FRANC CFA"},
		{1, "UN FRANC CFA"},
		{17, "DIX-SEPT FRANC CFA"},
		{21, "VINGT ET UN FRANC CFA"},
		{70, "SOIXANTE-DIX FRANC CFA"},
		{71, "SOIXANTE ET ONZE FRANC CFA"},
		{80, "QUATRE-VINGTS FRANC CFA"},
		{91, "QUATRE-VINGT-ONZE FRANC CFA"},
		{100, "CENT FRANC CFA"},
		{200, "DEUX CENTS FRANC CFA"},
		{201, "DEUX CENT UN FRANC CFA"},
		{1000, "MILLE FRANC CFA"},
		{1975, "MILLE NEUF CENT SOIXANTE-QUINZE FRANC CFA"},
		{118800, "CENT DIX-HUIT MILLE HUIT CENTS FRANC CFA"},
		{80000, "QUATRE-VINGT MILLE FRANC CFA"},
		{180000, "CENT QUATRE-VINGT MILLE FRANC CFA"},
		{200000, "DEUX CENT MILLE FRANC CFA"},
		{480000, "QUATRE CENT QUATRE-VINGT MILLE FRANC CFA"},
		{80000000, "QUATRE-VINGTS MILLIONS FRANC CFA"},
		{200000000, "DEUX CENTS MILLIONS FRANC CFA"},
		{1000000, "UN MILLION FRANC CFA"},
		{2000000, "DEUX MILLIONS FRANC CFA"},
		{1000000000, "UN MILLIARD FRANC CFA"},
		{1234567, "UN MILLION DEUX CENT TRENTE-QUATRE MILLE CINQ CENT SOIXANTE-SEPT FRANC CFA"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AmountInWords(tc.n), "n=%d", tc.n)
	}
}
