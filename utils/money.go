package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySign is the tenge sign appended to formatted amounts
const CurrencySign = "₸"

// FormatAmount renders an amount with a space as thousands separator: 5000 → "5 000".
// Whole amounts have no fraction; others keep two decimals.
func FormatAmount(d decimal.Decimal) string {
	var s string
	if d.Equal(d.Truncate(0)) {
		s = d.Truncate(0).String()
	} else {
		s = d.StringFixed(2)
	}

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}

	return sign + b.String() + frac
}

// FormatMoney renders an amount followed by the tenge sign: "5 000 ₸"
func FormatMoney(d decimal.Decimal) string {
	return FormatAmount(d) + " " + CurrencySign
}
