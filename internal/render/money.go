package render

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the only currency the shop bills in.
const DefaultCurrency = money.USD

// Formatter prints amounts in a single currency, rounded to its minor unit.
type Formatter struct {
	currency money.Currency
}

// NewFormatter returns a formatter for the ISO code. Unknown codes fall back
// to DefaultCurrency.
func NewFormatter(code string) Formatter {
	code = strings.ToUpper(strings.TrimSpace(code))
	cur := money.GetCurrency(code)
	if cur == nil {
		cur = money.GetCurrency(DefaultCurrency)
	}
	return Formatter{currency: *cur}
}

// Code returns the ISO code of the formatter currency.
func (f Formatter) Code() string { return f.currency.Code }

// Minor converts amount to minor units, rounding half away from zero.
func (f Formatter) Minor(amount float64) int64 {
	frac := int32(f.currency.Fraction)
	return decimal.NewFromFloat(amount).Round(frac).Shift(frac).IntPart()
}

// Format renders amount for display, e.g. $1,486.80. NaN and infinities
// print as zero.
func (f Formatter) Format(amount float64) string {
	if amount != amount || amount > maxAmount || amount < -maxAmount {
		amount = 0
	}
	return f.currency.Formatter().Format(f.Minor(amount))
}

// Money formats amount in the currency identified by code.
func Money(amount float64, code string) string {
	return NewFormatter(code).Format(amount)
}

// maxAmount keeps the minor-unit conversion inside int64.
const maxAmount = 1e15
