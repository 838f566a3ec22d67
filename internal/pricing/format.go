package pricing

import "github.com/shopspring/decimal"

// CurrencyFormatter produces the display half of every {value,
// formatted} pair. The numeric value stays authoritative; formatted
// strings are never parsed back.
type CurrencyFormatter interface {
	FormatCurrency(d decimal.Decimal) string
	FormatPercentage(ratio decimal.Decimal) string
}

// SymbolFormatter formats with a fixed currency symbol, two decimal
// places and a leading minus for negative amounts.
type SymbolFormatter struct {
	Symbol string
}

func NewUSDFormatter() *SymbolFormatter {
	return &SymbolFormatter{Symbol: "$"}
}

func (f *SymbolFormatter) FormatCurrency(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + f.Symbol + d.Abs().StringFixed(2)
	}
	return f.Symbol + d.StringFixed(2)
}

// FormatPercentage renders a 0..1 ratio as a whole percentage.
func (f *SymbolFormatter) FormatPercentage(ratio decimal.Decimal) string {
	return ratio.Mul(decimal.NewFromInt(100)).Round(0).String() + "%"
}
