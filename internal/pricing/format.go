package pricing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// printer renders display amounts with digit grouping. Display strings are
// presentation-only; all arithmetic stays on decimal values.
var printer = message.NewPrinter(language.English)

// FormatAmount renders a monetary amount with grouping and exactly two
// fraction digits, e.g. "181,818.18".
func FormatAmount(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return printer.Sprint(number.Decimal(f,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

func formatFigures(f LineFigures) FormattedFigures {
	return FormattedFigures{
		Gross:    FormatAmount(f.Gross),
		Discount: FormatAmount(f.Discount),
		Net:      FormatAmount(f.Net),
		TotalTax: FormatAmount(f.TotalTax),
		Total:    FormatAmount(f.Total),
	}
}
