package pricing

import "github.com/shopspring/decimal"

// ProcessLine computes the full monetary breakdown for a single cart line
// under the given tax mode. rules must already be filtered to the line's
// category (see RulesForLine).
//
// The same parameterized computation runs twice: once against the raw unit
// price ("original" figures) and once against the tax-adjusted base price, so
// the two paths cannot drift apart. In inclusive mode the tax-adjusted base
// is the unit price with the summed tax rates stripped out:
//
//	base = unit - (Σrates * unit) / (100 + Σrates)
//
// which makes the final line total (net + tax) restore the quoted inclusive
// price. In exclusive mode the base is the unit price unchanged and tax is
// added on top.
func ProcessLine(line CartLine, rules []TaxRule, mode TaxMode) ProcessedLine {
	base := line.UnitPrice
	if mode == TaxInclusive {
		if sum := sumRates(rules); sum.IsPositive() {
			base = line.UnitPrice.Sub(sum.Mul(line.UnitPrice).Div(hundred.Add(sum)))
		}
	}

	pl := ProcessedLine{CartLine: line}
	pl.Figures = computeFigures(base, line, rules)
	pl.Original = computeFigures(line.UnitPrice, line, rules)
	pl.Display = formatFigures(pl.Figures)
	return pl
}

// RulesForLine filters rules down to those applicable to the line's category.
// Product lines match the "product" category; package lines match their
// package subtype.
func RulesForLine(line CartLine, rules []TaxRule) []TaxRule {
	var out []TaxRule
	for _, r := range rules {
		if r.Category == line.Category {
			out = append(out, r)
		}
	}
	return out
}

// computeFigures derives gross, discount, net, per-rule tax, and total for
// one line against one base price. The discount magnitude is clamped to the
// gross magnitude and sign-matched to it, so a refund line's discount makes
// the negative gross less negative, exactly mirroring the forward sale.
// Returned figures are rounded to two decimal places; the values feeding
// further arithmetic inside this function are not.
func computeFigures(base decimal.Decimal, line CartLine, rules []TaxRule) LineFigures {
	gross := base.Mul(decimal.NewFromInt(int64(line.Quantity)))

	disc := clampToMagnitude(DiscountAmount(gross.Abs(), line.Discount), gross.Abs())
	if gross.IsNegative() {
		disc = disc.Neg()
	}

	net := gross.Sub(disc)

	var (
		taxes    []TaxAmount
		totalTax = decimal.Zero
	)
	for _, r := range rules {
		amt := r.RatePercent.Mul(net).Div(hundred)
		taxes = append(taxes, TaxAmount{
			RuleID:      r.ID,
			Name:        r.Name,
			RatePercent: r.RatePercent,
			Amount:      amt.Round(2),
		})
		totalTax = totalTax.Add(amt)
	}

	return LineFigures{
		Gross:    gross.Round(2),
		Discount: disc.Round(2),
		Net:      net.Round(2),
		Taxes:    taxes,
		TotalTax: totalTax.Round(2),
		Total:    net.Add(totalTax).Round(2),
	}
}

func sumRates(rules []TaxRule) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range rules {
		sum = sum.Add(r.RatePercent)
	}
	return sum
}
