package pricing

import "github.com/shopspring/decimal"

// DiscountAmount converts a discount descriptor and a base amount into a
// currency amount. Percent discounts apply only for positive values; nominal
// discounts return the configured value verbatim (capping against the base is
// the caller's responsibility); a nil descriptor or unknown kind yields zero.
// It never fails.
func DiscountAmount(base decimal.Decimal, d *Discount) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	switch d.Kind {
	case DiscountPercent:
		if d.Value.IsPositive() {
			return base.Mul(d.Value).Div(hundred)
		}
		return decimal.Zero
	case DiscountNominal:
		return d.Value
	default:
		return decimal.Zero
	}
}

// clampToMagnitude bounds amount to the [0, limit] range. limit must be
// non-negative. A discount clamped this way can zero out the amount it
// discounts but never flip its sign.
func clampToMagnitude(amount, limit decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	if amount.GreaterThan(limit) {
		return limit
	}
	return amount
}
