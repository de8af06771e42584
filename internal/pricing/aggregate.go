package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNilCart is returned when Aggregate is invoked without a cart snapshot.
// It is the engine's only hard failure: every other malformed input degrades
// to a zero or neutral value because the cart is frequently in a mid-edit,
// intentionally incomplete state.
var ErrNilCart = errors.New("cart snapshot is required")

// Aggregate runs the full pricing pass over a cart snapshot: it processes
// every line, cascades transaction-level discounts in list order, rescales
// tax to the discounted base, applies cash rounding to the grand total, and
// derives balance, change, and loyalty accrual.
//
// The identical code path serves sales, order edits, and refunds; a refund
// cart is simply one whose quantities (and therefore all derived figures) are
// negative.
func Aggregate(cart *Cart, cfg Config) (*Result, error) {
	if cart == nil {
		return nil, ErrNilCart
	}

	res := &Result{Lines: make([]ProcessedLine, 0, len(cart.Lines))}

	gross := decimal.Zero
	subtotal := decimal.Zero
	originalSubtotal := decimal.Zero
	rawTax := decimal.Zero
	for _, line := range cart.Lines {
		pl := ProcessLine(line, RulesForLine(line, cart.TaxRules), cfg.TaxMode)
		res.Lines = append(res.Lines, pl)

		gross = gross.Add(pl.Figures.Gross)
		subtotal = subtotal.Add(pl.Figures.Net)
		originalSubtotal = originalSubtotal.Add(pl.Original.Net)
		rawTax = rawTax.Add(pl.Figures.TotalTax)
	}

	res.GrossTotal = gross
	res.Subtotal = subtotal
	res.OriginalSubtotal = originalSubtotal
	res.DiscountTotal = cascade(subtotal, cart.Discounts)
	res.OriginalDiscountTotal = cascade(originalSubtotal, cart.Discounts)

	dppFinal := subtotal.Sub(res.DiscountTotal)

	// The cascade ran after per-line tax was computed, so tax is rescaled
	// proportionally onto the discounted base instead of being recomputed
	// per rule. When the subtotal is zero the ratio is undefined and the raw
	// tax is kept unchanged; if a nonzero nominal discount still applies in
	// that degenerate case the tax base drifts, which matches the recorded
	// billing behaviour.
	adjustedTax := rawTax
	if !res.DiscountTotal.IsZero() && !subtotal.IsZero() {
		adjustedTax = rawTax.Mul(dppFinal).Div(subtotal).Round(2)
	}
	res.TaxTotal = adjustedTax

	grand := dppFinal.Add(adjustedTax)
	if cfg.Rounding.Enabled {
		rounded := RoundToStep(grand, cfg.Rounding.Step, cfg.Rounding.Direction)
		res.RoundingAmount = rounded.Sub(grand)
		grand = rounded
	}
	res.GrandTotal = grand

	res.Paid = sumPayments(cart.Payments)
	res.RefundedTotal = sumRefunds(cart.Refunds)

	// Refund records are money already handed back, so they offset payments.
	effectivePaid := res.Paid.Sub(res.RefundedTotal)

	if grand.IsNegative() {
		// Refund mode: the balance stays at or below zero until refund
		// payments (negative amounts) bring it back to zero.
		res.Balance = grand.Sub(effectivePaid)
		res.ReturnAmount = decimal.Zero
	} else {
		res.Balance = decimal.Max(decimal.Zero, grand.Sub(effectivePaid))
		res.ReturnAmount = decimal.Max(decimal.Zero, effectivePaid.Sub(grand))
	}

	res.LoyaltyPoints = EarnedPoints(res.Lines, grand, cfg.Loyalty, cart.HasRedemptions())

	return res, nil
}

// cascade applies the ordered transaction discount list against base and
// returns the accumulated discount total. Each step is computed against the
// remainder left by the previous one, clamped to its magnitude and
// sign-matched to it; this sequential fold is deliberate, because the append
// order of discounts is user-visible billing behaviour (10% then 35% is not
// 45%).
func cascade(base decimal.Decimal, discounts []TransactionDiscount) decimal.Decimal {
	current := base
	total := decimal.Zero
	for _, td := range discounts {
		d := Discount{Kind: td.Kind, Value: td.Value}
		amt := clampToMagnitude(DiscountAmount(current.Abs(), &d), current.Abs())
		if current.IsNegative() {
			amt = amt.Neg()
		}
		current = current.Sub(amt)
		total = total.Add(amt)
	}
	return total.Round(2)
}

func sumPayments(payments []Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

func sumRefunds(refunds []Refund) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range refunds {
		sum = sum.Add(r.Amount)
	}
	return sum
}
