package pricing

import "github.com/shopspring/decimal"

// EarnedPoints computes the loyalty points accrued by the cart.
//
// The two accrual modes are mutually exclusive: with EarnByTotalOrder set,
// per-line loyalty rules never contribute even when present, and vice versa.
// A cart that redeems a reward earns nothing unless the club allows earning
// while redeeming.
func EarnedPoints(lines []ProcessedLine, grandTotal decimal.Decimal, cfg LoyaltyConfig, hasRedemptions bool) int64 {
	if !cfg.Enabled {
		return 0
	}
	if hasRedemptions && !cfg.EarnWhileRedeeming {
		return 0
	}

	if cfg.EarnByTotalOrder {
		if grandTotal.LessThan(cfg.MinOrderTotal) {
			return 0
		}
		points := cfg.PointsPerThreshold
		if cfg.MultiplyPoints && cfg.MinOrderTotal.IsPositive() {
			points *= grandTotal.Div(cfg.MinOrderTotal).Floor().IntPart()
		}
		return points
	}

	var points int64
	for _, ln := range lines {
		if ln.LoyaltyRule == nil {
			continue
		}
		p := ln.LoyaltyRule.Points
		if cfg.MultiplyPoints && ln.Quantity > 1 {
			p *= int64(ln.Quantity)
		}
		points += p
	}
	return points
}
