package pricing

import "github.com/shopspring/decimal"

// RoundToStep rounds amount to the nearest multiple of step in the given
// direction. A non-positive step returns the amount unchanged.
//
// Direction is interpreted relative to zero, so the arithmetic inverts for
// negative (refund) amounts: "away from zero" floors a negative amount to the
// more negative step boundary, mirroring the forward-sale behaviour where it
// ceils to the higher boundary.
func RoundToStep(amount, step decimal.Decimal, dir RoundingDirection) decimal.Decimal {
	if !step.IsPositive() {
		return amount
	}

	steps := amount.Div(step)
	if (amount.Sign() >= 0) == (dir == RoundAwayFromZero) {
		steps = steps.Ceil()
	} else {
		steps = steps.Floor()
	}
	return steps.Mul(step)
}
