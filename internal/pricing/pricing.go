// Package pricing implements the POS transaction pricing engine: a
// deterministic, side-effect-free fold over a cart snapshot that produces a
// fully reconciled monetary breakdown (per-line figures, transaction-level
// discount cascade, tax reconciliation, rounding, balance, loyalty accrual).
//
// Every function here is a pure computation over in-memory values. The engine
// performs no I/O, keeps no state between invocations, and is expected to be
// re-invoked with a fresh snapshot on every cart change. All money arithmetic
// uses shopspring/decimal; returned monetary figures are rounded to two
// decimal places, intermediate values are not.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ItemKind distinguishes the two purchasable catalog entry types.
type ItemKind string

const (
	// ItemPackage is a club package (membership, class pass, PT bundle).
	ItemPackage ItemKind = "package"
	// ItemProduct is a retail product sold over the counter.
	ItemProduct ItemKind = "product"
)

// LineSource records how a line entered the cart.
type LineSource string

const (
	// SourceDirectSale marks a line the customer is paying for.
	SourceDirectSale LineSource = "direct_sale"
	// SourceRewardRedemption marks a line granted by a loyalty reward.
	SourceRewardRedemption LineSource = "reward_redemption"
)

// DiscountKind enumerates the supported discount value interpretations.
type DiscountKind string

const (
	// DiscountPercent interprets the value as a percentage of the base.
	DiscountPercent DiscountKind = "percent"
	// DiscountNominal interprets the value as a fixed currency amount.
	DiscountNominal DiscountKind = "nominal"
)

// Discount describes a single percent or fixed-nominal discount.
type Discount struct {
	Kind  DiscountKind
	Value decimal.Decimal
}

// TransactionDiscount is one entry of the ordered cart-level discount list.
// RewardID is set when the discount was produced by a loyalty redemption.
type TransactionDiscount struct {
	Kind     DiscountKind
	Value    decimal.Decimal
	RewardID string
}

// LoyaltyRule is the per-catalog-item point accrual rule attached to a line.
type LoyaltyRule struct {
	Points      int64
	ExpiryKind  string
	ExpiryValue int
}

// CartLine is one purchasable entry in the cart. Quantity is negative if and
// only if the cart represents a refund; the sign of every figure derived from
// the line matches the sign of Quantity.
type CartLine struct {
	Kind        ItemKind
	ReferenceID string
	Name        string
	Category    string
	Quantity    int
	UnitPrice   decimal.Decimal
	Discount    *Discount
	Source      LineSource
	RewardID    string
	RewardName  string
	LoyaltyRule *LoyaltyRule

	// Attributes carries category-specific data (duration, trainer,
	// session count). The engine passes it through untouched.
	Attributes map[string]string
}

// TaxRule is a named percentage tax applied to lines of a matching category.
type TaxRule struct {
	ID          string
	Category    string
	Name        string
	RatePercent decimal.Decimal
}

// TaxMode selects whether stored unit prices already contain tax.
type TaxMode string

const (
	// TaxInclusive means unit prices are quoted with tax baked in.
	TaxInclusive TaxMode = "inclusive"
	// TaxExclusive means tax is added on top of unit prices.
	TaxExclusive TaxMode = "exclusive"
)

// RoundingDirection selects the bias of cash rounding relative to zero.
type RoundingDirection string

const (
	// RoundAwayFromZero rounds to the step boundary further from zero.
	RoundAwayFromZero RoundingDirection = "away_from_zero"
	// RoundTowardZero rounds to the step boundary closer to zero.
	RoundTowardZero RoundingDirection = "toward_zero"
)

// RoundingConfig controls cash rounding of the grand total.
type RoundingConfig struct {
	Enabled   bool
	Step      decimal.Decimal
	Direction RoundingDirection
}

// LoyaltyConfig controls point accrual.
type LoyaltyConfig struct {
	Enabled            bool
	EarnWhileRedeeming bool

	// EarnByTotalOrder switches accrual from per-line rules to a single
	// order-total threshold rule. The two modes are mutually exclusive.
	EarnByTotalOrder   bool
	MinOrderTotal      decimal.Decimal
	PointsPerThreshold int64

	// MultiplyPoints enables the multiplier policy: points scale with line
	// quantity (per-line mode) or with the number of threshold multiples
	// reached by the order total (total-order mode).
	MultiplyPoints bool
}

// Config is the narrow pricing configuration threaded explicitly through the
// engine. It deliberately carries only what the computation needs, never the
// full club settings record.
type Config struct {
	TaxMode  TaxMode
	Rounding RoundingConfig
	Loyalty  LoyaltyConfig
}

// Payment is money received against the cart. Amount is signed: a negative
// amount is money paid back out (a refund payment).
type Payment struct {
	AccountID string
	Amount    decimal.Decimal
	Date      time.Time
}

// Refund records money already returned to the customer on a prior pass over
// this transaction. Amounts are stored positive.
type Refund struct {
	AccountID string
	Amount    decimal.Decimal
	Date      time.Time
}

// TaxAmount is the computed tax for one rule on one line.
type TaxAmount struct {
	RuleID      string
	Name        string
	RatePercent decimal.Decimal
	Amount      decimal.Decimal
}

// LineFigures holds the monetary breakdown of a single line, computed against
// one base price. Two instances exist per processed line: one against the
// tax-adjusted base and one against the raw unit price.
type LineFigures struct {
	Gross    decimal.Decimal
	Discount decimal.Decimal
	Net      decimal.Decimal
	Taxes    []TaxAmount
	TotalTax decimal.Decimal
	Total    decimal.Decimal
}

// FormattedFigures carries display strings for a LineFigures.
type FormattedFigures struct {
	Gross    string
	Discount string
	Net      string
	TotalTax string
	Total    string
}

// ProcessedLine is the immutable result of running one CartLine through the
// line processor. It embeds the input line untouched and never aliases
// mutable state; a fresh value is built on every aggregation pass.
type ProcessedLine struct {
	CartLine

	// Figures are computed against the tax-adjusted base price.
	Figures LineFigures
	// Original figures are computed against the raw unit price, before any
	// inclusive-tax stripping.
	Original LineFigures

	Display FormattedFigures
}

// Cart is the full input snapshot for one aggregation pass. Discounts order
// is significant: it is the user-controlled append order of the cascade.
type Cart struct {
	Lines     []CartLine
	Discounts []TransactionDiscount
	TaxRules  []TaxRule
	Payments  []Payment
	Refunds   []Refund
}

// Result is the reconciled output of one aggregation pass. It is constructed
// fresh on every invocation and never persisted by the engine.
type Result struct {
	Lines []ProcessedLine

	GrossTotal            decimal.Decimal
	Subtotal              decimal.Decimal
	OriginalSubtotal      decimal.Decimal
	DiscountTotal         decimal.Decimal
	OriginalDiscountTotal decimal.Decimal
	TaxTotal              decimal.Decimal
	GrandTotal            decimal.Decimal
	RoundingAmount        decimal.Decimal

	Paid          decimal.Decimal
	RefundedTotal decimal.Decimal
	Balance       decimal.Decimal
	ReturnAmount  decimal.Decimal

	LoyaltyPoints int64
}

// HasRedemptions reports whether the cart contains any loyalty redemption:
// either a reward-granted line or a reward-linked transaction discount.
func (c *Cart) HasRedemptions() bool {
	for _, ln := range c.Lines {
		if ln.Source == SourceRewardRedemption {
			return true
		}
	}
	for _, d := range c.Discounts {
		if d.RewardID != "" {
			return true
		}
	}
	return false
}
