// Package checkout orchestrates cart pricing: it resolves catalog and reward
// references into a pricing snapshot, runs the pricing engine, and persists
// submitted orders. The engine itself stays pure; this package owns all I/O
// around it.
package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/migios-apps/migios-pos/internal/pricing"
)

// Sentinel errors for cart validation.
var (
	ErrEmptyCart      = errors.New("cart lines required")
	ErrMemberRequired = errors.New("member required to redeem rewards")
	ErrMixedSigns     = errors.New("sale and refund quantities cannot be mixed")
)

// ItemNotFoundError indicates a cart line references a missing catalog item.
type ItemNotFoundError struct {
	ReferenceID string
}

func (e *ItemNotFoundError) Error() string {
	return "catalog item " + e.ReferenceID + " not found"
}

// OrderNotFoundError indicates a refund references a missing order.
type OrderNotFoundError struct {
	OrderID string
}

func (e *OrderNotFoundError) Error() string {
	return "order " + e.OrderID + " not found"
}

// LineInput is one cart line as entered at the register. The unit price comes
// from the catalog; only the quantity, per-line discount, and category
// attributes are caller-controlled.
type LineInput struct {
	Kind        pricing.ItemKind
	ReferenceID string
	Quantity    int
	Discount    *pricing.Discount
	Attributes  map[string]string
}

// CartInput is the full mutable cart state sent on every quote or submission.
type CartInput struct {
	MemberID  string
	Lines     []LineInput
	Discounts []pricing.TransactionDiscount
	RewardIDs []string
	Payments  []pricing.Payment
	Refunds   []pricing.Refund
}

// Order is a submitted transaction with its reconciled pricing result.
type Order struct {
	ID       string
	MemberID string
	// RefundOf links a refund order to the order it reverses.
	RefundOf string

	Lines    []pricing.ProcessedLine
	Payments []pricing.Payment

	Subtotal       decimal.Decimal
	DiscountTotal  decimal.Decimal
	TaxTotal       decimal.Decimal
	GrandTotal     decimal.Decimal
	RoundingAmount decimal.Decimal
	Balance        decimal.Decimal
	LoyaltyPoints  int64

	CreatedAt time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
}

// SettingsProvider supplies the pricing configuration and active tax rules
// for the club. Only the narrow pricing.Config crosses into the engine.
type SettingsProvider interface {
	Load(ctx context.Context) (pricing.Config, []pricing.TaxRule, error)
}

// MemberRepository supplies the loyalty point balance used to validate
// redemptions.
type MemberRepository interface {
	PointsBalance(ctx context.Context, memberID string) (int64, error)
}
