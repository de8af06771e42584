// Package reward defines loyalty rewards and their redemption into cart
// mutations: a discount-type reward becomes a transaction-level discount, a
// free-item reward becomes reward-granted cart lines.
package reward

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/migios-apps/migios-pos/internal/pricing"
)

// Kind enumerates the two redemption behaviours.
type Kind string

const (
	// KindDiscount appends a transaction-level discount to the cart.
	KindDiscount Kind = "discount"
	// KindFreeItem appends granted lines to the cart.
	KindFreeItem Kind = "free_item"
)

var (
	// ErrNotFound is returned when a reward id does not resolve.
	ErrNotFound = errors.New("reward not found")
	// ErrInactive is returned when the reward is disabled.
	ErrInactive = errors.New("reward is not active")
	// ErrInsufficientPoints is returned when the member's balance does not
	// cover the reward cost.
	ErrInsufficientPoints = errors.New("insufficient loyalty points")
)

// GrantedItem is one catalog item a free-item reward places into the cart.
// UnitPrice is the price the granted line carries — normally zero, but the
// reward definition owns what "free" means.
type GrantedItem struct {
	Kind        pricing.ItemKind
	ReferenceID string
	Name        string
	Category    string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Reward is a redeemable loyalty reward definition.
type Reward struct {
	ID             string
	Name           string
	Kind           Kind
	PointsRequired int64
	Active         bool

	// Discount is set for KindDiscount rewards.
	Discount *pricing.Discount
	// GrantedItems is set for KindFreeItem rewards.
	GrantedItems []GrantedItem
}

// Repository provides reward lookups.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Reward, error)
}

// Redemption is the cart mutation produced by redeeming one reward. Exactly
// one of Discount and Lines is populated, matching the reward kind.
type Redemption struct {
	RewardID string
	Discount *pricing.TransactionDiscount
	Lines    []pricing.CartLine
}
