// Package catalog defines the purchasable entries of the club: packages
// (memberships, class passes, PT bundles) and retail products.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/migios-apps/migios-pos/internal/pricing"
)

// ErrNotFound is returned when a requested catalog item does not exist.
var ErrNotFound = errors.New("catalog item not found")

// Item is a sellable catalog entry. Packages and products share the same
// shape at the pricing boundary; Kind tells them apart and Category drives
// tax rule matching ("product" for products, the package subtype otherwise).
type Item struct {
	ID          string
	Kind        pricing.ItemKind
	Name        string
	Category    string
	Price       decimal.Decimal
	LoyaltyRule *pricing.LoyaltyRule

	// Attributes holds category-specific data (duration_days, session
	// count, trainer requirement). Opaque to pricing.
	Attributes map[string]string
}

// Repository defines read operations over the catalog.
type Repository interface {
	ListPackages(ctx context.Context) ([]Item, error)
	ListProducts(ctx context.Context) ([]Item, error)
	// GetByIDs returns the items matching any of the given IDs, across both
	// kinds, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]Item, error)
}
