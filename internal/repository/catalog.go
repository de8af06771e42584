package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/migios-apps/migios-pos/internal/domain/catalog"
	"github.com/migios-apps/migios-pos/internal/pricing"
)

const (
	catalogColumns = `id, kind, name, category, price,
		loyalty_points, loyalty_expiry_kind, loyalty_expiry_value, attributes`

	listByKindSQL = `SELECT ` + catalogColumns + `
		FROM catalog_items WHERE kind = $1 AND active = TRUE ORDER BY name`

	getItemsByIDsSQL = `SELECT ` + catalogColumns + `
		FROM catalog_items WHERE id = ANY($1) AND active = TRUE`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListPackages returns all active packages ordered by name.
func (r *CatalogRepository) ListPackages(ctx context.Context) ([]catalog.Item, error) {
	return r.listByKind(ctx, pricing.ItemPackage)
}

// ListProducts returns all active products ordered by name.
func (r *CatalogRepository) ListProducts(ctx context.Context) ([]catalog.Item, error) {
	return r.listByKind(ctx, pricing.ItemProduct)
}

func (r *CatalogRepository) listByKind(ctx context.Context, kind pricing.ItemKind) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, listByKindSQL, string(kind))
	if err != nil {
		return nil, fmt.Errorf("listing %s items: %w", kind, err)
	}
	return pgx.CollectRows(rows, scanCatalogItem)
}

// GetByIDs returns active items matching any of the given IDs.
func (r *CatalogRepository) GetByIDs(ctx context.Context, ids []string) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, getItemsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting catalog items by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanCatalogItem)
}

func scanCatalogItem(row pgx.CollectableRow) (catalog.Item, error) {
	var (
		it             catalog.Item
		kind           string
		loyaltyPoints  *int64
		loyaltyKind    *string
		loyaltyValue   *int
		attributesJSON []byte
	)
	err := row.Scan(
		&it.ID, &kind, &it.Name, &it.Category, &it.Price,
		&loyaltyPoints, &loyaltyKind, &loyaltyValue, &attributesJSON,
	)
	if err != nil {
		return it, err
	}

	it.Kind = pricing.ItemKind(kind)
	if loyaltyPoints != nil {
		rule := &pricing.LoyaltyRule{Points: *loyaltyPoints}
		if loyaltyKind != nil {
			rule.ExpiryKind = *loyaltyKind
		}
		if loyaltyValue != nil {
			rule.ExpiryValue = *loyaltyValue
		}
		it.LoyaltyRule = rule
	}
	if len(attributesJSON) > 0 {
		if err := json.Unmarshal(attributesJSON, &it.Attributes); err != nil {
			return it, fmt.Errorf("unmarshaling attributes for %q: %w", it.ID, err)
		}
	}
	return it, nil
}
