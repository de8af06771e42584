package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/migios-apps/migios-pos/internal/domain/reward"
	"github.com/migios-apps/migios-pos/internal/pricing"
)

const getRewardByIDSQL = `SELECT id, name, kind, points_required, active,
	discount_kind, discount_value, granted_items
	FROM rewards WHERE id = $1`

var _ reward.Repository = (*RewardRepository)(nil)

// RewardRepository implements reward.Repository backed by PostgreSQL.
type RewardRepository struct {
	pool *pgxpool.Pool
}

// NewRewardRepository returns a RewardRepository that uses the given pool.
func NewRewardRepository(pool *pgxpool.Pool) *RewardRepository {
	return &RewardRepository{pool: pool}
}

// grantedItemRow is the JSONB shape of one granted item.
type grantedItemRow struct {
	Kind        string          `json:"kind"`
	ReferenceID string          `json:"reference_id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// GetByID looks up a reward definition. Returns reward.ErrNotFound when the
// id does not resolve.
func (r *RewardRepository) GetByID(ctx context.Context, id string) (*reward.Reward, error) {
	var (
		rw            reward.Reward
		kind          string
		discountKind  *string
		discountValue *decimal.Decimal
		grantedJSON   []byte
	)
	err := r.pool.QueryRow(ctx, getRewardByIDSQL, id).Scan(
		&rw.ID, &rw.Name, &kind, &rw.PointsRequired, &rw.Active,
		&discountKind, &discountValue, &grantedJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reward.ErrNotFound
		}
		return nil, fmt.Errorf("finding reward %q: %w", id, err)
	}

	rw.Kind = reward.Kind(kind)
	if discountKind != nil && discountValue != nil {
		rw.Discount = &pricing.Discount{
			Kind:  pricing.DiscountKind(*discountKind),
			Value: *discountValue,
		}
	}

	var rows []grantedItemRow
	if len(grantedJSON) > 0 {
		if err := json.Unmarshal(grantedJSON, &rows); err != nil {
			return nil, fmt.Errorf("unmarshaling granted items for %q: %w", id, err)
		}
	}
	for _, row := range rows {
		rw.GrantedItems = append(rw.GrantedItems, reward.GrantedItem{
			Kind:        pricing.ItemKind(row.Kind),
			ReferenceID: row.ReferenceID,
			Name:        row.Name,
			Category:    row.Category,
			Quantity:    row.Quantity,
			UnitPrice:   row.UnitPrice,
		})
	}
	return &rw, nil
}
