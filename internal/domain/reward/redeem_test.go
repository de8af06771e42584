package reward

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migios-apps/migios-pos/internal/pricing"
)

func TestRedeem_DiscountReward(t *testing.T) {
	r := &Reward{
		ID: "rw-10off", Name: "10% off", Kind: KindDiscount,
		PointsRequired: 100, Active: true,
		Discount: &pricing.Discount{Kind: pricing.DiscountPercent, Value: decimal.NewFromInt(10)},
	}

	red, err := Redeem(r, 150)
	require.NoError(t, err)

	require.NotNil(t, red.Discount)
	assert.Empty(t, red.Lines)
	assert.Equal(t, "rw-10off", red.Discount.RewardID)
	assert.Equal(t, pricing.DiscountPercent, red.Discount.Kind)
	assert.True(t, decimal.NewFromInt(10).Equal(red.Discount.Value))
}

func TestRedeem_FreeItemReward(t *testing.T) {
	r := &Reward{
		ID: "rw-snack", Name: "Free Snacks", Kind: KindFreeItem,
		PointsRequired: 50, Active: true,
		GrantedItems: []GrantedItem{
			{Kind: pricing.ItemProduct, ReferenceID: "p-bar", Name: "Protein Bar", Category: "product", Quantity: 2},
			{Kind: pricing.ItemProduct, ReferenceID: "p-drink", Name: "Energy Drink", Category: "product"},
		},
	}

	red, err := Redeem(r, 50)
	require.NoError(t, err)

	assert.Nil(t, red.Discount)
	require.Len(t, red.Lines, 2)
	for _, ln := range red.Lines {
		assert.Equal(t, pricing.SourceRewardRedemption, ln.Source)
		assert.Equal(t, "rw-snack", ln.RewardID)
		assert.Equal(t, "Free Snacks", ln.RewardName)
		assert.True(t, decimal.Zero.Equal(ln.UnitPrice))
	}
	assert.Equal(t, 2, red.Lines[0].Quantity)
	// Zero quantity on the definition defaults to one granted unit.
	assert.Equal(t, 1, red.Lines[1].Quantity)
}

func TestRedeem_Errors(t *testing.T) {
	discount := &pricing.Discount{Kind: pricing.DiscountPercent, Value: decimal.NewFromInt(5)}

	tests := []struct {
		name    string
		reward  *Reward
		points  int64
		wantErr error
	}{
		{
			name:    "inactive",
			reward:  &Reward{ID: "r", Kind: KindDiscount, Discount: discount},
			points:  1000,
			wantErr: ErrInactive,
		},
		{
			name:    "insufficient points",
			reward:  &Reward{ID: "r", Kind: KindDiscount, Discount: discount, PointsRequired: 100, Active: true},
			points:  99,
			wantErr: ErrInsufficientPoints,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Redeem(tt.reward, tt.points)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRedeem_UnsupportedKind(t *testing.T) {
	_, err := Redeem(&Reward{ID: "r", Kind: "mystery", Active: true}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported kind")
}
