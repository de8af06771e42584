package reward

import (
	"github.com/go-faster/errors"

	"github.com/migios-apps/migios-pos/internal/pricing"
)

// Redeem validates the reward against the member's point balance and expands
// it into its cart mutation. It does not touch the member's balance; point
// deduction happens when the order is submitted.
func Redeem(r *Reward, memberPoints int64) (*Redemption, error) {
	if !r.Active {
		return nil, ErrInactive
	}
	if memberPoints < r.PointsRequired {
		return nil, ErrInsufficientPoints
	}

	switch r.Kind {
	case KindDiscount:
		if r.Discount == nil {
			return nil, errors.Errorf("reward %s: discount reward without discount", r.ID)
		}
		return &Redemption{
			RewardID: r.ID,
			Discount: &pricing.TransactionDiscount{
				Kind:     r.Discount.Kind,
				Value:    r.Discount.Value,
				RewardID: r.ID,
			},
		}, nil

	case KindFreeItem:
		lines := make([]pricing.CartLine, 0, len(r.GrantedItems))
		for _, gi := range r.GrantedItems {
			qty := gi.Quantity
			if qty <= 0 {
				qty = 1
			}
			lines = append(lines, pricing.CartLine{
				Kind:        gi.Kind,
				ReferenceID: gi.ReferenceID,
				Name:        gi.Name,
				Category:    gi.Category,
				Quantity:    qty,
				UnitPrice:   gi.UnitPrice,
				Source:      pricing.SourceRewardRedemption,
				RewardID:    r.ID,
				RewardName:  r.Name,
			})
		}
		return &Redemption{RewardID: r.ID, Lines: lines}, nil

	default:
		return nil, errors.Errorf("reward %s: unsupported kind %q", r.ID, r.Kind)
	}
}
