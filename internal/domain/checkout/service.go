package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/migios-apps/migios-pos/internal/domain/catalog"
	"github.com/migios-apps/migios-pos/internal/domain/reward"
	"github.com/migios-apps/migios-pos/internal/pricing"
)

// Service builds pricing snapshots from cart input and drives the engine.
type Service struct {
	catalog  catalog.Repository
	rewards  reward.Repository
	members  MemberRepository
	settings SettingsProvider
	orders   Repository
	now      func() time.Time
}

// NewService creates a checkout Service with the required collaborators.
func NewService(
	catalogRepo catalog.Repository,
	rewards reward.Repository,
	members MemberRepository,
	settings SettingsProvider,
	orders Repository,
) *Service {
	return &Service{
		catalog:  catalogRepo,
		rewards:  rewards,
		members:  members,
		settings: settings,
		orders:   orders,
		now:      time.Now,
	}
}

// Quote prices the cart without persisting anything. The client calls it on
// every form change; it is deliberately lenient about mid-edit state (zero
// quantities, oversized discounts) and fails only on missing references.
func (s *Service) Quote(ctx context.Context, in CartInput) (*pricing.Result, error) {
	cart, cfg, err := s.buildCart(ctx, in)
	if err != nil {
		return nil, err
	}
	return pricing.Aggregate(cart, cfg)
}

// Checkout prices the cart through the exact code path Quote uses, then
// persists the order with its reconciled totals.
func (s *Service) Checkout(ctx context.Context, in CartInput) (*Order, error) {
	if len(in.Lines) == 0 && len(in.RewardIDs) == 0 {
		return nil, ErrEmptyCart
	}
	if err := validateQuantitySigns(in.Lines); err != nil {
		return nil, err
	}

	cart, cfg, err := s.buildCart(ctx, in)
	if err != nil {
		return nil, err
	}
	res, err := pricing.Aggregate(cart, cfg)
	if err != nil {
		return nil, err
	}

	o := s.orderFromResult(in, res)
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// Order loads a previously submitted order.
func (s *Service) Order(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// Refund loads a submitted order, negates every line quantity, and reprices
// through the identical aggregation path, so a refund reconciles bit-for-bit
// against the original sale. Payments passed in are the (negative) refund
// disbursements.
func (s *Service) Refund(ctx context.Context, orderID string, payments []pricing.Payment) (*Order, error) {
	orig, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	cfg, taxRules, err := s.settings.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load settings")
	}

	lines := make([]pricing.CartLine, len(orig.Lines))
	for i, pl := range orig.Lines {
		ln := pl.CartLine
		ln.Quantity = -ln.Quantity
		lines[i] = ln
	}

	cart := &pricing.Cart{
		Lines:    lines,
		TaxRules: taxRules,
		Payments: payments,
	}
	res, err := pricing.Aggregate(cart, cfg)
	if err != nil {
		return nil, err
	}

	o := s.orderFromResult(CartInput{MemberID: orig.MemberID, Payments: payments}, res)
	o.RefundOf = orig.ID
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create refund order")
	}
	return o, nil
}

// buildCart resolves catalog references and reward redemptions into a full
// pricing snapshot plus the active pricing configuration.
func (s *Service) buildCart(ctx context.Context, in CartInput) (*pricing.Cart, pricing.Config, error) {
	cfg, taxRules, err := s.settings.Load(ctx)
	if err != nil {
		return nil, pricing.Config{}, errors.Wrap(err, "load settings")
	}

	lines, err := s.resolveLines(ctx, in.Lines)
	if err != nil {
		return nil, pricing.Config{}, err
	}

	discounts := make([]pricing.TransactionDiscount, 0, len(in.Discounts)+len(in.RewardIDs))
	discounts = append(discounts, in.Discounts...)

	// Redemptions append after manual discounts, preserving the
	// user-controlled cascade order.
	if len(in.RewardIDs) > 0 {
		redemptions, err := s.resolveRewards(ctx, in.MemberID, in.RewardIDs)
		if err != nil {
			return nil, pricing.Config{}, err
		}
		for _, red := range redemptions {
			if red.Discount != nil {
				discounts = append(discounts, *red.Discount)
			}
			lines = append(lines, red.Lines...)
		}
	}

	return &pricing.Cart{
		Lines:     lines,
		Discounts: discounts,
		TaxRules:  taxRules,
		Payments:  in.Payments,
		Refunds:   in.Refunds,
	}, cfg, nil
}

// resolveLines batch-fetches the referenced catalog items and materializes
// pricing lines with catalog prices, categories, and loyalty rules.
func (s *Service) resolveLines(ctx context.Context, inputs []LineInput) ([]pricing.CartLine, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(inputs))
	for i, in := range inputs {
		ids[i] = in.ReferenceID
	}

	fetched, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get catalog items")
	}
	byID := make(map[string]catalog.Item, len(fetched))
	for _, it := range fetched {
		byID[it.ID] = it
	}

	lines := make([]pricing.CartLine, len(inputs))
	for i, in := range inputs {
		item, ok := byID[in.ReferenceID]
		if !ok {
			return nil, &ItemNotFoundError{ReferenceID: in.ReferenceID}
		}
		lines[i] = pricing.CartLine{
			Kind:        item.Kind,
			ReferenceID: item.ID,
			Name:        item.Name,
			Category:    item.Category,
			Quantity:    in.Quantity,
			UnitPrice:   item.Price,
			Discount:    in.Discount,
			Source:      pricing.SourceDirectSale,
			LoyaltyRule: item.LoyaltyRule,
			Attributes:  mergeAttributes(item.Attributes, in.Attributes),
		}
	}
	return lines, nil
}

// resolveRewards validates and expands the requested redemptions against the
// member's point balance, deducting each reward's cost from the remaining
// balance as it goes.
func (s *Service) resolveRewards(ctx context.Context, memberID string, rewardIDs []string) ([]*reward.Redemption, error) {
	if memberID == "" {
		return nil, ErrMemberRequired
	}

	balance, err := s.members.PointsBalance(ctx, memberID)
	if err != nil {
		return nil, errors.Wrap(err, "member points balance")
	}

	redemptions := make([]*reward.Redemption, 0, len(rewardIDs))
	for _, id := range rewardIDs {
		r, err := s.rewards.GetByID(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "reward %s", id)
		}
		red, err := reward.Redeem(r, balance)
		if err != nil {
			return nil, errors.Wrapf(err, "redeem %s", id)
		}
		balance -= r.PointsRequired
		redemptions = append(redemptions, red)
	}
	return redemptions, nil
}

func (s *Service) orderFromResult(in CartInput, res *pricing.Result) *Order {
	return &Order{
		ID:             uuid.New().String(),
		MemberID:       in.MemberID,
		Lines:          res.Lines,
		Payments:       in.Payments,
		Subtotal:       res.Subtotal,
		DiscountTotal:  res.DiscountTotal,
		TaxTotal:       res.TaxTotal,
		GrandTotal:     res.GrandTotal,
		RoundingAmount: res.RoundingAmount,
		Balance:        res.Balance,
		LoyaltyPoints:  res.LoyaltyPoints,
		CreatedAt:      s.now(),
	}
}

// validateQuantitySigns rejects submission of a cart mixing sale and refund
// quantities. Quote stays lenient; only a final submission enforces this.
func validateQuantitySigns(lines []LineInput) error {
	pos, neg := false, false
	for _, ln := range lines {
		switch {
		case ln.Quantity > 0:
			pos = true
		case ln.Quantity < 0:
			neg = true
		}
	}
	if pos && neg {
		return ErrMixedSigns
	}
	return nil
}

func mergeAttributes(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
