package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cfg() Config {
	return Config{TaxMode: TaxExclusive}
}

func TestAggregate_NilCart(t *testing.T) {
	_, err := Aggregate(nil, cfg())
	require.ErrorIs(t, err, ErrNilCart)
}

func TestAggregate_EmptyCart(t *testing.T) {
	res, err := Aggregate(&Cart{}, cfg())
	require.NoError(t, err)

	assert.Empty(t, res.Lines)
	assert.True(t, decimal.Zero.Equal(res.Subtotal))
	assert.True(t, decimal.Zero.Equal(res.GrandTotal))
	assert.True(t, decimal.Zero.Equal(res.Balance))
}

func TestAggregate_SimpleSale(t *testing.T) {
	cart := &Cart{
		Lines: []CartLine{{
			Kind: ItemPackage, Category: "membership",
			Quantity: 2, UnitPrice: d("100000"),
		}},
	}

	res, err := Aggregate(cart, cfg())
	require.NoError(t, err)

	assert.True(t, d("200000").Equal(res.Subtotal))
	assert.True(t, d("200000").Equal(res.GrandTotal))
	assert.True(t, decimal.Zero.Equal(res.TaxTotal))
	assert.True(t, d("200000").Equal(res.Balance), "balance = %s", res.Balance)
	assert.True(t, decimal.Zero.Equal(res.ReturnAmount))
}

func TestAggregate_InclusiveTaxRoundTrips(t *testing.T) {
	cart := &Cart{
		Lines: []CartLine{{
			Kind: ItemPackage, Category: "membership",
			Quantity: 2, UnitPrice: d("100000"),
		}},
		TaxRules: []TaxRule{{ID: "vat", Category: "membership", Name: "VAT", RatePercent: d("10")}},
	}

	res, err := Aggregate(cart, Config{TaxMode: TaxInclusive})
	require.NoError(t, err)

	assert.True(t, d("181818.18").Equal(res.Subtotal), "subtotal = %s", res.Subtotal)
	assert.True(t, d("18181.82").Equal(res.TaxTotal), "tax = %s", res.TaxTotal)
	assert.True(t, d("200000").Equal(res.GrandTotal), "grand = %s", res.GrandTotal)
}

// Discount cascade is an ordered fold: 10% then 35% on the remainder is
// 1,000,000 * 0.9 * 0.65 = 585,000 — not the 550,000 a combined 45% would give.
func TestAggregate_CascadeOrderSensitivity(t *testing.T) {
	cart := &Cart{
		Lines: []CartLine{{
			Kind: ItemPackage, Category: "membership",
			Quantity: 1, UnitPrice: d("1000000"),
		}},
		Discounts: []TransactionDiscount{
			{Kind: DiscountPercent, Value: d("10")},
			{Kind: DiscountPercent, Value: d("35")},
		},
	}

	res, err := Aggregate(cart, cfg())
	require.NoError(t, err)

	assert.True(t, d("415000").Equal(res.DiscountTotal), "discount total = %s", res.DiscountTotal)
	assert.True(t, d("585000").Equal(res.GrandTotal), "grand = %s", res.GrandTotal)
}

func TestAggregate_CascadeNominalThenPercent(t *testing.T) {
	cart := &Cart{
		Lines: []CartLine{{
			Kind: ItemProduct, Category: "product",
			Quantity: 1, UnitPrice: d("1000"),
		}},
		Discounts: []TransactionDiscount{
			{Kind: DiscountNominal, Value: d("200")},
			{Kind: DiscountPercent, Value: d("50")},
		},
	}

	res, err := Aggregate(cart, cfg())
	require.NoError(t, err)

	// 1000 - 200 = 800, then 50% of 800 = 400.
	assert.True(t, d("600").Equal(res.DiscountTotal))
	assert.True(t, d("400").Equal(res.GrandTotal))
}

func TestAggregate_CascadeClampedToRemainder(t *testing.T) {
	cart := &Cart{
		Lines: []CartLine{{
			Kind: ItemProduct, Category: "product",
			Quantity: 1, UnitPrice: d("100"),
		}},
		Discounts: []TransactionDiscount{
			{Kind: DiscountNominal, Value: d("80")},
			{Kind: DiscountNominal, Value: d("80")},
		},
	}

	res, err := Aggregate(cart, cfg())
	require.NoError(t, err)

	// Second discount is clamped to the remaining 20; the total never goes
	// negative.
	assert.True(t, d("100").Equal(res.DiscountTotal))
	assert.True(t, decimal.Zero.Equal(res.GrandTotal))
}

func TestAggregate_TaxRescaleIdempotentWithoutDiscount(t *testing.T) {
	cart := &Cart{
		Lines: []CartLine{{
			Kind: ItemProduct, Category: "product",
			Quantity: 3, UnitPrice: d("33.33"),
		}},
		TaxRules: []TaxRule{{ID: "vat", Category: "product", Name: "VAT", RatePercent: d("11")}},
	}

	res, err := Aggregate(cart, cfg())
	require.NoError(t, err)

	rawTax := res.Lines[0].Figures.TotalTax
	assert.True(t, rawTax.Equal(res.TaxTotal), "tax must be untouched when no transaction discount applies: %s != %s", rawTax, res.TaxTotal)
}

func TestAggregate_TaxRescaledProportionally(t *testing.T) {
	cart := &Cart{
		Lines: []CartLine{{
			Kind: ItemProduct, Category: "product",
			Quantity: 1, UnitPrice: d("100"),
		}},
		TaxRules:  []TaxRule{{ID: "vat", Category: "product", Name: "VAT", RatePercent: d("10")}},
		Discounts: []TransactionDiscount{{Kind: DiscountNominal, Value: d("50")}},
	}

	res, err := Aggregate(cart, cfg())
	require.NoError(t, err)

	// Tax scales by dpp/subtotal = 50/100.
	assert.True(t, d("5").Equal(res.TaxTotal), "tax = %s", res.TaxTotal)
	assert.True(t, d("55").Equal(res.GrandTotal), "grand = %s", res.GrandTotal)
}

func TestAggregate_ZeroSubtotalLeavesTaxUnscaled(t *testing.T) {
	cart := &Cart{
		Lines: []CartLine{{
			Kind: ItemProduct, Category: "product",
			Quantity: 1, UnitPrice: d("100"),
			Discount: &Discount{Kind: DiscountPercent, Value: d("100")},
		}},
		TaxRules:  []TaxRule{{ID: "vat", Category: "product", Name: "VAT", RatePercent: d("10")}},
		Discounts: []TransactionDiscount{{Kind: DiscountNominal, Value: d("25")}},
	}

	res, err := Aggregate(cart, cfg())
	require.NoError(t, err)

	// Net is zero, so the cascade has nothing to bite on and the ratio is
	// undefined; the raw (zero) tax passes through unchanged.
	assert.True(t, decimal.Zero.Equal(res.Subtotal))
	assert.True(t, decimal.Zero.Equal(res.TaxTotal))
	assert.True(t, decimal.Zero.Equal(res.DiscountTotal))
}

func TestAggregate_RoundingAppliedToGrandTotalOnly(t *testing.T) {
	cart := &Cart{
		Lines: []CartLine{{
			Kind: ItemProduct, Category: "product",
			Quantity: 1, UnitPrice: d("9050.5"),
		}},
	}
	c := cfg()
	c.Rounding = RoundingConfig{Enabled: true, Step: d("100"), Direction: RoundAwayFromZero}

	res, err := Aggregate(cart, c)
	require.NoError(t, err)

	assert.True(t, d("9100").Equal(res.GrandTotal))
	assert.True(t, d("49.5").Equal(res.RoundingAmount))
	// Subtotal is never rounded to the step.
	assert.True(t, d("9050.5").Equal(res.Subtotal))
}

func TestAggregate_RefundRoundingDirection(t *testing.T) {
	cart := &Cart{
		Lines: []CartLine{{
			Kind: ItemProduct, Category: "product",
			Quantity: -1, UnitPrice: d("9050.5"),
		}},
	}
	c := cfg()
	c.Rounding = RoundingConfig{Enabled: true, Step: d("100"), Direction: RoundAwayFromZero}

	res, err := Aggregate(cart, c)
	require.NoError(t, err)

	// Away from zero on a refund means further from zero.
	assert.True(t, d("-9100").Equal(res.GrandTotal), "grand = %s", res.GrandTotal)
	assert.True(t, d("-49.5").Equal(res.RoundingAmount))
}

func TestAggregate_BalanceAndChange(t *testing.T) {
	cart := &Cart{
		Lines: []CartLine{{
			Kind: ItemProduct, Category: "product",
			Quantity: 1, UnitPrice: d("150"),
		}},
		Payments: []Payment{{AccountID: "cash", Amount: d("200")}},
	}

	res, err := Aggregate(cart, cfg())
	require.NoError(t, err)

	assert.True(t, decimal.Zero.Equal(res.Balance))
	assert.True(t, d("50").Equal(res.ReturnAmount))
}

func TestAggregate_RefundBalanceStaysNegativeUntilOffset(t *testing.T) {
	cart := &Cart{
		Lines: []CartLine{{
			Kind: ItemPackage, Category: "membership",
			Quantity: -1, UnitPrice: d("50000"),
		}},
	}

	res, err := Aggregate(cart, cfg())
	require.NoError(t, err)
	assert.True(t, d("-50000").Equal(res.GrandTotal))
	assert.True(t, d("-50000").Equal(res.Balance))

	// A negative (refund) payment offsets the balance to zero.
	cart.Payments = []Payment{{AccountID: "cash", Amount: d("-50000")}}
	res, err = Aggregate(cart, cfg())
	require.NoError(t, err)
	assert.True(t, decimal.Zero.Equal(res.Balance), "balance = %s", res.Balance)
}

func TestAggregate_RefundRecordsOffsetPayments(t *testing.T) {
	cart := &Cart{
		Lines: []CartLine{{
			Kind: ItemProduct, Category: "product",
			Quantity: 1, UnitPrice: d("100"),
		}},
		Payments: []Payment{{AccountID: "card", Amount: d("100")}},
		Refunds:  []Refund{{AccountID: "card", Amount: d("100")}},
	}

	res, err := Aggregate(cart, cfg())
	require.NoError(t, err)

	// Everything paid was already refunded, so the full total is owed again.
	assert.True(t, d("100").Equal(res.Balance))
}

func TestAggregate_LoyaltyPointsWired(t *testing.T) {
	cart := &Cart{
		Lines: []CartLine{{
			Kind: ItemProduct, Category: "product",
			Quantity: 2, UnitPrice: d("100"),
			LoyaltyRule: &LoyaltyRule{Points: 5},
		}},
	}
	c := cfg()
	c.Loyalty = LoyaltyConfig{Enabled: true, MultiplyPoints: true}

	res, err := Aggregate(cart, c)
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.LoyaltyPoints)
}

func TestAggregate_SignConsistencyAcrossMixedRefundCart(t *testing.T) {
	cart := &Cart{
		Lines: []CartLine{
			{Kind: ItemPackage, Category: "membership", Quantity: -2, UnitPrice: d("75000"),
				Discount: &Discount{Kind: DiscountPercent, Value: d("20")}},
			{Kind: ItemProduct, Category: "product", Quantity: -3, UnitPrice: d("1500")},
		},
		TaxRules: []TaxRule{
			{ID: "vat-m", Category: "membership", Name: "VAT", RatePercent: d("10")},
			{ID: "vat-p", Category: "product", Name: "VAT", RatePercent: d("11")},
		},
	}

	res, err := Aggregate(cart, cfg())
	require.NoError(t, err)

	assert.True(t, res.Subtotal.IsNegative())
	assert.True(t, res.TaxTotal.IsNegative())
	assert.True(t, res.GrandTotal.IsNegative())
	for _, pl := range res.Lines {
		assert.True(t, pl.Figures.Total.LessThanOrEqual(decimal.Zero))
	}
}
