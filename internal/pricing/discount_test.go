package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestDiscountAmount(t *testing.T) {
	tests := []struct {
		name     string
		base     decimal.Decimal
		discount *Discount
		want     decimal.Decimal
	}{
		{
			name:     "percent 10 of 1000",
			base:     d("1000"),
			discount: &Discount{Kind: DiscountPercent, Value: d("10")},
			want:     d("100"),
		},
		{
			name:     "percent 35 of 900000",
			base:     d("900000"),
			discount: &Discount{Kind: DiscountPercent, Value: d("35")},
			want:     d("315000"),
		},
		{
			name:     "percent zero value yields zero",
			base:     d("1000"),
			discount: &Discount{Kind: DiscountPercent, Value: decimal.Zero},
			want:     decimal.Zero,
		},
		{
			name:     "percent negative value yields zero",
			base:     d("1000"),
			discount: &Discount{Kind: DiscountPercent, Value: d("-5")},
			want:     decimal.Zero,
		},
		{
			name:     "nominal returned verbatim",
			base:     d("1000"),
			discount: &Discount{Kind: DiscountNominal, Value: d("250.50")},
			want:     d("250.50"),
		},
		{
			name:     "nominal may exceed base",
			base:     d("100"),
			discount: &Discount{Kind: DiscountNominal, Value: d("999")},
			want:     d("999"),
		},
		{
			name:     "unknown kind yields zero",
			base:     d("1000"),
			discount: &Discount{Kind: "bogus", Value: d("10")},
			want:     decimal.Zero,
		},
		{
			name: "nil discount yields zero",
			base: d("1000"),
			want: decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiscountAmount(tt.base, tt.discount)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestClampToMagnitude(t *testing.T) {
	tests := []struct {
		name   string
		amount decimal.Decimal
		limit  decimal.Decimal
		want   decimal.Decimal
	}{
		{"within limit", d("50"), d("100"), d("50")},
		{"at limit", d("100"), d("100"), d("100")},
		{"above limit capped", d("999"), d("100"), d("100")},
		{"negative floored to zero", d("-10"), d("100"), decimal.Zero},
		{"zero limit", d("10"), decimal.Zero, decimal.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clampToMagnitude(tt.amount, tt.limit)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

// The clamp property from the billing rules: a discount magnitude never
// exceeds the magnitude of the amount it discounts.
func TestDiscountAmount_ClampProperty(t *testing.T) {
	bases := []string{"0", "0.01", "1", "100", "99999.99", "1000000"}
	discounts := []*Discount{
		{Kind: DiscountPercent, Value: d("100")},
		{Kind: DiscountPercent, Value: d("250")},
		{Kind: DiscountNominal, Value: d("123456789")},
		{Kind: DiscountNominal, Value: d("-5")},
	}

	for _, b := range bases {
		base := d(b)
		for _, disc := range discounts {
			clamped := clampToMagnitude(DiscountAmount(base.Abs(), disc), base.Abs())
			assert.True(t, clamped.Abs().LessThanOrEqual(base.Abs()),
				"base %s discount %+v: clamped %s exceeds base", b, disc, clamped)
		}
	}
}
