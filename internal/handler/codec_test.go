package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migios-apps/migios-pos/internal/pricing"
)

func TestDecodeCartInput(t *testing.T) {
	body := `{
		"member_id": "mem-1",
		"lines": [
			{
				"kind": "package",
				"reference_id": "pkg-monthly",
				"quantity": 2,
				"discount": {"kind": "percent", "value": "10"},
				"attributes": {"duration_days": "30"}
			},
			{"kind": "product", "reference_id": "prod-bar", "quantity": 1, "discount": null}
		],
		"discounts": [
			{"kind": "percent", "value": 10},
			{"kind": "nominal", "value": "50000"}
		],
		"reward_ids": ["rw-1"],
		"payments": [{"account_id": "cash", "amount": "200000", "date": "2026-08-31T10:00:00Z"}],
		"refunds": [{"account_id": "cash", "amount": "50000"}]
	}`
	req := httptest.NewRequest("POST", "/cart/quote", strings.NewReader(body))

	in, err := decodeCartInput(req)
	require.NoError(t, err)

	assert.Equal(t, "mem-1", in.MemberID)
	require.Len(t, in.Lines, 2)
	assert.Equal(t, pricing.ItemPackage, in.Lines[0].Kind)
	assert.Equal(t, "pkg-monthly", in.Lines[0].ReferenceID)
	assert.Equal(t, 2, in.Lines[0].Quantity)
	require.NotNil(t, in.Lines[0].Discount)
	assert.Equal(t, pricing.DiscountPercent, in.Lines[0].Discount.Kind)
	assert.True(t, decimal.NewFromInt(10).Equal(in.Lines[0].Discount.Value))
	assert.Equal(t, map[string]string{"duration_days": "30"}, in.Lines[0].Attributes)
	assert.Nil(t, in.Lines[1].Discount)

	require.Len(t, in.Discounts, 2)
	assert.True(t, decimal.NewFromInt(10).Equal(in.Discounts[0].Value))
	assert.Equal(t, pricing.DiscountNominal, in.Discounts[1].Kind)
	assert.True(t, decimal.NewFromInt(50000).Equal(in.Discounts[1].Value))

	assert.Equal(t, []string{"rw-1"}, in.RewardIDs)

	require.Len(t, in.Payments, 1)
	assert.Equal(t, "cash", in.Payments[0].AccountID)
	assert.True(t, decimal.NewFromInt(200000).Equal(in.Payments[0].Amount))
	assert.Equal(t, time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC), in.Payments[0].Date)

	require.Len(t, in.Refunds, 1)
	assert.True(t, decimal.NewFromInt(50000).Equal(in.Refunds[0].Amount))
}

func TestDecodeCartInput_MalformedNumbersCoerceToZero(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "garbage discount value string",
			body: `{"discounts":[{"kind":"percent","value":"10%"}]}`,
		},
		{
			name: "boolean payment amount",
			body: `{"payments":[{"account_id":"cash","amount":true}]}`,
		},
		{
			name: "fractional quantity",
			body: `{"lines":[{"kind":"product","reference_id":"p1","quantity":1.5}]}`,
		},
		{
			name: "null amount",
			body: `{"payments":[{"account_id":"cash","amount":null}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/cart/quote", strings.NewReader(tt.body))

			in, err := decodeCartInput(req)
			require.NoError(t, err, "malformed numbers must coerce, not fail")

			for _, d := range in.Discounts {
				assert.True(t, d.Value.IsZero())
			}
			for _, p := range in.Payments {
				assert.True(t, p.Amount.IsZero())
			}
			for _, ln := range in.Lines {
				assert.Equal(t, 0, ln.Quantity)
			}
		})
	}
}

func TestDecodeCartInput_EmptyAndUnknownFields(t *testing.T) {
	t.Run("empty object", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/cart/quote", strings.NewReader(`{}`))
		in, err := decodeCartInput(req)
		require.NoError(t, err)
		assert.Empty(t, in.Lines)
		assert.Empty(t, in.MemberID)
	})

	t.Run("unknown fields are skipped", func(t *testing.T) {
		body := `{"member_id":"mem-1","client_version":"2.1.0","lines":[],"extra":{"nested":[1,2]}}`
		req := httptest.NewRequest("POST", "/cart/quote", strings.NewReader(body))
		in, err := decodeCartInput(req)
		require.NoError(t, err)
		assert.Equal(t, "mem-1", in.MemberID)
	})

	t.Run("invalid json fails", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/cart/quote", strings.NewReader(`{"lines":`))
		_, err := decodeCartInput(req)
		require.Error(t, err)
	})
}
