package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/migios-apps/migios-pos/internal/domain/auth"
	"github.com/migios-apps/migios-pos/internal/domain/catalog"
	"github.com/migios-apps/migios-pos/internal/domain/checkout"
	"github.com/migios-apps/migios-pos/internal/pricing"
)

// --- Mock implementations ---

type mockCheckout struct {
	quoteRes *pricing.Result
	order    *checkout.Order
	err      error

	lastInput   checkout.CartInput
	lastOrderID string
}

func (m *mockCheckout) Quote(_ context.Context, in checkout.CartInput) (*pricing.Result, error) {
	m.lastInput = in
	return m.quoteRes, m.err
}

func (m *mockCheckout) Checkout(_ context.Context, in checkout.CartInput) (*checkout.Order, error) {
	m.lastInput = in
	return m.order, m.err
}

func (m *mockCheckout) Order(_ context.Context, id string) (*checkout.Order, error) {
	m.lastOrderID = id
	return m.order, m.err
}

func (m *mockCheckout) Refund(_ context.Context, orderID string, _ []pricing.Payment) (*checkout.Order, error) {
	m.lastOrderID = orderID
	return m.order, m.err
}

type mockCatalogRepo struct {
	packages []catalog.Item
	products []catalog.Item
	err      error
}

func (m *mockCatalogRepo) ListPackages(_ context.Context) ([]catalog.Item, error) {
	return m.packages, m.err
}

func (m *mockCatalogRepo) ListProducts(_ context.Context) ([]catalog.Item, error) {
	return m.products, m.err
}

func (m *mockCatalogRepo) GetByIDs(_ context.Context, _ []string) ([]catalog.Item, error) {
	return nil, m.err
}

type mockAPIKeyRepo struct {
	info *auth.APIKeyInfo
	err  error
}

func (m *mockAPIKeyRepo) FindByHash(_ context.Context, _ string) (*auth.APIKeyInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.info, nil
}

// --- Helpers ---

const (
	testPepper = "test-pepper"
	testAPIKey = "register-1-key"
)

func keyHash(pepper, key string) string {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestAPIKeyRepo() *mockAPIKeyRepo {
	return &mockAPIKeyRepo{
		info: &auth.APIKeyInfo{
			ID:       "key-1",
			KeyHash:  keyHash(testPepper, testAPIKey),
			Name:     "front desk",
			Register: "register-1",
		},
	}
}

func newTestHandler(t *testing.T, svc CheckoutService, cat catalog.Repository, keys auth.Repository) *Handler {
	t.Helper()
	h, err := NewHandler(
		Config{APIKeyPepper: []byte(testPepper)},
		svc, cat, keys,
		noop.NewMeterProvider().Meter("test"),
	)
	require.NoError(t, err)
	return h
}

func doRequest(h *Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(apiKeyHeader, testAPIKey)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestAPIKeyAuth(t *testing.T) {
	svc := &mockCheckout{quoteRes: &pricing.Result{}}
	h := newTestHandler(t, svc, &mockCatalogRepo{}, newTestAPIKeyRepo())

	t.Run("missing key returns 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/catalog/products", nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown key returns 401", func(t *testing.T) {
		bad := newTestHandler(t, svc, &mockCatalogRepo{}, &mockAPIKeyRepo{err: errors.New("not found")})
		rec := doRequest(bad, http.MethodGet, "/catalog/products", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("stored hash mismatch returns 401", func(t *testing.T) {
		repo := &mockAPIKeyRepo{info: &auth.APIKeyInfo{
			ID:      "key-1",
			KeyHash: keyHash(testPepper, "some-other-key"),
		}}
		mismatched := newTestHandler(t, svc, &mockCatalogRepo{}, repo)
		rec := doRequest(mismatched, http.MethodGet, "/catalog/products", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid key passes through", func(t *testing.T) {
		rec := doRequest(h, http.MethodGet, "/catalog/products", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestListCatalog(t *testing.T) {
	cat := &mockCatalogRepo{
		packages: []catalog.Item{{
			ID:       "pkg-monthly",
			Kind:     pricing.ItemPackage,
			Name:     "Monthly Membership",
			Category: "membership",
			Price:    decimal.RequireFromString("200000"),
		}},
		products: []catalog.Item{{
			ID:       "prod-bar",
			Kind:     pricing.ItemProduct,
			Name:     "Protein Bar",
			Category: "product",
			Price:    decimal.RequireFromString("25000"),
			Attributes: map[string]string{
				"sku": "BAR-01",
			},
		}},
	}
	h := newTestHandler(t, &mockCheckout{}, cat, newTestAPIKeyRepo())

	t.Run("packages", func(t *testing.T) {
		rec := doRequest(h, http.MethodGet, "/catalog/packages", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var items []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
		require.Len(t, items, 1)
		assert.Equal(t, "pkg-monthly", items[0]["id"])
		assert.Equal(t, "package", items[0]["kind"])
		assert.Equal(t, "200000", items[0]["price"])
	})

	t.Run("products", func(t *testing.T) {
		rec := doRequest(h, http.MethodGet, "/catalog/products", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var items []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
		require.Len(t, items, 1)
		assert.Equal(t, "prod-bar", items[0]["id"])
	})

	t.Run("repository error returns 500", func(t *testing.T) {
		broken := newTestHandler(t, &mockCheckout{}, &mockCatalogRepo{err: errors.New("db down")}, newTestAPIKeyRepo())
		rec := doRequest(broken, http.MethodGet, "/catalog/products", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestQuoteCart(t *testing.T) {
	res := &pricing.Result{
		Subtotal:      decimal.RequireFromString("200000"),
		GrandTotal:    decimal.RequireFromString("200000"),
		LoyaltyPoints: 14,
	}
	svc := &mockCheckout{quoteRes: res}
	h := newTestHandler(t, svc, &mockCatalogRepo{}, newTestAPIKeyRepo())

	body := `{
		"member_id": "mem-1",
		"lines": [
			{"kind": "package", "reference_id": "pkg-monthly", "quantity": 2}
		],
		"discounts": [{"kind": "percent", "value": 10}],
		"payments": [{"account_id": "cash", "amount": "200000"}]
	}`
	rec := doRequest(h, http.MethodPost, "/cart/quote", body)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "mem-1", svc.lastInput.MemberID)
	require.Len(t, svc.lastInput.Lines, 1)
	assert.Equal(t, 2, svc.lastInput.Lines[0].Quantity)
	require.Len(t, svc.lastInput.Discounts, 1)
	assert.True(t, decimal.NewFromInt(10).Equal(svc.lastInput.Discounts[0].Value))
	require.Len(t, svc.lastInput.Payments, 1)
	assert.True(t, decimal.NewFromInt(200000).Equal(svc.lastInput.Payments[0].Amount))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "200000", got["grand_total"])
	assert.Equal(t, float64(14), got["loyalty_points"])
}

func TestQuoteCart_DomainErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"empty cart", checkout.ErrEmptyCart, http.StatusBadRequest},
		{"member required", checkout.ErrMemberRequired, http.StatusBadRequest},
		{"item not found", &checkout.ItemNotFoundError{ReferenceID: "x"}, http.StatusUnprocessableEntity},
		{"order not found", &checkout.OrderNotFoundError{OrderID: "x"}, http.StatusNotFound},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &mockCheckout{err: tt.err}, &mockCatalogRepo{}, newTestAPIKeyRepo())
			rec := doRequest(h, http.MethodPost, "/cart/quote", `{"lines":[]}`)
			assert.Equal(t, tt.wantCode, rec.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, float64(tt.wantCode), resp["code"])
		})
	}
}

func TestPlaceOrder(t *testing.T) {
	order := &checkout.Order{
		ID:            "ord-1",
		GrandTotal:    decimal.RequireFromString("585000"),
		LoyaltyPoints: 14,
	}
	svc := &mockCheckout{order: order}
	h := newTestHandler(t, svc, &mockCatalogRepo{}, newTestAPIKeyRepo())

	body := `{"lines":[{"kind":"package","reference_id":"pkg-monthly","quantity":1}]}`
	rec := doRequest(h, http.MethodPost, "/orders", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ord-1", got["id"])
	assert.Equal(t, "585000", got["grand_total"])
}

func TestGetOrder(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := &mockCheckout{order: &checkout.Order{ID: "ord-1"}}
		h := newTestHandler(t, svc, &mockCatalogRepo{}, newTestAPIKeyRepo())

		rec := doRequest(h, http.MethodGet, "/orders/ord-1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ord-1", svc.lastOrderID)
	})

	t.Run("not found returns 404", func(t *testing.T) {
		svc := &mockCheckout{err: &checkout.OrderNotFoundError{OrderID: "missing"}}
		h := newTestHandler(t, svc, &mockCatalogRepo{}, newTestAPIKeyRepo())

		rec := doRequest(h, http.MethodGet, "/orders/missing", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRefundOrder(t *testing.T) {
	refund := &checkout.Order{
		ID:         "ord-2",
		RefundOf:   "ord-1",
		GrandTotal: decimal.RequireFromString("-585000"),
	}
	svc := &mockCheckout{order: refund}
	h := newTestHandler(t, svc, &mockCatalogRepo{}, newTestAPIKeyRepo())

	body := `{"payments":[{"account_id":"cash","amount":"-585000"}]}`
	rec := doRequest(h, http.MethodPost, "/orders/ord-1/refund", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ord-1", svc.lastOrderID)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ord-1", got["refund_of"])
	assert.Equal(t, "-585000", got["grand_total"])
}
