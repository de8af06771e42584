// Package handler exposes the POS API over HTTP. Requests are decoded with a
// lenient streaming codec (the register client sends whatever state the form
// is in), priced through the checkout service, and encoded back with exact
// decimal strings.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/migios-apps/migios-pos/internal/domain/auth"
	"github.com/migios-apps/migios-pos/internal/domain/catalog"
	"github.com/migios-apps/migios-pos/internal/domain/checkout"
	"github.com/migios-apps/migios-pos/internal/pricing"
)

// CheckoutService is the slice of the checkout service the HTTP layer needs.
type CheckoutService interface {
	Quote(ctx context.Context, in checkout.CartInput) (*pricing.Result, error)
	Checkout(ctx context.Context, in checkout.CartInput) (*checkout.Order, error)
	Order(ctx context.Context, id string) (*checkout.Order, error)
	Refund(ctx context.Context, orderID string, payments []pricing.Payment) (*checkout.Order, error)
}

var _ CheckoutService = (*checkout.Service)(nil)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// APIKeyPepper is the HMAC key used to hash register API keys before
	// lookup. Keys are never stored or compared in plaintext.
	APIKeyPepper []byte
}

// Handler serves the POS API routes.
type Handler struct {
	checkout CheckoutService
	catalog  catalog.Repository
	apikeys  auth.Repository
	pepper   []byte

	quoteCount metric.Int64Counter
	orderCount metric.Int64Counter
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	svc CheckoutService,
	catalogRepo catalog.Repository,
	apikeys auth.Repository,
	meter metric.Meter,
) (*Handler, error) {
	quoteCount, err := meter.Int64Counter("pos.cart.quotes",
		metric.WithDescription("Cart quotes served"))
	if err != nil {
		return nil, errors.Wrap(err, "create quote counter")
	}
	orderCount, err := meter.Int64Counter("pos.orders.submitted",
		metric.WithDescription("Orders submitted"))
	if err != nil {
		return nil, errors.Wrap(err, "create order counter")
	}

	return &Handler{
		checkout:   svc,
		catalog:    catalogRepo,
		apikeys:    apikeys,
		pepper:     cfg.APIKeyPepper,
		quoteCount: quoteCount,
		orderCount: orderCount,
	}, nil
}

// registerAttrs labels a metric data point with the register behind the
// authenticated API key.
func registerAttrs(ctx context.Context) metric.AddOption {
	register := ""
	if info := auth.FromContext(ctx); info != nil {
		register = info.Register
	}
	return metric.WithAttributes(attribute.String("register", register))
}

// Routes mounts the API surface on a fresh router. Every route requires a
// valid register API key.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.APIKeyAuth)

	r.Get("/catalog/packages", h.ListPackages)
	r.Get("/catalog/products", h.ListProducts)
	r.Post("/cart/quote", h.QuoteCart)
	r.Post("/orders", h.PlaceOrder)
	r.Get("/orders/{orderID}", h.GetOrder)
	r.Post("/orders/{orderID}/refund", h.RefundOrder)

	return r
}
