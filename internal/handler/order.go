package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/migios-apps/migios-pos/internal/domain/checkout"
	"github.com/migios-apps/migios-pos/internal/domain/reward"
	"github.com/migios-apps/migios-pos/internal/pricing"
)

// PlaceOrder submits the cart as a final transaction: it prices through the
// exact path QuoteCart uses, persists the order, and returns it.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	in, err := decodeCartInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed cart")
		return
	}

	o, err := h.checkout.Checkout(ctx, in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.orderCount.Add(ctx, 1, registerAttrs(ctx))

	zctx.From(ctx).Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("grand_total", o.GrandTotal.String()),
		zap.Int64("loyalty_points", o.LoyaltyPoints))

	var e jx.Encoder
	encodeOrder(&e, o)
	writeJSON(w, http.StatusCreated, &e)
}

// GetOrder returns a previously submitted order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderID")

	o, err := h.checkout.Order(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeOrder(&e, o)
	writeJSON(w, http.StatusOK, &e)
}

// RefundOrder reverses a submitted order: every line is repriced with a
// negated quantity and a new refund order linked to the original is stored.
// The request body carries the (negative) refund disbursements.
func (h *Handler) RefundOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "orderID")

	payments, err := decodeRefundBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed refund request")
		return
	}

	o, err := h.checkout.Refund(ctx, id, payments)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.orderCount.Add(ctx, 1, registerAttrs(ctx))

	zctx.From(ctx).Info("Order refunded",
		zap.String("order_id", id),
		zap.String("refund_order_id", o.ID),
		zap.String("grand_total", o.GrandTotal.String()))

	var e jx.Encoder
	encodeOrder(&e, o)
	writeJSON(w, http.StatusCreated, &e)
}

// decodeRefundBody reads the refund disbursements. An empty body is valid:
// the refund is recorded with a zero payout and settled later.
func decodeRefundBody(r *http.Request) ([]pricing.Payment, error) {
	lg := zctx.From(r.Context())

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if len(data) == 0 {
		return nil, nil
	}

	var payments []pricing.Payment
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "payments":
			return d.Arr(func(d *jx.Decoder) error {
				p, err := decodePayment(d, lg)
				if err != nil {
					return err
				}
				payments = append(payments, p)
				return nil
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(err, "decode refund")
	}
	return payments, nil
}

// writeDomainError maps domain errors onto HTTP statuses. Unknown errors are
// logged and returned as an opaque 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound      *checkout.ItemNotFoundError
		orderNotFound *checkout.OrderNotFoundError
	)
	switch {
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrMixedSigns),
		errors.Is(err, checkout.ErrMemberRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound),
		errors.Is(err, reward.ErrNotFound),
		errors.Is(err, reward.ErrInactive),
		errors.Is(err, reward.ErrInsufficientPoints):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &orderNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
