package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// QuoteCart prices the posted cart snapshot without persisting anything. The
// register calls this on every form change.
func (h *Handler) QuoteCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	in, err := decodeCartInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed cart")
		return
	}

	res, err := h.checkout.Quote(ctx, in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.quoteCount.Add(ctx, 1, registerAttrs(ctx))

	zctx.From(ctx).Debug("Cart quoted",
		zap.Int("lines", len(res.Lines)),
		zap.String("grand_total", res.GrandTotal.String()))

	var e jx.Encoder
	encodeResult(&e, res)
	writeJSON(w, http.StatusOK, &e)
}
