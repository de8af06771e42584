package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/migios-apps/migios-pos/internal/domain/catalog"
	"github.com/migios-apps/migios-pos/internal/pricing"
)

// ListPackages returns all sellable club packages.
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListPackages(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("List packages failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeCatalogItems(w, items)
}

// ListProducts returns all sellable retail products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("List products failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeCatalogItems(w, items)
}

func writeCatalogItems(w http.ResponseWriter, items []catalog.Item) {
	var e jx.Encoder
	e.ArrStart()
	for i := range items {
		encodeCatalogItem(&e, &items[i])
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}

func encodeCatalogItem(e *jx.Encoder, it *catalog.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.ID)
	e.FieldStart("kind")
	e.Str(string(it.Kind))
	e.FieldStart("name")
	e.Str(it.Name)
	e.FieldStart("category")
	e.Str(it.Category)
	e.FieldStart("price")
	encodeAmount(e, it.Price)
	if it.LoyaltyRule != nil {
		e.FieldStart("loyalty_rule")
		encodeLoyaltyRule(e, it.LoyaltyRule)
	}
	if len(it.Attributes) > 0 {
		e.FieldStart("attributes")
		e.ObjStart()
		for k, v := range it.Attributes {
			e.FieldStart(k)
			e.Str(v)
		}
		e.ObjEnd()
	}
	e.ObjEnd()
}

func encodeLoyaltyRule(e *jx.Encoder, lr *pricing.LoyaltyRule) {
	e.ObjStart()
	e.FieldStart("points")
	e.Int64(lr.Points)
	if lr.ExpiryKind != "" {
		e.FieldStart("expiry_kind")
		e.Str(lr.ExpiryKind)
		e.FieldStart("expiry_value")
		e.Int(lr.ExpiryValue)
	}
	e.ObjEnd()
}
