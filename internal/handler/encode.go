package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/migios-apps/migios-pos/internal/domain/checkout"
	"github.com/migios-apps/migios-pos/internal/pricing"
)

// writeJSON flushes the encoder buffer to the response.
func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Best effort: the status code is already written. This fails only when
	// the client disconnected.
	_, _ = w.Write(e.Bytes())
}

// writeError writes the standard {code, message} error body.
func writeError(w http.ResponseWriter, status int, message string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
	writeJSON(w, status, &e)
}

// encodeAmount writes a monetary value as an exact decimal string. Float
// encoding would corrupt figures the engine keeps exact.
func encodeAmount(e *jx.Encoder, v decimal.Decimal) {
	e.Str(v.String())
}

func encodeResult(e *jx.Encoder, res *pricing.Result) {
	e.ObjStart()

	e.FieldStart("lines")
	e.ArrStart()
	for i := range res.Lines {
		encodeProcessedLine(e, &res.Lines[i])
	}
	e.ArrEnd()

	e.FieldStart("groups")
	encodeGroups(e, pricing.GroupForDisplay(res.Lines))

	e.FieldStart("gross_total")
	encodeAmount(e, res.GrossTotal)
	e.FieldStart("subtotal")
	encodeAmount(e, res.Subtotal)
	e.FieldStart("original_subtotal")
	encodeAmount(e, res.OriginalSubtotal)
	e.FieldStart("discount_total")
	encodeAmount(e, res.DiscountTotal)
	e.FieldStart("original_discount_total")
	encodeAmount(e, res.OriginalDiscountTotal)
	e.FieldStart("tax_total")
	encodeAmount(e, res.TaxTotal)
	e.FieldStart("grand_total")
	encodeAmount(e, res.GrandTotal)
	e.FieldStart("rounding_amount")
	encodeAmount(e, res.RoundingAmount)

	e.FieldStart("paid")
	encodeAmount(e, res.Paid)
	e.FieldStart("refunded_total")
	encodeAmount(e, res.RefundedTotal)
	e.FieldStart("balance")
	encodeAmount(e, res.Balance)
	e.FieldStart("return_amount")
	encodeAmount(e, res.ReturnAmount)

	e.FieldStart("loyalty_points")
	e.Int64(res.LoyaltyPoints)

	e.ObjEnd()
}

func encodeProcessedLine(e *jx.Encoder, pl *pricing.ProcessedLine) {
	e.ObjStart()

	e.FieldStart("kind")
	e.Str(string(pl.Kind))
	e.FieldStart("reference_id")
	e.Str(pl.ReferenceID)
	e.FieldStart("name")
	e.Str(pl.Name)
	e.FieldStart("category")
	e.Str(pl.Category)
	e.FieldStart("quantity")
	e.Int(pl.Quantity)
	e.FieldStart("unit_price")
	encodeAmount(e, pl.UnitPrice)
	e.FieldStart("source")
	e.Str(string(pl.Source))
	if pl.RewardID != "" {
		e.FieldStart("reward_id")
		e.Str(pl.RewardID)
		e.FieldStart("reward_name")
		e.Str(pl.RewardName)
	}
	if len(pl.Attributes) > 0 {
		e.FieldStart("attributes")
		e.ObjStart()
		for k, v := range pl.Attributes {
			e.FieldStart(k)
			e.Str(v)
		}
		e.ObjEnd()
	}

	e.FieldStart("figures")
	encodeFigures(e, &pl.Figures)
	e.FieldStart("original")
	encodeFigures(e, &pl.Original)

	e.FieldStart("display")
	e.ObjStart()
	e.FieldStart("gross")
	e.Str(pl.Display.Gross)
	e.FieldStart("discount")
	e.Str(pl.Display.Discount)
	e.FieldStart("net")
	e.Str(pl.Display.Net)
	e.FieldStart("total_tax")
	e.Str(pl.Display.TotalTax)
	e.FieldStart("total")
	e.Str(pl.Display.Total)
	e.ObjEnd()

	e.ObjEnd()
}

func encodeFigures(e *jx.Encoder, f *pricing.LineFigures) {
	e.ObjStart()
	e.FieldStart("gross")
	encodeAmount(e, f.Gross)
	e.FieldStart("discount")
	encodeAmount(e, f.Discount)
	e.FieldStart("net")
	encodeAmount(e, f.Net)
	e.FieldStart("taxes")
	e.ArrStart()
	for _, t := range f.Taxes {
		e.ObjStart()
		e.FieldStart("rule_id")
		e.Str(t.RuleID)
		e.FieldStart("name")
		e.Str(t.Name)
		e.FieldStart("rate_percent")
		e.Str(t.RatePercent.String())
		e.FieldStart("amount")
		encodeAmount(e, t.Amount)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("total_tax")
	encodeAmount(e, f.TotalTax)
	e.FieldStart("total")
	encodeAmount(e, f.Total)
	e.ObjEnd()
}

func encodeGroups(e *jx.Encoder, groups []pricing.DisplayGroup) {
	e.ArrStart()
	for _, g := range groups {
		e.ObjStart()
		if g.RewardID != "" {
			e.FieldStart("reward_id")
			e.Str(g.RewardID)
		}
		e.FieldStart("name")
		e.Str(g.Name)
		e.FieldStart("line_indexes")
		e.ArrStart()
		for _, i := range g.Indexes {
			e.Int(i)
		}
		e.ArrEnd()
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeOrder(e *jx.Encoder, o *checkout.Order) {
	e.ObjStart()

	e.FieldStart("id")
	e.Str(o.ID)
	if o.MemberID != "" {
		e.FieldStart("member_id")
		e.Str(o.MemberID)
	}
	if o.RefundOf != "" {
		e.FieldStart("refund_of")
		e.Str(o.RefundOf)
	}

	e.FieldStart("lines")
	e.ArrStart()
	for i := range o.Lines {
		encodeProcessedLine(e, &o.Lines[i])
	}
	e.ArrEnd()

	e.FieldStart("payments")
	e.ArrStart()
	for _, p := range o.Payments {
		e.ObjStart()
		e.FieldStart("account_id")
		e.Str(p.AccountID)
		e.FieldStart("amount")
		encodeAmount(e, p.Amount)
		if !p.Date.IsZero() {
			e.FieldStart("date")
			e.Str(p.Date.Format(time.RFC3339))
		}
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("subtotal")
	encodeAmount(e, o.Subtotal)
	e.FieldStart("discount_total")
	encodeAmount(e, o.DiscountTotal)
	e.FieldStart("tax_total")
	encodeAmount(e, o.TaxTotal)
	e.FieldStart("grand_total")
	encodeAmount(e, o.GrandTotal)
	e.FieldStart("rounding_amount")
	encodeAmount(e, o.RoundingAmount)
	e.FieldStart("balance")
	encodeAmount(e, o.Balance)
	e.FieldStart("loyalty_points")
	e.Int64(o.LoyaltyPoints)

	e.FieldStart("created_at")
	e.Str(o.CreatedAt.Format(time.RFC3339))

	e.ObjEnd()
}
