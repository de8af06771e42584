package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/migios-apps/migios-pos/internal/domain/checkout"
	"github.com/migios-apps/migios-pos/internal/pricing"
)

// maxBodyBytes caps request bodies. Carts are small; anything bigger is junk.
const maxBodyBytes = 1 << 20

// decodeCartInput reads the full cart snapshot from the request body.
//
// Numeric fields are decoded leniently: the register client re-sends the cart
// on every form change, so a half-typed amount must not fail the whole quote.
// A malformed numeric value is coerced to zero with a diagnostic log instead
// of rejecting the request.
func decodeCartInput(r *http.Request) (checkout.CartInput, error) {
	lg := zctx.From(r.Context())

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return checkout.CartInput{}, errors.Wrap(err, "read body")
	}

	var in checkout.CartInput
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "member_id":
			v, err := d.Str()
			in.MemberID = v
			return err
		case "lines":
			return d.Arr(func(d *jx.Decoder) error {
				ln, err := decodeLine(d, lg)
				if err != nil {
					return err
				}
				in.Lines = append(in.Lines, ln)
				return nil
			})
		case "discounts":
			return d.Arr(func(d *jx.Decoder) error {
				td, err := decodeTransactionDiscount(d, lg)
				if err != nil {
					return err
				}
				in.Discounts = append(in.Discounts, td)
				return nil
			})
		case "reward_ids":
			return d.Arr(func(d *jx.Decoder) error {
				id, err := d.Str()
				if err != nil {
					return err
				}
				in.RewardIDs = append(in.RewardIDs, id)
				return nil
			})
		case "payments":
			return d.Arr(func(d *jx.Decoder) error {
				p, err := decodePayment(d, lg)
				if err != nil {
					return err
				}
				in.Payments = append(in.Payments, p)
				return nil
			})
		case "refunds":
			return d.Arr(func(d *jx.Decoder) error {
				p, err := decodePayment(d, lg)
				if err != nil {
					return err
				}
				in.Refunds = append(in.Refunds, pricing.Refund(p))
				return nil
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return checkout.CartInput{}, errors.Wrap(err, "decode cart")
	}

	return in, nil
}

func decodeLine(d *jx.Decoder, lg *zap.Logger) (checkout.LineInput, error) {
	var ln checkout.LineInput
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "kind":
			v, err := d.Str()
			ln.Kind = pricing.ItemKind(v)
			return err
		case "reference_id":
			v, err := d.Str()
			ln.ReferenceID = v
			return err
		case "quantity":
			v, err := decodeQuantity(d, lg)
			ln.Quantity = v
			return err
		case "discount":
			disc, err := decodeDiscount(d, lg)
			ln.Discount = disc
			return err
		case "attributes":
			if d.Next() == jx.Null {
				return d.Null()
			}
			attrs := make(map[string]string)
			if err := d.Obj(func(d *jx.Decoder, k string) error {
				v, err := d.Str()
				attrs[k] = v
				return err
			}); err != nil {
				return err
			}
			ln.Attributes = attrs
			return nil
		default:
			return d.Skip()
		}
	})
	return ln, err
}

// decodeDiscount decodes a nullable per-line discount object.
func decodeDiscount(d *jx.Decoder, lg *zap.Logger) (*pricing.Discount, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	var disc pricing.Discount
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "kind":
			v, err := d.Str()
			disc.Kind = pricing.DiscountKind(v)
			return err
		case "value":
			v, err := decodeAmount(d, lg, "discount.value")
			disc.Value = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, err
	}
	return &disc, nil
}

func decodeTransactionDiscount(d *jx.Decoder, lg *zap.Logger) (pricing.TransactionDiscount, error) {
	var td pricing.TransactionDiscount
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "kind":
			v, err := d.Str()
			td.Kind = pricing.DiscountKind(v)
			return err
		case "value":
			v, err := decodeAmount(d, lg, "discounts.value")
			td.Value = v
			return err
		default:
			return d.Skip()
		}
	})
	return td, err
}

func decodePayment(d *jx.Decoder, lg *zap.Logger) (pricing.Payment, error) {
	var p pricing.Payment
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "account_id":
			v, err := d.Str()
			p.AccountID = v
			return err
		case "amount":
			v, err := decodeAmount(d, lg, "payments.amount")
			p.Amount = v
			return err
		case "date":
			v, err := d.Str()
			if err != nil {
				return err
			}
			// A missing or malformed date only loses the timestamp, never
			// the payment itself.
			if t, perr := time.Parse(time.RFC3339, v); perr == nil {
				p.Date = t
			}
			return nil
		default:
			return d.Skip()
		}
	})
	return p, err
}

// decodeAmount reads a monetary value sent either as a JSON number or as a
// decimal string. Malformed values coerce to zero with a warning log.
func decodeAmount(d *jx.Decoder, lg *zap.Logger, field string) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		v, err := decimal.NewFromString(n.String())
		if err != nil {
			lg.Warn("Malformed numeric value coerced to zero",
				zap.String("field", field), zap.String("raw", n.String()))
			return decimal.Zero, nil
		}
		return v, nil
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		if s == "" {
			return decimal.Zero, nil
		}
		v, err := decimal.NewFromString(s)
		if err != nil {
			lg.Warn("Malformed numeric value coerced to zero",
				zap.String("field", field), zap.String("raw", s))
			return decimal.Zero, nil
		}
		return v, nil
	case jx.Null:
		return decimal.Zero, d.Null()
	default:
		if err := d.Skip(); err != nil {
			return decimal.Zero, err
		}
		lg.Warn("Malformed numeric value coerced to zero", zap.String("field", field))
		return decimal.Zero, nil
	}
}

// decodeQuantity reads an integer quantity with the same lenient coercion as
// decodeAmount.
func decodeQuantity(d *jx.Decoder, lg *zap.Logger) (int, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return 0, err
		}
		v, err := n.Int64()
		if err != nil {
			lg.Warn("Malformed numeric value coerced to zero", zap.String("field", "lines.quantity"))
			return 0, nil
		}
		return int(v), nil
	case jx.Null:
		return 0, d.Null()
	default:
		if err := d.Skip(); err != nil {
			return 0, err
		}
		lg.Warn("Malformed numeric value coerced to zero", zap.String("field", "lines.quantity"))
		return 0, nil
	}
}
