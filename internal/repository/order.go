package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/migios-apps/migios-pos/internal/domain/checkout"
)

const (
	createOrderSQL = `INSERT INTO orders (id, member_id, refund_of, lines, payments,
		subtotal, discount_total, tax_total, grand_total, rounding_amount, balance,
		loyalty_points, created_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, '')::uuid, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	getOrderByIDSQL = `SELECT id, COALESCE(member_id, ''), COALESCE(refund_of::text, ''),
		lines, payments, subtotal, discount_total, tax_total, grand_total,
		rounding_amount, balance, loyalty_points, created_at
		FROM orders WHERE id = $1`
)

var _ checkout.Repository = (*OrderRepository)(nil)

// OrderRepository implements checkout.Repository backed by PostgreSQL.
// Processed lines and payments are serialized to JSONB; the reconciled totals
// are stored as NUMERIC columns for reporting.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a submitted order.
func (r *OrderRepository) Create(ctx context.Context, o *checkout.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("marshaling order lines: %w", err)
	}
	paymentsJSON, err := json.Marshal(o.Payments)
	if err != nil {
		return fmt.Errorf("marshaling order payments: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.MemberID, o.RefundOf, linesJSON, paymentsJSON,
		o.Subtotal, o.DiscountTotal, o.TaxTotal, o.GrandTotal,
		o.RoundingAmount, o.Balance, o.LoyaltyPoints, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID loads a submitted order with its processed lines.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*checkout.Order, error) {
	var (
		o            checkout.Order
		linesJSON    []byte
		paymentsJSON []byte
	)
	err := r.pool.QueryRow(ctx, getOrderByIDSQL, id).Scan(
		&o.ID, &o.MemberID, &o.RefundOf, &linesJSON, &paymentsJSON,
		&o.Subtotal, &o.DiscountTotal, &o.TaxTotal, &o.GrandTotal,
		&o.RoundingAmount, &o.Balance, &o.LoyaltyPoints, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &checkout.OrderNotFoundError{OrderID: id}
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return nil, fmt.Errorf("unmarshaling lines for order %q: %w", id, err)
	}
	if len(paymentsJSON) > 0 {
		if err := json.Unmarshal(paymentsJSON, &o.Payments); err != nil {
			return nil, fmt.Errorf("unmarshaling payments for order %q: %w", id, err)
		}
	}
	return &o, nil
}
