package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/migios-apps/migios-pos/internal/domain/checkout"
)

const getPointsBalanceSQL = `SELECT points_balance FROM members WHERE id = $1`

// ErrMemberNotFound is returned when a member id does not resolve.
var ErrMemberNotFound = errors.New("member not found")

var _ checkout.MemberRepository = (*MemberRepository)(nil)

// MemberRepository provides member loyalty balances backed by PostgreSQL.
type MemberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository returns a MemberRepository that uses the given pool.
func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// PointsBalance returns the member's current loyalty point balance.
func (r *MemberRepository) PointsBalance(ctx context.Context, memberID string) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx, getPointsBalanceSQL, memberID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrMemberNotFound
		}
		return 0, fmt.Errorf("getting points balance for member %q: %w", memberID, err)
	}
	return balance, nil
}
