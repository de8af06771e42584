package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/migios-apps/migios-pos/internal/domain/checkout"
	"github.com/migios-apps/migios-pos/internal/pricing"
)

const (
	getSettingsSQL = `SELECT tax_mode,
		rounding_enabled, rounding_step, rounding_direction,
		loyalty_enabled, loyalty_earn_while_redeeming, loyalty_earn_by_total_order,
		loyalty_min_order_total, loyalty_points_per_threshold, loyalty_multiply_points
		FROM club_settings WHERE id = 1`

	listTaxRulesSQL = `SELECT id, category, name, rate_percent
		FROM tax_rules WHERE active = TRUE ORDER BY id`
)

var _ checkout.SettingsProvider = (*SettingsRepository)(nil)

// SettingsRepository loads the club's pricing configuration and active tax
// rules. The full settings row never leaves this package; only the narrow
// pricing.Config crosses into the engine.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository returns a SettingsRepository that uses the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Load reads the settings row and the active tax rules.
func (r *SettingsRepository) Load(ctx context.Context) (pricing.Config, []pricing.TaxRule, error) {
	var (
		cfg       pricing.Config
		taxMode   string
		direction string
	)
	err := r.pool.QueryRow(ctx, getSettingsSQL).Scan(
		&taxMode,
		&cfg.Rounding.Enabled, &cfg.Rounding.Step, &direction,
		&cfg.Loyalty.Enabled, &cfg.Loyalty.EarnWhileRedeeming, &cfg.Loyalty.EarnByTotalOrder,
		&cfg.Loyalty.MinOrderTotal, &cfg.Loyalty.PointsPerThreshold, &cfg.Loyalty.MultiplyPoints,
	)
	if err != nil {
		return pricing.Config{}, nil, fmt.Errorf("loading club settings: %w", err)
	}
	cfg.TaxMode = pricing.TaxMode(taxMode)
	cfg.Rounding.Direction = pricing.RoundingDirection(direction)

	rows, err := r.pool.Query(ctx, listTaxRulesSQL)
	if err != nil {
		return pricing.Config{}, nil, fmt.Errorf("listing tax rules: %w", err)
	}
	rules, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (pricing.TaxRule, error) {
		var tr pricing.TaxRule
		err := row.Scan(&tr.ID, &tr.Category, &tr.Name, &tr.RatePercent)
		return tr, err
	})
	if err != nil {
		return pricing.Config{}, nil, fmt.Errorf("collecting tax rules: %w", err)
	}

	return cfg, rules, nil
}
