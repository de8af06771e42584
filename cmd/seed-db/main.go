package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/migios-apps/migios-pos/internal/repository"
)

type catalogItemJSON struct {
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	Name       string            `json:"name"`
	Category   string            `json:"category"`
	Price      decimal.Decimal   `json:"price"`
	Attributes map[string]string `json:"attributes"`
	Loyalty    *struct {
		Points      int64  `json:"points"`
		ExpiryKind  string `json:"expiry_kind"`
		ExpiryValue int    `json:"expiry_value"`
	} `json:"loyalty"`
}

func main() {
	var (
		databaseURL  string
		catalogFile  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.StringVar(&apiKey, "api-key", "", "register API key to seed (or POS_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or POS_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("POS_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or POS_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("POS_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCatalog(ctx, pool, catalogFile); err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	if err := seedTaxRules(ctx, pool); err != nil {
		return errors.Wrap(err, "seed tax rules")
	}
	if err := seedRewards(ctx, pool); err != nil {
		return errors.Wrap(err, "seed rewards")
	}
	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

const upsertCatalogItemSQL = `INSERT INTO catalog_items
	(id, kind, name, category, price, loyalty_points, loyalty_expiry_kind, loyalty_expiry_value, attributes, active)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
	ON CONFLICT (id) DO UPDATE SET
		kind = EXCLUDED.kind, name = EXCLUDED.name, category = EXCLUDED.category,
		price = EXCLUDED.price, loyalty_points = EXCLUDED.loyalty_points,
		loyalty_expiry_kind = EXCLUDED.loyalty_expiry_kind,
		loyalty_expiry_value = EXCLUDED.loyalty_expiry_value,
		attributes = EXCLUDED.attributes, active = TRUE`

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, catalogFile string) error {
	slog.Info("reading catalog file", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}

	var items []catalogItemJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	slog.Info("upserting catalog items", slog.Int("count", len(items)))

	for _, it := range items {
		var (
			points      *int64
			expiryKind  *string
			expiryValue *int
		)
		if it.Loyalty != nil {
			points = &it.Loyalty.Points
			expiryKind = &it.Loyalty.ExpiryKind
			expiryValue = &it.Loyalty.ExpiryValue
		}
		attrs, err := json.Marshal(it.Attributes)
		if err != nil {
			return errors.Wrapf(err, "marshal attributes for %s", it.ID)
		}
		if it.Attributes == nil {
			attrs = []byte("{}")
		}

		if _, err := pool.Exec(ctx, upsertCatalogItemSQL,
			it.ID, it.Kind, it.Name, it.Category, it.Price,
			points, expiryKind, expiryValue, attrs,
		); err != nil {
			return errors.Wrapf(err, "upsert catalog item %s", it.ID)
		}

		slog.Info("upserted catalog item", slog.String("id", it.ID), slog.String("name", it.Name))
	}

	return nil
}

const upsertTaxRuleSQL = `INSERT INTO tax_rules (id, category, name, rate_percent, active)
	VALUES ($1, $2, $3, $4, TRUE)
	ON CONFLICT (id) DO UPDATE SET
		category = EXCLUDED.category, name = EXCLUDED.name,
		rate_percent = EXCLUDED.rate_percent, active = TRUE`

func seedTaxRules(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding tax rules")

	rules := []struct {
		id, category, name string
		rate               decimal.Decimal
	}{
		{"vat-membership", "membership", "VAT", decimal.NewFromInt(10)},
		{"vat-product", "product", "VAT", decimal.NewFromInt(11)},
	}
	for _, r := range rules {
		if _, err := pool.Exec(ctx, upsertTaxRuleSQL, r.id, r.category, r.name, r.rate); err != nil {
			return errors.Wrapf(err, "upsert tax rule %s", r.id)
		}
		slog.Info("upserted tax rule", slog.String("id", r.id))
	}
	return nil
}

const upsertRewardSQL = `INSERT INTO rewards
	(id, name, kind, points_required, active, discount_kind, discount_value, granted_items)
	VALUES ($1, $2, $3, $4, TRUE, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, kind = EXCLUDED.kind,
		points_required = EXCLUDED.points_required, active = TRUE,
		discount_kind = EXCLUDED.discount_kind, discount_value = EXCLUDED.discount_value,
		granted_items = EXCLUDED.granted_items`

func seedRewards(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding rewards")

	type rewardSeed struct {
		id, name, kind string
		points         int64
		discountKind   *string
		discountValue  *decimal.Decimal
		grantedItems   string
	}

	percent := "percent"
	tenPct := decimal.NewFromInt(10)
	rewards := []rewardSeed{
		{
			id: "rw-10pct", name: "10% off next visit", kind: "discount",
			points: 100, discountKind: &percent, discountValue: &tenPct,
			grantedItems: "[]",
		},
		{
			id: "rw-free-bar", name: "Free protein bar", kind: "free_item",
			points: 50,
			grantedItems: `[{"kind":"product","reference_id":"prod-protein-bar",` +
				`"name":"Protein Bar","category":"product","quantity":1,"unit_price":"0"}]`,
		},
	}
	for _, r := range rewards {
		if _, err := pool.Exec(ctx, upsertRewardSQL,
			r.id, r.name, r.kind, r.points, r.discountKind, r.discountValue, []byte(r.grantedItems),
		); err != nil {
			return errors.Wrapf(err, "upsert reward %s", r.id)
		}
		slog.Info("upserted reward", slog.String("id", r.id), slog.String("name", r.name))
	}
	return nil
}

const upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, register, active)
	VALUES ($1, $2, $3, $4, TRUE)
	ON CONFLICT (id) DO UPDATE SET
		key_hash = EXCLUDED.key_hash, name = EXCLUDED.name,
		register = EXCLUDED.register, active = TRUE`

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding default register API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	if _, err := pool.Exec(ctx, upsertAPIKeySQL,
		"default", keyHash, "Default register key", "register-1",
	); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"))
	return nil
}
