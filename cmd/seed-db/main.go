// Command seed-db populates a development database with demo users,
// API keys, menu items, and coupons.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Amoghsy/CampoBite/internal/postgres"
)

type seedUser struct {
	name   string
	email  string
	role   string
	apiKey string
}

type seedMenuItem struct {
	name        string
	description string
	category    string
	price       int64 // minor units
	prepMinutes int
	stock       int
}

type seedCoupon struct {
	code       string
	percentage int
	expiryDays int // 0 means no expiry
}

var users = []seedUser{
	{name: "Canteen Admin", email: "admin@campobite.local", role: "admin", apiKey: "dev-admin-key"},
	{name: "Asha Student", email: "asha@campobite.local", role: "customer", apiKey: "dev-customer-key"},
}

var menuItems = []seedMenuItem{
	{name: "Masala Dosa", description: "Crisp dosa with potato filling", category: "South Indian", price: 6000, prepMinutes: 10, stock: 50},
	{name: "Veg Thali", description: "Rice, dal, two sabzis, roti", category: "Meals", price: 9000, prepMinutes: 15, stock: 40},
	{name: "Samosa", description: "Fried pastry with spiced potatoes", category: "Snacks", price: 1500, prepMinutes: 5, stock: 100},
	{name: "Paneer Roll", description: "Paneer tikka wrap", category: "Snacks", price: 5000, prepMinutes: 8, stock: 60},
	{name: "Filter Coffee", description: "South Indian filter coffee", category: "Beverages", price: 2000, prepMinutes: 3, stock: 200},
	{name: "Masala Chai", description: "Spiced milk tea", category: "Beverages", price: 1500, prepMinutes: 3, stock: 200},
}

var coupons = []seedCoupon{
	{code: "WELCOME10", percentage: 10},
	{code: "CAMPUS25", percentage: 25, expiryDays: 30},
	{code: "FRESHER50", percentage: 50, expiryDays: 7},
}

func main() {
	var (
		databaseURL  string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or CAMPOBITE_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("CAMPOBITE_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedUsers(ctx, pool, pepper); err != nil {
		return errors.Wrap(err, "seed users")
	}
	if err := seedMenu(ctx, pool); err != nil {
		return errors.Wrap(err, "seed menu")
	}
	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, pepper string) error {
	for _, u := range users {
		var userID int64
		err := pool.QueryRow(ctx, `
			INSERT INTO users (name, email, role)
			VALUES ($1, $2, $3)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role
			RETURNING id`,
			u.name, u.email, u.role,
		).Scan(&userID)
		if err != nil {
			return errors.Wrapf(err, "upsert user %s", u.email)
		}

		_, err = pool.Exec(ctx, `
			INSERT INTO api_keys (id, key_hash, user_id, name)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (key_hash) DO UPDATE SET user_id = EXCLUDED.user_id, name = EXCLUDED.name`,
			uuid.New(), hashKey(u.apiKey, pepper), userID, u.name+" key",
		)
		if err != nil {
			return errors.Wrapf(err, "upsert api key for %s", u.email)
		}

		slog.Info("seeded user",
			slog.String("email", u.email),
			slog.String("role", u.role),
			slog.String("api_key", u.apiKey),
		)
	}
	return nil
}

func seedMenu(ctx context.Context, pool *pgxpool.Pool) error {
	for _, item := range menuItems {
		_, err := pool.Exec(ctx, `
			INSERT INTO menu_items (name, description, category, price, available, preparation_time, stock_quantity)
			SELECT $1, $2, $3, $4, TRUE, $5, $6
			WHERE NOT EXISTS (SELECT 1 FROM menu_items WHERE name = $1)`,
			item.name, item.description, item.category, item.price, item.prepMinutes, item.stock,
		)
		if err != nil {
			return errors.Wrapf(err, "insert menu item %s", item.name)
		}
	}

	slog.Info("seeded menu items", slog.Int("count", len(menuItems)))
	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	for _, c := range coupons {
		var expiry *time.Time
		if c.expiryDays > 0 {
			d := time.Now().AddDate(0, 0, c.expiryDays)
			expiry = &d
		}

		_, err := pool.Exec(ctx, `
			INSERT INTO coupons (code, discount_percentage, expiry_date, active)
			VALUES ($1, $2, $3, TRUE)
			ON CONFLICT (code) DO UPDATE
			SET discount_percentage = EXCLUDED.discount_percentage,
			    expiry_date = EXCLUDED.expiry_date,
			    active = TRUE`,
			c.code, c.percentage, expiry,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}

		slog.Info("seeded coupon", slog.String("code", c.code), slog.Int("percentage", c.percentage))
	}
	return nil
}

func hashKey(key, pepper string) string {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}
