package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"shop-core/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, a connection pool and the
// schema from the migration file.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema applies the migration so the tests run against the same
// schema as production.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	schema, err := os.ReadFile("../../migrations/0001_init.sql")
	if err != nil {
		t.Fatalf("failed to read migration file: %v", err)
	}

	if _, err := pool.Exec(context.Background(), string(schema)); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// CleanupDB clears all data between tests, children first.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{
		"payment_transactions",
		"discount_usages",
		"discount_restrictions",
		"discount_codes",
		"inventory_transactions",
		"order_items",
		"orders",
		"cart_items",
		"user_addresses",
		"shipping_methods",
		"variants",
	}
	for _, table := range tables {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// SeedVariant inserts a variant with the given stock and prices.
func SeedVariant(t *testing.T, pool *pgxpool.Pool, stock int, purchasePrice, sellingPrice int64) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO variants (id, sku, purchase_price, selling_price, stock, is_unlimited)
		 VALUES ($1, $2, $3, $4, $5, FALSE)`,
		id, "SKU-"+id.String()[:8], purchasePrice, sellingPrice, stock,
	)
	if err != nil {
		t.Fatalf("failed to seed variant: %v", err)
	}
	return id
}

// SeedShippingMethod inserts an active shipping method.
func SeedShippingMethod(t *testing.T, pool *pgxpool.Pool, cost int64) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO shipping_methods (id, name, cost, is_active) VALUES ($1, 'Standard', $2, TRUE)`,
		id, cost,
	)
	if err != nil {
		t.Fatalf("failed to seed shipping method: %v", err)
	}
	return id
}

// SeedUserAddress inserts an address owned by the given user.
func SeedUserAddress(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO user_addresses (id, user_id) VALUES ($1, $2)`, id, userID,
	)
	if err != nil {
		t.Fatalf("failed to seed user address: %v", err)
	}
	return id
}

// SeedCartItem puts a variant into the user's cart.
func SeedCartItem(t *testing.T, pool *pgxpool.Pool, userID, variantID uuid.UUID, quantity int) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO cart_items (id, user_id, variant_id, quantity) VALUES ($1, $2, $3, $4)`,
		uuid.New(), userID, variantID, quantity,
	)
	if err != nil {
		t.Fatalf("failed to seed cart item: %v", err)
	}
}

// SeedDiscountCode inserts a discount code.
func SeedDiscountCode(t *testing.T, pool *pgxpool.Pool, d model.DiscountCode) uuid.UUID {
	t.Helper()

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO discount_codes (id, code, percentage, max_discount_amount, min_order_amount, usage_limit, used_count, is_active, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.Code, d.Percentage, d.MaxDiscountAmount, d.MinOrderAmount, d.UsageLimit, d.UsedCount, d.IsActive, d.ExpiresAt,
	)
	if err != nil {
		t.Fatalf("failed to seed discount code: %v", err)
	}
	return d.ID
}
