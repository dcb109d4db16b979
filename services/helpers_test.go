package services

import (
	"context"
	"fmt"
	"storefront_server/database"
	"storefront_server/structs"
	"storefront_server/structs/tables"
	"strings"
	"testing"
	"time"

	"github.com/MonkyMars/gecho"
	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	cfg   *structs.Config
	db    *database.DB
	sm    *ServiceManager
	redis *miniredis.Miniredis
}

func testConfig() *structs.Config {
	return &structs.Config{
		App:      &structs.AppConfig{AppName: "Storefront", Environment: "test"},
		Database: &structs.DatabaseConfig{Driver: database.DriverSQLite},
		// Cheap parameters keep hashing fast in tests
		Password: &structs.ArgonParams{Memory: 1024, Time: 1, Threads: 1, KeyLen: 32, SaltLen: 16},
		Cache:    &structs.CacheConfig{},
		Catalog:  &structs.CatalogConfig{ImageUploadDir: "uploads/product/", DefaultPhoneRegion: "NL"},
	}
}

// setupServices wires every service against a fresh in-memory SQLite database and,
// when withCache is set, a miniredis instance.
func setupServices(t *testing.T, withCache bool) *testEnv {
	t.Helper()

	cfg := testConfig()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg.Database.SQLitePath = fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	env := &testEnv{cfg: cfg}
	if withCache {
		env.redis = miniredis.RunT(t)
		cfg.Cache = &structs.CacheConfig{
			Enabled:     true,
			Address:     env.redis.Addr(),
			ProductTTL:   time.Minute,
			CategoryTTL:  time.Minute,
			TombstoneTTL: 5 * time.Second,
		}
	}

	logger := gecho.NewDefaultLogger()
	db, err := database.Connect(cfg.Database, logger)
	require.NoError(t, err)
	require.NoError(t, database.CreateSchema(context.Background(), db))

	env.db = db
	env.sm = NewServiceManager(logger, cfg, db)
	t.Cleanup(func() {
		_ = env.sm.Close()
		_ = db.Close()
	})
	return env
}

func (e *testEnv) createCategory(t *testing.T, name string) *tables.Category {
	t.Helper()
	c, err := e.sm.CategoryService.CreateCategory(context.Background(), &structs.CreateCategoryRequest{Name: name})
	require.NoError(t, err)
	return c
}

func (e *testEnv) createProduct(t *testing.T, name, price string, categoryID int64) *tables.Product {
	t.Helper()
	p, err := e.sm.ProductService.CreateProduct(context.Background(), &structs.CreateProductRequest{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		CategoryID: categoryID,
		Image:      strings.ToLower(strings.ReplaceAll(name, " ", "-")) + ".png",
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) createCustomer(t *testing.T, email string) *tables.Customer {
	t.Helper()
	c, err := e.sm.CustomerService.CreateCustomer(context.Background(), &structs.CreateCustomerRequest{
		FirstName: "A",
		LastName:  "B",
		Email:     email,
		Password:  "secret123",
	})
	require.NoError(t, err)
	return c
}

func (e *testEnv) createOrder(t *testing.T, productID, customerID int64) *tables.Order {
	t.Helper()
	o, err := e.sm.OrderService.CreateOrder(context.Background(), &structs.CreateOrderRequest{
		ProductID:  productID,
		CustomerID: customerID,
	})
	require.NoError(t, err)
	return o
}

func (e *testEnv) count(t *testing.T, table string) int {
	t.Helper()
	n, err := e.db.NewSelect().Table(table).Count(context.Background())
	require.NoError(t, err)
	return n
}

// cached reports whether key holds a live entry rather than nothing or a tombstone
func (e *testEnv) cached(key string) bool {
	v, err := e.redis.Get(key)
	return err == nil && v != tombstoneValue
}

func ptr[T any](v T) *T {
	return &v
}
