package database

import (
	"context"
	"errors"
	"fmt"
	"storefront_server/lib"
	"storefront_server/structs"
	"storefront_server/structs/tables"
	"strings"
	"testing"
	"time"

	"github.com/MonkyMars/gecho"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Connect(&structs.DatabaseConfig{
		Driver:     DriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}, gecho.NewDefaultLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, CreateSchema(context.Background(), db))
	return db
}

func seedCatalog(t *testing.T, db *DB) (*tables.Category, []*tables.Product) {
	t.Helper()
	ctx := context.Background()

	category, err := Query[tables.Category](db).Insert(ctx, &tables.Category{Name: "Beverages"})
	require.NoError(t, err)

	var products []*tables.Product
	for i, name := range []string{"Cola", "Lemonade", "Iced Tea"} {
		p, err := Query[tables.Product](db).Insert(ctx, &tables.Product{
			Name:       name,
			Price:      decimal.New(int64(150+i*100), -2),
			CategoryID: category.ID,
			Image:      "uploads/product/" + strings.ToLower(strings.ReplaceAll(name, " ", "-")) + ".png",
		})
		require.NoError(t, err)
		products = append(products, p)
	}
	return category, products
}

func TestCreateSchemaIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, CreateSchema(context.Background(), db))
}

func TestInsertAssignsID(t *testing.T) {
	db := setupTestDB(t)

	category, err := Query[tables.Category](db).Insert(context.Background(), &tables.Category{Name: "Snacks"})
	require.NoError(t, err)
	assert.NotZero(t, category.ID)
}

func TestQueryFilters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	category, products := seedCatalog(t, db)

	t.Run("where", func(t *testing.T) {
		rows, err := Query[tables.Product](db).Where("category_id", category.ID).All(ctx)
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("comparison", func(t *testing.T) {
		rows, err := Query[tables.Product](db).WhereOp("price", ">=", decimal.RequireFromString("2.50")).All(ctx)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("like is case insensitive", func(t *testing.T) {
		rows, err := Query[tables.Product](db).WhereLike("name", "LEMON").All(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Lemonade", rows[0].Name)
	})

	t.Run("like escapes wildcards", func(t *testing.T) {
		rows, err := Query[tables.Product](db).WhereLike("name", "%").All(ctx)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("in", func(t *testing.T) {
		rows, err := Query[tables.Product](db).
			WhereIn("id", []any{products[0].ID, products[2].ID}).
			OrderBy("id", DESC).
			All(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, products[2].ID, rows[0].ID)
	})

	t.Run("empty in matches nothing", func(t *testing.T) {
		rows, err := Query[tables.Product](db).WhereIn("id", nil).All(ctx)
		require.NoError(t, err)
		assert.Empty(t, rows)

		count, err := Query[tables.Product](db).WhereIn("id", []any{}).Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("relation", func(t *testing.T) {
		p, err := Query[tables.Product](db).Where("id", products[0].ID).With("Category").First(ctx)
		require.NoError(t, err)
		require.NotNil(t, p)
		require.NotNil(t, p.Category)
		assert.Equal(t, "Beverages", p.Category.Name)
	})
}

func TestFirstReturnsNilWhenMissing(t *testing.T) {
	db := setupTestDB(t)

	category, err := FindByID[tables.Category](db, context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, category)
}

func TestUpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	_, products := seedCatalog(t, db)

	affected, err := Query[tables.Product](db).
		Where("id", products[0].ID).
		Update(ctx, map[string]any{"name": "Cola Zero"})
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	p, err := FindByID[tables.Product](db, ctx, products[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Cola Zero", p.Name)

	_, err = Query[tables.Product](db).Update(ctx, map[string]any{"name": "everything"})
	assert.Error(t, err)
	_, err = Query[tables.Product](db).Delete(ctx)
	assert.Error(t, err)

	deleted, err := Query[tables.Product](db).Where("id", products[1].ID).Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	exists, err := Query[tables.Product](db).Where("id", products[1].ID).Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPluck(t *testing.T) {
	db := setupTestDB(t)
	category, products := seedCatalog(t, db)

	ids, err := Pluck[tables.Product, int64](context.Background(),
		Query[tables.Product](db).Where("category_id", category.ID).OrderBy("id", ASC), "id")
	require.NoError(t, err)
	assert.Equal(t, []int64{products[0].ID, products[1].ID, products[2].ID}, ids)
}

func TestPaginate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	seedCatalog(t, db)

	page, err := Paginate(Query[tables.Product](db).OrderBy("id", ASC), ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.Page)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, "Iced Tea", page.Data[0].Name)
}

func TestNormalizePage(t *testing.T) {
	page, size := NormalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, size)

	_, size = NormalizePage(3, 1000)
	assert.Equal(t, MaxPageSize, size)
}

func TestTransactionRollsBack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := Transaction(db, ctx, func(tx bun.Tx) error {
		if _, err := Query[tables.Category](tx).Insert(ctx, &tables.Category{Name: "Ghost"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	count, err := Query[tables.Category](db).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTransactionWithResult(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	category, err := TransactionWithResult(db, ctx, func(tx bun.Tx) (*tables.Category, error) {
		return Query[tables.Category](tx).Insert(ctx, &tables.Category{Name: "Dairy"})
	})
	require.NoError(t, err)
	assert.NotZero(t, category.ID)
}

func TestSchemaEnforcesConstraints(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("missing category", func(t *testing.T) {
		_, err := Query[tables.Product](db).Insert(ctx, &tables.Product{
			Name: "Orphan", CategoryID: 999, Image: "uploads/product/orphan.png",
		})
		require.Error(t, err)
		assert.True(t, lib.IsForeignKeyViolation(lib.MapDBError(err)))
	})

	t.Run("duplicate email", func(t *testing.T) {
		customer := func() *tables.Customer {
			return &tables.Customer{FirstName: "A", LastName: "B", Email: "a@b.com", Password: "x"}
		}
		_, err := Query[tables.Customer](db).Insert(ctx, customer())
		require.NoError(t, err)
		_, err = Query[tables.Customer](db).Insert(ctx, customer())
		require.Error(t, err)
		assert.True(t, lib.IsUniqueViolation(lib.MapDBError(err)))
	})
}

func TestSchemaCascadesDeletes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	category, products := seedCatalog(t, db)

	customer, err := Query[tables.Customer](db).Insert(ctx, &tables.Customer{
		FirstName: "A", LastName: "B", Email: "a@b.com", Password: "x",
	})
	require.NoError(t, err)

	_, err = Query[tables.Order](db).Insert(ctx, &tables.Order{
		ProductID: products[0].ID, CustomerID: customer.ID, Quantity: 1, Date: time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = db.NewInsert().Model(&tables.Order{
		ProductID: products[1].ID, CustomerID: customer.ID, Quantity: 0, Date: time.Now().UTC(),
	}).Exec(ctx)
	assert.Error(t, err, "quantity below one is rejected by the schema")

	_, err = Query[tables.Category](db).Where("id", category.ID).Delete(ctx)
	require.NoError(t, err)

	productCount, err := Query[tables.Product](db).Count(ctx)
	require.NoError(t, err)
	orderCount, err := Query[tables.Order](db).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, productCount)
	assert.Zero(t, orderCount)
}

func TestDropSchema(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, DropSchema(ctx, db))
	_, err := Query[tables.Category](db).Count(ctx)
	assert.Error(t, err)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"connection class", &pgconn.PgError{Code: "08006"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"network", fmt.Errorf("dial: %w", errors.New("connection refused")), true},
		{"plain", errors.New("constraint failed"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestRetryWithBackoff(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2, EnableRetry: true}

	t.Run("retries transient errors", func(t *testing.T) {
		attempts := 0
		err := RetryWithBackoff(context.Background(), cfg, func() error {
			attempts++
			if attempts < 3 {
				return errors.New("connection reset by peer")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("stops on permanent errors", func(t *testing.T) {
		attempts := 0
		permanent := &pgconn.PgError{Code: "23503"}
		err := RetryWithBackoff(context.Background(), cfg, func() error {
			attempts++
			return permanent
		})
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, attempts)
	})
}
