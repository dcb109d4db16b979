package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Table names in dependency order: every table only references tables before it.
var schemaTables = []string{"categories", "customers", "products", "orders"}

// schemaStatements returns the DDL for the store. The schema is stated here, not derived
// from the models, and is identical across backends apart from the key column.
func schemaStatements(name dialect.Name) []string {
	id := "BIGSERIAL PRIMARY KEY"
	if name == dialect.SQLite {
		id = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS categories (
	id %s,
	name VARCHAR(50) NOT NULL
)`, id),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS customers (
	id %s,
	first_name VARCHAR(255) NOT NULL,
	last_name VARCHAR(255) NOT NULL,
	phone VARCHAR(32),
	email VARCHAR(100) NOT NULL,
	password VARCHAR(128) NOT NULL,
	CONSTRAINT customers_email_key UNIQUE (email)
)`, id),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS products (
	id %s,
	name VARCHAR(100) NOT NULL,
	price NUMERIC(6, 2) NOT NULL DEFAULT 0 CONSTRAINT products_price_check CHECK (price >= 0),
	category_id BIGINT NOT NULL CONSTRAINT products_category_id_fkey
		REFERENCES categories (id) ON DELETE CASCADE,
	description VARCHAR(200),
	image VARCHAR(100) NOT NULL
)`, id),
		`CREATE INDEX IF NOT EXISTS products_category_id_idx ON products (category_id)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS orders (
	id %s,
	product_id BIGINT NOT NULL CONSTRAINT orders_product_id_fkey
		REFERENCES products (id) ON DELETE CASCADE,
	customer_id BIGINT NOT NULL CONSTRAINT orders_customer_id_fkey
		REFERENCES customers (id) ON DELETE CASCADE,
	quantity INTEGER NOT NULL DEFAULT 1 CONSTRAINT orders_quantity_check CHECK (quantity >= 1),
	address VARCHAR(255) NOT NULL DEFAULT '',
	phone VARCHAR(32),
	"date" DATE NOT NULL,
	status BOOLEAN NOT NULL DEFAULT FALSE
)`, id),
		`CREATE INDEX IF NOT EXISTS orders_product_id_idx ON orders (product_id)`,
		`CREATE INDEX IF NOT EXISTS orders_customer_id_idx ON orders (customer_id)`,
	}
}

// CreateSchema creates every store table and index that does not exist yet
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, stmt := range schemaStatements(db.Dialect().Name()) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// DropSchema drops the store tables in reverse dependency order
func DropSchema(ctx context.Context, db bun.IDB) error {
	for i := len(schemaTables) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Table(schemaTables[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", schemaTables[i], err)
		}
	}
	return nil
}
