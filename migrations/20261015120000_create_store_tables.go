package migrations

import (
	"context"
	"storefront_server/database"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		return database.CreateSchema(ctx, db)
	}, func(ctx context.Context, db *bun.DB) error {
		return database.DropSchema(ctx, db)
	})
}
