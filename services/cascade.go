package services

import (
	"context"
	"storefront_server/database"
	"storefront_server/structs/tables"

	"github.com/uptrace/bun"
)

// Deletes remove dependent rows explicitly, children first, inside the caller's
// transaction. The schema's ON DELETE CASCADE covers rows inserted concurrently.

func deleteProductsTx(ctx context.Context, tx bun.Tx, productIDs []int64) (products, orders int, err error) {
	if len(productIDs) == 0 {
		return 0, 0, nil
	}
	ids := anySlice(productIDs)

	orders, err = database.Query[tables.Order](tx).WhereIn("product_id", ids).Delete(ctx)
	if err != nil {
		return 0, 0, err
	}
	products, err = database.Query[tables.Product](tx).WhereIn("id", ids).Delete(ctx)
	if err != nil {
		return 0, 0, err
	}
	return products, orders, nil
}

func deleteCategoryTx(ctx context.Context, tx bun.Tx, id int64) (*DeleteResult, []int64, error) {
	productIDs, err := database.Pluck[tables.Product, int64](ctx,
		database.Query[tables.Product](tx).Where("category_id", id), "id")
	if err != nil {
		return nil, nil, err
	}

	result := &DeleteResult{}
	result.Products, result.Orders, err = deleteProductsTx(ctx, tx, productIDs)
	if err != nil {
		return nil, nil, err
	}

	result.Categories, err = database.Query[tables.Category](tx).Where("id", id).Delete(ctx)
	if err != nil {
		return nil, nil, err
	}
	return result, productIDs, nil
}

func deleteCustomerTx(ctx context.Context, tx bun.Tx, id int64) (*DeleteResult, error) {
	result := &DeleteResult{}

	var err error
	result.Orders, err = database.Query[tables.Order](tx).Where("customer_id", id).Delete(ctx)
	if err != nil {
		return nil, err
	}
	result.Customers, err = database.Query[tables.Customer](tx).Where("id", id).Delete(ctx)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func anySlice[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
