package database

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Page size bounds applied by Paginate.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Transaction runs fn inside one database transaction. The transaction commits when fn
// returns nil and rolls back otherwise. Transient failures to begin or commit are retried
// by re-running the whole transaction.
func Transaction(db bun.IDB, ctx context.Context, fn func(tx bun.Tx) error) error {
	return WithRetry(ctx, func() error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return fn(tx)
		})
	})
}

// TransactionWithResult is Transaction for callbacks that produce a value
func TransactionWithResult[T any](db bun.IDB, ctx context.Context, fn func(tx bun.Tx) (T, error)) (T, error) {
	var result T
	err := Transaction(db, ctx, func(tx bun.Tx) error {
		var err error
		result, err = fn(tx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Pagination represents pagination parameters
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// PaginationResult wraps paginated data with metadata
type PaginationResult[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NormalizePage clamps page and pageSize to the accepted range
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Paginate applies pagination to a query builder and returns results with metadata
func Paginate[T any](q *QueryBuilder[T], ctx context.Context, page, pageSize int) (*PaginationResult[T], error) {
	page, pageSize = NormalizePage(page, pageSize)

	total, err := q.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	data, err := q.Limit(pageSize).Offset((page - 1) * pageSize).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get paginated data: %w", err)
	}

	return &PaginationResult[T]{
		Data: data,
		Pagination: Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	}, nil
}

// FindByID returns the record with the given primary key, or nil when it does not exist
func FindByID[T any](db bun.IDB, ctx context.Context, id any) (*T, error) {
	return Query[T](db).Where("id", id).First(ctx)
}

// Pluck returns a single column of every matching record
func Pluck[T any, R any](ctx context.Context, q *QueryBuilder[T], column string) ([]R, error) {
	start := time.Now()
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	results := []R{}
	if q.hasEmptyIn() {
		return results, nil
	}

	err := q.run(ctx, func() error {
		results = results[:0]
		query := q.db.NewSelect().Model((*T)(nil)).ColumnExpr("?TableAlias.?", bun.Ident(column))
		return q.applySelect(query, true).Scan(ctx, &results)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pluck %s: %w (took %v)", column, err, time.Since(start))
	}

	return results, nil
}
